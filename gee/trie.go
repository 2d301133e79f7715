package gee

import "strings"

// node 是路由前缀树的一个节点，一层对应路径的一段。
//
// 匹配顺序：静态段优先于 :param，:param 优先于 *catchall。
// 因此 /links/search 与 /links/:code 可以同时注册。
type node struct {
	pattern  string // 非空表示这里是一条完整路由的终点
	part     string
	children []*node
	wild     bool // part 以 ':' 或 '*' 开头
}

func (n *node) child(part string) *node {
	for _, c := range n.children {
		if c.part == part {
			return c
		}
	}
	return nil
}

func (n *node) insert(pattern string, parts []string, depth int) {
	if depth == len(parts) {
		n.pattern = pattern
		return
	}
	part := parts[depth]
	c := n.child(part)
	if c == nil {
		c = &node{part: part, wild: part[0] == ':' || part[0] == '*'}
		n.children = append(n.children, c)
	}
	c.insert(pattern, parts, depth+1)
}

func (n *node) search(parts []string, depth int) *node {
	if depth == len(parts) || strings.HasPrefix(n.part, "*") {
		if n.pattern == "" {
			return nil
		}
		return n
	}
	part := parts[depth]

	// 先试静态段
	for _, c := range n.children {
		if !c.wild && c.part == part {
			if found := c.search(parts, depth+1); found != nil {
				return found
			}
		}
	}
	for _, c := range n.children {
		if c.wild && c.part[0] == ':' {
			if found := c.search(parts, depth+1); found != nil {
				return found
			}
		}
	}
	for _, c := range n.children {
		if c.wild && c.part[0] == '*' {
			if found := c.search(parts, depth+1); found != nil {
				return found
			}
		}
	}
	return nil
}
