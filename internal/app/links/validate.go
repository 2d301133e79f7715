package links

import (
	"fmt"
	"strings"
)

// ValidateURL 只做最小校验：original_url 允许任意字符串（包括纯空白），只拒绝空串。
func ValidateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: original_url is empty", ErrInvalidInput)
	}
	return nil
}

// ValidateAlias 校验自定义短码。
//
// 除唯一性外不做格式限制，只拒绝两类永远无法通过 /links/{code} 访问到的值：
// 空串和包含 "/" 的串。
func ValidateAlias(alias string) error {
	if strings.TrimSpace(alias) == "" {
		return fmt.Errorf("%w: custom_alias is empty", ErrInvalidInput)
	}
	if strings.Contains(alias, "/") {
		return fmt.Errorf("%w: custom_alias must not contain '/'", ErrInvalidInput)
	}
	return nil
}
