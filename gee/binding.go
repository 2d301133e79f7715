package gee

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// maxBodyBytes 限制 JSON 请求体大小。
const maxBodyBytes = 1 << 20

// ShouldBindJSON 只解析一个 JSON 值；未知字段、空 body、多余内容都算错误。
func (c *Context) ShouldBindJSON(dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(c.Writer, c.Req.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain only one JSON value")
	}
	return nil
}

// BindJSON 解析失败时直接返回 400 并终止链。
func (c *Context) BindJSON(dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.AbortWithError(http.StatusBadRequest, "invalid json: "+err.Error())
		return err
	}
	return nil
}
