package utils

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// MaxHeaderValueLength HTTP头部值最大长度 (8KB)
	MaxHeaderValueLength = 8192
)

var (
	// ForbiddenHeaders 禁止配置的头部 (由浏览器管理)
	ForbiddenHeaders = []string{
		"Host",
		"Content-Length",
		"Transfer-Encoding",
		"Connection",
		"Cookie", // Cookie 通过 browser.cookies 注入
	}

	headerNameRegex  = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
	headerValueRegex = regexp.MustCompile(`^[\x20-\x7E\t]*$`)
)

// HeaderValidator 校验注入浏览器的额外请求头
type HeaderValidator struct {
	forbidden map[string]bool
}

// NewHeaderValidator 创建验证器
func NewHeaderValidator() *HeaderValidator {
	forbidden := make(map[string]bool, len(ForbiddenHeaders))
	for _, h := range ForbiddenHeaders {
		forbidden[strings.ToLower(h)] = true
	}
	return &HeaderValidator{forbidden: forbidden}
}

// ValidateHeader 验证头部名称+值
func (hv *HeaderValidator) ValidateHeader(name, value string) error {
	if hv.forbidden[strings.ToLower(name)] {
		return fmt.Errorf("头部 '%s' 由浏览器管理,不允许自定义", name)
	}
	if name == "" || !headerNameRegex.MatchString(name) {
		return fmt.Errorf("头部名称 '%s' 包含非法字符 (仅允许字母、数字和连字符)", name)
	}
	if len(value) > MaxHeaderValueLength {
		return fmt.Errorf("头部 '%s' 的值过长: %d 字节 (最大 %d)", name, len(value), MaxHeaderValueLength)
	}
	if !headerValueRegex.MatchString(value) {
		return fmt.Errorf("头部 '%s' 的值包含非法字符 (仅允许可打印ASCII字符)", name)
	}
	return nil
}

// Validate 验证全部头部,返回第一个错误
func (hv *HeaderValidator) Validate(headers map[string]string) error {
	for name, value := range headers {
		if err := hv.ValidateHeader(name, value); err != nil {
			return err
		}
	}
	return nil
}
