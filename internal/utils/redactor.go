package utils

import (
	"sort"
	"strings"
)

var (
	// SensitiveKeywords 敏感名称关键字 (用于脱敏)
	SensitiveKeywords = []string{
		"authorization",
		"token",
		"key",
		"secret",
		"password",
		"credential",
		"sessdata",
		"bili_jct",
		"cookie",
	}
)

// IsSensitive 根据名称关键字判断是否需要脱敏
func IsSensitive(name string) bool {
	nameLower := strings.ToLower(name)
	for _, keyword := range SensitiveKeywords {
		if strings.Contains(nameLower, keyword) {
			return true
		}
	}
	return false
}

// RedactValue 按名称判断后脱敏单个值
func RedactValue(name, value string) string {
	if !IsSensitive(name) {
		return value
	}
	return maskValue(value)
}

// maskValue 无条件遮盖值
func maskValue(value string) string {
	// Bearer Token - 仅显示前缀
	if strings.HasPrefix(value, "Bearer ") {
		return "Bearer ***"
	}

	// 足够长时显示前4位+后4位
	if len(value) > 8 {
		return value[:4] + "***" + value[len(value)-4:]
	}

	return "***"
}

// RedactToString 按名称脱敏键值对并返回格式化字符串 (用于请求头日志)
// 格式: "Name1: value1, Name2: value2" (按名称排序)
func RedactToString(values map[string]string) string {
	return joinSorted(values, RedactValue)
}

// MaskAllToString 遮盖全部值 (用于Cookie日志,任何Cookie都可能是会话凭据)
func MaskAllToString(values map[string]string) string {
	return joinSorted(values, func(_, value string) string { return maskValue(value) })
}

func joinSorted(values map[string]string, render func(name, value string) string) string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+render(name, values[name]))
	}
	return strings.Join(parts, ", ")
}
