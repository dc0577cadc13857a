package main

import (
	"fmt"
	"regexp"
)

// labelPattern 标签只允许字母、数字、点、下划线和连字符
var labelPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidateLabel 验证采集标签
func ValidateLabel(label string) error {
	if label == "" {
		return nil
	}
	if len(label) > 64 {
		return fmt.Errorf("标签过长: %d 个字符 (最大 64)", len(label))
	}
	if !labelPattern.MatchString(label) {
		return fmt.Errorf("标签包含非法字符: %q (仅允许字母、数字、'.'、'_'、'-')", label)
	}
	return nil
}

// ValidateFlags 验证命令行参数
func ValidateFlags(label string, daily bool) error {
	if daily && label != "" {
		return fmt.Errorf("每日定时模式不接受标签参数,当前值: %s", label)
	}
	return ValidateLabel(label)
}
