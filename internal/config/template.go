package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultConfigFile 默认配置文件路径
	DefaultConfigFile = "configs/config.yaml"

	// MaxConfigFileSize 配置文件最大大小 (1MB)
	MaxConfigFileSize = 1 * 1024 * 1024
)

//go:embed config_template.yaml
var defaultTemplate string

// Template 返回带注释的默认配置模板
func Template() string {
	return defaultTemplate
}

// EnsureConfigExists 确保配置文件存在,如不存在则写入模板
// 返回是否新建了文件
func EnsureConfigExists(configPath string) (bool, error) {
	if configPath == "" {
		configPath = DefaultConfigFile
	}

	if _, err := os.Stat(configPath); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("无法读取配置文件信息 [%s]: %w", configPath, err)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, fmt.Errorf("无法创建配置目录 [%s]: %w", dir, err)
	}
	if err := os.WriteFile(configPath, []byte(defaultTemplate), 0644); err != nil {
		return false, fmt.Errorf("无法生成配置文件 [%s]: %w", configPath, err)
	}
	return true, nil
}

// ValidateFileSize 验证配置文件大小是否在限制内
func ValidateFileSize(configPath string) error {
	info, err := os.Stat(configPath)
	if err != nil {
		return fmt.Errorf("无法读取配置文件信息 [%s]: %w", configPath, err)
	}

	if info.Size() > MaxConfigFileSize {
		return fmt.Errorf("配置文件过大 [%s]: %d 字节 (最大 %d 字节)",
			configPath, info.Size(), MaxConfigFileSize)
	}
	return nil
}
