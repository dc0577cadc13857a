package utils

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/mikukko/bilibili-online/internal/models"
)

// reservedNames 采集目录中由程序自身写入的文件,资源不得占用
var reservedNames = map[string]bool{
	models.LayerDataFileName:          true,
	models.ManifestFileName:           true,
	models.LayerDataFileName + ".tmp": true,
	models.ManifestFileName + ".tmp":  true,
}

// AssetFileName 从资源URL推导保存文件名
// 例如: https://i0.hdslb.com/bfs/vc/abc.png@1c.webp -> abc.png@1c.webp
func AssetFileName(rawURL string, index int) string {
	name := ""
	if parsed, err := url.Parse(rawURL); err == nil {
		name = path.Base(parsed.Path)
	}

	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)

	if name == "" || name == "_" || strings.Trim(name, ".") == "" || reservedNames[strings.ToLower(name)] {
		name = fmt.Sprintf("layer_%d", index)
	}
	return name
}

// UniqueFileName 在已占用的文件名集合中生成唯一文件名,冲突时追加编号
func UniqueFileName(name string, used map[string]bool) string {
	if !used[name] {
		used[name] = true
		return name
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		if !used[candidate] {
			used[candidate] = true
			return candidate
		}
	}
}

// WriteFileAtomic 原子写入文件: 先写临时文件并fsync,再重命名覆盖
func WriteFileAtomic(filePath string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	tmpPath := filePath + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("同步临时文件失败: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("关闭临时文件失败: %w", err)
	}

	if err := os.Rename(tmpPath, filePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("重命名文件失败: %w", err)
	}
	return nil
}

// FileExists 判断文件是否存在
func FileExists(filePath string) bool {
	info, err := os.Stat(filePath)
	return err == nil && !info.IsDir()
}
