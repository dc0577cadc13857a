package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashContent 计算资源内容的SHA-256摘要(小写十六进制)
// 仅作为去重信号使用,不承担安全用途
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
