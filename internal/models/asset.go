package models

// BufferedAsset 内存中的图层资源,去重判定前不落盘
type BufferedAsset struct {
	SourceURL string // 资源原始URL
	FileName  string // 保存时使用的文件名
	Hash      string // 内容哈希
	Data      []byte // 原始字节
}

// Size 资源大小(字节)
func (a *BufferedAsset) Size() int {
	return len(a.Data)
}
