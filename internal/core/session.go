package core

import (
	"time"

	"github.com/mikukko/bilibili-online/internal/models"
)

// CaptureSession 单次采集运行的瞬时状态,从不持久化
type CaptureSession struct {
	ID        string    // 运行ID
	Label     string    // 采集标签
	Date      string    // 采集日期 YYYY-MM-DD
	CreatedAt time.Time // 采集开始时间
	Selector  string    // 命中的图层选择器

	Layers []models.LayerDescriptor // 图层,顺序与页面一致
	Assets []models.BufferedAsset   // 内存中的资源,与Layers一一对应
}

// newCaptureSession 创建采集会话
func newCaptureSession(label string, createdAt time.Time, date string) *CaptureSession {
	if label == "" {
		label = date
	}
	return &CaptureSession{
		ID:        models.NewRunID(),
		Label:     label,
		Date:      date,
		CreatedAt: createdAt,
	}
}

// attachAssets 记录资源并设置图层资源路径
func (s *CaptureSession) attachAssets(assets []models.BufferedAsset) {
	s.Assets = assets
	for i := range s.Layers {
		if i < len(assets) {
			s.Layers[i].Src = "./" + assets[i].FileName
		}
	}
}

// Hashes 按图层顺序返回资源哈希
func (s *CaptureSession) Hashes() []string {
	hashes := make([]string, 0, len(s.Assets))
	for _, a := range s.Assets {
		hashes = append(hashes, a.Hash)
	}
	return hashes
}

// TotalSize 资源总大小(字节)
func (s *CaptureSession) TotalSize() int64 {
	var total int64
	for i := range s.Assets {
		total += int64(s.Assets[i].Size())
	}
	return total
}

// Manifest 生成本次采集的清单
func (s *CaptureSession) Manifest() models.CaptureManifest {
	hashes := s.Hashes()
	return models.CaptureManifest{
		Name:      s.Label,
		Date:      s.Date,
		CreatedAt: s.CreatedAt,
		FileCount: len(hashes),
		Hashes:    hashes,
	}
}

// ApprovedCapture 已通过去重检查的采集,只能由 Gate 创建
// 持久化只接受该类型,保证去重前不会写盘
type ApprovedCapture struct {
	session *CaptureSession
}

// Session 返回被批准的采集会话
func (a *ApprovedCapture) Session() *CaptureSession {
	return a.session
}
