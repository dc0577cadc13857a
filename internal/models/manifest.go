package models

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

const (
	// ManifestFileName 清单文件名,其存在即代表采集已提交
	ManifestFileName = "manifest.json"
	// LayerDataFileName 图层数据文件名,前端读取
	LayerDataFileName = "data.json"
	// DateLayout 采集日期格式,定长便于字典序排序
	DateLayout = "2006-01-02"
)

// CaptureManifest 单次采集的历史记录
type CaptureManifest struct {
	Name      string    `json:"name"`      // 采集标签
	Date      string    `json:"date"`      // 采集日期 YYYY-MM-DD
	CreatedAt time.Time `json:"createdAt"` // 采集时间
	FileCount int       `json:"fileCount"` // 资源文件数
	Hashes    []string  `json:"hashes"`    // 资源内容哈希,顺序与图层一致
}

// Validate 校验清单内部一致性
func (m *CaptureManifest) Validate() error {
	if m.FileCount != len(m.Hashes) {
		return fmt.Errorf("清单文件数与哈希数不一致: %d != %d", m.FileCount, len(m.Hashes))
	}
	if m.Date != "" {
		if _, err := time.Parse(DateLayout, m.Date); err != nil {
			return fmt.Errorf("清单日期格式无效: %w", err)
		}
	}
	return nil
}

// ToJSON 序列化为JSON
func (m *CaptureManifest) ToJSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// FromJSON 从JSON反序列化
func (m *CaptureManifest) FromJSON(data []byte) error {
	return json.Unmarshal(data, m)
}

// LoadManifestFromFile 从文件加载清单并校验
func LoadManifestFromFile(path string) (*CaptureManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m CaptureManifest
	if err := m.FromJSON(data); err != nil {
		return nil, fmt.Errorf("解析清单失败: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
