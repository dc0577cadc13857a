package core

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mikukko/bilibili-online/internal/models"
	"github.com/mikukko/bilibili-online/internal/utils"
)

// LoadHistory 加载归档目录下所有历史采集的清单
// 缺失或损坏的清单会被记录并跳过,暂存目录被忽略;归档目录不存在时返回空结果
func LoadHistory(archiveRoot string) ([]models.CaptureManifest, error) {
	entries, err := os.ReadDir(archiveRoot)
	if err != nil {
		if os.IsNotExist(err) {
			utils.Debugf("归档目录不存在,历史为空: %s", archiveRoot)
			return []models.CaptureManifest{}, nil
		}
		return nil, fmt.Errorf("读取归档目录失败 [%s]: %w", archiveRoot, err)
	}

	// ReadDir 已按名称排序,这里显式保证迭代顺序
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	manifests := make([]models.CaptureManifest, 0, len(entries))
	for _, entry := range entries {
		// 暂存目录以点开头,不属于已提交的采集
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		manifestPath := filepath.Join(archiveRoot, entry.Name(), models.ManifestFileName)
		m, err := models.LoadManifestFromFile(manifestPath)
		if err != nil {
			utils.Logger.Warn().
				Err(err).
				Str("path", manifestPath).
				Msg("跳过无效的历史清单")
			continue
		}
		manifests = append(manifests, *m)
	}

	utils.Debugf("加载历史清单 %d 个 (目录 %d 个)", len(manifests), len(entries))
	return manifests, nil
}
