package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikukko/bilibili-online/internal/models"
	"github.com/mikukko/bilibili-online/internal/utils"
)

// stagingDir 采集在提交前的暂存目录,以点开头,历史加载时忽略
func stagingDir(archiveRoot string, s *CaptureSession) string {
	return filepath.Join(archiveRoot, fmt.Sprintf(".%s.tmp-%s", s.Date, s.ID))
}

// captureDir 返回尚未被占用的采集目录: <date>,已存在时为 <date>_1, <date>_2 ...
// 已提交的采集目录从不被改写
func captureDir(archiveRoot, date string) (string, error) {
	for i := 0; ; i++ {
		name := date
		if i > 0 {
			name = fmt.Sprintf("%s_%d", date, i)
		}
		dir := filepath.Join(archiveRoot, name)
		if _, err := os.Lstat(dir); os.IsNotExist(err) {
			return dir, nil
		} else if err != nil {
			return "", fmt.Errorf("检查采集目录失败 [%s]: %w", dir, err)
		}
	}
}

// Commit 持久化已批准的采集
// 资源、图层数据、清单依次写入暂存目录,全部成功后整体重命名为采集目录;
// 失败时删除暂存目录,归档中不会出现不完整或被改写的采集
func Commit(archiveRoot string, capture *ApprovedCapture) (string, error) {
	if capture == nil || capture.session == nil {
		return "", fmt.Errorf("没有可提交的采集")
	}
	s := capture.session

	if len(s.Layers) != len(s.Assets) {
		return "", fmt.Errorf("图层数与资源数不一致: %d != %d", len(s.Layers), len(s.Assets))
	}
	for i := range s.Layers {
		if err := s.Layers[i].Validate(); err != nil {
			return "", fmt.Errorf("第%d个图层无效: %w", i+1, err)
		}
	}

	staging := stagingDir(archiveRoot, s)
	if err := os.MkdirAll(staging, 0755); err != nil {
		return "", fmt.Errorf("创建暂存目录失败 [%s]: %w", staging, err)
	}
	committed := false
	defer func() {
		if !committed {
			if err := os.RemoveAll(staging); err != nil {
				utils.Warnf("清理暂存目录失败 [%s]: %v", staging, err)
			}
		}
	}()

	if err := writeCapture(staging, s); err != nil {
		return "", err
	}

	dir, err := captureDir(archiveRoot, s.Date)
	if err != nil {
		return "", err
	}
	if err := os.Rename(staging, dir); err != nil {
		return "", fmt.Errorf("提交采集目录失败 [%s]: %w", dir, err)
	}
	committed = true

	utils.Infof("✅ 采集已保存: %s (%d 个资源)", dir, len(s.Assets))
	return dir, nil
}

// writeCapture 在目录中写入资源 -> 图层数据 -> 清单,清单最后写入
func writeCapture(dir string, s *CaptureSession) error {
	for i := range s.Assets {
		asset := &s.Assets[i]
		assetPath := filepath.Join(dir, asset.FileName)
		if err := utils.WriteFileAtomic(assetPath, asset.Data, 0644); err != nil {
			return fmt.Errorf("写入资源失败 [%s]: %w", assetPath, err)
		}
		utils.Debugf("保存资源: %s (%d bytes)", assetPath, asset.Size())
	}

	layerData, err := models.MarshalLayers(s.Layers)
	if err != nil {
		return fmt.Errorf("序列化图层数据失败: %w", err)
	}
	if err := utils.WriteFileAtomic(filepath.Join(dir, models.LayerDataFileName), layerData, 0644); err != nil {
		return fmt.Errorf("写入图层数据失败: %w", err)
	}

	manifest := s.Manifest()
	manifestData, err := manifest.ToJSON()
	if err != nil {
		return fmt.Errorf("序列化清单失败: %w", err)
	}
	if err := utils.WriteFileAtomic(filepath.Join(dir, models.ManifestFileName), manifestData, 0644); err != nil {
		return fmt.Errorf("写入清单失败: %w", err)
	}
	return nil
}
