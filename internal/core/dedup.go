package core

import (
	"github.com/mikukko/bilibili-online/internal/models"
)

// FindDuplicate 查找与新哈希集合完全一致的历史清单
// 数量相同且每个新哈希都出现在历史集合中即视为重复,返回第一个匹配项
func FindDuplicate(newHashes []string, history []models.CaptureManifest) *models.CaptureManifest {
	for i := range history {
		if isSameHashSet(newHashes, history[i].Hashes) {
			return &history[i]
		}
	}
	return nil
}

func isSameHashSet(newHashes, oldHashes []string) bool {
	if len(newHashes) != len(oldHashes) {
		return false
	}

	set := make(map[string]struct{}, len(oldHashes))
	for _, h := range oldHashes {
		set[h] = struct{}{}
	}
	for _, h := range newHashes {
		if _, ok := set[h]; !ok {
			return false
		}
	}
	return true
}

// Gate 去重检查: 重复时返回匹配的历史清单,否则返回可持久化的采集
func Gate(session *CaptureSession, history []models.CaptureManifest) (*ApprovedCapture, *models.CaptureManifest) {
	if dup := FindDuplicate(session.Hashes(), history); dup != nil {
		return nil, dup
	}
	return &ApprovedCapture{session: session}, nil
}
