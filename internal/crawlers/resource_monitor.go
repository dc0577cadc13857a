package crawlers

import (
	"fmt"
	"time"

	"github.com/mikukko/bilibili-online/internal/utils"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// ResourceStatus 启动浏览器前的系统资源快照
type ResourceStatus struct {
	TotalMemory     uint64  // 系统总内存(字节)
	AvailableMemory uint64  // 可用内存(字节)
	CPUPercent      float64 // CPU使用率(%)
}

// SampleResources 采样系统内存和CPU负载
func SampleResources() (ResourceStatus, error) {
	vmStat, err := mem.VirtualMemory()
	if err != nil {
		return ResourceStatus{}, fmt.Errorf("获取系统内存失败: %w", err)
	}

	status := ResourceStatus{
		TotalMemory:     vmStat.Total,
		AvailableMemory: vmStat.Available,
	}

	// 100毫秒采样间隔,避免阻塞过久
	if percents, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(percents) > 0 {
		status.CPUPercent = percents[0]
	}

	return status, nil
}

// CheckResources 检查可用内存是否满足浏览器启动要求
// minFreeMB<=0 时只记录资源状态
func CheckResources(minFreeMB int) error {
	status, err := SampleResources()
	if err != nil {
		utils.Warnf("资源检查跳过: %v", err)
		return nil
	}

	utils.Logger.Debug().
		Float64("total_gb", float64(status.TotalMemory)/(1024*1024*1024)).
		Float64("available_mb", float64(status.AvailableMemory)/(1024*1024)).
		Float64("cpu_percent", status.CPUPercent).
		Msg("系统资源状态")

	if minFreeMB <= 0 {
		return nil
	}

	required := uint64(minFreeMB) * 1024 * 1024
	if status.AvailableMemory < required {
		return fmt.Errorf("%w: 可用 %.0fMB < 要求 %dMB",
			ErrInsufficientMemory, float64(status.AvailableMemory)/(1024*1024), minFreeMB)
	}
	return nil
}
