package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/mikukko/bilibili-online/internal/config"
	"github.com/mikukko/bilibili-online/internal/core"
	"github.com/mikukko/bilibili-online/internal/crawlers"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "生成默认配置文件",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigFile
		if len(args) == 1 {
			path = args[0]
		}

		created, err := config.EnsureConfigExists(path)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("✅ 已生成配置文件: %s\n", path)
		} else {
			fmt.Printf("⚠️  配置文件已存在,未覆盖: %s\n", path)
		}
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "检查运行环境和配置",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("==============================================")
		fmt.Println("  banner 运行环境检查")
		fmt.Println("==============================================")

		allOK := true

		fmt.Printf("✅ Go版本: %s\n", runtime.Version())
		fmt.Printf("✅ 操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		fmt.Printf("✅ 配置有效,目标: %s\n", appConfig.Target.URL)

		// 浏览器
		if bin := appConfig.Browser.Bin; bin != "" {
			if _, err := os.Stat(bin); err != nil {
				fmt.Printf("❌ 指定的浏览器不存在: %s\n", bin)
				allOK = false
			} else {
				fmt.Printf("✅ 浏览器: %s\n", bin)
			}
		} else if path, found := launcher.LookPath(); found {
			fmt.Printf("✅ 浏览器: %s\n", path)
		} else {
			fmt.Println("⚠️  未找到本地Chromium,首次运行时将自动下载")
		}

		// 系统资源
		if status, err := crawlers.SampleResources(); err != nil {
			fmt.Printf("⚠️  无法获取系统资源: %v\n", err)
		} else {
			fmt.Printf("✅ 可用内存: %.0fMB / %.0fMB\n",
				float64(status.AvailableMemory)/(1024*1024), float64(status.TotalMemory)/(1024*1024))
		}
		if err := crawlers.CheckResources(appConfig.Resource.MinFreeMemoryMB); err != nil {
			fmt.Printf("❌ %v\n", err)
			allOK = false
		}

		// 定时
		loc, err := appConfig.Location()
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			allOK = false
		} else {
			fmt.Printf("✅ 每日定时: %02d:00 (%s)\n", appConfig.Schedule.Hour, loc)
		}

		// 归档目录
		root := appConfig.Archive.Root
		if err := checkWritable(root); err != nil {
			fmt.Printf("❌ 归档目录不可写 [%s]: %v\n", root, err)
			allOK = false
		} else {
			history, err := core.LoadHistory(root)
			if err != nil {
				fmt.Printf("❌ 读取历史采集失败: %v\n", err)
				allOK = false
			} else {
				fmt.Printf("✅ 归档目录: %s (历史采集 %d 次)\n", root, len(history))
			}
		}

		fmt.Println("==============================================")
		if !allOK {
			return fmt.Errorf("环境检查失败,请解决上述问题")
		}
		fmt.Println("✅ 环境检查通过")
		return nil
	},
}

// checkWritable 确认目录存在且可创建文件
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".check-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(filepath.Clean(name))
}
