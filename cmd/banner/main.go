package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikukko/bilibili-online/internal/core"
	"github.com/mikukko/bilibili-online/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	configFile string
	logLevel   string
	daily      bool
)

// appConfig 由 PersistentPreRunE 加载
var appConfig *core.Config

var rootCmd = &cobra.Command{
	Use:   "banner [label]",
	Short: "B站首页动态横幅采集工具",
	Long: `banner - B站首页多图层动态横幅采集

采集流程:
  • 无头浏览器加载首页,提取各图层位置、变换与资源
  • 资源在内存中计算哈希,与历史采集完全一致时跳过保存
  • 模拟拖动测量每个图层的视差系数
  • 保存资源、data.json 和 manifest.json

示例:
  # 立即采集一次(标签默认为今天日期)
  banner

  # 指定标签
  banner spring-festival

  # 每日定时采集 (SCHEDULE_HOUR 控制整点,默认6)
  banner --daily

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	Args:    cobra.MaximumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		logConfig := config.LogSettings()
		if logLevel != "" {
			logConfig.Level = logLevel
		}
		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		appConfig = config
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		label := ""
		if len(args) == 1 {
			label = args[0]
		}
		if err := ValidateFlags(label, daily); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		capturer := core.NewCapturer(appConfig, nil)

		if daily {
			utils.Infof("🌅 每日定时模式启动,整点: %02d:00 (%s)", appConfig.Schedule.Hour, appConfig.Schedule.Timezone)
			err := core.NewScheduler(appConfig, capturer).RunDaily(ctx)
			if ctx.Err() != nil {
				utils.Warn("收到中断信号,已退出")
				return nil
			}
			return err
		}

		result, err := capturer.Run(ctx, label)
		if err != nil {
			return fmt.Errorf("采集失败: %w", err)
		}
		printSummary(result)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("banner %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

// printSummary 输出采集统计
func printSummary(result *core.CaptureResult) {
	fmt.Println("\n==================================================")
	fmt.Println("📊 采集统计")
	fmt.Println("==================================================")
	fmt.Printf("🏷️  标签: %s (%s)\n", result.Label, result.Date)
	fmt.Printf("🧱 图层数: %d\n", result.LayerCount)
	fmt.Printf("📦 资源大小: %.2f KB\n", float64(result.TotalSize)/1024)
	if result.Duplicate {
		fmt.Printf("🔄 与历史采集一致: %s (%s),未保存\n", result.MatchedName, result.MatchedDate)
	} else {
		fmt.Printf("💾 保存目录: %s\n", result.Dir)
	}
	fmt.Printf("⏱️  总耗时: %.2f秒\n", result.Duration.Seconds())
	fmt.Println("==================================================")
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	rootCmd.Flags().BoolVar(&daily, "daily", false, "每日定时采集模式")

	rootCmd.AddCommand(versionCmd, initCmd, checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
