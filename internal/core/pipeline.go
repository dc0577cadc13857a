package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mikukko/bilibili-online/internal/crawlers"
	"github.com/mikukko/bilibili-online/internal/models"
	"github.com/mikukko/bilibili-online/internal/utils"
)

// CaptureResult 单次采集结果
type CaptureResult struct {
	RunID       string
	Label       string
	Date        string
	Dir         string        // 提交目录,重复时为空
	Duplicate   bool          // 是否与历史采集重复
	MatchedName string        // 重复时匹配的历史清单名称
	MatchedDate string        // 重复时匹配的历史清单日期
	LayerCount  int           // 图层数
	TotalSize   int64         // 资源总大小(字节)
	Duration    time.Duration // 总耗时
}

// Capturer 横幅采集流水线协调器
type Capturer struct {
	config   *Config
	open     crawlers.Opener
	now      func() time.Time
	progress io.Writer
}

// NewCapturer 创建采集器,open 为nil时使用go-rod浏览器
func NewCapturer(config *Config, open crawlers.Opener) *Capturer {
	if open == nil {
		open = BrowserOpener(config)
	}
	return &Capturer{
		config:   config,
		open:     open,
		now:      time.Now,
		progress: os.Stderr,
	}
}

// BrowserOpener 返回基于配置启动go-rod浏览器的会话工厂
func BrowserOpener(config *Config) crawlers.Opener {
	return func(ctx context.Context) (crawlers.Session, error) {
		s, err := crawlers.OpenBrowser(ctx, config.BrowserSettings())
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Run 执行一次完整采集
// 执行流程:
//  1. 加载历史清单
//  2. 打开浏览器并加载页面
//  3. 提取图层、在内存中获取资源并计算哈希
//  4. 去重: 重复时直接返回成功,不写任何文件
//  5. 视差校准
//  6. 持久化资源、图层数据和清单
//
// 任何路径退出时浏览器都会被关闭
func (c *Capturer) Run(ctx context.Context, label string) (*CaptureResult, error) {
	loc, err := c.config.Location()
	if err != nil {
		return nil, err
	}
	started := c.now()
	date := started.In(loc).Format(models.DateLayout)

	session := newCaptureSession(label, started, date)
	result := &CaptureResult{RunID: session.ID, Label: session.Label, Date: date}
	logger := utils.Logger.With().Str("run_id", session.ID).Str("label", session.Label).Logger()

	logger.Info().Str("url", c.config.Target.URL).Msg("🚀 开始采集横幅")

	history, err := LoadHistory(c.config.Archive.Root)
	if err != nil {
		return nil, err
	}

	browser, err := c.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("打开浏览器失败: %w", err)
	}
	defer func() {
		if closeErr := browser.Close(); closeErr != nil {
			logger.Warn().Err(closeErr).Msg("关闭浏览器失败")
		}
	}()

	if err := browser.Navigate(ctx, c.config.Target.URL); err != nil {
		return nil, err
	}
	page := browser.Page()

	selector, raw, err := crawlers.FindLayers(ctx, page, c.config.Target.Selectors)
	if err != nil {
		return nil, err
	}
	session.Selector = selector

	layers, err := crawlers.BuildDescriptors(raw)
	if err != nil {
		return nil, err
	}
	session.Layers = layers

	assets, err := crawlers.FetchAssets(ctx, page, raw, c.config.FetchSettings(c.progress))
	if err != nil {
		return nil, err
	}
	session.attachAssets(assets)
	result.LayerCount = len(session.Layers)
	result.TotalSize = session.TotalSize()

	approved, dup := Gate(session, history)
	if dup != nil {
		result.Duplicate = true
		result.MatchedName = dup.Name
		result.MatchedDate = dup.Date
		result.Duration = c.now().Sub(started)
		logger.Info().
			Str("matched", dup.Name).
			Str("matched_date", dup.Date).
			Msg("🔄 横幅与历史采集一致,跳过保存")
		return result, nil
	}

	if err := crawlers.Calibrate(ctx, page, selector, session.Layers, c.config.CalibrationSettings()); err != nil {
		return nil, err
	}

	dir, err := Commit(c.config.Archive.Root, approved)
	if err != nil {
		return nil, err
	}

	result.Dir = dir
	result.Duration = c.now().Sub(started)
	logger.Info().
		Str("dir", dir).
		Int("layers", result.LayerCount).
		Dur("duration", result.Duration).
		Msg("✨ 采集完成")
	return result, nil
}
