package core

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mikukko/bilibili-online/internal/models"
	"github.com/mikukko/bilibili-online/internal/utils"
)

// NextRunTime 计算下一次在指定整点运行的时间
// 今天的该时刻仍在未来则为今天,否则为明天
func NextRunTime(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Scheduler 每日定时采集
type Scheduler struct {
	config *Config
	run    func(ctx context.Context) error
	now    func() time.Time
	wait   func(ctx context.Context, d time.Duration) error
}

// NewScheduler 创建每日定时器
func NewScheduler(config *Config, capturer *Capturer) *Scheduler {
	return &Scheduler{
		config: config,
		run: func(ctx context.Context) error {
			_, err := capturer.Run(ctx, "")
			return err
		},
		now:  time.Now,
		wait: waitFor,
	}
}

// waitFor 单个定时器等待,仅在进程被中断时提前返回
func waitFor(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// CapturedOn 判断指定日期的图层数据是否已存在
func (s *Scheduler) CapturedOn(date string) bool {
	return utils.FileExists(filepath.Join(s.config.Archive.Root, date, models.LayerDataFileName))
}

// RunDaily 启动时补采今天(若尚未采集),之后每天在配置的整点采集
// 单次失败只记录日志,不会终止循环
func (s *Scheduler) RunDaily(ctx context.Context) error {
	loc, err := s.config.Location()
	if err != nil {
		return err
	}
	hour := s.config.Schedule.Hour

	today := s.now().In(loc).Format(models.DateLayout)
	if s.CapturedOn(today) {
		utils.Infof("今日 (%s) 已有采集,等待下次定时", today)
	} else {
		utils.Infof("今日 (%s) 尚未采集,立即执行", today)
		s.runOnce(ctx)
	}

	for {
		now := s.now().In(loc)
		next := NextRunTime(now, hour)
		utils.Infof("⏰ 下次采集时间: %s", next.Format(time.RFC3339))

		if err := s.wait(ctx, next.Sub(now)); err != nil {
			utils.Infof("定时采集已停止: %v", err)
			return err
		}
		s.runOnce(ctx)
	}
}

// runOnce 执行一次采集并吞掉错误和panic
func (s *Scheduler) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			utils.Logger.Error().Err(fmt.Errorf("%v", r)).Msg("定时采集panic")
		}
	}()

	if err := s.run(ctx); err != nil {
		utils.Logger.Error().Err(err).Msg("❌ 定时采集失败,等待下次运行")
	}
}
