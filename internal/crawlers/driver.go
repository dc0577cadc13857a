package crawlers

import (
	"context"
	"errors"
	"time"
)

// 错误类型定义
var (
	ErrStructureNotFound  = errors.New("未找到横幅图层结构")
	ErrMalformedTransform = errors.New("图层transform格式异常")
	ErrNavigation         = errors.New("页面加载失败")
	ErrAssetFetch         = errors.New("资源获取失败")
	ErrInsufficientMemory = errors.New("系统可用内存不足")
)

// RawLayer 从实时DOM读取的原始图层数据
type RawLayer struct {
	Tag       string  `json:"tag"`       // 首个子元素标签名(小写)
	Opacity   string  `json:"opacity"`   // 内联style的opacity
	Transform string  `json:"transform"` // 内联style的transform
	Width     float64 `json:"width"`     // 渲染宽度
	Height    float64 `json:"height"`    // 渲染高度
	Src       string  `json:"src"`       // 资源URL
}

// PageDriver 横幅页面操作抽象
// 由 BrowserSession 基于go-rod实现,测试中可替换为内存实现
type PageDriver interface {
	// QueryLayers 返回选择器匹配的全部图层,无匹配时返回空切片
	QueryLayers(ctx context.Context, selector string) ([]RawLayer, error)
	// FetchAsset 在页面上下文中请求资源并返回原始字节
	FetchAsset(ctx context.Context, src string) ([]byte, error)
	// PressAndDrag 在横幅顶部按下指针并水平拖动 offset 像素
	PressAndDrag(ctx context.Context, selector string, offset float64, steps int) error
	// ReleasePointer 释放指针
	ReleasePointer(ctx context.Context) error
}

// Session 单次采集独占的浏览器会话
type Session interface {
	Navigate(ctx context.Context, pageURL string) error
	Page() PageDriver
	Close() error
}

// Opener 打开新的浏览器会话
type Opener func(ctx context.Context) (Session, error)

// sleepContext 可被取消的等待
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
