package crawlers

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/mikukko/bilibili-online/internal/utils"
)

const (
	// DefaultUserAgent 默认User-Agent (常见桌面Chrome)
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/121.0.0.0 Safari/537.36"

	// removeWebdriverJS 在任何页面脚本之前删除自动化标记
	removeWebdriverJS = `(() => {
		Object.defineProperty(Object.getPrototypeOf(navigator), 'webdriver', {
			get: () => undefined,
			configurable: true,
		});
		try { delete Object.getPrototypeOf(navigator).webdriver; } catch (e) {}
	})();`

	queryLayersJS = `(sel) => {
		var nodes = document.querySelectorAll(sel);
		var out = [];
		for (var i = 0; i < nodes.length; i++) {
			var el = nodes[i];
			var child = el.firstElementChild;
			var target = child || el;
			out.push({
				tag: child ? child.tagName.toLowerCase() : '',
				opacity: target.style.opacity || '',
				transform: target.style.transform || '',
				width: target.offsetWidth || target.width || el.offsetWidth || 0,
				height: target.offsetHeight || target.height || el.offsetHeight || 0,
				src: child ? (child.currentSrc || child.src || '') : ''
			});
		}
		return out;
	}`

	fetchAssetJS = `async (url) => {
		var resp;
		try {
			resp = await fetch(url, { credentials: 'include' });
		} catch (e) {
			resp = await fetch(url, { credentials: 'omit' });
		}
		if (!resp.ok) {
			return { ok: false, status: resp.status, data: '' };
		}
		var buf = new Uint8Array(await resp.arrayBuffer());
		var binary = '';
		for (var i = 0; i < buf.length; i += 0x8000) {
			binary += String.fromCharCode.apply(null, buf.subarray(i, i + 0x8000));
		}
		return { ok: true, status: resp.status, data: btoa(binary) };
	}`

	bannerRectJS = `(sel) => {
		var el = document.querySelector(sel);
		if (!el) { return null; }
		var host = el.parentElement || el;
		var r = host.getBoundingClientRect();
		return { x: r.left, y: r.top, width: r.width, height: r.height };
	}`
)

// BrowserConfig 浏览器会话配置
type BrowserConfig struct {
	Headless          bool              // 无头模式
	BinPath           string            // 浏览器可执行文件路径,为空时自动下载/查找
	ViewportWidth     int               // 视口宽度
	ViewportHeight    int               // 视口高度
	UserAgent         string            // 覆盖的User-Agent
	NavigationTimeout time.Duration     // 导航超时
	SettleDelay       time.Duration     // DOM就绪后的固定等待
	Headers           map[string]string // 额外请求头
	Cookies           map[string]string // 注入的Cookie (如SESSDATA)
	MinFreeMemoryMB   int               // 启动前要求的最小可用内存,0表示不检查
}

// BrowserSession 基于go-rod的单页面浏览器会话
type BrowserSession struct {
	config   BrowserConfig
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page

	mu     sync.Mutex
	closed bool
}

// OpenBrowser 启动无头浏览器并创建隐身页面
func OpenBrowser(ctx context.Context, config BrowserConfig) (*BrowserSession, error) {
	if err := CheckResources(config.MinFreeMemoryMB); err != nil {
		return nil, err
	}

	l := launcher.New().
		Context(ctx).
		Headless(config.Headless).
		NoSandbox(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("disable-blink-features", "AutomationControlled").
		Set("window-size", fmt.Sprintf("%d,%d", config.ViewportWidth, config.ViewportHeight))
	if config.BinPath != "" {
		l = l.Bin(config.BinPath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}

	s := &BrowserSession{config: config, launcher: l}

	s.browser = rod.New().ControlURL(controlURL).Context(ctx)
	if err := s.browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("连接浏览器失败: %w", err)
	}
	utils.Debugf("浏览器已启动: %s", controlURL)

	if err := s.setupPage(); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

// setupPage 创建页面并应用反检测措施、视口与UA
func (s *BrowserSession) setupPage() error {
	page, err := stealth.Page(s.browser)
	if err != nil {
		return fmt.Errorf("创建页面失败: %w", err)
	}
	s.page = page

	if _, err := page.EvalOnNewDocument(removeWebdriverJS); err != nil {
		return fmt.Errorf("注入反检测脚本失败: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             s.config.ViewportWidth,
		Height:            s.config.ViewportHeight,
		DeviceScaleFactor: 1,
		Mobile:            false,
	}); err != nil {
		return fmt.Errorf("设置视口失败: %w", err)
	}

	ua := s.config.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      ua,
		AcceptLanguage: "zh-CN,zh;q=0.9",
	}); err != nil {
		return fmt.Errorf("设置User-Agent失败: %w", err)
	}

	if len(s.config.Headers) > 0 {
		dict := make([]string, 0, len(s.config.Headers)*2)
		for name, value := range s.config.Headers {
			dict = append(dict, name, value)
		}
		if _, err := page.SetExtraHeaders(dict); err != nil {
			return fmt.Errorf("设置额外请求头失败: %w", err)
		}
		utils.Debugf("额外请求头: %s", utils.RedactToString(s.config.Headers))
	}

	return nil
}

// Navigate 加载目标页面,仅等待DOMContentLoaded,再固定等待延迟加载内容
func (s *BrowserSession) Navigate(ctx context.Context, pageURL string) error {
	if len(s.config.Cookies) > 0 {
		cookies := make([]*proto.NetworkCookieParam, 0, len(s.config.Cookies))
		for name, value := range s.config.Cookies {
			cookies = append(cookies, &proto.NetworkCookieParam{
				Name:  name,
				Value: value,
				URL:   pageURL,
				Path:  "/",
			})
		}
		if err := s.page.SetCookies(cookies); err != nil {
			return fmt.Errorf("%w: 设置Cookie失败: %v", ErrNavigation, err)
		}
		utils.Debugf("已注入Cookie: %s", utils.MaskAllToString(s.config.Cookies))
	}

	navCtx, cancel := context.WithTimeout(ctx, s.config.NavigationTimeout)
	defer cancel()

	page := s.page.Context(navCtx)
	wait := page.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := page.Navigate(pageURL); err != nil {
		return fmt.Errorf("%w [%s]: %v", ErrNavigation, pageURL, err)
	}
	wait()

	if err := navCtx.Err(); err != nil {
		return fmt.Errorf("%w [%s]: 超过 %s 未完成加载", ErrNavigation, pageURL, s.config.NavigationTimeout)
	}

	utils.Debugf("页面DOM就绪,等待 %s", s.config.SettleDelay)
	return sleepContext(ctx, s.config.SettleDelay)
}

// Page 返回页面操作接口
func (s *BrowserSession) Page() PageDriver {
	return &rodPage{page: s.page}
}

// Close 关闭浏览器进程,可重复调用
func (s *BrowserSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.browser != nil {
		err = s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
	}
	utils.Debugf("浏览器已关闭")
	return err
}

// rodPage go-rod页面上的PageDriver实现
type rodPage struct {
	page *rod.Page
}

type fetchResult struct {
	OK     bool   `json:"ok"`
	Status int    `json:"status"`
	Data   string `json:"data"`
}

type bannerRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// QueryLayers 读取选择器匹配元素的几何/变换/资源信息
func (p *rodPage) QueryLayers(ctx context.Context, selector string) ([]RawLayer, error) {
	res, err := p.page.Context(ctx).Eval(queryLayersJS, selector)
	if err != nil {
		return nil, fmt.Errorf("查询图层失败 [%s]: %w", selector, err)
	}

	layers := []RawLayer{}
	if err := res.Value.Unmarshal(&layers); err != nil {
		return nil, fmt.Errorf("解析图层数据失败 [%s]: %w", selector, err)
	}
	return layers, nil
}

// FetchAsset 通过页面自身的网络上下文获取资源(携带会话Cookie与Referer)
func (p *rodPage) FetchAsset(ctx context.Context, src string) ([]byte, error) {
	res, err := p.page.Context(ctx).Eval(fetchAssetJS, src)
	if err != nil {
		return nil, fmt.Errorf("%w [%s]: %v", ErrAssetFetch, src, err)
	}

	var result fetchResult
	if err := res.Value.Unmarshal(&result); err != nil {
		return nil, fmt.Errorf("%w [%s]: 解析响应失败: %v", ErrAssetFetch, src, err)
	}
	if !result.OK {
		return nil, fmt.Errorf("%w [%s]: HTTP %d", ErrAssetFetch, src, result.Status)
	}

	data, err := base64.StdEncoding.DecodeString(result.Data)
	if err != nil {
		return nil, fmt.Errorf("%w [%s]: 解码Base64失败: %v", ErrAssetFetch, src, err)
	}
	return data, nil
}

// PressAndDrag 指针移动到横幅顶边,按下后分步水平拖动
func (p *rodPage) PressAndDrag(ctx context.Context, selector string, offset float64, steps int) error {
	res, err := p.page.Context(ctx).Eval(bannerRectJS, selector)
	if err != nil {
		return fmt.Errorf("获取横幅位置失败: %w", err)
	}

	var rect *bannerRect
	if err := res.Value.Unmarshal(&rect); err != nil {
		return fmt.Errorf("解析横幅位置失败: %w", err)
	}
	if rect == nil {
		return fmt.Errorf("%w: 拖动前横幅消失 [%s]", ErrStructureNotFound, selector)
	}

	start := proto.Point{X: rect.X + 1, Y: rect.Y + 1}
	mouse := p.page.Mouse
	if err := mouse.MoveTo(start); err != nil {
		return fmt.Errorf("移动指针失败: %w", err)
	}
	if err := mouse.Down(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("按下指针失败: %w", err)
	}
	if err := mouse.MoveLinear(proto.Point{X: start.X + offset, Y: start.Y}, steps); err != nil {
		return fmt.Errorf("拖动指针失败: %w", err)
	}
	return nil
}

// ReleasePointer 释放左键
func (p *rodPage) ReleasePointer(ctx context.Context) error {
	return p.page.Mouse.Up(proto.InputMouseButtonLeft, 1)
}
