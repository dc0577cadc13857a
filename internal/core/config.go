package core

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // 容器内可能缺少系统时区数据

	configfile "github.com/mikukko/bilibili-online/internal/config"
	"github.com/mikukko/bilibili-online/internal/crawlers"
	"github.com/mikukko/bilibili-online/internal/models"
	"github.com/mikukko/bilibili-online/internal/utils"
	"github.com/spf13/viper"
)

// Config 应用程序配置
type Config struct {
	Target      TargetConfig      `mapstructure:"target"`
	Browser     BrowserConfig     `mapstructure:"browser"`
	Fetch       FetchConfig       `mapstructure:"fetch"`
	Calibration CalibrationConfig `mapstructure:"calibration"`
	Archive     ArchiveConfig     `mapstructure:"archive"`
	Schedule    ScheduleConfig    `mapstructure:"schedule"`
	Resource    ResourceConfig    `mapstructure:"resource"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// TargetConfig 采集目标
type TargetConfig struct {
	URL       string   `mapstructure:"url"`
	Selectors []string `mapstructure:"selectors"` // 图层选择器候选,按顺序尝试
}

// BrowserConfig 浏览器配置
type BrowserConfig struct {
	Headless            bool     `mapstructure:"headless"`
	Bin                 string   `mapstructure:"bin"`
	ViewportWidth       int      `mapstructure:"viewport_width"`
	ViewportHeight      int      `mapstructure:"viewport_height"`
	UserAgent           string   `mapstructure:"user_agent"`
	NavigationTimeoutMs int      `mapstructure:"navigation_timeout_ms"`
	SettleDelayMs       int      `mapstructure:"settle_delay_ms"`
	Headers             []string `mapstructure:"headers"` // "Name: Value"
	Cookies             []string `mapstructure:"cookies"` // "Name=Value"
	Sessdata            string   `mapstructure:"sessdata"`
}

// FetchConfig 资源获取配置
type FetchConfig struct {
	Concurrency  int  `mapstructure:"concurrency"`
	ShowProgress bool `mapstructure:"show_progress"`
}

// CalibrationConfig 视差校准配置
type CalibrationConfig struct {
	DragOffset float64 `mapstructure:"drag_offset"`
	DragSteps  int     `mapstructure:"drag_steps"`
	HoldMs     int     `mapstructure:"hold_ms"`
	Divisor    float64 `mapstructure:"divisor"`
}

// ArchiveConfig 采集归档配置
type ArchiveConfig struct {
	Root string `mapstructure:"root"`
}

// ScheduleConfig 每日定时配置
type ScheduleConfig struct {
	Hour     int    `mapstructure:"hour"`
	Timezone string `mapstructure:"timezone"`
}

// ResourceConfig 资源检查配置
type ResourceConfig struct {
	MinFreeMemoryMB int `mapstructure:"min_free_memory_mb"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	NoColor  bool           `mapstructure:"no_color"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// LoadConfig 加载配置文件,环境变量优先于配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		if err := configfile.ValidateFileSize(configPath); err != nil {
			return nil, err
		}
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".bilibanner"))
		}
	}

	setDefaults(v)

	// 环境变量: BANNER_ARCHIVE_ROOT 等
	v.SetEnvPrefix("BANNER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("schedule.hour", "SCHEDULE_HOUR", "BANNER_SCHEDULE_HOUR")
	_ = v.BindEnv("browser.sessdata", "SESSDATA", "BANNER_BROWSER_SESSDATA")

	if err := v.ReadInConfig(); err != nil {
		// 配置文件不存在时使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("配置无效: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	v.SetDefault("target.url", "https://www.bilibili.com/")
	v.SetDefault("target.selectors", crawlers.DefaultSelectorStrategies)

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.viewport_width", 1920)
	v.SetDefault("browser.viewport_height", 1080)
	v.SetDefault("browser.user_agent", crawlers.DefaultUserAgent)
	v.SetDefault("browser.navigation_timeout_ms", 30000)
	v.SetDefault("browser.settle_delay_ms", 3000)
	v.SetDefault("browser.headers", []string{"Referer: https://www.bilibili.com/"})
	v.SetDefault("browser.cookies", []string{})
	v.SetDefault("browser.sessdata", "")

	v.SetDefault("fetch.concurrency", 4)
	v.SetDefault("fetch.show_progress", true)

	calib := crawlers.DefaultCalibrationConfig()
	v.SetDefault("calibration.drag_offset", calib.DragOffset)
	v.SetDefault("calibration.drag_steps", calib.DragSteps)
	v.SetDefault("calibration.hold_ms", int(calib.Hold/time.Millisecond))
	v.SetDefault("calibration.divisor", calib.Divisor)

	v.SetDefault("archive.root", "assets")

	v.SetDefault("schedule.hour", 6)
	v.SetDefault("schedule.timezone", "Asia/Shanghai")

	v.SetDefault("resource.min_free_memory_mb", 256)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.no_color", false)
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)
}

// Validate 验证配置
func (c *Config) Validate() error {
	if err := models.ValidateURL(c.Target.URL); err != nil {
		return fmt.Errorf("target.url: %w", err)
	}
	if len(c.Target.Selectors) == 0 {
		return fmt.Errorf("target.selectors 不能为空")
	}
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		return fmt.Errorf("视口尺寸必须大于0,当前值: %dx%d", c.Browser.ViewportWidth, c.Browser.ViewportHeight)
	}
	if c.Browser.NavigationTimeoutMs <= 0 {
		return fmt.Errorf("导航超时必须大于0,当前值: %d", c.Browser.NavigationTimeoutMs)
	}
	if c.Browser.SettleDelayMs < 0 {
		return fmt.Errorf("等待延迟不能为负,当前值: %d", c.Browser.SettleDelayMs)
	}
	if _, err := c.HeaderMap(); err != nil {
		return err
	}
	if _, err := c.CookieMap(); err != nil {
		return err
	}
	if c.Fetch.Concurrency < 1 || c.Fetch.Concurrency > 32 {
		return fmt.Errorf("并发数必须在1-32之间,当前值: %d", c.Fetch.Concurrency)
	}
	if c.Calibration.DragSteps < 1 {
		return fmt.Errorf("拖动步数必须大于0,当前值: %d", c.Calibration.DragSteps)
	}
	if c.Calibration.Divisor == 0 {
		return fmt.Errorf("校准除数不能为0")
	}
	if c.Archive.Root == "" {
		return fmt.Errorf("archive.root 不能为空")
	}
	if c.Schedule.Hour < 0 || c.Schedule.Hour > 23 {
		return fmt.Errorf("定时小时必须在0-23之间,当前值: %d", c.Schedule.Hour)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location 返回定时与日期计算使用的时区
func (c *Config) Location() (*time.Location, error) {
	if c.Schedule.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("无效的时区 %q: %w", c.Schedule.Timezone, err)
	}
	return loc, nil
}

// HeaderMap 解析并校验 "Name: Value" 形式的额外请求头
func (c *Config) HeaderMap() (map[string]string, error) {
	headers := make(map[string]string, len(c.Browser.Headers))
	validator := utils.NewHeaderValidator()
	for i, raw := range c.Browser.Headers {
		name, value, ok := strings.Cut(raw, ":")
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if !ok || name == "" {
			return nil, fmt.Errorf("browser.headers 第%d项格式错误: 应为 'Name: Value'", i+1)
		}
		if err := validator.ValidateHeader(name, value); err != nil {
			return nil, fmt.Errorf("browser.headers 第%d项: %w", i+1, err)
		}
		headers[name] = value
	}
	return headers, nil
}

// CookieMap 解析 "Name=Value" 形式的Cookie,并合并SESSDATA
func (c *Config) CookieMap() (map[string]string, error) {
	cookies := make(map[string]string, len(c.Browser.Cookies)+1)
	for i, raw := range c.Browser.Cookies {
		name, value, ok := strings.Cut(raw, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("browser.cookies 第%d项格式错误: 应为 'Name=Value'", i+1)
		}
		cookies[name] = strings.TrimSpace(value)
	}
	if s := strings.TrimSpace(c.Browser.Sessdata); s != "" {
		cookies["SESSDATA"] = s
	}
	return cookies, nil
}

// BrowserSettings 转换为浏览器会话配置
func (c *Config) BrowserSettings() crawlers.BrowserConfig {
	headers, _ := c.HeaderMap()
	cookies, _ := c.CookieMap()
	return crawlers.BrowserConfig{
		Headless:          c.Browser.Headless,
		BinPath:           c.Browser.Bin,
		ViewportWidth:     c.Browser.ViewportWidth,
		ViewportHeight:    c.Browser.ViewportHeight,
		UserAgent:         c.Browser.UserAgent,
		NavigationTimeout: time.Duration(c.Browser.NavigationTimeoutMs) * time.Millisecond,
		SettleDelay:       time.Duration(c.Browser.SettleDelayMs) * time.Millisecond,
		Headers:           headers,
		Cookies:           cookies,
		MinFreeMemoryMB:   c.Resource.MinFreeMemoryMB,
	}
}

// CalibrationSettings 转换为校准参数
func (c *Config) CalibrationSettings() crawlers.CalibrationConfig {
	return crawlers.CalibrationConfig{
		DragOffset: c.Calibration.DragOffset,
		DragSteps:  c.Calibration.DragSteps,
		Hold:       time.Duration(c.Calibration.HoldMs) * time.Millisecond,
		Divisor:    c.Calibration.Divisor,
	}
}

// FetchSettings 转换为资源获取参数
func (c *Config) FetchSettings(progress io.Writer) crawlers.FetchOptions {
	opts := crawlers.FetchOptions{Concurrency: c.Fetch.Concurrency}
	if c.Fetch.ShowProgress {
		opts.Progress = progress
	}
	return opts
}

// LogSettings 转换为日志配置
func (c *Config) LogSettings() utils.LogConfig {
	return utils.LogConfig{
		Level:      c.Logging.Level,
		LogDir:     c.Logging.LogDir,
		MaxSize:    c.Logging.Rotation.MaxSize,
		MaxBackups: c.Logging.Rotation.MaxBackups,
		MaxAge:     c.Logging.Rotation.MaxAge,
		Compress:   c.Logging.Rotation.Compress,
		NoColor:    c.Logging.NoColor,
	}
}
