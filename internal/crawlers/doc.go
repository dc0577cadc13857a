// Package crawlers 提供B站首页横幅的浏览器驱动、图层提取、资源获取和视差校准
//
// # 概述
//
// 采集依赖真实浏览器渲染: 横幅图层由页面脚本动态插入,资源URL带签名参数,
// 只有在页面上下文中才能以与前端一致的方式读取和下载。
//
// # 核心组件
//
// ## BrowserSession
//
// 基于go-rod的单次会话。启动前用gopsutil检查可用内存,启用stealth并移除
// navigator.webdriver,按配置设置视口、UA、额外请求头和Cookie。
// Close 可重复调用,总会终止浏览器进程。
//
//	s, err := OpenBrowser(ctx, config)
//	defer s.Close()
//	err = s.Navigate(ctx, "https://www.bilibili.com/")
//
// ## PageDriver
//
// 页面操作的最小接口,BrowserSession 的页面实现它,测试中用内存实现替换:
//
//	selector, raw, err := FindLayers(ctx, page, DefaultSelectorStrategies)
//	layers, err := BuildDescriptors(raw)
//	assets, err := FetchAssets(ctx, page, raw, FetchOptions{Concurrency: 4})
//
// ## 视差校准
//
// Calibrate 在横幅上按下指针并水平拖动,拖动后重新读取每个图层的translateX,
// 系数 a = (拖动后X - 原始X) / Divisor。校准会改变页面状态,
// 只应在去重确认为新横幅之后调用。
//
// # 错误
//
// 失败按类型区分,调用方可用 errors.Is 判断:
//   - ErrStructureNotFound: 所有选择器均无匹配,或图层元素类型不支持
//   - ErrMalformedTransform: 内联transform中找不到translate
//   - ErrNavigation: 页面加载失败或超时
//   - ErrAssetFetch: 资源请求失败或为空
//   - ErrInsufficientMemory: 启动前可用内存不足
package crawlers
