package crawlers

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mikukko/bilibili-online/internal/models"
	"github.com/mikukko/bilibili-online/internal/utils"
)

// DefaultSelectorStrategies 横幅图层选择器候选,按顺序尝试
var DefaultSelectorStrategies = []string{
	".animated-banner .layer",
	".bili-header__banner .layer",
	".bili-banner .layer",
}

// translatePattern 匹配内联transform中的 translate(Xpx, Ypx)
var translatePattern = regexp.MustCompile(`translate\(\s*(-?\d+(?:\.\d+)?)px\s*,\s*(-?\d+(?:\.\d+)?)px\s*\)`)

// FindLayers 依次尝试选择器候选,返回第一个至少匹配一个元素的选择器及其图层
// 全部候选无匹配时返回 ErrStructureNotFound
func FindLayers(ctx context.Context, page PageDriver, strategies []string) (string, []RawLayer, error) {
	for _, selector := range strategies {
		layers, err := page.QueryLayers(ctx, selector)
		if err != nil {
			return "", nil, err
		}
		if len(layers) > 0 {
			utils.Infof("选择器 %q 匹配到 %d 个图层", selector, len(layers))
			return selector, layers, nil
		}
		utils.Debugf("选择器 %q 无匹配,尝试下一个", selector)
	}
	return "", nil, fmt.Errorf("%w: 已尝试 %d 个选择器 %v", ErrStructureNotFound, len(strategies), strategies)
}

// ParseTranslate 从内联transform字符串中解析平移量
func ParseTranslate(transform string) (float64, float64, error) {
	m := translatePattern.FindStringSubmatch(transform)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedTransform, transform)
	}

	x, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q: %v", ErrMalformedTransform, transform, err)
	}
	y, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q: %v", ErrMalformedTransform, transform, err)
	}
	return x, y, nil
}

// parseOpacity 解析内联opacity,缺省为1,并限制在[0,1]
func parseOpacity(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		utils.Debugf("无法解析opacity %q,按1处理", raw)
		return 1
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// BuildDescriptors 将原始图层转换为图层描述,资源路径在资源获取后才设置
func BuildDescriptors(raw []RawLayer) ([]models.LayerDescriptor, error) {
	layers := make([]models.LayerDescriptor, 0, len(raw))
	for i, r := range raw {
		kind, err := models.ParseElementKind(r.Tag)
		if err != nil {
			return nil, fmt.Errorf("%w: 第%d个图层: %v", ErrStructureNotFound, i+1, err)
		}

		x, y, err := ParseTranslate(r.Transform)
		if err != nil {
			return nil, fmt.Errorf("第%d个图层: %w", i+1, err)
		}

		opacity := parseOpacity(r.Opacity)
		layers = append(layers, models.LayerDescriptor{
			TagName:   kind,
			Opacity:   [2]float64{opacity, opacity},
			Transform: models.NewTranslateTransform(x, y),
			Width:     r.Width,
			Height:    r.Height,
		})
	}
	return layers, nil
}
