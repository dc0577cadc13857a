package crawlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mikukko/bilibili-online/internal/models"
	"github.com/mikukko/bilibili-online/internal/utils"
)

// fakePage 内存中的 PageDriver 实现
type fakePage struct {
	mu sync.Mutex

	layers  map[string][]RawLayer // 选择器 -> 图层
	dragged map[string][]RawLayer // 拖动后选择器 -> 图层
	assets  map[string][]byte     // src -> 内容

	isDragged bool
	released  bool
	queries   []string
}

func (p *fakePage) QueryLayers(ctx context.Context, selector string) ([]RawLayer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queries = append(p.queries, selector)
	if p.isDragged && p.dragged != nil {
		return p.dragged[selector], nil
	}
	return p.layers[selector], nil
}

func (p *fakePage) FetchAsset(ctx context.Context, src string) ([]byte, error) {
	data, ok := p.assets[src]
	if !ok {
		return nil, fmt.Errorf("%w: %s 404", ErrAssetFetch, src)
	}
	return data, nil
}

func (p *fakePage) PressAndDrag(ctx context.Context, selector string, offset float64, steps int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.isDragged = true
	return nil
}

func (p *fakePage) ReleasePointer(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released = true
	return nil
}

func rawLayer(tag string, x float64, src string) RawLayer {
	return RawLayer{
		Tag:       tag,
		Opacity:   "1",
		Transform: fmt.Sprintf("translate(%gpx, 0px) rotate(0deg) scale(1)", x),
		Width:     1650,
		Height:    155,
		Src:       src,
	}
}

func TestFindLayers(t *testing.T) {
	three := []RawLayer{
		rawLayer("img", 0, "https://i0.hdslb.com/a.png"),
		rawLayer("img", 10, "https://i0.hdslb.com/b.png"),
		rawLayer("video", 20, "https://i0.hdslb.com/c.webm"),
	}

	t.Run("回退到第二个选择器", func(t *testing.T) {
		page := &fakePage{layers: map[string][]RawLayer{".b .layer": three}}

		selector, raw, err := FindLayers(context.Background(), page, []string{".a .layer", ".b .layer"})
		if err != nil {
			t.Fatalf("FindLayers 失败: %v", err)
		}
		if selector != ".b .layer" {
			t.Errorf("期望选择器 .b .layer, 得到 %q", selector)
		}

		layers, err := BuildDescriptors(raw)
		if err != nil {
			t.Fatalf("BuildDescriptors 失败: %v", err)
		}
		if len(layers) != 3 {
			t.Errorf("期望3个图层, 得到 %d", len(layers))
		}
	})

	t.Run("第一个选择器命中即停止", func(t *testing.T) {
		page := &fakePage{layers: map[string][]RawLayer{".a .layer": three[:1], ".b .layer": three}}

		selector, raw, err := FindLayers(context.Background(), page, []string{".a .layer", ".b .layer"})
		if err != nil {
			t.Fatalf("FindLayers 失败: %v", err)
		}
		if selector != ".a .layer" || len(raw) != 1 {
			t.Errorf("期望 .a .layer 的1个图层, 得到 %q 的 %d 个", selector, len(raw))
		}
		if diff := cmp.Diff([]string{".a .layer"}, page.queries); diff != "" {
			t.Errorf("查询顺序不一致 (-want +got):\n%s", diff)
		}
	})

	t.Run("全部无匹配", func(t *testing.T) {
		page := &fakePage{}
		_, _, err := FindLayers(context.Background(), page, DefaultSelectorStrategies)
		if !errors.Is(err, ErrStructureNotFound) {
			t.Errorf("期望 ErrStructureNotFound, 得到 %v", err)
		}
		if len(page.queries) != len(DefaultSelectorStrategies) {
			t.Errorf("应尝试全部 %d 个选择器, 实际 %d", len(DefaultSelectorStrategies), len(page.queries))
		}
	})
}

func TestParseTranslate(t *testing.T) {
	tests := []struct {
		name      string
		transform string
		wantX     float64
		wantY     float64
		wantErr   bool
	}{
		{"小数和负数", "translate(120.5px, -30px)", 120.5, -30, false},
		{"带其他变换", "translate(0px, 0px) rotate(0deg) scale(1)", 0, 0, false},
		{"无空格", "translate(-12px,4.25px)", -12, 4.25, false},
		{"前置其他变换", "scale(1.2) translate(5px, 6px)", 5, 6, false},
		{"缺少translate", "rotate(10deg)", 0, 0, true},
		{"空字符串", "", 0, 0, true},
		{"非像素单位", "translate(10%, 20%)", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, err := ParseTranslate(tt.transform)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedTransform) {
					t.Errorf("期望 ErrMalformedTransform, 得到 %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("解析失败: %v", err)
			}
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("期望 (%v, %v), 得到 (%v, %v)", tt.wantX, tt.wantY, x, y)
			}
		})
	}
}

func TestParseOpacity(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"", 1},
		{"0.5", 0.5},
		{" 0 ", 0},
		{"1.7", 1},
		{"-1", 0},
		{"abc", 1},
	}

	for _, tt := range tests {
		if got := parseOpacity(tt.raw); got != tt.want {
			t.Errorf("parseOpacity(%q) = %v, 期望 %v", tt.raw, got, tt.want)
		}
	}
}

func TestBuildDescriptors(t *testing.T) {
	t.Run("转换字段", func(t *testing.T) {
		raw := []RawLayer{{Tag: "video", Opacity: "0.8", Transform: "translate(120.5px, -30px)", Width: 300, Height: 155, Src: "x"}}

		layers, err := BuildDescriptors(raw)
		if err != nil {
			t.Fatalf("BuildDescriptors 失败: %v", err)
		}

		want := []models.LayerDescriptor{{
			TagName:   models.KindVideo,
			Opacity:   [2]float64{0.8, 0.8},
			Transform: models.Transform{1, 0, 0, 1, 120.5, -30},
			Width:     300,
			Height:    155,
		}}
		if diff := cmp.Diff(want, layers); diff != "" {
			t.Errorf("图层不一致 (-want +got):\n%s", diff)
		}
	})

	t.Run("不支持的元素", func(t *testing.T) {
		_, err := BuildDescriptors([]RawLayer{{Tag: "canvas", Transform: "translate(0px, 0px)"}})
		if !errors.Is(err, ErrStructureNotFound) {
			t.Errorf("期望 ErrStructureNotFound, 得到 %v", err)
		}
	})

	t.Run("transform异常", func(t *testing.T) {
		_, err := BuildDescriptors([]RawLayer{{Tag: "img", Transform: "none"}})
		if !errors.Is(err, ErrMalformedTransform) {
			t.Errorf("期望 ErrMalformedTransform, 得到 %v", err)
		}
	})
}

func TestFetchAssets(t *testing.T) {
	page := &fakePage{assets: map[string][]byte{
		"https://i0.hdslb.com/bfs/a.png":  []byte("aaa"),
		"https://i0.hdslb.com/bfs/b.webm": []byte("bbbb"),
		"https://i1.hdslb.com/bfs/a.png":  []byte("other a"),
	}}
	raw := []RawLayer{
		{Src: "https://i0.hdslb.com/bfs/a.png"},
		{Src: "https://i0.hdslb.com/bfs/b.webm"},
		{Src: "https://i1.hdslb.com/bfs/a.png"},
	}

	t.Run("顺序与文件名", func(t *testing.T) {
		var progress strings.Builder
		assets, err := FetchAssets(context.Background(), page, raw, FetchOptions{Concurrency: 3, Progress: &progress})
		if err != nil {
			t.Fatalf("FetchAssets 失败: %v", err)
		}
		if len(assets) != 3 {
			t.Fatalf("期望3个资源, 得到 %d", len(assets))
		}

		wantNames := []string{"a.png", "b.webm", "a_1.png"}
		for i, a := range assets {
			if a.SourceURL != raw[i].Src {
				t.Errorf("第%d个资源顺序错误: %s", i, a.SourceURL)
			}
			if a.FileName != wantNames[i] {
				t.Errorf("第%d个文件名: 期望 %q, 得到 %q", i, wantNames[i], a.FileName)
			}
			if a.Hash != utils.HashContent(page.assets[raw[i].Src]) {
				t.Errorf("第%d个哈希不匹配", i)
			}
		}
	})

	t.Run("单个失败则整体失败", func(t *testing.T) {
		broken := append([]RawLayer{}, raw...)
		broken = append(broken, RawLayer{Src: "https://i0.hdslb.com/missing.png"})

		if _, err := FetchAssets(context.Background(), page, broken, FetchOptions{Concurrency: 2}); !errors.Is(err, ErrAssetFetch) {
			t.Errorf("期望 ErrAssetFetch, 得到 %v", err)
		}
	})

	t.Run("资源地址为空", func(t *testing.T) {
		if _, err := FetchAssets(context.Background(), page, []RawLayer{{}}, FetchOptions{}); !errors.Is(err, ErrAssetFetch) {
			t.Errorf("期望 ErrAssetFetch, 得到 %v", err)
		}
	})
}

func TestCoefficient(t *testing.T) {
	tests := []struct {
		name     string
		original float64
		shifted  float64
		divisor  float64
		want     float64
	}{
		{"正向位移", 100, 350, 1000, 0.25},
		{"反向位移", 0, -500, 1000, -0.5},
		{"无位移", 42, 42, 1000, 0},
		{"除数为0", 0, 10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Coefficient(tt.original, tt.shifted, tt.divisor); got != tt.want {
				t.Errorf("期望 %v, 得到 %v", tt.want, got)
			}
		})
	}
}

func TestCalibrate(t *testing.T) {
	selector := ".animated-banner .layer"
	cfg := CalibrationConfig{DragOffset: 1000, DragSteps: 5, Hold: time.Millisecond, Divisor: 1000}

	initial := []RawLayer{rawLayer("img", 100, "a"), rawLayer("img", 0, "b")}

	t.Run("写入视差系数", func(t *testing.T) {
		page := &fakePage{
			layers:  map[string][]RawLayer{selector: initial},
			dragged: map[string][]RawLayer{selector: {rawLayer("img", 350, "a"), rawLayer("img", -200, "b")}},
		}
		layers, err := BuildDescriptors(initial)
		if err != nil {
			t.Fatal(err)
		}

		if err := Calibrate(context.Background(), page, selector, layers, cfg); err != nil {
			t.Fatalf("Calibrate 失败: %v", err)
		}
		if layers[0].A != 0.25 {
			t.Errorf("第1个图层系数: 期望 0.25, 得到 %v", layers[0].A)
		}
		if layers[1].A != -0.2 {
			t.Errorf("第2个图层系数: 期望 -0.2, 得到 %v", layers[1].A)
		}
		if !page.released {
			t.Error("校准后应释放指针")
		}
	})

	t.Run("拖动后图层数变化", func(t *testing.T) {
		page := &fakePage{
			layers:  map[string][]RawLayer{selector: initial},
			dragged: map[string][]RawLayer{selector: initial[:1]},
		}
		layers, _ := BuildDescriptors(initial)

		err := Calibrate(context.Background(), page, selector, layers, cfg)
		if !errors.Is(err, ErrStructureNotFound) {
			t.Errorf("期望 ErrStructureNotFound, 得到 %v", err)
		}
		if !page.released {
			t.Error("失败时也应释放指针")
		}
	})

	t.Run("等待被取消", func(t *testing.T) {
		page := &fakePage{layers: map[string][]RawLayer{selector: initial}}
		layers, _ := BuildDescriptors(initial)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		long := cfg
		long.Hold = time.Hour
		if err := Calibrate(ctx, page, selector, layers, long); !errors.Is(err, context.Canceled) {
			t.Errorf("期望 context.Canceled, 得到 %v", err)
		}
	})
}

func TestCheckResources(t *testing.T) {
	// 阈值<=0 只记录状态,不会失败
	if err := CheckResources(0); err != nil {
		t.Errorf("CheckResources(0) 不应失败: %v", err)
	}

	// 要求远超任何机器的可用内存
	if err := CheckResources(1 << 30); err != nil && !errors.Is(err, ErrInsufficientMemory) {
		t.Errorf("期望 ErrInsufficientMemory, 得到 %v", err)
	}
}

func TestBrowserSession_CloseTwice(t *testing.T) {
	s := &BrowserSession{}

	for i := 1; i <= 2; i++ {
		if err := s.Close(); err != nil {
			t.Errorf("第%d次 Close 应返回nil, 得到 %v", i, err)
		}
	}
	if !s.closed {
		t.Error("Close 后应标记为已关闭")
	}
}
