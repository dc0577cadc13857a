package crawlers

import (
	"context"
	"fmt"
	"io"

	"github.com/mikukko/bilibili-online/internal/models"
	"github.com/mikukko/bilibili-online/internal/utils"
	"golang.org/x/sync/errgroup"
)

// FetchOptions 资源获取配置
type FetchOptions struct {
	Concurrency int       // 并发请求数,<=1 时顺序获取
	Progress    io.Writer // 进度条输出,为nil时不显示
}

// FetchAssets 通过浏览器获取全部图层资源并计算哈希,结果与图层顺序一致
// 资源仅保存在内存中,不写磁盘
func FetchAssets(ctx context.Context, page PageDriver, raw []RawLayer, opts FetchOptions) ([]models.BufferedAsset, error) {
	assets := make([]models.BufferedAsset, len(raw))

	limit := opts.Concurrency
	if limit < 1 {
		limit = 1
	}

	var advance func()
	if opts.Progress != nil {
		bar := utils.NewProgressBar(len(raw), "获取图层资源", opts.Progress)
		defer bar.Finish()
		advance = func() { _ = bar.Add(1) }
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, layer := range raw {
		i, src := i, layer.Src
		g.Go(func() error {
			if src == "" {
				return fmt.Errorf("%w: 第%d个图层没有资源地址", ErrAssetFetch, i+1)
			}

			data, err := page.FetchAsset(gctx, src)
			if err != nil {
				return err
			}

			assets[i] = models.BufferedAsset{
				SourceURL: src,
				Hash:      utils.HashContent(data),
				Data:      data,
			}
			if advance != nil {
				advance()
			}
			utils.Debugf("📥 获取成功: %s (%d bytes)", src, len(data))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// 文件名在全部获取完成后按图层顺序分配,保证结果确定
	used := make(map[string]bool, len(assets))
	for i := range assets {
		assets[i].FileName = utils.UniqueFileName(utils.AssetFileName(assets[i].SourceURL, i), used)
	}

	return assets, nil
}
