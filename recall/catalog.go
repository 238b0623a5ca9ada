package recall

import (
	"context"
	"fmt"

	"github.com/museworks/musekit/core"
	"github.com/museworks/musekit/pipeline"
	"github.com/museworks/musekit/pkg/utils"
)

// Catalog 是全量目录召回源：把目录里的全部条目作为候选集。
// 博物馆目录是小而全的（几十到几百条），全量进入管道再靠
// 过滤和混排收敛，比预先截断更不容易漏掉冷门馆。
// Catalog 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type Catalog struct {
	Store core.CatalogStore
	Limit int // 0 表示不截断
}

func (r *Catalog) Name() string        { return "recall.catalog" }
func (r *Catalog) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Catalog) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *Catalog) Recall(
	ctx context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Store == nil {
		return nil, nil
	}
	items, err := r.Store.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	if r.Limit > 0 && len(items) > r.Limit {
		items = items[:r.Limit]
	}
	for _, it := range items {
		it.PutLabel("recall_source", utils.Label{Value: r.Name(), Source: "recall"})
	}
	return items, nil
}
