package recall

import (
	"context"
	"encoding/json"

	"github.com/museworks/musekit/core"
	"github.com/museworks/musekit/pipeline"
	"github.com/museworks/musekit/pkg/utils"
)

// Hot 是热门召回源，支持从 Store 读取热门条目列表。
// - 如果 Store 实现了 KeyValueStore，优先使用 ZRange（有序集合，按热度排序）
// - zset 为空或不支持时，从普通 key 读取 JSON 数组
// - 两者都读不到时，使用内存中的 IDs 作为 fallback
// 配置了 Catalog 时会把 ID 水合成完整条目（名称/主题/坐标），
// 否则只返回裸 ID 条目。
// Hot 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type Hot struct {
	Store   core.Store
	Catalog core.CatalogStore
	Key     string   // 存储 key，例如 "hot:museums"
	IDs     []string // fallback 内存列表
	Limit   int      // ZRange 截断，0 时取 100
}

func (r *Hot) Name() string        { return "recall.hot" }
func (r *Hot) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Hot) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *Hot) Recall(
	ctx context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	var ids []string

	// 优先从 Store 读取：先试 ZRange，zset 为空再退回普通 Get
	if r.Store != nil && r.Key != "" {
		if kvStore, ok := r.Store.(core.KeyValueStore); ok {
			limit := r.Limit
			if limit <= 0 {
				limit = 100
			}
			members, err := kvStore.ZRange(ctx, r.Key, 0, int64(limit-1))
			if err == nil && len(members) > 0 {
				ids = members
			}
		}
		if len(ids) == 0 {
			data, err := r.Store.Get(ctx, r.Key)
			if err == nil {
				var parsed []string
				if json.Unmarshal(data, &parsed) == nil {
					ids = parsed
				}
			}
		}
	}

	// Fallback：使用内存 IDs
	if len(ids) == 0 {
		ids = r.IDs
	}

	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		it := r.hydrate(ctx, id)
		if it == nil {
			continue
		}
		it.PutLabel("recall_source", utils.Label{Value: r.Name(), Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// hydrate 用目录补全条目元数据；目录缺失或条目未知时退化为裸 ID。
func (r *Hot) hydrate(ctx context.Context, id string) *core.Item {
	if r.Catalog == nil {
		return core.NewItem(id)
	}
	it, err := r.Catalog.GetItem(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return nil
		}
		return core.NewItem(id)
	}
	return it
}
