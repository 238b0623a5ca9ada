package recall

import (
	"context"
	"fmt"
	"sort"

	"github.com/museworks/musekit/core"
	"github.com/museworks/musekit/pipeline"
	"github.com/museworks/musekit/pkg/utils"
)

// HiddenGems 是冷门遗珠召回源：挑出交互量低但口碑好的条目。
//
// 入选条件：交互事件数 < MaxInteractions，且（配置了偏好主题集时）
// 主题落在访客偏好内。排序为 赞成率降序、交互数升序、名称升序，
// 让"被很少人看过但看过的人都说好"的馆排在最前面。
type HiddenGems struct {
	Catalog core.CatalogStore
	Events  core.EventStore

	MaxInteractions int // 0 时取 10
	Limit           int // 0 表示不截断
	ThemeBound      bool
}

func (r *HiddenGems) Name() string        { return "recall.hidden_gems" }
func (r *HiddenGems) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *HiddenGems) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

type gemStat struct {
	item         *core.Item
	interactions int
	approval     float64
}

// Recall 实现 Source 接口
func (r *HiddenGems) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Catalog == nil {
		return nil, nil
	}
	items, err := r.Catalog.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}

	maxInteractions := r.MaxInteractions
	if maxInteractions <= 0 {
		maxInteractions = 10
	}

	var themes map[string]bool
	if r.ThemeBound && rctx != nil && rctx.Profile != nil {
		themes = rctx.Profile.ThemeSet()
	}

	gems := make([]gemStat, 0, len(items))
	for _, it := range items {
		if len(themes) > 0 && !themes[it.Theme()] {
			continue
		}
		count := 0
		if r.Events != nil {
			events, err := r.Events.List(ctx, core.EventQuery{ItemID: it.ID})
			if err != nil {
				return nil, fmt.Errorf("list events: %w", err)
			}
			count = len(events)
		}
		if count >= maxInteractions {
			continue
		}
		gems = append(gems, gemStat{
			item:         it,
			interactions: count,
			approval:     approvalRate(it),
		})
	}

	sort.SliceStable(gems, func(i, j int) bool {
		if gems[i].approval != gems[j].approval {
			return gems[i].approval > gems[j].approval
		}
		if gems[i].interactions != gems[j].interactions {
			return gems[i].interactions < gems[j].interactions
		}
		return gems[i].item.MetaString(core.MetaName) < gems[j].item.MetaString(core.MetaName)
	})

	if r.Limit > 0 && len(gems) > r.Limit {
		gems = gems[:r.Limit]
	}

	out := make([]*core.Item, 0, len(gems))
	for _, g := range gems {
		g.item.PutLabel("recall_source", utils.Label{Value: r.Name(), Source: "recall"})
		out = append(out, g.item)
	}
	return out, nil
}

// approvalRate 返回条目的赞成率 thumbs_up / (thumbs_up + thumbs_down)。
// 无投票时返回 0，冷启动条目靠交互数升序兜底。
func approvalRate(it *core.Item) float64 {
	up, _ := it.MetaFloat(core.MetaThumbsUp)
	down, _ := it.MetaFloat(core.MetaThumbsDown)
	if up+down == 0 {
		return 0
	}
	return up / (up + down)
}
