package feature

import (
	"context"

	"github.com/museworks/musekit/core"
	"github.com/museworks/musekit/pipeline"
)

// EnrichNode 是特征注入节点：把访客特征和条目特征合并到候选的
// Features 上，供下游排序和混排读取。
//
// 前缀约定：
//   - 访客特征带 user_ 前缀（user_theme_aff:Art、user_engagement）
//   - 条目特征带 item_ 前缀（item_popularity、item_thumbs_up）
//
// 特征服务失败时不中断管道：对应特征缺失，下游按 0 处理。
type EnrichNode struct {
	Service core.FeatureService

	UserPrefix string // 默认 "user_"
	ItemPrefix string // 默认 "item_"
}

func NewEnrichNode(svc core.FeatureService) *EnrichNode {
	return &EnrichNode{Service: svc}
}

func (n *EnrichNode) Name() string        { return "feature.enrich" }
func (n *EnrichNode) Kind() pipeline.Kind { return pipeline.KindPostProcess }

func (n *EnrichNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Service == nil || len(items) == 0 {
		return items, nil
	}

	userPrefix := n.UserPrefix
	if userPrefix == "" {
		userPrefix = "user_"
	}
	itemPrefix := n.ItemPrefix
	if itemPrefix == "" {
		itemPrefix = "item_"
	}

	var userFeatures map[string]float64
	if rctx != nil && rctx.UserID != "" {
		if features, err := n.Service.GetUserFeatures(ctx, rctx.UserID); err == nil {
			userFeatures = features
		}
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		if it != nil {
			ids = append(ids, it.ID)
		}
	}
	itemFeatures, err := n.Service.BatchGetItemFeatures(ctx, ids)
	if err != nil {
		itemFeatures = nil
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		if it.Features == nil {
			it.Features = make(map[string]float64)
		}
		for k, v := range userFeatures {
			it.Features[userPrefix+k] = v
		}
		for k, v := range itemFeatures[it.ID] {
			it.Features[itemPrefix+k] = v
		}
	}
	return items, nil
}
