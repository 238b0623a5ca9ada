package rank

import (
	"context"
	"fmt"
	"sort"

	"github.com/museworks/musekit/core"
	"github.com/museworks/musekit/pipeline"
	"github.com/museworks/musekit/pkg/utils"
)

// AffinityNode 是线性打分排序 Node：
//
//	score = AffinityWeight * 用户对条目主题的亲和分 + PopularityWeight * 条目热度
//
// 两个输入都来自上游 EnrichNode 注入的特征：
//   - user_theme_aff:<theme>（用户侧）
//   - item_popularity（条目侧）
//
// 特征缺失按 0 处理，零历史用户自然退化为纯热度排序。
// - 写入 labels：rank_model
// - 更新 item.Score 并按分数降序排序，同分按热度降序、ID 升序
type AffinityNode struct {
	AffinityWeight   float64
	PopularityWeight float64
}

// NewAffinityNode 返回默认权重（亲和 1.0、热度 0.1）：
// 个人历史主导排序，热度只做同主题内的次级排序。
func NewAffinityNode() *AffinityNode {
	return &AffinityNode{AffinityWeight: 1.0, PopularityWeight: 0.1}
}

func (n *AffinityNode) Name() string        { return "rank.affinity" }
func (n *AffinityNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *AffinityNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		affinity := it.Features["user_theme_aff:"+it.Theme()]
		popularity := it.Features["item_popularity"]
		it.Score = n.AffinityWeight*affinity + n.PopularityWeight*popularity
		it.PutLabel("rank_model", utils.Label{
			Value:  fmt.Sprintf("affinity=%.1f popularity=%.1f", affinity, popularity),
			Source: n.Name(),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		pi := items[i].Features["item_popularity"]
		pj := items[j].Features["item_popularity"]
		if pi != pj {
			return pi > pj
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}
