package rerank

import (
	"context"

	"github.com/museworks/musekit/core"
	"github.com/museworks/musekit/pipeline"
)

// Diversity 是一个简单的多样性 ReRank：限制同主题条目的数量，
// 避免发现流被单一主题刷屏。主题来源优先级：
// - label["theme"].Value
// - meta["theme"] (string)
type Diversity struct {
	LabelKey    string // 默认 "theme"
	MaxPerTheme int    // 默认 1（每主题保留首个）
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	key := n.LabelKey
	if key == "" {
		key = core.MetaTheme
	}
	maxPer := n.MaxPerTheme
	if maxPer <= 0 {
		maxPer = 1
	}

	count := make(map[string]int, 16)
	out := make([]*core.Item, 0, len(items))

	for _, it := range items {
		if it == nil {
			continue
		}

		theme := ""
		if it.Labels != nil {
			if lbl, ok := it.Labels[key]; ok {
				theme = lbl.Value
			}
		}
		if theme == "" {
			theme = it.MetaString(key)
		}

		if theme == "" {
			out = append(out, it)
			continue
		}
		if count[theme] >= maxPer {
			continue
		}
		count[theme]++
		out = append(out, it)
	}

	return out, nil
}
