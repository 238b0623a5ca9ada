package recall

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/museworks/musekit/core"
	"github.com/museworks/musekit/pipeline"
	"github.com/museworks/musekit/pkg/utils"
)

// Fanout 是一个 Recall Node：并发执行多个召回源，并合并结果。
// 支持超时、限流、优先级合并策略。
type Fanout struct {
	Sources       []Source
	Dedup         bool
	Timeout       time.Duration // 每个召回源的超时时间
	MaxConcurrent int           // 最大并发数（0 表示无限制）
	MergeStrategy string        // 合并策略：first / union / priority（优先级按 Sources 顺序）
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	var mu sync.Mutex
	bySrc := make([][]*core.Item, len(n.Sources))
	eg, ectx := errgroup.WithContext(ctx)
	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}

	for i, src := range n.Sources {
		i, s := i, src
		eg.Go(func() error {
			recallCtx := ectx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(ectx, n.Timeout)
				defer cancel()
			}

			items, err := s.Recall(recallCtx, rctx)
			if err != nil {
				// 超时或错误时返回空结果，不中断其他召回源
				return nil
			}

			// 记录召回来源 label，方便 explain / 观测
			for _, it := range items {
				if _, ok := it.Labels["recall_source"]; !ok {
					it.PutLabel("recall_source", utils.Label{Value: s.Name(), Source: "recall"})
				}
			}

			mu.Lock()
			bySrc[i] = items
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// 按 Sources 顺序拼接，保证结果确定
	var all []*core.Item
	for _, items := range bySrc {
		all = append(all, items...)
	}

	if n.MergeStrategy == "union" {
		return all, nil
	}
	// first / priority：Sources 顺序即优先级，同 ID 保留先出现的
	return n.mergeFirst(all), nil
}

// mergeFirst 按 ID 去重，保留第一个出现的。
func (n *Fanout) mergeFirst(all []*core.Item) []*core.Item {
	if !n.Dedup {
		return all
	}
	seen := make(map[string]*core.Item, len(all))
	out := make([]*core.Item, 0, len(all))
	for _, it := range all {
		if it == nil {
			continue
		}
		if old, ok := seen[it.ID]; ok {
			for k, v := range it.Labels {
				if _, has := old.Labels[k]; !has {
					old.PutLabel(k, v)
				}
			}
			continue
		}
		seen[it.ID] = it
		out = append(out, it)
	}
	return out
}
