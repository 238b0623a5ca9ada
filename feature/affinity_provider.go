// Package feature 是特征服务的基础设施层：实现 core.FeatureService，
// 并提供把特征注入候选条目的 EnrichNode。
package feature

import (
	"context"
	"fmt"

	"github.com/museworks/musekit/affinity"
	"github.com/museworks/musekit/core"
)

// AffinityService 是默认特征服务：所有特征都由事件日志回放得出，
// 不依赖外部 Feature Store。
//
// 访客特征：
//   - theme_aff:<theme>  各主题亲和分
//   - engagement         总活跃度
//
// 条目特征：
//   - popularity   热度（跨用户分数和）
//   - thumbs_up    点赞数
//   - thumbs_down  点踩数
type AffinityService struct {
	agg    *affinity.Aggregator
	events core.EventStore
}

var _ core.FeatureService = (*AffinityService)(nil)

func NewAffinityService(agg *affinity.Aggregator, events core.EventStore) *AffinityService {
	return &AffinityService{agg: agg, events: events}
}

func (s *AffinityService) Name() string { return "feature.affinity" }

func (s *AffinityService) GetUserFeatures(ctx context.Context, userID string) (map[string]float64, error) {
	out := make(map[string]float64)
	if userID == "" {
		return out, nil
	}

	byTheme, err := s.agg.ThemeAffinity(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("theme affinity: %w", err)
	}
	for theme, score := range byTheme {
		out["theme_aff:"+theme] = float64(score)
	}

	engagement, err := s.agg.Engagement(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("engagement: %w", err)
	}
	out["engagement"] = float64(engagement)
	return out, nil
}

func (s *AffinityService) GetItemFeatures(ctx context.Context, itemID string) (map[string]float64, error) {
	out := make(map[string]float64)
	if itemID == "" {
		return out, nil
	}

	popularity, err := s.agg.Popularity(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("popularity: %w", err)
	}
	out["popularity"] = float64(popularity)

	if s.events != nil {
		events, err := s.events.List(ctx, core.EventQuery{ItemID: itemID})
		if err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		up, down := 0, 0
		for _, ev := range events {
			switch ev.Kind {
			case core.KindThumbsUp:
				up++
			case core.KindThumbsDown:
				down++
			}
		}
		out["thumbs_up"] = float64(up)
		out["thumbs_down"] = float64(down)
	}
	return out, nil
}

func (s *AffinityService) BatchGetItemFeatures(ctx context.Context, itemIDs []string) (map[string]map[string]float64, error) {
	out := make(map[string]map[string]float64, len(itemIDs))
	for _, id := range itemIDs {
		features, err := s.GetItemFeatures(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = features
	}
	return out, nil
}

func (s *AffinityService) Close() error { return nil }
