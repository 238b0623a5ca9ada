// Package affinity 把事件日志折叠成派生视图：主题亲和、engagement、条目热度。
//
// 这些值永远是事件日志的回放结果，不落地、不缓存：
// (user, theme) 的亲和分 = 该用户所有事件中，条目主题为 theme 的 Points 之和；
// 条目热度 = 引用该条目的所有事件的 Points 之和。
// 事件重复会重复计数，事件缺失会少计数，均由写入侧的 best-effort 语义决定，这里不纠正。
package affinity

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/museworks/musekit/core"
	"github.com/museworks/musekit/scoring"
)

// Aggregator 从事件日志与目录计算派生分数。
// 无共享可变状态，多请求并发使用安全。
type Aggregator struct {
	events  core.EventStore
	catalog core.CatalogStore
}

func New(events core.EventStore, catalog core.CatalogStore) *Aggregator {
	return &Aggregator{events: events, catalog: catalog}
}

// ThemeScore 是排好序的 (主题, 分数) 对。
type ThemeScore struct {
	Theme string
	Score int
}

// ThemeAffinity 回放用户事件，按条目主题聚合分数。
// 未知用户返回空 map（零历史是合法状态，不是错误）；
// 条目在目录中不存在或无主题的事件被跳过。
func (a *Aggregator) ThemeAffinity(ctx context.Context, userID string) (map[string]int, error) {
	return a.themeAffinitySince(ctx, userID, time.Time{})
}

// RecentThemeAffinity 只统计 window 时间窗口内的事件，
// 用于混排时的动态主题提升：近期涨得快的主题会被并入偏好集。
func (a *Aggregator) RecentThemeAffinity(ctx context.Context, userID string, window time.Duration) (map[string]int, error) {
	since := time.Time{}
	if window > 0 {
		since = time.Now().Add(-window)
	}
	return a.themeAffinitySince(ctx, userID, since)
}

func (a *Aggregator) themeAffinitySince(ctx context.Context, userID string, since time.Time) (map[string]int, error) {
	if userID == "" {
		return map[string]int{}, nil
	}

	events, err := a.events.List(ctx, core.EventQuery{UserID: userID, Since: since})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	themes, err := a.itemThemes(ctx)
	if err != nil {
		return nil, err
	}

	byTheme := make(map[string]int)
	for _, ev := range events {
		theme := themes[ev.ItemID]
		if theme == "" {
			continue
		}
		byTheme[theme] += scoring.Points(ev.Kind, ev.DurationSec)
	}
	return byTheme, nil
}

// TopThemes 返回亲和分最高的前 n 个主题。
// 同分按主题名升序，保证结果确定。
func (a *Aggregator) TopThemes(ctx context.Context, userID string, n int) ([]ThemeScore, error) {
	byTheme, err := a.ThemeAffinity(ctx, userID)
	if err != nil {
		return nil, err
	}
	return RankThemes(byTheme, n), nil
}

// RankThemes 把亲和 map 转成确定顺序的排名：分数降序，同分主题名升序。
func RankThemes(byTheme map[string]int, n int) []ThemeScore {
	ranked := make([]ThemeScore, 0, len(byTheme))
	for theme, score := range byTheme {
		ranked = append(ranked, ThemeScore{Theme: theme, Score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Theme < ranked[j].Theme
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Engagement 返回用户所有事件的分数之和。
func (a *Aggregator) Engagement(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, nil
	}
	events, err := a.events.List(ctx, core.EventQuery{UserID: userID})
	if err != nil {
		return 0, fmt.Errorf("list events: %w", err)
	}
	total := 0
	for _, ev := range events {
		total += scoring.Points(ev.Kind, ev.DurationSec)
	}
	return total, nil
}

// Popularity 返回条目的热度：引用它的所有事件（跨用户）的分数之和。
// 未知条目返回 0。
func (a *Aggregator) Popularity(ctx context.Context, itemID string) (int, error) {
	if itemID == "" {
		return 0, nil
	}
	events, err := a.events.List(ctx, core.EventQuery{ItemID: itemID})
	if err != nil {
		return 0, fmt.Errorf("list events: %w", err)
	}
	total := 0
	for _, ev := range events {
		total += scoring.Points(ev.Kind, ev.DurationSec)
	}
	return total, nil
}

// ItemTheme 返回条目的主题标签；未知条目返回 ""，不返回错误。
func (a *Aggregator) ItemTheme(ctx context.Context, itemID string) (string, error) {
	it, err := a.catalog.GetItem(ctx, itemID)
	if err != nil {
		if core.IsNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("get item: %w", err)
	}
	return it.Theme(), nil
}

// itemThemes 构建 条目ID → 主题 的映射，用于事件与主题的 join。
func (a *Aggregator) itemThemes(ctx context.Context) (map[string]string, error) {
	items, err := a.catalog.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	themes := make(map[string]string, len(items))
	for _, it := range items {
		if theme := it.Theme(); theme != "" {
			themes[it.ID] = theme
		}
	}
	return themes, nil
}
