package rerank

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/museworks/musekit/affinity"
	"github.com/museworks/musekit/core"
	"github.com/museworks/musekit/pipeline"
	"github.com/museworks/musekit/pkg/utils"
)

// DiscoveryMixer 是发现流混排节点：把排好序的候选切成
// 偏好槽（主题命中偏好集）和探索槽（主题不命中），
// 按探索比例配额重组，保证每页都有"熟悉的"和"没见过的"。
//
// 偏好集 = 画像显式偏好主题 ∪ 近期亲和分最高的 PromoteTop 个主题，
// 后者让行为变化先于画像编辑生效。
//
// 探索比例由发现风格决定（base/cap）：
//
//	classics     0.10 / 0.15
//	balanced     0.30 / 0.35
//	hidden_gems  0.50 / 0.55
//	其他         0.20 / 0.25
//
// 再加 engagement 加成 min(0.05, engagement/2000)，整体不超过 cap。
// 探索槽非空时至少探索 1 个；任一槽不足时由另一槽补齐，
// 输出条数恒等于 min(max_results, 候选数)。
//
// - 写入 item labels：slice（preferred / exploration）
// - 写入 rctx labels：promoted_themes、exploration_ratio
type DiscoveryMixer struct {
	Agg *affinity.Aggregator

	MaxResults   int           // 默认 12，可被 rctx params["max_results"] 覆盖
	PromoteTop   int           // 近期主题提升个数，默认 2
	RecentWindow time.Duration // 近期亲和窗口，默认 7 天
}

func NewDiscoveryMixer(agg *affinity.Aggregator) *DiscoveryMixer {
	return &DiscoveryMixer{
		Agg:          agg,
		MaxResults:   12,
		PromoteTop:   2,
		RecentWindow: 7 * 24 * time.Hour,
	}
}

func (n *DiscoveryMixer) Name() string        { return "rerank.discovery_mixer" }
func (n *DiscoveryMixer) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *DiscoveryMixer) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	maxResults := n.MaxResults
	if maxResults <= 0 {
		maxResults = 12
	}
	if rctx != nil {
		maxResults = rctx.ParamInt("max_results", maxResults)
	}
	if maxResults <= 0 {
		return nil, nil
	}

	items = dedupByID(items)

	preferred := n.effectiveThemes(ctx, rctx)
	if len(preferred) == 0 {
		// 无偏好可言：保持排序结果，只做截断
		if len(items) > maxResults {
			items = items[:maxResults]
		}
		return items, nil
	}

	mode := core.InterestBalanced
	if rctx != nil && rctx.Profile != nil && rctx.Profile.InterestMode != "" {
		mode = rctx.Profile.InterestMode
	}

	ratio := n.explorationRatio(ctx, rctx, mode)
	if rctx != nil {
		rctx.PutLabel("exploration_ratio", utils.Label{
			Value:  fmt.Sprintf("%.2f", ratio),
			Source: n.Name(),
		})
	}

	var prefSlice, explSlice []*core.Item
	for _, it := range items {
		if it == nil {
			continue
		}
		if preferred[it.Theme()] {
			prefSlice = append(prefSlice, it)
		} else {
			explSlice = append(explSlice, it)
		}
	}

	// 槽内偏置：classics 偏好槽按热度优先，hidden_gems 探索槽按热度逆序
	switch mode {
	case core.InterestClassics:
		sortByPopularity(prefSlice, true)
	case core.InterestHiddenGems:
		sortByPopularity(explSlice, false)
	}

	nExplore := 0
	if len(explSlice) > 0 {
		nExplore = int(math.Round(float64(maxResults) * ratio))
		if nExplore < 1 {
			nExplore = 1
		}
		if nExplore > maxResults {
			nExplore = maxResults
		}
	}
	nPreferred := maxResults - nExplore

	takePref := min(nPreferred, len(prefSlice))
	takeExpl := min(nExplore, len(explSlice))

	// 补齐：任一槽不足时由另一槽填满剩余配额
	if deficit := maxResults - takePref - takeExpl; deficit > 0 {
		if extra := min(deficit, len(prefSlice)-takePref); extra > 0 {
			takePref += extra
			deficit -= extra
		}
		if extra := min(deficit, len(explSlice)-takeExpl); extra > 0 {
			takeExpl += extra
		}
	}

	out := make([]*core.Item, 0, takePref+takeExpl)
	for _, it := range prefSlice[:takePref] {
		it.PutLabel("slice", utils.Label{Value: "preferred", Source: n.Name()})
		out = append(out, it)
	}
	for _, it := range explSlice[:takeExpl] {
		it.PutLabel("slice", utils.Label{Value: "exploration", Source: n.Name()})
		out = append(out, it)
	}
	return out, nil
}

// effectiveThemes 构建偏好主题集：画像显式偏好 ∪ 近期 TopN 主题。
func (n *DiscoveryMixer) effectiveThemes(ctx context.Context, rctx *core.RecommendContext) map[string]bool {
	themes := make(map[string]bool)
	if rctx == nil {
		return themes
	}
	if rctx.Profile != nil {
		for t := range rctx.Profile.ThemeSet() {
			themes[t] = true
		}
	}

	if n.Agg == nil || rctx.UserID == "" {
		return themes
	}
	window := n.RecentWindow
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	promoteTop := n.PromoteTop
	if promoteTop <= 0 {
		promoteTop = 2
	}

	recent, err := n.Agg.RecentThemeAffinity(ctx, rctx.UserID, window)
	if err != nil {
		// 聚合失败时退回画像偏好
		return themes
	}
	var promoted []string
	for _, ts := range affinity.RankThemes(recent, promoteTop) {
		if ts.Score <= 0 {
			continue
		}
		promoted = append(promoted, ts.Theme)
		themes[ts.Theme] = true
	}
	if len(promoted) > 0 {
		rctx.PutLabel("promoted_themes", utils.Label{
			Value:  strings.Join(promoted, ","),
			Source: n.Name(),
		})
	}
	return themes
}

// explorationRatio 计算最终探索比例：base + engagement 加成，clamp 到 cap。
func (n *DiscoveryMixer) explorationRatio(ctx context.Context, rctx *core.RecommendContext, mode core.InterestMode) float64 {
	var base, ceiling float64
	switch mode {
	case core.InterestClassics:
		base, ceiling = 0.10, 0.15
	case core.InterestBalanced:
		base, ceiling = 0.30, 0.35
	case core.InterestHiddenGems:
		base, ceiling = 0.50, 0.55
	default:
		base, ceiling = 0.20, 0.25
	}

	bump := 0.0
	if n.Agg != nil && rctx != nil && rctx.UserID != "" {
		if engagement, err := n.Agg.Engagement(ctx, rctx.UserID); err == nil {
			bump = math.Min(0.05, float64(engagement)/2000)
		}
	}

	return math.Min(base+bump, ceiling)
}

func sortByPopularity(items []*core.Item, desc bool) {
	sort.SliceStable(items, func(i, j int) bool {
		pi := items[i].Features["item_popularity"]
		pj := items[j].Features["item_popularity"]
		if pi != pj {
			if desc {
				return pi > pj
			}
			return pi < pj
		}
		return items[i].ID < items[j].ID
	})
}

func dedupByID(items []*core.Item) []*core.Item {
	seen := make(map[string]bool, len(items))
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil || seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		out = append(out, it)
	}
	return out
}


