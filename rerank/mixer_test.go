package rerank

import (
	"context"
	"testing"

	"github.com/museworks/musekit/affinity"
	"github.com/museworks/musekit/core"
	"github.com/museworks/musekit/store"
)

func candidate(id, theme string, popularity float64) *core.Item {
	it := core.NewItem(id)
	it.SetMeta(core.MetaTheme, theme)
	it.Features["item_popularity"] = popularity
	return it
}

// 10 个候选：6 个 Art（命中偏好）、4 个其他主题
func mixedPool() []*core.Item {
	return []*core.Item{
		candidate("a1", "Art", 10),
		candidate("a2", "Art", 9),
		candidate("a3", "Art", 8),
		candidate("a4", "Art", 7),
		candidate("a5", "Art", 6),
		candidate("a6", "Art", 5),
		candidate("x1", "Science", 4),
		candidate("x2", "Nature", 3),
		candidate("x3", "History", 2),
		candidate("x4", "Industry", 1),
	}
}

func mixerCtx(mode core.InterestMode, themes ...string) *core.RecommendContext {
	p := core.NewVisitorProfile("u1")
	p.InterestMode = mode
	p.PreferredThemes = themes
	return &core.RecommendContext{UserID: "u1", Profile: p}
}

func emptyAgg() *affinity.Aggregator {
	mc := store.NewMemoryCatalog()
	return affinity.New(mc, mc)
}

func slices(t *testing.T, items []*core.Item) (preferred, exploration []string) {
	t.Helper()
	for _, it := range items {
		switch it.Labels["slice"].Value {
		case "preferred":
			preferred = append(preferred, it.ID)
		case "exploration":
			exploration = append(exploration, it.ID)
		default:
			t.Errorf("item %s has no slice label", it.ID)
		}
	}
	return
}

func TestMixerBalancedQuota(t *testing.T) {
	n := NewDiscoveryMixer(emptyAgg())
	rctx := mixerCtx(core.InterestBalanced, "Art")
	rctx.Params = map[string]any{"max_results": 6}

	out, err := n.Process(context.Background(), rctx, mixedPool())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out) != 6 {
		t.Fatalf("got %d items, want 6", len(out))
	}

	preferred, exploration := slices(t, out)
	// balanced：ratio 0.30，6 * 0.3 = 2 探索
	if len(exploration) != 2 {
		t.Errorf("exploration = %v, want 2 items", exploration)
	}
	if len(preferred) != 4 {
		t.Errorf("preferred = %v, want 4 items", preferred)
	}

	lbl, ok := rctx.GetLabel("exploration_ratio")
	if !ok || lbl.Value != "0.30" {
		t.Errorf("exploration_ratio label = %+v, want 0.30", lbl)
	}
}

// 偏好槽不足配额时，探索槽补齐：输出条数 = min(max_results, 候选数)
func TestMixerDeficitFill(t *testing.T) {
	pool := []*core.Item{
		candidate("a1", "Art", 10),
		candidate("a2", "Art", 9),
		candidate("x1", "Science", 4),
		candidate("x2", "Nature", 3),
		candidate("x3", "History", 2),
		candidate("x4", "Industry", 1),
	}

	n := NewDiscoveryMixer(emptyAgg())
	rctx := mixerCtx(core.InterestClassics, "Art")
	rctx.Params = map[string]any{"max_results": 6}

	out, err := n.Process(context.Background(), rctx, pool)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out) != 6 {
		t.Errorf("got %d items, want 6 (deficit filled from exploration)", len(out))
	}
}

// 探索槽为空：全部配额给偏好槽，不强行留空位
func TestMixerNoExplorationPool(t *testing.T) {
	pool := []*core.Item{
		candidate("a1", "Art", 3),
		candidate("a2", "Art", 2),
		candidate("a3", "Art", 1),
	}

	n := NewDiscoveryMixer(emptyAgg())
	rctx := mixerCtx(core.InterestBalanced, "Art")

	out, err := n.Process(context.Background(), rctx, pool)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d items, want 3", len(out))
	}
	preferred, exploration := slices(t, out)
	if len(exploration) != 0 || len(preferred) != 3 {
		t.Errorf("preferred=%v exploration=%v, want all preferred", preferred, exploration)
	}
}

// 探索槽非空时至少探索 1 个，即使取整后配额为 0
func TestMixerMinimumExploration(t *testing.T) {
	pool := []*core.Item{
		candidate("a1", "Art", 3),
		candidate("a2", "Art", 2),
		candidate("x1", "Science", 1),
	}

	n := NewDiscoveryMixer(emptyAgg())
	rctx := mixerCtx(core.InterestClassics, "Art") // ratio 0.10
	rctx.Params = map[string]any{"max_results": 3}

	out, err := n.Process(context.Background(), rctx, pool)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	_, exploration := slices(t, out)
	if len(exploration) != 1 {
		t.Errorf("exploration = %v, want exactly 1", exploration)
	}
}

func TestMixerClassicsPopularityFirst(t *testing.T) {
	pool := []*core.Item{
		candidate("a-low", "Art", 1),
		candidate("a-high", "Art", 9),
		candidate("a-mid", "Art", 5),
	}

	n := NewDiscoveryMixer(emptyAgg())
	out, err := n.Process(context.Background(), mixerCtx(core.InterestClassics, "Art"), pool)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	want := []string{"a-high", "a-mid", "a-low"}
	for i, id := range want {
		if out[i].ID != id {
			t.Errorf("out[%d] = %s, want %s", i, out[i].ID, id)
		}
	}
}

func TestMixerHiddenGemsLowPopularityFirst(t *testing.T) {
	pool := []*core.Item{
		candidate("a1", "Art", 5),
		candidate("x-hot", "Science", 9),
		candidate("x-gem", "Nature", 1),
	}

	n := NewDiscoveryMixer(emptyAgg())
	rctx := mixerCtx(core.InterestHiddenGems, "Art")
	rctx.Params = map[string]any{"max_results": 2}

	out, err := n.Process(context.Background(), rctx, pool)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	// hidden_gems：ratio 0.50，2 个位置 1 个探索，探索槽取热度最低的
	_, exploration := slices(t, out)
	if len(exploration) != 1 || exploration[0] != "x-gem" {
		t.Errorf("exploration = %v, want [x-gem]", exploration)
	}
}

// 近期行为把主题提升进偏好集
func TestMixerPromotesRecentThemes(t *testing.T) {
	mc := store.NewMemoryCatalog()
	science := core.NewItem("s1")
	science.SetMeta(core.MetaTheme, "Science")
	mc.PutItem(science)
	for i := 0; i < 3; i++ {
		if _, err := mc.Append(context.Background(), &core.InteractionEvent{
			UserID: "u1", ItemID: "s1", Kind: core.KindDetailOpen,
		}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	n := NewDiscoveryMixer(affinity.New(mc, mc))
	rctx := mixerCtx(core.InterestBalanced, "Art")

	pool := []*core.Item{
		candidate("a1", "Art", 5),
		candidate("x1", "Science", 4),
		candidate("x2", "Nature", 3),
	}
	out, err := n.Process(context.Background(), rctx, pool)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	lbl, ok := rctx.GetLabel("promoted_themes")
	if !ok || lbl.Value != "Science" {
		t.Errorf("promoted_themes = %+v, want Science", lbl)
	}
	for _, it := range out {
		if it.ID == "x1" && it.Labels["slice"].Value != "preferred" {
			t.Errorf("promoted-theme item x1 in slice %q, want preferred", it.Labels["slice"].Value)
		}
	}
}

// 无偏好也无历史：混排退化为截断，不强行分槽
func TestMixerNoPreferences(t *testing.T) {
	n := NewDiscoveryMixer(emptyAgg())
	rctx := &core.RecommendContext{UserID: "u9", Profile: core.NewVisitorProfile("u9")}
	rctx.Params = map[string]any{"max_results": 2}

	out, err := n.Process(context.Background(), rctx, mixedPool())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out) != 2 || out[0].ID != "a1" || out[1].ID != "a2" {
		t.Errorf("got %v, want rank order truncation [a1 a2]", itemIDs(out))
	}
}

func TestMixerDedup(t *testing.T) {
	n := NewDiscoveryMixer(emptyAgg())
	pool := []*core.Item{
		candidate("a1", "Art", 5),
		candidate("a1", "Art", 5),
		candidate("x1", "Science", 1),
	}
	out, err := n.Process(context.Background(), mixerCtx(core.InterestBalanced, "Art"), pool)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	seen := make(map[string]int)
	for _, it := range out {
		seen[it.ID]++
	}
	if seen["a1"] != 1 {
		t.Errorf("a1 appears %d times, want 1", seen["a1"])
	}
}

func itemIDs(items []*core.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
