package affinity

import (
	"context"
	"testing"
	"time"

	"github.com/museworks/musekit/core"
	"github.com/museworks/musekit/store"
)

func seedCatalog(t *testing.T) *store.MemoryCatalog {
	t.Helper()
	mc := store.NewMemoryCatalog()

	art := core.NewItem("item1")
	art.SetMeta(core.MetaTheme, "Art")
	mc.PutItem(art)

	science := core.NewItem("item6")
	science.SetMeta(core.MetaTheme, "Science")
	mc.PutItem(science)

	history := core.NewItem("item9")
	history.SetMeta(core.MetaTheme, "History")
	mc.PutItem(history)

	return mc
}

func appendEvent(t *testing.T, mc *store.MemoryCatalog, userID, itemID string, kind core.InteractionKind, dur float64) {
	t.Helper()
	_, err := mc.Append(context.Background(), &core.InteractionEvent{
		UserID:      userID,
		ItemID:      itemID,
		Kind:        kind,
		DurationSec: dur,
		Timestamp:   time.Now(),
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
}

func TestAggregatorReplay(t *testing.T) {
	ctx := context.Background()
	mc := seedCatalog(t)
	agg := New(mc, mc)

	appendEvent(t, mc, "u1", "item1", core.KindCardClick, 0)     // Art +1
	appendEvent(t, mc, "u1", "item1", core.KindReading, 90)      // Art +3
	appendEvent(t, mc, "u1", "item6", core.KindFavoriteAdded, 0) // Science +3

	byTheme, err := agg.ThemeAffinity(ctx, "u1")
	if err != nil {
		t.Fatalf("ThemeAffinity: %v", err)
	}
	if byTheme["Art"] != 4 {
		t.Errorf("Art affinity = %d, want 4", byTheme["Art"])
	}
	if byTheme["Science"] != 3 {
		t.Errorf("Science affinity = %d, want 3", byTheme["Science"])
	}
	if _, ok := byTheme["History"]; ok {
		t.Errorf("History should be absent, got %d", byTheme["History"])
	}

	eng, err := agg.Engagement(ctx, "u1")
	if err != nil {
		t.Fatalf("Engagement: %v", err)
	}
	if eng != 7 {
		t.Errorf("engagement = %d, want 7", eng)
	}

	pop, err := agg.Popularity(ctx, "item1")
	if err != nil {
		t.Fatalf("Popularity: %v", err)
	}
	if pop != 4 {
		t.Errorf("item1 popularity = %d, want 4", pop)
	}
	pop, _ = agg.Popularity(ctx, "item6")
	if pop != 3 {
		t.Errorf("item6 popularity = %d, want 3", pop)
	}

	// 回放是纯函数：重复计算结果一致。
	again, err := agg.ThemeAffinity(ctx, "u1")
	if err != nil {
		t.Fatalf("ThemeAffinity second pass: %v", err)
	}
	if again["Art"] != 4 || again["Science"] != 3 {
		t.Errorf("replay not idempotent: %v", again)
	}
}

func TestAggregatorUnknownUser(t *testing.T) {
	ctx := context.Background()
	mc := seedCatalog(t)
	agg := New(mc, mc)

	byTheme, err := agg.ThemeAffinity(ctx, "nobody")
	if err != nil {
		t.Fatalf("ThemeAffinity: %v", err)
	}
	if len(byTheme) != 0 {
		t.Errorf("unknown user affinity = %v, want empty", byTheme)
	}

	eng, err := agg.Engagement(ctx, "nobody")
	if err != nil || eng != 0 {
		t.Errorf("unknown user engagement = %d, err %v, want 0, nil", eng, err)
	}

	pop, err := agg.Popularity(ctx, "no-such-item")
	if err != nil || pop != 0 {
		t.Errorf("unknown item popularity = %d, err %v, want 0, nil", pop, err)
	}
}

func TestAggregatorSkipsUnknownItems(t *testing.T) {
	ctx := context.Background()
	mc := seedCatalog(t)
	agg := New(mc, mc)

	appendEvent(t, mc, "u2", "ghost", core.KindFavoriteAdded, 0)
	appendEvent(t, mc, "u2", "item1", core.KindDetailOpen, 0)

	byTheme, err := agg.ThemeAffinity(ctx, "u2")
	if err != nil {
		t.Fatalf("ThemeAffinity: %v", err)
	}
	if len(byTheme) != 1 || byTheme["Art"] != 2 {
		t.Errorf("affinity = %v, want map[Art:2]", byTheme)
	}

	// engagement 不做目录 join，幽灵条目的分数也计入。
	eng, _ := agg.Engagement(ctx, "u2")
	if eng != 5 {
		t.Errorf("engagement = %d, want 5", eng)
	}
}

func TestTopThemesOrdering(t *testing.T) {
	ranked := RankThemes(map[string]int{"Art": 3, "Science": 7, "History": 3, "Nature": 1}, 3)
	want := []ThemeScore{{"Science", 7}, {"Art", 3}, {"History", 3}}
	if len(ranked) != len(want) {
		t.Fatalf("got %d themes, want %d", len(ranked), len(want))
	}
	for i := range want {
		if ranked[i] != want[i] {
			t.Errorf("rank[%d] = %+v, want %+v", i, ranked[i], want[i])
		}
	}
}

func TestRecentThemeAffinityWindow(t *testing.T) {
	ctx := context.Background()
	mc := seedCatalog(t)
	agg := New(mc, mc)

	old := &core.InteractionEvent{
		UserID:    "u3",
		ItemID:    "item6",
		Kind:      core.KindFavoriteAdded,
		Timestamp: time.Now().Add(-48 * time.Hour),
	}
	if _, err := mc.Append(ctx, old); err != nil {
		t.Fatalf("append: %v", err)
	}
	appendEvent(t, mc, "u3", "item1", core.KindDetailOpen, 0)

	recent, err := agg.RecentThemeAffinity(ctx, "u3", 24*time.Hour)
	if err != nil {
		t.Fatalf("RecentThemeAffinity: %v", err)
	}
	if len(recent) != 1 || recent["Art"] != 2 {
		t.Errorf("recent affinity = %v, want map[Art:2]", recent)
	}

	all, err := agg.RecentThemeAffinity(ctx, "u3", 0)
	if err != nil {
		t.Fatalf("RecentThemeAffinity all: %v", err)
	}
	if all["Science"] != 3 || all["Art"] != 2 {
		t.Errorf("unwindowed affinity = %v", all)
	}
}
