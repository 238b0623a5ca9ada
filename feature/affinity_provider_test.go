package feature

import (
	"context"
	"testing"

	"github.com/museworks/musekit/affinity"
	"github.com/museworks/musekit/core"
	"github.com/museworks/musekit/store"
)

func seedStore(t *testing.T) *store.MemoryCatalog {
	t.Helper()
	mc := store.NewMemoryCatalog()

	art := core.NewItem("m1")
	art.SetMeta(core.MetaTheme, "Art")
	mc.PutItem(art)

	events := []*core.InteractionEvent{
		{UserID: "u1", ItemID: "m1", Kind: core.KindCardClick},
		{UserID: "u1", ItemID: "m1", Kind: core.KindThumbsUp},
		{UserID: "u2", ItemID: "m1", Kind: core.KindThumbsDown},
	}
	for _, ev := range events {
		if _, err := mc.Append(context.Background(), ev); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	return mc
}

func TestAffinityServiceUserFeatures(t *testing.T) {
	mc := seedStore(t)
	svc := NewAffinityService(affinity.New(mc, mc), mc)

	features, err := svc.GetUserFeatures(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetUserFeatures: %v", err)
	}
	if features["theme_aff:Art"] != 4 { // click 1 + thumbs_up 3
		t.Errorf("theme_aff:Art = %v, want 4", features["theme_aff:Art"])
	}
	if features["engagement"] != 4 {
		t.Errorf("engagement = %v, want 4", features["engagement"])
	}

	// 零历史访客：空特征，不报错
	empty, err := svc.GetUserFeatures(context.Background(), "stranger")
	if err != nil {
		t.Fatalf("GetUserFeatures stranger: %v", err)
	}
	if len(empty) != 1 || empty["engagement"] != 0 {
		t.Errorf("stranger features = %v, want only engagement=0", empty)
	}
}

func TestAffinityServiceItemFeatures(t *testing.T) {
	mc := seedStore(t)
	svc := NewAffinityService(affinity.New(mc, mc), mc)

	features, err := svc.GetItemFeatures(context.Background(), "m1")
	if err != nil {
		t.Fatalf("GetItemFeatures: %v", err)
	}
	// click 1 + thumbs_up 3 + thumbs_down 0 = 4
	if features["popularity"] != 4 {
		t.Errorf("popularity = %v, want 4", features["popularity"])
	}
	if features["thumbs_up"] != 1 || features["thumbs_down"] != 1 {
		t.Errorf("thumbs = %v/%v, want 1/1", features["thumbs_up"], features["thumbs_down"])
	}
}

func TestEnrichNode(t *testing.T) {
	mc := seedStore(t)
	svc := NewAffinityService(affinity.New(mc, mc), mc)
	node := NewEnrichNode(svc)

	items := []*core.Item{core.NewItem("m1"), core.NewItem("unknown")}
	rctx := &core.RecommendContext{UserID: "u1"}

	out, err := node.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d items, want 2", len(out))
	}

	m1 := out[0]
	if m1.Features["user_theme_aff:Art"] != 4 {
		t.Errorf("user_theme_aff:Art = %v, want 4", m1.Features["user_theme_aff:Art"])
	}
	if m1.Features["item_popularity"] != 4 {
		t.Errorf("item_popularity = %v, want 4", m1.Features["item_popularity"])
	}

	// 未知条目：条目特征为 0，访客特征照常注入
	unknown := out[1]
	if unknown.Features["item_popularity"] != 0 {
		t.Errorf("unknown item_popularity = %v, want 0", unknown.Features["item_popularity"])
	}
	if unknown.Features["user_engagement"] != 4 {
		t.Errorf("unknown user_engagement = %v, want 4", unknown.Features["user_engagement"])
	}
}
