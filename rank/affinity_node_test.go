package rank

import (
	"context"
	"testing"

	"github.com/museworks/musekit/core"
)

func enriched(id, theme string, affinity, popularity float64) *core.Item {
	it := core.NewItem(id)
	it.SetMeta(core.MetaTheme, theme)
	it.Features["user_theme_aff:"+theme] = affinity
	it.Features["item_popularity"] = popularity
	return it
}

func TestAffinityNodeOrdering(t *testing.T) {
	items := []*core.Item{
		enriched("low", "History", 0, 2),
		enriched("pop", "Science", 3, 10),
		enriched("fav", "Art", 9, 1),
	}

	out, err := NewAffinityNode().Process(context.Background(), &core.RecommendContext{}, items)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	want := []string{"fav", "pop", "low"}
	for i, id := range want {
		if out[i].ID != id {
			t.Errorf("out[%d] = %s, want %s", i, out[i].ID, id)
		}
	}
	if out[0].Score != 9.1 {
		t.Errorf("fav score = %v, want 9.1", out[0].Score)
	}
	if _, ok := out[0].Labels["rank_model"]; !ok {
		t.Error("rank_model label missing")
	}
}

func TestAffinityNodeColdStart(t *testing.T) {
	// 无亲和特征时退化为纯热度排序
	a := core.NewItem("a")
	a.Features["item_popularity"] = 1
	b := core.NewItem("b")
	b.Features["item_popularity"] = 5

	out, err := NewAffinityNode().Process(context.Background(), &core.RecommendContext{}, []*core.Item{a, b})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out[0].ID != "b" || out[1].ID != "a" {
		t.Errorf("cold start order = [%s %s], want [b a]", out[0].ID, out[1].ID)
	}
}

func TestAffinityNodeTieBreak(t *testing.T) {
	// 全零分：按 ID 升序，保证结果确定
	items := []*core.Item{core.NewItem("z"), core.NewItem("a"), core.NewItem("m")}
	out, err := NewAffinityNode().Process(context.Background(), &core.RecommendContext{}, items)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	want := []string{"a", "m", "z"}
	for i, id := range want {
		if out[i].ID != id {
			t.Errorf("out[%d] = %s, want %s", i, out[i].ID, id)
		}
	}
}
