package recall

import (
	"context"
	"testing"

	"github.com/museworks/musekit/core"
)

type stubSource struct {
	name string
	ids  []string
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Recall(_ context.Context, _ *core.RecommendContext) ([]*core.Item, error) {
	out := make([]*core.Item, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, core.NewItem(id))
	}
	return out, nil
}

func TestFanoutDedup(t *testing.T) {
	n := &Fanout{
		Sources: []Source{
			&stubSource{name: "recall.catalog", ids: []string{"a", "b", "c"}},
			&stubSource{name: "recall.hot", ids: []string{"b", "d"}},
		},
		Dedup: true,
	}

	items, err := n.Process(context.Background(), &core.RecommendContext{UserID: "u1"}, nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	want := []string{"a", "b", "c", "d"}
	if len(items) != len(want) {
		t.Fatalf("got %v, want %v", itemIDs(items), want)
	}
	for i, id := range want {
		if items[i].ID != id {
			t.Errorf("items[%d] = %s, want %s", i, items[i].ID, id)
		}
	}

	// 重复 ID 保留先出现来源的 label
	for _, it := range items {
		if it.ID == "b" {
			if lbl := it.Labels["recall_source"]; lbl.Value != "recall.catalog" {
				t.Errorf("b recall_source = %s, want recall.catalog", lbl.Value)
			}
		}
	}
}

func TestFanoutUnion(t *testing.T) {
	n := &Fanout{
		Sources: []Source{
			&stubSource{name: "s1", ids: []string{"a", "b"}},
			&stubSource{name: "s2", ids: []string{"b"}},
		},
		MergeStrategy: "union",
	}
	items, err := n.Process(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("union kept %d items, want 3", len(items))
	}
}
