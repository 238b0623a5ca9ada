package filter

import (
	"context"
	"testing"

	"github.com/museworks/musekit/core"
)

func museumAt(id string, lat, lon float64) *core.Item {
	it := core.NewItem(id)
	it.SetMeta(core.MetaLatitude, lat)
	it.SetMeta(core.MetaLongitude, lon)
	return it
}

func ctxWith(pref core.DistancePref, hub string) *core.RecommendContext {
	p := core.NewVisitorProfile("u1")
	p.DistancePref = pref
	p.HubCity = hub
	return &core.RecommendContext{UserID: "u1", Profile: p}
}

func TestDistanceFilterBands(t *testing.T) {
	// 以 Lyon 为参考点的三个条目：市内(~0km)、Saint-Étienne(~50km)、Grenoble(~94km)
	inCity := func() *core.Item { return museumAt("m-lyon", 45.7640, 4.8357) }
	stEtienne := func() *core.Item { return museumAt("m-ste", 45.4397, 4.3872) }
	grenoble := func() *core.Item { return museumAt("m-gre", 45.1885, 5.7245) }

	f := NewDistanceFilter()
	ctx := context.Background()

	cases := []struct {
		name    string
		pref    core.DistancePref
		item    *core.Item
		removed bool
	}{
		{"nearby keeps in-city", core.DistanceNearby, inCity(), false},
		{"nearby drops 50km", core.DistanceNearby, stEtienne(), true},
		{"nearby drops 94km", core.DistanceNearby, grenoble(), true},
		{"medium keeps in-city", core.DistanceMedium, inCity(), false},
		{"medium keeps 50km", core.DistanceMedium, stEtienne(), false},
		{"medium drops 94km", core.DistanceMedium, grenoble(), true},
		{"far_ok keeps everything", core.DistanceFarOK, grenoble(), false},
		{"empty pref keeps everything", "", grenoble(), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.ShouldFilter(ctx, ctxWith(tc.pref, "Lyon"), tc.item)
			if err != nil {
				t.Fatalf("ShouldFilter: %v", err)
			}
			if got != tc.removed {
				t.Errorf("removed = %v, want %v", got, tc.removed)
			}
		})
	}
}

// 三档是包含关系：nearby 能看到的 medium 也能看到，medium 能看到的 far_ok 也能看到。
func TestDistanceFilterMonotonic(t *testing.T) {
	f := NewDistanceFilter()
	ctx := context.Background()

	items := []*core.Item{
		museumAt("a", 45.7640, 4.8357),
		museumAt("b", 45.7000, 4.9000),
		museumAt("c", 45.4397, 4.3872),
		museumAt("d", 45.1885, 5.7245),
		museumAt("e", 48.8566, 2.3522), // Paris, ~390km
	}

	kept := func(pref core.DistancePref) map[string]bool {
		out := make(map[string]bool)
		for _, it := range items {
			removed, err := f.ShouldFilter(ctx, ctxWith(pref, "Lyon"), it)
			if err != nil {
				t.Fatalf("ShouldFilter: %v", err)
			}
			if !removed {
				out[it.ID] = true
			}
		}
		return out
	}

	nearby := kept(core.DistanceNearby)
	medium := kept(core.DistanceMedium)
	farOK := kept(core.DistanceFarOK)

	for id := range nearby {
		if !medium[id] {
			t.Errorf("item %s kept by nearby but dropped by medium", id)
		}
	}
	for id := range medium {
		if !farOK[id] {
			t.Errorf("item %s kept by medium but dropped by far_ok", id)
		}
	}
}

func TestDistanceFilterAnnotates(t *testing.T) {
	f := NewDistanceFilter()
	it := museumAt("m-gre", 45.1885, 5.7245)

	if _, err := f.ShouldFilter(context.Background(), ctxWith(core.DistanceFarOK, "Lyon"), it); err != nil {
		t.Fatalf("ShouldFilter: %v", err)
	}
	d, ok := it.MetaFloat(core.MetaDistanceKm)
	if !ok {
		t.Fatal("distance_km not annotated")
	}
	if d < 90 || d > 100 {
		t.Errorf("distance_km = %.0f, want about 94", d)
	}
}

func TestDistanceFilterPassThrough(t *testing.T) {
	f := NewDistanceFilter()
	ctx := context.Background()
	far := museumAt("m-paris", 48.8566, 2.3522)

	// 画像缺失
	removed, err := f.ShouldFilter(ctx, &core.RecommendContext{UserID: "u1"}, far)
	if err != nil || removed {
		t.Errorf("no profile: removed=%v err=%v, want pass", removed, err)
	}

	// hub 未知
	removed, err = f.ShouldFilter(ctx, ctxWith(core.DistanceNearby, "Atlantis"), far)
	if err != nil || removed {
		t.Errorf("unknown hub: removed=%v err=%v, want pass", removed, err)
	}
	if _, ok := far.MetaFloat(core.MetaDistanceKm); ok {
		t.Error("unknown hub should not annotate distance_km")
	}
}

func TestDistanceFilterMissingCoords(t *testing.T) {
	f := NewDistanceFilter()
	ctx := context.Background()
	noCoords := core.NewItem("m-mystery")

	// 有档位：移除
	removed, err := f.ShouldFilter(ctx, ctxWith(core.DistanceNearby, "Lyon"), noCoords)
	if err != nil || !removed {
		t.Errorf("banded pref with missing coords: removed=%v err=%v, want removed", removed, err)
	}

	// 无档位：放行
	removed, err = f.ShouldFilter(ctx, ctxWith("", "Lyon"), noCoords)
	if err != nil || removed {
		t.Errorf("no pref with missing coords: removed=%v err=%v, want pass", removed, err)
	}
}
