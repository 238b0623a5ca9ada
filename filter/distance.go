package filter

import (
	"context"
	"fmt"
	"math"

	"github.com/museworks/musekit/core"
	"github.com/museworks/musekit/pkg/geo"
	"github.com/museworks/musekit/pkg/utils"
)

// DistanceFilter 按访客的距离偏好过滤条目。
//
// 参考点是画像中的 hub 城市；画像缺失、hub 未知或 pref 为空时全部放行，
// 距离过滤永远缩小候选集而不清空它的前提是上游给足候选。
//
// 档位是单调的超集关系：
//   - nearby:  d < MaxNearbyKm
//   - medium:  d <= MaxMediumKm
//   - far_ok:  任何可计算距离的条目
//
// 档位生效时，缺失坐标的条目会被移除（无法证明它在范围内）。
// 只要 hub 可解析，所有条目都会被标注 distance_km，供展示层使用。
type DistanceFilter struct {
	MaxNearbyKm float64
	MaxMediumKm float64
}

// NewDistanceFilter 返回默认档位（nearby<20km、medium<=50km）。
func NewDistanceFilter() *DistanceFilter {
	return &DistanceFilter{MaxNearbyKm: 20, MaxMediumKm: 50}
}

func (f *DistanceFilter) Name() string {
	return "filter.distance"
}

func (f *DistanceFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if rctx == nil || rctx.Profile == nil || item == nil {
		return false, nil
	}
	hub, ok := geo.LookupHub(rctx.Profile.HubCity)
	if !ok {
		return false, nil
	}

	pref := rctx.Profile.DistancePref

	lat, okLat := item.MetaFloat(core.MetaLatitude)
	lon, okLon := item.MetaFloat(core.MetaLongitude)
	if !okLat || !okLon {
		// 坐标缺失：无档位时放行，有档位时移除
		return pref != "", nil
	}

	d := geo.HaversineKm(hub.Lat, hub.Lon, lat, lon)
	item.SetMeta(core.MetaDistanceKm, math.Round(d))
	item.PutLabel("distance_km", utils.Label{
		Value:  fmt.Sprintf("%.0f", d),
		Source: f.Name(),
	})

	switch pref {
	case core.DistanceNearby:
		return d >= f.maxNearby(), nil
	case core.DistanceMedium:
		return d > f.maxMedium(), nil
	case core.DistanceFarOK, "":
		return false, nil
	default:
		return false, nil
	}
}

func (f *DistanceFilter) maxNearby() float64 {
	if f.MaxNearbyKm > 0 {
		return f.MaxNearbyKm
	}
	return 20
}

func (f *DistanceFilter) maxMedium() float64 {
	if f.MaxMediumKm > 0 {
		return f.MaxMediumKm
	}
	return 50
}
