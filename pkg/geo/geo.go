// Package geo 提供距离过滤所需的地理计算：大圆距离与 hub 城市坐标解析。
package geo

import (
	"math"
	"sort"
	"strings"
)

// earthRadiusKm 地球半径（km）
const earthRadiusKm = 6371.0

// HaversineKm 计算两个经纬度点之间的大圆距离（km），WGS84 度。
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dphi := (lat2 - lat1) * math.Pi / 180
	dlambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dphi/2)*math.Sin(dphi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dlambda/2)*math.Sin(dlambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// Coord 是一个参考坐标。
type Coord struct {
	Lat float64
	Lon float64
}

// hubCities 是 hub 城市的近似坐标，key 为规范小写名。
// 访客 onboarding 时选择 hub 城市作为距离计算的参考点。
var hubCities = map[string]Coord{
	"lyon":             {45.7640, 4.8357},
	"clermont-ferrand": {45.7772, 3.0870},
	"saint-étienne":    {45.4397, 4.3872},
	"grenoble":         {45.1885, 5.7245},
}

// hubAliases 把常见变体拼写映射到规范名。
var hubAliases = map[string]string{
	"saint-etienne": "saint-étienne",
}

// LookupHub 按城市名（大小写不敏感，接受无重音变体）解析 hub 坐标。
// 未知城市返回 (Coord{}, false)，调用方应把它当作"无参考点"而不是错误。
func LookupHub(city string) (Coord, bool) {
	name := strings.ToLower(strings.TrimSpace(city))
	if name == "" {
		return Coord{}, false
	}
	if canon, ok := hubAliases[name]; ok {
		name = canon
	}
	c, ok := hubCities[name]
	return c, ok
}

// Hubs 返回已知 hub 城市的规范名列表，按名称排序。
func Hubs() []string {
	out := make([]string, 0, len(hubCities))
	for name := range hubCities {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
