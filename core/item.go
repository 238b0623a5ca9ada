package core

import "github.com/museworks/musekit/pkg/utils"

// Meta 中约定的博物馆字段 key。
// 目录导入时写入，链路各 Node 只读（distance_km 除外，由距离过滤写入）。
const (
	MetaName       = "name"
	MetaRegion     = "region"
	MetaTheme      = "theme"
	MetaLatitude   = "latitude"
	MetaLongitude  = "longitude"
	MetaPopularity = "popularity"
	MetaThumbsUp   = "thumbs_up"
	MetaThumbsDown = "thumbs_down"
	MetaDistanceKm = "distance_km"
)

// Item 是推荐链路中的统一承载结构：特征、分数、元信息、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策。
type Item struct {
	ID       string
	Score    float64
	Features map[string]float64
	Meta     map[string]any
	Labels   map[string]utils.Label
}

func NewItem(id string) *Item {
	return &Item{
		ID:       id,
		Score:    0,
		Features: make(map[string]float64),
		Meta:     make(map[string]any),
		Labels:   make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// MetaString 读取字符串类型的 Meta 字段，不存在或类型不符时返回 ""。
func (it *Item) MetaString(key string) string {
	if it.Meta == nil {
		return ""
	}
	if s, ok := it.Meta[key].(string); ok {
		return s
	}
	return ""
}

// MetaFloat 读取数值类型的 Meta 字段。
// 返回 (0, false) 表示字段缺失或不是数值（例如经纬度未知的博物馆）。
func (it *Item) MetaFloat(key string) (float64, bool) {
	if it.Meta == nil {
		return 0, false
	}
	switch v := it.Meta[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// SetMeta 写入 Meta 字段。
func (it *Item) SetMeta(key string, value any) {
	if it.Meta == nil {
		it.Meta = make(map[string]any)
	}
	it.Meta[key] = value
}

// Theme 返回博物馆主题标签，未知时为 ""。
func (it *Item) Theme() string {
	return it.MetaString(MetaTheme)
}
