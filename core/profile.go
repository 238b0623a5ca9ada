package core

import "time"

// DistancePref 是访客的出行距离偏好，三档为包含关系：
// nearby ⊆ medium ⊆ far_ok（同一参考点下，档位越宽候选集越大）。
type DistancePref string

const (
	DistanceNearby DistancePref = "nearby" // < 20 km
	DistanceMedium DistancePref = "medium" // <= 50 km（含 nearby）
	DistanceFarOK  DistancePref = "far_ok" // 所有已知距离
)

// InterestMode 是访客的发现风格，驱动探索比例与槽内排序偏置。
type InterestMode string

const (
	InterestClassics   InterestMode = "classics"    // 偏热门经典，探索比例最低
	InterestBalanced   InterestMode = "balanced"    // 默认配比
	InterestHiddenGems InterestMode = "hidden_gems" // 偏冷门，探索比例最高
)

// VisitorProfile 是访客画像。
//
// 静态部分来自 onboarding 表单（语言、访客类型、距离偏好、发现风格、偏好主题、hub 城市）；
// 动态部分（主题亲和、engagement）不存在画像里，而是由 affinity 包从事件日志实时回放，
// 画像只承载显式声明的偏好。
type VisitorProfile struct {
	UserID      string
	Language    string // ui 语言，如 "fr" / "en"
	VisitorType string // solo / family / group ...

	DistancePref DistancePref
	InterestMode InterestMode

	// PreferredThemes 是 onboarding 勾选的主题标签。
	// 混排时会把近期高亲和的主题动态并入，见 rerank.DiscoveryMixer。
	PreferredThemes []string

	// HubCity 是距离计算的参考城市，坐标由 pkg/geo 解析。
	HubCity string

	UpdateTime time.Time
}

func NewVisitorProfile(userID string) *VisitorProfile {
	return &VisitorProfile{
		UserID:     userID,
		UpdateTime: time.Now(),
	}
}

// ThemeSet 返回偏好主题的集合形式（空白主题被忽略）。
func (p *VisitorProfile) ThemeSet() map[string]bool {
	set := make(map[string]bool, len(p.PreferredThemes))
	for _, t := range p.PreferredThemes {
		if t != "" {
			set[t] = true
		}
	}
	return set
}

// HasTheme 检查主题是否在显式偏好中。
func (p *VisitorProfile) HasTheme(theme string) bool {
	for _, t := range p.PreferredThemes {
		if t == theme {
			return true
		}
	}
	return false
}
