// Package adapt 根据访问环境信号（网络质量、可用时间、设备）调整展示设置。
// 规则是独立叠加的：每条命中都记录一个 Reason，互不覆盖的字段各自生效。
package adapt

import (
	"fmt"
	"strings"
)

// ConnectionQuality 网络质量档位。
type ConnectionQuality string

const (
	ConnGood ConnectionQuality = "good"
	ConnPoor ConnectionQuality = "poor"
)

// DeviceKind 设备类型。
type DeviceKind string

const (
	DeviceDesktop DeviceKind = "desktop"
	DeviceMobile  DeviceKind = "mobile"
	DeviceTablet  DeviceKind = "tablet"
)

// Signals 是一次请求携带的环境信号。零值即默认：good / 60 分钟 / desktop。
// TimeAvailableMin 为 nil 表示信号缺失（按 60 分钟处理）；
// 显式传 0 分钟同样会触发时间规则。
type Signals struct {
	ConnectionQuality ConnectionQuality
	TimeAvailableMin  *int
	Device            DeviceKind
}

// Minutes 构造 TimeAvailableMin 信号值。
func Minutes(n int) *int { return &n }

// normalize 填充缺省信号。
func (s Signals) normalize() Signals {
	if s.ConnectionQuality == "" {
		s.ConnectionQuality = ConnGood
	}
	if s.TimeAvailableMin == nil {
		s.TimeAvailableMin = Minutes(60)
	}
	if s.Device == "" {
		s.Device = DeviceDesktop
	}
	return s
}

// Reason 记录一条命中的适配规则：触发信号与产生的效果。
type Reason struct {
	Trigger string
	Effect  string
}

// Settings 是适配后的展示设置。
type Settings struct {
	ShowImages        bool
	MaxResults        int
	DescriptionLength string // short / long
	Layout            string // grid / list
	Reasons           []Reason
}

// DefaultSettings 返回未适配的基线设置。
func DefaultSettings() Settings {
	return Settings{
		ShowImages:        true,
		MaxResults:        12,
		DescriptionLength: "long",
		Layout:            "grid",
	}
}

// Compute 从信号推导展示设置。规则按固定顺序独立判定：
//  1. 网络差      -> 关闭图片
//  2. 时间 <= 15  -> 结果收敛到 3 条、短描述
//  3. 移动设备    -> 列表布局
func Compute(sig Signals) Settings {
	sig = sig.normalize()
	out := DefaultSettings()

	if sig.ConnectionQuality == ConnPoor {
		out.ShowImages = false
		out.Reasons = append(out.Reasons, Reason{
			Trigger: "connection is poor",
			Effect:  "hiding images",
		})
	}

	if *sig.TimeAvailableMin <= 15 {
		out.MaxResults = 3
		out.DescriptionLength = "short"
		out.Reasons = append(out.Reasons, Reason{
			Trigger: fmt.Sprintf("you have %d minutes", *sig.TimeAvailableMin),
			Effect:  "showing 3 short results",
		})
	}

	if sig.Device == DeviceMobile {
		out.Layout = "list"
		out.Reasons = append(out.Reasons, Reason{
			Trigger: "mobile device",
			Effect:  "using list layout",
		})
	}

	return out
}

// Summary 把命中的规则拼成一句人类可读的说明；无命中时返回空串。
// 格式为 "System adapted: <效果> because <触发原因>."，时间规则的
// 原因里带着实际的分钟数。
func (s Settings) Summary() string {
	if len(s.Reasons) == 0 {
		return ""
	}
	effects := make([]string, 0, len(s.Reasons))
	triggers := make([]string, 0, len(s.Reasons))
	for _, r := range s.Reasons {
		effects = append(effects, r.Effect)
		triggers = append(triggers, r.Trigger)
	}
	msg := strings.Join(effects, " and ")
	msg = strings.ToUpper(msg[:1]) + msg[1:]
	return "System adapted: " + msg + " because " + strings.Join(triggers, " and ") + "."
}

// DetectDevice 从 User-Agent 粗分设备类型，识别不了就按 desktop 处理。
func DetectDevice(userAgent string) DeviceKind {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "ipad") || strings.Contains(ua, "tablet"):
		return DeviceTablet
	case strings.Contains(ua, "mobi") || strings.Contains(ua, "android") || strings.Contains(ua, "iphone"):
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}
