package core

import "github.com/museworks/musekit/pkg/utils"

// RecommendContext 承载访客/场景/请求级信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID   string
	DeviceID string
	Scene    string // discovery / detail / favorites ...

	// Profile 是访客画像；匿名访客或画像加载失败时为 nil，
	// 各 Node 必须把 nil 画像当作"无偏好"而不是错误。
	Profile *VisitorProfile

	// Labels 是请求级标签（如 promoted_themes、exploration_ratio），
	// 由 Node 写入，最终拼成解释轨迹。
	Labels map[string]utils.Label

	// Params 请求级上下文参数，例如：
	// - 适配结果：max_results, layout, description_length, show_images
	// - 环境信号：connection_quality, time_available, device
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// ParamInt 从 Params 读取整数参数（兼容 YAML/JSON 解析出的 int/int64/float64）。
func (rctx *RecommendContext) ParamInt(key string, defaultVal int) int {
	if rctx.Params == nil {
		return defaultVal
	}
	switch v := rctx.Params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return defaultVal
}

// ParamString 从 Params 读取字符串参数。
func (rctx *RecommendContext) ParamString(key string, defaultVal string) string {
	if rctx.Params == nil {
		return defaultVal
	}
	if s, ok := rctx.Params[key].(string); ok {
		return s
	}
	return defaultVal
}
