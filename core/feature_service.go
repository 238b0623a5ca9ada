package core

import "context"

// FeatureService 是特征服务的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（feature）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//
// 使用场景：
//   - 访客特征：主题亲和（theme_aff:<theme>）、engagement
//   - 条目特征：popularity、thumbs_up、thumbs_down
//
// 请求级上下文特征（设备、时间预算等）通过 RecommendContext.Params 传递，
// 不走 FeatureService。
//
// 实现：
//   - feature.AffinityService（事件日志回放，默认实现）
//   - feature.FeastService（Feast 在线特征，远程实现）
type FeatureService interface {
	// Name 返回特征服务名称（用于日志/监控）
	Name() string

	// GetUserFeatures 获取访客特征；零历史访客返回空 map，不返回错误
	GetUserFeatures(ctx context.Context, userID string) (map[string]float64, error)

	// GetItemFeatures 获取条目特征
	GetItemFeatures(ctx context.Context, itemID string) (map[string]float64, error)

	// BatchGetItemFeatures 批量获取条目特征（减少网络往返）
	BatchGetItemFeatures(ctx context.Context, itemIDs []string) (map[string]map[string]float64, error)

	// Close 关闭特征服务，释放资源
	Close() error
}
