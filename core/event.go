package core

import (
	"context"
	"time"
)

// InteractionKind 是交互事件类型。
// 未知类型不是错误：打分为 0 分，由 scoring 包兜底。
type InteractionKind string

const (
	KindCardClick       InteractionKind = "card_click"       // 卡片点击
	KindDetailOpen      InteractionKind = "detail_open"      // 详情页打开
	KindFavoriteAdded   InteractionKind = "favorite_added"   // 收藏
	KindFavoriteRemoved InteractionKind = "favorite_removed" // 取消收藏（不扣分，只停止加分）
	KindReading         InteractionKind = "reading"          // 阅读时长（秒）
	KindThumbsUp        InteractionKind = "thumbs_up"        // 点赞
	KindThumbsDown      InteractionKind = "thumbs_down"      // 点踩
	KindWebsiteVisit    InteractionKind = "website_visit"    // 官网跳转
)

// InteractionEvent 是交互事件，append-only：
// 事件日志是所有派生分数（主题亲和、热度、engagement）的唯一事实来源，
// 任何派生值都必须能通过回放日志重算出来。
type InteractionEvent struct {
	ID          string
	UserID      string
	ItemID      string
	Kind        InteractionKind
	DurationSec float64 // 仅 reading 类型使用
	Timestamp   time.Time
}

// EventQuery 是事件日志的查询条件，零值字段表示不过滤。
// 求和类派生值与事件顺序无关，List 的返回顺序不承诺任何语义。
type EventQuery struct {
	UserID string
	ItemID string
	Since  time.Time
}

// EventStore 是事件日志的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - Append 只要求单行原子写入，不要求多行事务
//   - 调用方以 best-effort 姿态写入：写失败降级，不阻断请求
type EventStore interface {
	// Append 追加一条事件，返回事件 ID
	Append(ctx context.Context, ev *InteractionEvent) (string, error)

	// List 按条件列出事件，用于回放重算亲和/热度
	List(ctx context.Context, q EventQuery) ([]*InteractionEvent, error)
}

// CatalogStore 是博物馆目录的领域接口（读多写少，导入后基本不变）。
type CatalogStore interface {
	// ListItems 返回全量目录；每次调用返回独立副本，Node 可安全修改
	ListItems(ctx context.Context) ([]*Item, error)

	// GetItem 按 ID 取单个条目；不存在时返回 ErrCatalogNotFound
	GetItem(ctx context.Context, id string) (*Item, error)
}

// ProfileStore 是访客画像的领域接口。
type ProfileStore interface {
	// GetProfile 取访客画像；不存在时返回 ErrProfileNotFound
	GetProfile(ctx context.Context, userID string) (*VisitorProfile, error)

	// SaveProfile 新建或覆盖画像（onboarding 与 profile 编辑共用）
	SaveProfile(ctx context.Context, p *VisitorProfile) error
}
