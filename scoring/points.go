// Package scoring 是无状态打分：单条交互事件 → 分数。
//
// 所有派生值（主题亲和、热度、engagement）都建立在这个函数之上，
// 由 affinity 包回放事件日志求和得到。这里不做任何 I/O，不碰任何状态。
package scoring

import "github.com/museworks/musekit/core"

// 各交互类型的权重。
const (
	cardClickPoints    = 1
	detailOpenPoints   = 2
	favoritePoints     = 3
	thumbsUpPoints     = 3
	websiteVisitPoints = 2

	// readingIntervalSec 每满 30 秒加 1 分
	readingIntervalSec = 30

	// maxReadingSec 阅读时长截断到 600 秒，避免挂机页面刷分
	maxReadingSec = 600
)

// Points 计算一条交互事件的分数。
//
// 约定：
//   - 未知类型得 0 分，不是错误（前端埋点新增类型不应打挂后端）
//   - thumbs_down 得 0 分：点踩绝不能抬高条目热度
//   - favorite_removed 得 0 分：取消收藏只停止加分，不追回已给出的分数，
//     否则累计热度可能为负，破坏回放不变量
//   - 结果永远 >= 0
func Points(kind core.InteractionKind, durationSec float64) int {
	switch kind {
	case core.KindCardClick:
		return cardClickPoints
	case core.KindDetailOpen:
		return detailOpenPoints
	case core.KindFavoriteAdded:
		return favoritePoints
	case core.KindFavoriteRemoved:
		return 0
	case core.KindReading:
		return ReadingPoints(durationSec)
	case core.KindThumbsUp:
		return thumbsUpPoints
	case core.KindThumbsDown:
		return 0
	case core.KindWebsiteVisit:
		return websiteVisitPoints
	default:
		return 0
	}
}

// ReadingPoints 计算阅读时长的分数：每满 30 秒 1 分，600 秒封顶（最多 20 分）。
func ReadingPoints(durationSec float64) int {
	if durationSec <= 0 {
		return 0
	}
	capped := durationSec
	if capped > maxReadingSec {
		capped = maxReadingSec
	}
	return int(capped) / readingIntervalSec
}
