package filter

import (
	"context"

	"github.com/museworks/musekit/core"
)

// SeenFilter 过滤掉用户已经产生过指定交互的条目，
// 例如把已收藏的馆从发现流里去掉。
type SeenFilter struct {
	Events core.EventStore

	// Kinds 为空时任何交互都算"看过"
	Kinds []core.InteractionKind
}

func NewSeenFilter(events core.EventStore, kinds ...core.InteractionKind) *SeenFilter {
	return &SeenFilter{Events: events, Kinds: kinds}
}

func (f *SeenFilter) Name() string {
	return "filter.seen"
}

func (f *SeenFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if f.Events == nil || rctx == nil || rctx.UserID == "" || item == nil {
		return false, nil
	}

	events, err := f.Events.List(ctx, core.EventQuery{UserID: rctx.UserID, ItemID: item.ID})
	if err != nil {
		return false, err
	}
	if len(f.Kinds) == 0 {
		return len(events) > 0, nil
	}
	for _, ev := range events {
		for _, k := range f.Kinds {
			if ev.Kind == k {
				return true, nil
			}
		}
	}
	return false, nil
}
