package filter

import (
	"context"

	"github.com/museworks/musekit/core"
	"github.com/museworks/musekit/pkg/dsl"
)

// ExprFilter 按 CEL 表达式过滤，表达式为 true 时条目被移除。
// 可访问 item / rctx 两个变量，例如：
//
//	item.meta["theme"] == "Art" && rctx.profile.interest_mode == "classics"
type ExprFilter struct {
	Expr string
}

func NewExprFilter(expr string) *ExprFilter {
	return &ExprFilter{Expr: expr}
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if f.Expr == "" || item == nil {
		return false, nil
	}
	return dsl.NewEval(item, rctx).Evaluate(f.Expr)
}
