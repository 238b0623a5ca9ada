// Package service 是面向宿主应用的门面层：组装管道、提供发现流、
// 交互采集、投票反馈与相似推荐。
package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/museworks/musekit/adapt"
	"github.com/museworks/musekit/affinity"
	"github.com/museworks/musekit/core"
	"github.com/museworks/musekit/feature"
	"github.com/museworks/musekit/filter"
	"github.com/museworks/musekit/pipeline"
	"github.com/museworks/musekit/rank"
	"github.com/museworks/musekit/recall"
	"github.com/museworks/musekit/rerank"
	"github.com/museworks/musekit/scoring"
)

// Discovery 是发现推荐服务。
// 推荐永不失败：管道或存储出错时降级为热度排序，最坏返回空列表。
type Discovery struct {
	log      *zap.Logger
	events   core.EventStore
	catalog  core.CatalogStore
	profiles core.ProfileStore
	agg      *affinity.Aggregator
	features core.FeatureService
	pipe     *pipeline.Pipeline
}

// Options 是 Discovery 的装配选项。
// Events 和 Catalog 必填；其余缺省时用默认实现补齐。
type Options struct {
	Logger   *zap.Logger
	Events   core.EventStore
	Catalog  core.CatalogStore
	Profiles core.ProfileStore

	// Features 特征服务；缺省用事件回放（feature.AffinityService）
	Features core.FeatureService

	// Pipeline 自定义管道；缺省为 目录召回 -> 距离过滤 -> 特征注入 -> 亲和排序 -> 发现混排
	Pipeline *pipeline.Pipeline
}

func New(opts Options) *Discovery {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	agg := affinity.New(opts.Events, opts.Catalog)

	features := opts.Features
	if features == nil {
		features = feature.NewAffinityService(agg, opts.Events)
	}

	pipe := opts.Pipeline
	if pipe == nil {
		pipe = &pipeline.Pipeline{
			Nodes: []pipeline.Node{
				&recall.Catalog{Store: opts.Catalog},
				&filter.FilterNode{Filters: []filter.Filter{filter.NewDistanceFilter()}},
				feature.NewEnrichNode(features),
				rank.NewAffinityNode(),
				rerank.NewDiscoveryMixer(agg),
			},
		}
	}

	return &Discovery{
		log:      log,
		events:   opts.Events,
		catalog:  opts.Catalog,
		profiles: opts.Profiles,
		agg:      agg,
		features: features,
		pipe:     pipe,
	}
}

// RecommendRequest 是一次发现流请求。
type RecommendRequest struct {
	UserID string

	// MaxResults 显式结果数上限；0 时用适配结果（默认 12）
	MaxResults int

	// Signals 环境信号，驱动展示适配
	Signals adapt.Signals
}

// RecommendResult 是发现流响应。
type RecommendResult struct {
	Items    []*core.Item
	Settings adapt.Settings

	// Trail 是这次请求的决策痕迹（提升主题、探索比例、降级原因）
	Trail []string
}

// Recommend 计算一屏发现结果。
// 管道失败时自动降级为热度排序；该方法不返回错误。
func (s *Discovery) Recommend(ctx context.Context, req RecommendRequest) *RecommendResult {
	settings := adapt.Compute(req.Signals)

	maxResults := settings.MaxResults
	if req.MaxResults > 0 {
		maxResults = req.MaxResults
	}

	var profile *core.VisitorProfile
	if s.profiles != nil && req.UserID != "" {
		p, err := s.profiles.GetProfile(ctx, req.UserID)
		if err == nil {
			profile = p
		} else if !core.IsNotFound(err) {
			s.log.Warn("load profile failed", zap.String("user_id", req.UserID), zap.Error(err))
		}
	}

	rctx := &core.RecommendContext{
		UserID:  req.UserID,
		Scene:   "discovery",
		Profile: profile,
		Params:  map[string]any{"max_results": maxResults},
	}

	result := &RecommendResult{Settings: settings}
	if summary := settings.Summary(); summary != "" {
		result.Trail = append(result.Trail, summary)
	}

	items, err := s.pipe.Run(ctx, rctx, nil)
	if err != nil {
		s.log.Warn("pipeline failed, falling back to popularity",
			zap.String("user_id", req.UserID), zap.Error(err))
		result.Items = s.popularityFallback(ctx, maxResults)
		result.Trail = append(result.Trail, "fallback: popularity ranking")
		return result
	}

	if lbl, ok := rctx.GetLabel("promoted_themes"); ok {
		result.Trail = append(result.Trail, "promoted themes: "+lbl.Value)
	}
	if lbl, ok := rctx.GetLabel("exploration_ratio"); ok {
		result.Trail = append(result.Trail, "exploration ratio: "+lbl.Value)
	}

	result.Items = items
	return result
}

// popularityFallback 是管道失败时的兜底：目录按热度排序截断。
// 连目录都不可用时返回空列表。
func (s *Discovery) popularityFallback(ctx context.Context, maxResults int) []*core.Item {
	items, err := s.catalog.ListItems(ctx)
	if err != nil {
		s.log.Error("fallback catalog unavailable", zap.Error(err))
		return nil
	}

	for _, it := range items {
		if pop, err := s.agg.Popularity(ctx, it.ID); err == nil {
			it.Score = float64(pop)
		} else if metaPop, ok := it.MetaFloat(core.MetaPopularity); ok {
			it.Score = metaPop
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})

	if maxResults > 0 && len(items) > maxResults {
		items = items[:maxResults]
	}
	return items
}

// ComputeAdaptation 只做展示适配，不跑推荐管道。
func (s *Discovery) ComputeAdaptation(sig adapt.Signals) adapt.Settings {
	return adapt.Compute(sig)
}

// OutcomeStatus 是交互采集的结果状态。
type OutcomeStatus string

const (
	OutcomeOK       OutcomeStatus = "ok"        // 已记录且计分
	OutcomeNoPoints OutcomeStatus = "no_points" // 已记录但不计分
	OutcomeFailed   OutcomeStatus = "failed"    // 存储失败，事件丢失
)

// Outcome 是一次交互采集的回执。
type Outcome struct {
	Status  OutcomeStatus
	EventID string
	Points  int
}

// RecordInteraction 采集一条交互事件。best-effort：存储失败只降级回执，
// 不向调用方抛错，发现流不因采集通道故障而中断。
func (s *Discovery) RecordInteraction(ctx context.Context, ev *core.InteractionEvent) Outcome {
	if ev == nil || ev.UserID == "" || ev.ItemID == "" {
		return Outcome{Status: OutcomeFailed}
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	points := scoring.Points(ev.Kind, ev.DurationSec)

	id, err := s.events.Append(ctx, ev)
	if err != nil {
		s.log.Warn("append interaction failed",
			zap.String("user_id", ev.UserID),
			zap.String("item_id", ev.ItemID),
			zap.String("kind", string(ev.Kind)),
			zap.Error(err))
		return Outcome{Status: OutcomeFailed}
	}

	status := OutcomeOK
	if points == 0 {
		status = OutcomeNoPoints
	}
	return Outcome{Status: status, EventID: id, Points: points}
}

// FeedbackStatus 是投票反馈的结果状态。
type FeedbackStatus string

const (
	FeedbackRecorded     FeedbackStatus = "recorded"
	FeedbackAlreadyVoted FeedbackStatus = "already_voted"
)

// FeedbackResult 是投票回执，附带最新的赞成统计。
type FeedbackResult struct {
	Status     FeedbackStatus
	ThumbsUp   int
	ThumbsDown int

	// ApprovalPct 赞成率百分比；无投票时为 0
	ApprovalPct float64
}

// SubmitFeedback 记录 thumbs 投票。一人一票：该用户对该条目投过
// （无论方向）则拒绝并返回 already_voted。
func (s *Discovery) SubmitFeedback(ctx context.Context, userID, itemID string, up bool) (*FeedbackResult, error) {
	if userID == "" || itemID == "" {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput, "user_id and item_id are required")
	}

	existing, err := s.events.List(ctx, core.EventQuery{UserID: userID, ItemID: itemID})
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	voted := false
	for _, ev := range existing {
		if ev.Kind == core.KindThumbsUp || ev.Kind == core.KindThumbsDown {
			voted = true
			break
		}
	}

	if !voted {
		kind := core.KindThumbsUp
		if !up {
			kind = core.KindThumbsDown
		}
		if _, err := s.events.Append(ctx, &core.InteractionEvent{
			ID:        uuid.NewString(),
			UserID:    userID,
			ItemID:    itemID,
			Kind:      kind,
			Timestamp: time.Now(),
		}); err != nil {
			return nil, fmt.Errorf("append vote: %w", err)
		}
	}

	upCount, downCount, err := s.voteCounts(ctx, itemID)
	if err != nil {
		return nil, err
	}

	result := &FeedbackResult{
		Status:     FeedbackRecorded,
		ThumbsUp:   upCount,
		ThumbsDown: downCount,
	}
	if voted {
		result.Status = FeedbackAlreadyVoted
	}
	if total := upCount + downCount; total > 0 {
		result.ApprovalPct = 100 * float64(upCount) / float64(total)
	}
	return result, nil
}

func (s *Discovery) voteCounts(ctx context.Context, itemID string) (up, down int, err error) {
	events, err := s.events.List(ctx, core.EventQuery{ItemID: itemID})
	if err != nil {
		return 0, 0, fmt.Errorf("list votes: %w", err)
	}
	for _, ev := range events {
		switch ev.Kind {
		case core.KindThumbsUp:
			up++
		case core.KindThumbsDown:
			down++
		}
	}
	return up, down, nil
}

// HiddenGems 返回冷门遗珠：交互量低但口碑好的条目，限定在访客偏好
// 主题内（无画像或无偏好时不限主题）。
func (s *Discovery) HiddenGems(ctx context.Context, userID string, n int) ([]*core.Item, error) {
	if n <= 0 {
		n = 5
	}

	rctx := &core.RecommendContext{UserID: userID, Scene: "hidden_gems"}
	if s.profiles != nil && userID != "" {
		p, err := s.profiles.GetProfile(ctx, userID)
		if err == nil {
			rctx.Profile = p
		} else if !core.IsNotFound(err) {
			s.log.Warn("load profile failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	gems := &recall.HiddenGems{
		Catalog:    s.catalog,
		Events:     s.events,
		Limit:      n,
		ThemeBound: rctx.Profile != nil && len(rctx.Profile.PreferredThemes) > 0,
	}
	return gems.Recall(ctx, rctx)
}

// SimilarItems 返回与给定条目相似的条目：同主题优先，其次同大区，
// 组内按热度降序、名称升序。自身不出现在结果里。
func (s *Discovery) SimilarItems(ctx context.Context, itemID string, n int) ([]*core.Item, error) {
	anchor, err := s.catalog.GetItem(ctx, itemID)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, core.ErrCatalogNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	if n <= 0 {
		n = 5
	}

	items, err := s.catalog.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}

	theme := anchor.Theme()
	region := anchor.MetaString(core.MetaRegion)

	type scored struct {
		item       *core.Item
		tier       int // 0 同主题，1 同大区，2 其余不选
		popularity int
	}
	candidates := make([]scored, 0, len(items))
	for _, it := range items {
		if it.ID == itemID {
			continue
		}
		tier := 2
		switch {
		case theme != "" && it.Theme() == theme:
			tier = 0
		case region != "" && it.MetaString(core.MetaRegion) == region:
			tier = 1
		}
		if tier == 2 {
			continue
		}
		pop, err := s.agg.Popularity(ctx, it.ID)
		if err != nil {
			pop = 0
		}
		candidates = append(candidates, scored{item: it, tier: tier, popularity: pop})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].tier != candidates[j].tier {
			return candidates[i].tier < candidates[j].tier
		}
		if candidates[i].popularity != candidates[j].popularity {
			return candidates[i].popularity > candidates[j].popularity
		}
		return candidates[i].item.MetaString(core.MetaName) < candidates[j].item.MetaString(core.MetaName)
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	out := make([]*core.Item, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.item)
	}
	return out, nil
}
