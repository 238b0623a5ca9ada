package feature

import (
	"context"
	"fmt"
	"strings"

	"github.com/museworks/musekit/core"
	"github.com/museworks/musekit/feast"
)

// FeastService 是基于 Feast Feature Store 的特征服务实现，
// 用于特征已经离线物化到在线存储的部署形态。
//
// 实体约定：访客实体键 visitor_id，条目实体键 museum_id。
// 返回的特征 key 去掉 feature view 前缀（"visitor_stats:engagement" -> "engagement"），
// 和 AffinityService 的命名对齐，下游无需感知特征来源。
type FeastService struct {
	client feast.Client

	// UserFeatures / ItemFeatures 是要拉取的特征引用列表，
	// 例如 ["visitor_stats:engagement"]、["museum_stats:popularity"]
	UserFeatures []string
	ItemFeatures []string

	UserEntityKey string // 默认 "visitor_id"
	ItemEntityKey string // 默认 "museum_id"
}

var _ core.FeatureService = (*FeastService)(nil)

func NewFeastService(client feast.Client, userFeatures, itemFeatures []string) *FeastService {
	return &FeastService{
		client:       client,
		UserFeatures: userFeatures,
		ItemFeatures: itemFeatures,
	}
}

func (s *FeastService) Name() string { return "feature.feast" }

func (s *FeastService) GetUserFeatures(ctx context.Context, userID string) (map[string]float64, error) {
	if userID == "" || len(s.UserFeatures) == 0 {
		return map[string]float64{}, nil
	}
	key := s.UserEntityKey
	if key == "" {
		key = "visitor_id"
	}
	rows, err := s.fetch(ctx, s.UserFeatures, key, []string{userID})
	if err != nil {
		return nil, err
	}
	return rows[userID], nil
}

func (s *FeastService) GetItemFeatures(ctx context.Context, itemID string) (map[string]float64, error) {
	out, err := s.BatchGetItemFeatures(ctx, []string{itemID})
	if err != nil {
		return nil, err
	}
	return out[itemID], nil
}

func (s *FeastService) BatchGetItemFeatures(ctx context.Context, itemIDs []string) (map[string]map[string]float64, error) {
	if len(itemIDs) == 0 || len(s.ItemFeatures) == 0 {
		return map[string]map[string]float64{}, nil
	}
	key := s.ItemEntityKey
	if key == "" {
		key = "museum_id"
	}
	return s.fetch(ctx, s.ItemFeatures, key, itemIDs)
}

func (s *FeastService) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// fetch 按单一实体键批量拉取特征，返回 实体ID -> 特征 map。
func (s *FeastService) fetch(ctx context.Context, features []string, entityKey string, ids []string) (map[string]map[string]float64, error) {
	entityRows := make([]map[string]interface{}, len(ids))
	for i, id := range ids {
		entityRows[i] = map[string]interface{}{entityKey: id}
	}

	resp, err := s.client.GetOnlineFeatures(ctx, &feast.GetOnlineFeaturesRequest{
		Features:   features,
		EntityRows: entityRows,
	})
	if err != nil {
		return nil, fmt.Errorf("feast online features: %w", err)
	}

	out := make(map[string]map[string]float64, len(ids))
	for i, vector := range resp.FeatureVectors {
		if i >= len(ids) {
			break
		}
		values := make(map[string]float64, len(vector.Values))
		for name, v := range vector.Values {
			f, ok := toFloat(v)
			if !ok {
				continue
			}
			values[trimView(name)] = f
		}
		out[ids[i]] = values
	}
	return out, nil
}

// trimView 去掉 "view:feature" 里的 view 前缀。
func trimView(name string) string {
	if i := strings.Index(name, ":"); i >= 0 {
		return name[i+1:]
	}
	return name
}

func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int64:
		return float64(val), true
	case int:
		return float64(val), true
	default:
		return 0, false
	}
}
