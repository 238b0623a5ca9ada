package config

import (
	"fmt"
	"time"

	"github.com/museworks/musekit/affinity"
	"github.com/museworks/musekit/core"
	"github.com/museworks/musekit/feature"
	"github.com/museworks/musekit/filter"
	"github.com/museworks/musekit/pipeline"
	"github.com/museworks/musekit/pkg/conv"
	"github.com/museworks/musekit/rank"
	"github.com/museworks/musekit/recall"
	"github.com/museworks/musekit/rerank"
)

// Deps 是配置驱动构建 Node 所需的运行时依赖。
// Node 配置里只有参数，存储和聚合器由宿主注入。
type Deps struct {
	Events   core.EventStore
	Catalog  core.CatalogStore
	KV       core.Store
	Agg      *affinity.Aggregator
	Features core.FeatureService
}

// RegisterAll 把内置 Node 的构建器注册到全局注册表。
// 之后即可用 DefaultFactory() + pipeline.LoadFromYAML 从配置文件组装管道。
func (d Deps) RegisterAll() {
	Register("recall.catalog", d.buildCatalogNode)
	Register("recall.hot", d.buildHotNode)
	Register("recall.hidden_gems", d.buildHiddenGemsNode)
	Register("recall.fanout", d.buildFanoutNode)
	Register("filter", d.buildFilterNode)
	Register("feature.enrich", d.buildEnrichNode)
	Register("rank.affinity", d.buildAffinityNode)
	Register("rerank.discovery_mixer", d.buildMixerNode)
	Register("rerank.diversity", d.buildDiversityNode)
	Register("rerank.topn", d.buildTopNNode)
}

func (d Deps) buildCatalogNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &recall.Catalog{
		Store: d.Catalog,
		Limit: int(conv.ConfigGetInt64(cfg, "limit", 0)),
	}, nil
}

func (d Deps) buildHotNode(cfg map[string]interface{}) (pipeline.Node, error) {
	ids := conv.SliceAnyToString(cfg["ids"])
	if ids == nil {
		ids = []string{}
	}
	return &recall.Hot{
		Store:   d.KV,
		Catalog: d.Catalog,
		Key:     conv.ConfigGet(cfg, "key", ""),
		IDs:     ids,
		Limit:   int(conv.ConfigGetInt64(cfg, "limit", 0)),
	}, nil
}

func (d Deps) buildHiddenGemsNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &recall.HiddenGems{
		Catalog:         d.Catalog,
		Events:          d.Events,
		MaxInteractions: int(conv.ConfigGetInt64(cfg, "max_interactions", 0)),
		Limit:           int(conv.ConfigGetInt64(cfg, "limit", 0)),
		ThemeBound:      conv.ConfigGet(cfg, "theme_bound", false),
	}, nil
}

func (d Deps) buildFanoutNode(cfg map[string]interface{}) (pipeline.Node, error) {
	sourcesConfig, ok := cfg["sources"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("sources not found or invalid")
	}

	sources := make([]recall.Source, 0, len(sourcesConfig))
	for _, sc := range sourcesConfig {
		sourceMap, ok := sc.(map[string]interface{})
		if !ok {
			continue
		}
		sourceType := conv.ConfigGet(sourceMap, "type", "")
		switch sourceType {
		case "catalog":
			node, err := d.buildCatalogNode(sourceMap)
			if err != nil {
				return nil, err
			}
			sources = append(sources, node.(*recall.Catalog))
		case "hot":
			node, err := d.buildHotNode(sourceMap)
			if err != nil {
				return nil, err
			}
			sources = append(sources, node.(*recall.Hot))
		case "hidden_gems":
			node, err := d.buildHiddenGemsNode(sourceMap)
			if err != nil {
				return nil, err
			}
			sources = append(sources, node.(*recall.HiddenGems))
		default:
			return nil, fmt.Errorf("unknown source type: %s", sourceType)
		}
	}

	fanout := &recall.Fanout{
		Sources:       sources,
		Dedup:         conv.ConfigGet(cfg, "dedup", true),
		MergeStrategy: conv.ConfigGet(cfg, "merge_strategy", ""),
	}
	if sec := conv.ConfigGetInt64(cfg, "timeout", 0); sec > 0 {
		fanout.Timeout = time.Duration(sec) * time.Second
	}
	if n := conv.ConfigGetInt64(cfg, "max_concurrent", 0); n > 0 {
		fanout.MaxConcurrent = int(n)
	}
	return fanout, nil
}

func (d Deps) buildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}

	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		filterType := conv.ConfigGet(filterMap, "type", "")
		switch filterType {
		case "distance":
			f := filter.NewDistanceFilter()
			if v := conv.ConfigGetFloat(filterMap, "max_nearby_km", 0); v > 0 {
				f.MaxNearbyKm = v
			}
			if v := conv.ConfigGetFloat(filterMap, "max_medium_km", 0); v > 0 {
				f.MaxMediumKm = v
			}
			filters = append(filters, f)

		case "seen":
			kinds := make([]core.InteractionKind, 0)
			for _, k := range conv.SliceAnyToString(filterMap["kinds"]) {
				kinds = append(kinds, core.InteractionKind(k))
			}
			filters = append(filters, filter.NewSeenFilter(d.Events, kinds...))

		case "expr":
			expr := conv.ConfigGet(filterMap, "expr", "")
			if expr == "" {
				return nil, fmt.Errorf("expr filter requires expr")
			}
			filters = append(filters, filter.NewExprFilter(expr))

		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}

	return &filter.FilterNode{Filters: filters}, nil
}

func (d Deps) buildEnrichNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &feature.EnrichNode{
		Service:    d.Features,
		UserPrefix: conv.ConfigGet(cfg, "user_prefix", ""),
		ItemPrefix: conv.ConfigGet(cfg, "item_prefix", ""),
	}, nil
}

func (d Deps) buildAffinityNode(cfg map[string]interface{}) (pipeline.Node, error) {
	node := rank.NewAffinityNode()
	if v := conv.ConfigGetFloat(cfg, "affinity_weight", 0); v > 0 {
		node.AffinityWeight = v
	}
	if v := conv.ConfigGetFloat(cfg, "popularity_weight", 0); v > 0 {
		node.PopularityWeight = v
	}
	return node, nil
}

func (d Deps) buildMixerNode(cfg map[string]interface{}) (pipeline.Node, error) {
	mixer := rerank.NewDiscoveryMixer(d.Agg)
	if n := conv.ConfigGetInt64(cfg, "max_results", 0); n > 0 {
		mixer.MaxResults = int(n)
	}
	if n := conv.ConfigGetInt64(cfg, "promote_top", 0); n > 0 {
		mixer.PromoteTop = int(n)
	}
	if h := conv.ConfigGetInt64(cfg, "recent_window_hours", 0); h > 0 {
		mixer.RecentWindow = time.Duration(h) * time.Hour
	}
	return mixer, nil
}

func (d Deps) buildDiversityNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.Diversity{
		LabelKey:    conv.ConfigGet(cfg, "label_key", ""),
		MaxPerTheme: int(conv.ConfigGetInt64(cfg, "max_per_theme", 0)),
	}, nil
}

func (d Deps) buildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.TopNNode{
		N: int(conv.ConfigGetInt64(cfg, "n", 0)),
	}, nil
}
