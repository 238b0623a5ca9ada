package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/museworks/musekit/affinity"
	"github.com/museworks/musekit/core"
	"github.com/museworks/musekit/pipeline"
	"github.com/museworks/musekit/store"
)

const discoveryYAML = `
pipeline:
  name: discovery
  nodes:
    - type: recall.catalog
      config: {}
    - type: filter
      config:
        filters:
          - type: distance
    - type: feature.enrich
      config: {}
    - type: rank.affinity
      config: {}
    - type: rerank.discovery_mixer
      config:
        max_results: 4
`

func testDeps() Deps {
	mc := store.NewMemoryCatalog()
	agg := affinity.New(mc, mc)
	return Deps{
		Events:  mc,
		Catalog: mc,
		Agg:     agg,
	}
}

func TestRegisterAllAndBuild(t *testing.T) {
	deps := testDeps()
	deps.RegisterAll()

	path := filepath.Join(t.TempDir(), "discovery.yaml")
	if err := os.WriteFile(path, []byte(discoveryYAML), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	cfg, err := pipeline.LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML: %v", err)
	}
	if err := ValidatePipelineConfig(cfg); err != nil {
		t.Fatalf("ValidatePipelineConfig: %v", err)
	}

	p, err := cfg.BuildPipeline(DefaultFactory())
	if err != nil {
		t.Fatalf("BuildPipeline: %v", err)
	}
	if len(p.Nodes) != 5 {
		t.Fatalf("got %d nodes, want 5", len(p.Nodes))
	}

	// 空目录上跑一遍：空结果也应正常结束
	items, err := p.Run(context.Background(), &core.RecommendContext{UserID: "u1"}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("empty catalog produced %d items", len(items))
	}
}

func TestValidateRejectsUnknownType(t *testing.T) {
	testDeps().RegisterAll()

	cfg := &pipeline.Config{}
	cfg.Pipeline.Name = "bad"
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{{Type: "rank.deep_ctr"}}

	if err := ValidatePipelineConfig(cfg); err == nil {
		t.Fatal("expected error for unknown node type")
	}
}
