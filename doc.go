// Package musekit 是博物馆发现推荐内核（Museum Discovery Kit）。
//
// 设计要点：
// - Pipeline-first: 推荐逻辑通过 Node 串联（Recall → Filter → Rank → ReRank）
// - Labels-first: labels 全链路透传，每个条目都能解释自己为什么出现
// - Event-sourced: 亲和、热度、engagement 全部由交互事件日志回放重算
package musekit

import "github.com/museworks/musekit/pipeline"

// 轻量 facade：便于用户直接 import "musekit" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
