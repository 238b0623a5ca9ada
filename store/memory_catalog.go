package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/museworks/musekit/core"
	"github.com/museworks/musekit/pkg/utils"
)

// MemoryCatalog 是领域存储（事件日志/目录/画像）的内存实现，
// 用于测试与 demo。事件追加是单行原子的（持锁）。
type MemoryCatalog struct {
	mu       sync.RWMutex
	events   []*core.InteractionEvent
	items    map[string]*core.Item
	order    []string // 目录插入顺序，保证 ListItems 确定性
	profiles map[string]*core.VisitorProfile
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		items:    make(map[string]*core.Item),
		profiles: make(map[string]*core.VisitorProfile),
	}
}

var (
	_ core.EventStore   = (*MemoryCatalog)(nil)
	_ core.CatalogStore = (*MemoryCatalog)(nil)
	_ core.ProfileStore = (*MemoryCatalog)(nil)
)

// ---- EventStore ----

func (m *MemoryCatalog) Append(ctx context.Context, ev *core.InteractionEvent) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *ev
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if cp.Timestamp.IsZero() {
		cp.Timestamp = time.Now()
	}
	m.events = append(m.events, &cp)
	return cp.ID, nil
}

func (m *MemoryCatalog) List(ctx context.Context, q core.EventQuery) ([]*core.InteractionEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*core.InteractionEvent, 0, len(m.events))
	for _, ev := range m.events {
		if q.UserID != "" && ev.UserID != q.UserID {
			continue
		}
		if q.ItemID != "" && ev.ItemID != q.ItemID {
			continue
		}
		if !q.Since.IsZero() && ev.Timestamp.Before(q.Since) {
			continue
		}
		cp := *ev
		out = append(out, &cp)
	}
	return out, nil
}

// ---- CatalogStore ----

// PutItem 导入一条目录条目（覆盖同 ID 旧值）。
func (m *MemoryCatalog) PutItem(it *core.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[it.ID]; !ok {
		m.order = append(m.order, it.ID)
	}
	m.items[it.ID] = it
}

func (m *MemoryCatalog) ListItems(ctx context.Context) ([]*core.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*core.Item, 0, len(m.order))
	for _, id := range m.order {
		if it, ok := m.items[id]; ok {
			out = append(out, cloneItem(it))
		}
	}
	return out, nil
}

func (m *MemoryCatalog) GetItem(ctx context.Context, id string) (*core.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, ok := m.items[id]
	if !ok {
		return nil, core.ErrCatalogNotFound
	}
	return cloneItem(it), nil
}

// ---- ProfileStore ----

func (m *MemoryCatalog) GetProfile(ctx context.Context, userID string) (*core.VisitorProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[userID]
	if !ok {
		return nil, core.ErrProfileNotFound
	}
	cp := *p
	cp.PreferredThemes = append([]string(nil), p.PreferredThemes...)
	return &cp, nil
}

func (m *MemoryCatalog) SaveProfile(ctx context.Context, p *core.VisitorProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *p
	cp.PreferredThemes = append([]string(nil), p.PreferredThemes...)
	cp.UpdateTime = time.Now()
	m.profiles[p.UserID] = &cp
	return nil
}

// cloneItem 深拷贝一个 Item，调用方可安全修改返回值。
func cloneItem(it *core.Item) *core.Item {
	cp := core.NewItem(it.ID)
	cp.Score = it.Score
	for k, v := range it.Features {
		cp.Features[k] = v
	}
	for k, v := range it.Meta {
		cp.Meta[k] = v
	}
	for k, v := range it.Labels {
		cp.Labels[k] = utils.Label{Value: v.Value, Source: v.Source}
	}
	return cp
}
