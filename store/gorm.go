package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/museworks/musekit/core"
)

// GormStore 是领域存储的关系型实现（sqlite，web 层同款库）。
//
// 表结构：
//   - visitors：画像（偏好主题存为逗号分隔串）
//   - museums：目录 + 便利计数器（popularity/thumbs，仅供展示；
//     排序用的派生分数永远由 affinity 包回放 interactions 重算）
//   - interactions：append-only 事件日志
type GormStore struct {
	db *gorm.DB
}

type visitorRecord struct {
	UserID       string `gorm:"primaryKey;column:user_id"`
	Language     string
	VisitorType  string
	DistancePref string
	InterestMode string
	ThemePref    string // 逗号分隔
	HubCity      string
	UpdatedAt    time.Time
}

func (visitorRecord) TableName() string { return "visitors" }

type museumRecord struct {
	ID         string `gorm:"primaryKey"`
	Name       string
	Region     string
	Theme      string
	Latitude   *float64
	Longitude  *float64
	Popularity int64
	ThumbsUp   int64
	ThumbsDown int64
}

func (museumRecord) TableName() string { return "museums" }

type interactionRecord struct {
	ID          string `gorm:"primaryKey"`
	UserID      string `gorm:"index"`
	ItemID      string `gorm:"index;column:museum_id"`
	Kind        string
	DurationSec float64
	CreatedAt   time.Time `gorm:"index"`
}

func (interactionRecord) TableName() string { return "interactions" }

// OpenSQLite 打开（必要时创建）sqlite 数据库并迁移表结构。
func OpenSQLite(path string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.AutoMigrate(&visitorRecord{}, &museumRecord{}, &interactionRecord{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// NewGormStore 复用外部已有的 *gorm.DB（例如 web 层统一管理连接时）。
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&visitorRecord{}, &museumRecord{}, &interactionRecord{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

var (
	_ core.EventStore   = (*GormStore)(nil)
	_ core.CatalogStore = (*GormStore)(nil)
	_ core.ProfileStore = (*GormStore)(nil)
)

// ---- EventStore ----

func (s *GormStore) Append(ctx context.Context, ev *core.InteractionEvent) (string, error) {
	rec := interactionRecord{
		ID:          ev.ID,
		UserID:      ev.UserID,
		ItemID:      ev.ItemID,
		Kind:        string(ev.Kind),
		DurationSec: ev.DurationSec,
		CreatedAt:   ev.Timestamp,
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return "", fmt.Errorf("append interaction: %w", err)
	}

	// 便利计数器：thumbs 投票同步累加到 museums，供详情页直接展示。
	// 失败不回滚事件本身（计数器可随时由日志重算）。
	switch ev.Kind {
	case core.KindThumbsUp:
		s.db.WithContext(ctx).Model(&museumRecord{}).Where("id = ?", ev.ItemID).
			UpdateColumn("thumbs_up", gorm.Expr("thumbs_up + 1"))
	case core.KindThumbsDown:
		s.db.WithContext(ctx).Model(&museumRecord{}).Where("id = ?", ev.ItemID).
			UpdateColumn("thumbs_down", gorm.Expr("thumbs_down + 1"))
	}

	return rec.ID, nil
}

func (s *GormStore) List(ctx context.Context, q core.EventQuery) ([]*core.InteractionEvent, error) {
	tx := s.db.WithContext(ctx).Model(&interactionRecord{})
	if q.UserID != "" {
		tx = tx.Where("user_id = ?", q.UserID)
	}
	if q.ItemID != "" {
		tx = tx.Where("museum_id = ?", q.ItemID)
	}
	if !q.Since.IsZero() {
		tx = tx.Where("created_at >= ?", q.Since)
	}

	var recs []interactionRecord
	if err := tx.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}

	out := make([]*core.InteractionEvent, 0, len(recs))
	for _, r := range recs {
		out = append(out, &core.InteractionEvent{
			ID:          r.ID,
			UserID:      r.UserID,
			ItemID:      r.ItemID,
			Kind:        core.InteractionKind(r.Kind),
			DurationSec: r.DurationSec,
			Timestamp:   r.CreatedAt,
		})
	}
	return out, nil
}

// ---- CatalogStore ----

// ImportMuseum 导入/覆盖一条目录记录（CSV 导入路径使用）。
func (s *GormStore) ImportMuseum(ctx context.Context, it *core.Item) error {
	rec := museumRecord{
		ID:     it.ID,
		Name:   it.MetaString(core.MetaName),
		Region: it.MetaString(core.MetaRegion),
		Theme:  it.MetaString(core.MetaTheme),
	}
	if lat, ok := it.MetaFloat(core.MetaLatitude); ok {
		rec.Latitude = &lat
	}
	if lon, ok := it.MetaFloat(core.MetaLongitude); ok {
		rec.Longitude = &lon
	}
	if pop, ok := it.MetaFloat(core.MetaPopularity); ok {
		rec.Popularity = int64(pop)
	}
	if err := s.db.WithContext(ctx).Save(&rec).Error; err != nil {
		return fmt.Errorf("import museum: %w", err)
	}
	return nil
}

func (s *GormStore) ListItems(ctx context.Context) ([]*core.Item, error) {
	var recs []museumRecord
	if err := s.db.WithContext(ctx).Order("id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list museums: %w", err)
	}
	out := make([]*core.Item, 0, len(recs))
	for i := range recs {
		out = append(out, museumToItem(&recs[i]))
	}
	return out, nil
}

func (s *GormStore) GetItem(ctx context.Context, id string) (*core.Item, error) {
	var rec museumRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, core.ErrCatalogNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get museum: %w", err)
	}
	return museumToItem(&rec), nil
}

func museumToItem(rec *museumRecord) *core.Item {
	it := core.NewItem(rec.ID)
	it.SetMeta(core.MetaName, rec.Name)
	it.SetMeta(core.MetaRegion, rec.Region)
	it.SetMeta(core.MetaTheme, rec.Theme)
	if rec.Latitude != nil {
		it.SetMeta(core.MetaLatitude, *rec.Latitude)
	}
	if rec.Longitude != nil {
		it.SetMeta(core.MetaLongitude, *rec.Longitude)
	}
	it.SetMeta(core.MetaPopularity, float64(rec.Popularity))
	it.SetMeta(core.MetaThumbsUp, float64(rec.ThumbsUp))
	it.SetMeta(core.MetaThumbsDown, float64(rec.ThumbsDown))
	return it
}

// ---- ProfileStore ----

func (s *GormStore) GetProfile(ctx context.Context, userID string) (*core.VisitorProfile, error) {
	var rec visitorRecord
	err := s.db.WithContext(ctx).First(&rec, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, core.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get visitor: %w", err)
	}

	p := &core.VisitorProfile{
		UserID:       rec.UserID,
		Language:     rec.Language,
		VisitorType:  rec.VisitorType,
		DistancePref: core.DistancePref(rec.DistancePref),
		InterestMode: core.InterestMode(rec.InterestMode),
		HubCity:      rec.HubCity,
		UpdateTime:   rec.UpdatedAt,
	}
	for _, t := range strings.Split(rec.ThemePref, ",") {
		if t = strings.TrimSpace(t); t != "" {
			p.PreferredThemes = append(p.PreferredThemes, t)
		}
	}
	return p, nil
}

func (s *GormStore) SaveProfile(ctx context.Context, p *core.VisitorProfile) error {
	rec := visitorRecord{
		UserID:       p.UserID,
		Language:     p.Language,
		VisitorType:  p.VisitorType,
		DistancePref: string(p.DistancePref),
		InterestMode: string(p.InterestMode),
		ThemePref:    strings.Join(p.PreferredThemes, ","),
		HubCity:      p.HubCity,
		UpdatedAt:    time.Now(),
	}
	if err := s.db.WithContext(ctx).Save(&rec).Error; err != nil {
		return fmt.Errorf("save visitor: %w", err)
	}
	return nil
}

// Close 关闭底层连接。
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
