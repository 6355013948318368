package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/rushteam/resonance/core"
)

// 表名沿用上游库的命名。
const (
	tableItems = "updated_post_summaries"
	tablePosts = "posts"
)

var interactionTables = map[core.InteractionKind]string{
	core.KindView:    "post_views",
	core.KindLike:    "post_likes",
	core.KindInspire: "post_inspires",
	core.KindRating:  "post_ratings",
}

// interactionRow 是四张交互表共用的行结构，rating_percent 只在 post_ratings 中有值。
type interactionRow struct {
	ID            int64 `gorm:"primaryKey;autoIncrement"`
	PostID        int64 `gorm:"index;not null"`
	UserID        int64 `gorm:"index;not null"`
	RatingPercent float64
	CreatedAt     time.Time
}

type itemRow struct {
	ID                  int64    `gorm:"primaryKey;autoIncrement"`
	PostID              int64    `gorm:"uniqueIndex;not null"`
	UpvoteCount         int
	ViewCount           int
	AverageRating       float64
	Username            string
	Keywords            []string `gorm:"serializer:json"`
	NoOfPersonInVideo   int
	EstimatedDuration   string
	MainCharacterGender string
	Summary             string
	Category            string
	UpdatedAt           time.Time
}

func (itemRow) TableName() string { return tableItems }

// postRow 保存完整帖子 JSON，只对常用字段建列。
type postRow struct {
	ID        int64 `gorm:"primaryKey;autoIncrement:false"`
	Title     string
	Username  string
	Payload   string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (postRow) TableName() string { return tablePosts }

// SQLStore 是基于 GORM 的信号存储，支持 SQLite 与 PostgreSQL。
type SQLStore struct {
	db        *gorm.DB
	batchSize int
}

// SQLOption 配置 SQLStore。
type SQLOption func(*SQLStore)

// WithBatchSize 设置批量写入大小，默认 500。
func WithBatchSize(n int) SQLOption {
	return func(s *SQLStore) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewSQLStore 基于已打开的 *gorm.DB 创建信号存储，不做迁移。
func NewSQLStore(db *gorm.DB, opts ...SQLOption) *SQLStore {
	s := &SQLStore{db: db, batchSize: 500}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenSQL 按 DSN 选择驱动并打开数据库：
// postgres:// / postgresql:// / host= 开头使用 PostgreSQL，其余视为 SQLite 文件路径。
func OpenSQL(dsn string, opts ...SQLOption) (*SQLStore, error) {
	var dialector gorm.Dialector
	isSQLite := false
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"), strings.HasPrefix(dsn, "host="):
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(dsn)
		isSQLite = true
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, core.NewDomainErrorWithCause(core.ModuleSignal, core.ErrorCodeUnavailable, "signal: open database", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("signal: get underlying sql.DB: %w", err)
	}
	if isSQLite {
		// SQLite 单写者
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}
	return NewSQLStore(db, opts...), nil
}

// Migrate 创建全部表。
func (s *SQLStore) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	for kind, table := range interactionTables {
		if err := db.Table(table).AutoMigrate(&interactionRow{}); err != nil {
			return fmt.Errorf("signal: migrate %s: %w", kind, err)
		}
	}
	if err := db.AutoMigrate(&itemRow{}, &postRow{}); err != nil {
		return fmt.Errorf("signal: migrate items/posts: %w", err)
	}
	return nil
}

func (s *SQLStore) Name() string { return "sql:" + s.db.Dialector.Name() }

// DB 返回底层连接。
func (s *SQLStore) DB() *gorm.DB { return s.db }

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// LoadInteractions 读取交互表；表不存在视为空表。
func (s *SQLStore) LoadInteractions(ctx context.Context, kind core.InteractionKind) ([]core.Interaction, error) {
	table, ok := interactionTables[kind]
	if !ok {
		return nil, core.NewDomainError(core.ModuleSignal, core.ErrorCodeInvalidInput, "signal: unknown interaction kind "+string(kind))
	}
	db := s.db.WithContext(ctx)
	if !db.Migrator().HasTable(table) {
		return []core.Interaction{}, nil
	}

	var rows []interactionRow
	if err := db.Table(table).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("signal: load %s interactions: %w", kind, err)
	}
	out := make([]core.Interaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.Interaction{ID: r.ID, UserID: r.UserID, ItemID: r.PostID, Percent: r.RatingPercent})
	}
	return out, nil
}

// LoadItems 读取物品表；表不存在返回 core.ErrCatalogMissing。
func (s *SQLStore) LoadItems(ctx context.Context) ([]core.EnrichedItem, error) {
	db := s.db.WithContext(ctx)
	if !db.Migrator().HasTable(tableItems) {
		return nil, core.ErrCatalogMissing
	}

	var rows []itemRow
	if err := db.Order("post_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("signal: load items: %w", err)
	}
	out := make([]core.EnrichedItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.EnrichedItem{
			PostID:              r.PostID,
			Summary:             r.Summary,
			Category:            r.Category,
			Keywords:            core.Keywords(r.Keywords),
			Username:            r.Username,
			UpvoteCount:         r.UpvoteCount,
			ViewCount:           r.ViewCount,
			AverageRating:       r.AverageRating,
			NoOfPersonInVideo:   r.NoOfPersonInVideo,
			EstimatedDuration:   r.EstimatedDuration,
			MainCharacterGender: r.MainCharacterGender,
		})
	}
	return out, nil
}

func (s *SQLStore) LoadPosts(ctx context.Context) ([]core.Post, error) {
	db := s.db.WithContext(ctx)
	if !db.Migrator().HasTable(tablePosts) {
		return []core.Post{}, nil
	}

	var rows []postRow
	if err := db.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("signal: load posts: %w", err)
	}
	out := make([]core.Post, 0, len(rows))
	for _, r := range rows {
		var p core.Post
		if err := json.Unmarshal([]byte(r.Payload), &p); err != nil {
			return nil, fmt.Errorf("signal: decode post %d: %w", r.ID, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// SaveInteractions 带 ID 的记录按 ID upsert，无 ID 的记录追加。
func (s *SQLStore) SaveInteractions(ctx context.Context, kind core.InteractionKind, records []core.Interaction) error {
	table, ok := interactionTables[kind]
	if !ok {
		return core.NewDomainError(core.ModuleSignal, core.ErrorCodeInvalidInput, "signal: unknown interaction kind "+string(kind))
	}
	var withID, withoutID []interactionRow
	for _, r := range records {
		row := interactionRow{ID: r.ID, PostID: r.ItemID, UserID: r.UserID, RatingPercent: r.Percent}
		if r.ID != 0 {
			withID = append(withID, row)
		} else {
			withoutID = append(withoutID, row)
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(withID) > 0 {
			err := tx.Table(table).Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"post_id", "user_id", "rating_percent"}),
			}).CreateInBatches(withID, s.batchSize).Error
			if err != nil {
				return fmt.Errorf("signal: upsert %s interactions: %w", kind, err)
			}
		}
		if len(withoutID) > 0 {
			if err := tx.Table(table).CreateInBatches(withoutID, s.batchSize).Error; err != nil {
				return fmt.Errorf("signal: insert %s interactions: %w", kind, err)
			}
		}
		return nil
	})
}

func (s *SQLStore) SaveItems(ctx context.Context, items []core.EnrichedItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]itemRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, itemRow{
			PostID:              it.PostID,
			UpvoteCount:         it.UpvoteCount,
			ViewCount:           it.ViewCount,
			AverageRating:       it.AverageRating,
			Username:            it.Username,
			Keywords:            []string(it.Keywords),
			NoOfPersonInVideo:   it.NoOfPersonInVideo,
			EstimatedDuration:   it.EstimatedDuration,
			MainCharacterGender: it.MainCharacterGender,
			Summary:             it.Summary,
			Category:            it.Category,
		})
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "post_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"upvote_count", "view_count", "average_rating", "username", "keywords",
			"no_of_person_in_video", "estimated_duration", "main_character_gender",
			"summary", "category", "updated_at",
		}),
	}).CreateInBatches(rows, s.batchSize).Error
	if err != nil {
		return fmt.Errorf("signal: upsert items: %w", err)
	}
	return nil
}

func (s *SQLStore) SavePosts(ctx context.Context, posts []core.Post) error {
	if len(posts) == 0 {
		return nil
	}
	rows := make([]postRow, 0, len(posts))
	for _, p := range posts {
		payload, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("signal: encode post %d: %w", p.ID, err)
		}
		rows = append(rows, postRow{ID: p.ID, Title: p.Title, Username: p.Username, Payload: string(payload)})
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "username", "payload", "updated_at"}),
	}).CreateInBatches(rows, s.batchSize).Error
	if err != nil {
		return fmt.Errorf("signal: upsert posts: %w", err)
	}
	return nil
}

var _ core.SignalStore = (*SQLStore)(nil)
