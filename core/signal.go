package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// InteractionKind 是交互信号类型。
type InteractionKind string

const (
	KindView    InteractionKind = "view"
	KindLike    InteractionKind = "like"
	KindInspire InteractionKind = "inspire" // 分享类信号
	KindRating  InteractionKind = "rating"
)

// InteractionKinds 是全部交互类型（固定顺序）。
var InteractionKinds = []InteractionKind{KindView, KindLike, KindInspire, KindRating}

// Interaction 是一条用户-物品交互事件。
// Percent 只对 rating 有意义，取值 [0,100]。
// 同一 (user, item) 的重复事件按次累加，不做去重。
// ID 是上游的记录 ID，写入时按 ID 覆盖；为 0 时视为新记录追加。
type Interaction struct {
	ID      int64   `json:"id,omitempty"`
	UserID  int64   `json:"user_id"`
	ItemID  int64   `json:"post_id"`
	Percent float64 `json:"rating_percent,omitempty"`
}

// EnrichedItem 是经过摘要/分类后的物品记录（物品表）。
// Summary / Category 可能为空，由 Data Preparer 归一化。
type EnrichedItem struct {
	PostID              int64    `json:"post_id"`
	Summary             string   `json:"summary"`
	Category            string   `json:"category"`
	Keywords            Keywords `json:"keywords"`
	Username            string   `json:"username"`
	UpvoteCount         int      `json:"upvote_count"`
	ViewCount           int      `json:"view_count"`
	AverageRating       float64  `json:"average_rating"`
	NoOfPersonInVideo   int      `json:"no_of_person_in_video"`
	EstimatedDuration   string   `json:"estimated_duration"`
	MainCharacterGender string   `json:"main_character_gender"`
}

// Keywords 是关键词列表，兼容上游的 JSON 数组 / 字符串 / null 三种形态。
type Keywords []string

func (k *Keywords) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*k = nil
	case string:
		*k = strings.Fields(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			switch s := e.(type) {
			case nil:
			case string:
				out = append(out, s)
			default:
				out = append(out, fmt.Sprint(s))
			}
		}
		*k = out
	default:
		*k = Keywords{fmt.Sprint(v)}
	}
	return nil
}

// Join 以空格拼接关键词。
func (k Keywords) Join() string {
	return strings.Join(k, " ")
}

// PostCategory 是上游帖子中的类别对象（展示用）。
type PostCategory struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Count       int    `json:"count"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

// BaseToken 是帖子关联的代币信息（展示用）。
type BaseToken struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	ImageURL string `json:"image_url"`
}

// Post 是上游完整的帖子记录，用于摘要输入和展示层映射，不参与打分。
type Post struct {
	ID                      int64           `json:"id"`
	Category                *PostCategory   `json:"category"`
	Topic                   json.RawMessage `json:"topic,omitempty"`
	Slug                    string          `json:"slug"`
	Title                   string          `json:"title"`
	Identifier              string          `json:"identifier"`
	CommentCount            int             `json:"comment_count"`
	UpvoteCount             int             `json:"upvote_count"`
	ViewCount               int             `json:"view_count"`
	ExitCount               int             `json:"exit_count"`
	RatingCount             int             `json:"rating_count"`
	AverageRating           float64         `json:"average_rating"`
	ShareCount              int             `json:"share_count"`
	BookmarkCount           int             `json:"bookmark_count"`
	VideoLink               string          `json:"video_link"`
	ContractAddress         string          `json:"contract_address"`
	ChainID                 string          `json:"chain_id"`
	ChartURL                string          `json:"chart_url"`
	BaseToken               *BaseToken      `json:"baseToken"`
	IsLocked                bool            `json:"is_locked"`
	CreatedAt               json.RawMessage `json:"created_at,omitempty"`
	FirstName               string          `json:"first_name"`
	LastName                string          `json:"last_name"`
	Username                string          `json:"username"`
	UserType                *string         `json:"user_type"`
	HasEvmWallet            bool            `json:"has_evm_wallet"`
	HasSolanaWallet         bool            `json:"has_solana_wallet"`
	Upvoted                 bool            `json:"upvoted"`
	Bookmarked              bool            `json:"bookmarked"`
	IsAvailableInPublicFeed bool            `json:"is_available_in_public_feed"`
	ThumbnailURL            string          `json:"thumbnail_url"`
	GifThumbnailURL         string          `json:"gif_thumbnail_url"`
	Following               bool            `json:"following"`
	PictureURL              string          `json:"picture_url"`
	PostSummary             json.RawMessage `json:"post_summary,omitempty"`
	Tags                    json.RawMessage `json:"tags,omitempty"`
}

// SignalReader 是 Signal Store Adapter 的只读接口（引擎入口）。
// 每次调用返回当前全量数据，不提供增量接口。
type SignalReader interface {
	// Name 返回后端名称（用于日志/监控）
	Name() string

	// LoadInteractions 返回某一类交互的全量 (user, item[, percent]) 记录
	LoadInteractions(ctx context.Context, kind InteractionKind) ([]Interaction, error)

	// LoadItems 返回全量物品表；物品表完全缺失时返回 ErrCatalogMissing
	LoadItems(ctx context.Context) ([]EnrichedItem, error)
}

// SignalWriter 是信号存储的写接口，供 ingest / enrich 使用。
// 写入语义均为 upsert：交互按记录 ID，物品按 PostID，帖子按 ID。
type SignalWriter interface {
	SaveInteractions(ctx context.Context, kind InteractionKind, records []Interaction) error
	SaveItems(ctx context.Context, items []EnrichedItem) error
	SavePosts(ctx context.Context, posts []Post) error
}

// PostReader 读取完整帖子记录（展示层 / 摘要输入）。
type PostReader interface {
	LoadPosts(ctx context.Context) ([]Post, error)
}

// SignalStore 是读写一体的信号存储。
type SignalStore interface {
	SignalReader
	SignalWriter
	PostReader
}
