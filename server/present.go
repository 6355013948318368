package server

import (
	"encoding/json"
	"strings"

	"github.com/rushteam/resonance/core"
)

// Owner 是帖子作者信息。
type Owner struct {
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	Name            string  `json:"name"`
	Username        string  `json:"username"`
	PictureURL      string  `json:"picture_url"`
	UserType        *string `json:"user_type"`
	HasEvmWallet    bool    `json:"has_evm_wallet"`
	HasSolanaWallet bool    `json:"has_solana_wallet"`
}

// FeedPost 是 /feed 返回的单条帖子。
type FeedPost struct {
	ID                      int64             `json:"id"`
	Owner                   Owner             `json:"owner"`
	Category                core.PostCategory `json:"category"`
	Topic                   json.RawMessage   `json:"topic"`
	Title                   string            `json:"title"`
	IsAvailableInPublicFeed bool              `json:"is_available_in_public_feed"`
	IsLocked                bool              `json:"is_locked"`
	Slug                    string            `json:"slug"`
	Upvoted                 bool              `json:"upvoted"`
	Bookmarked              bool              `json:"bookmarked"`
	Following               bool              `json:"following"`
	Identifier              string            `json:"identifier"`
	CommentCount            int               `json:"comment_count"`
	UpvoteCount             int               `json:"upvote_count"`
	ViewCount               int               `json:"view_count"`
	ExitCount               int               `json:"exit_count"`
	RatingCount             int               `json:"rating_count"`
	AverageRating           float64           `json:"average_rating"`
	ShareCount              int               `json:"share_count"`
	BookmarkCount           int               `json:"bookmark_count"`
	VideoLink               string            `json:"video_link"`
	ThumbnailURL            string            `json:"thumbnail_url"`
	GifThumbnailURL         string            `json:"gif_thumbnail_url"`
	ContractAddress         string            `json:"contract_address"`
	ChainID                 string            `json:"chain_id"`
	ChartURL                string            `json:"chart_url"`
	BaseToken               core.BaseToken    `json:"baseToken"`
	CreatedAt               json.RawMessage   `json:"created_at"`
	Tags                    json.RawMessage   `json:"tags"`
}

var (
	emptyList = json.RawMessage("[]")
	zero      = json.RawMessage("0")
)

// Present 把上游帖子映射为展示结构，缺失字段使用默认值。
func Present(p core.Post) FeedPost {
	fp := FeedPost{
		ID: p.ID,
		Owner: Owner{
			FirstName:       p.FirstName,
			LastName:        p.LastName,
			Name:            strings.TrimSpace(p.FirstName + " " + p.LastName),
			Username:        p.Username,
			PictureURL:      p.PictureURL,
			UserType:        p.UserType,
			HasEvmWallet:    p.HasEvmWallet,
			HasSolanaWallet: p.HasSolanaWallet,
		},
		Topic:                   orDefault(p.Topic, emptyList),
		Title:                   p.Title,
		IsAvailableInPublicFeed: p.IsAvailableInPublicFeed,
		IsLocked:                p.IsLocked,
		Slug:                    p.Slug,
		Upvoted:                 p.Upvoted,
		Bookmarked:              p.Bookmarked,
		Following:               p.Following,
		Identifier:              p.Identifier,
		CommentCount:            p.CommentCount,
		UpvoteCount:             p.UpvoteCount,
		ViewCount:               p.ViewCount,
		ExitCount:               p.ExitCount,
		RatingCount:             p.RatingCount,
		AverageRating:           p.AverageRating,
		ShareCount:              p.ShareCount,
		BookmarkCount:           p.BookmarkCount,
		VideoLink:               p.VideoLink,
		ThumbnailURL:            p.ThumbnailURL,
		GifThumbnailURL:         p.GifThumbnailURL,
		ContractAddress:         p.ContractAddress,
		ChainID:                 p.ChainID,
		ChartURL:                p.ChartURL,
		CreatedAt:               orDefault(p.CreatedAt, zero),
		Tags:                    orDefault(p.Tags, emptyList),
	}
	if p.Category != nil {
		fp.Category = *p.Category
	}
	if p.BaseToken != nil {
		fp.BaseToken = *p.BaseToken
	}
	return fp
}

func orDefault(v, d json.RawMessage) json.RawMessage {
	if len(v) == 0 || string(v) == "null" {
		return d
	}
	return v
}
