package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortItems(t *testing.T) {
	mk := func(id int64, score float64) *Item {
		it := NewItem(id)
		it.Score = score
		return it
	}
	items := []*Item{mk(3, 0.5), nil, mk(1, 0.9), mk(2, 0.5), mk(4, 0.9)}
	SortItems(items)
	assert.Equal(t, []int64{1, 4, 2, 3}, ItemIDs(items))
	assert.Nil(t, items[len(items)-1])
}

func TestUserProfileTopInterests(t *testing.T) {
	p := NewUserProfile(1)
	p.UpdateInterest("Tech", 2)
	p.UpdateInterest("Finance", 2)
	p.UpdateInterest("Art", 1)
	p.UpdateInterest("Music", 3)

	assert.Equal(t, []string{"Music", "Finance", "Tech"}, p.TopInterests(3))
	assert.Equal(t, []string{"Music"}, p.TopInterests(1))
	assert.Nil(t, p.TopInterests(0))

	var nilProfile *UserProfile
	assert.Nil(t, nilProfile.TopInterests(3))
	assert.False(t, nilProfile.HasInteracted(1))
}

func TestRecommendContextHasInteracted(t *testing.T) {
	rctx := &RecommendContext{UserID: 1}
	assert.False(t, rctx.HasInteracted(10))

	rctx.User = NewUserProfile(1)
	rctx.User.AddInteracted(10)
	assert.True(t, rctx.HasInteracted(10))
	assert.False(t, rctx.HasInteracted(11))
}

func TestKeywordsUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Keywords
	}{
		{"list", `["go","cache"]`, Keywords{"go", "cache"}},
		{"string", `"go  cache"`, Keywords{"go", "cache"}},
		{"null", `null`, nil},
		{"mixed list", `["go", 7, null]`, Keywords{"go", "7"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var item EnrichedItem
			require.NoError(t, json.Unmarshal([]byte(`{"post_id":1,"keywords":`+tt.in+`}`), &item))
			assert.Equal(t, tt.want, item.Keywords)
		})
	}
	assert.Equal(t, "go cache", Keywords{"go", "cache"}.Join())
}

func TestEngineConfigWithDefaults(t *testing.T) {
	assert.Equal(t, DefaultEngineConfig(), EngineConfig{}.WithDefaults())

	c := EngineConfig{NeighborCount: 5, DefaultK: 3}.WithDefaults()
	assert.Equal(t, 5, c.NeighborCount)
	assert.Equal(t, 3, c.DefaultK)
	assert.Equal(t, 0.6, c.CollaborativeWeight)
	assert.Equal(t, 0.4, c.ContentWeight)
}

func TestDomainErrorCheckers(t *testing.T) {
	wrapped := fmt.Errorf("load items: %w", ErrCatalogMissing)
	assert.True(t, IsNotFound(wrapped))
	assert.True(t, errors.Is(wrapped, ErrCatalogMissing))
	assert.False(t, IsStoreNotFound(wrapped))
	assert.True(t, IsStoreNotFound(fmt.Errorf("get: %w", ErrStoreNotFound)))

	cause := errors.New("connection refused")
	err := NewDomainErrorWithCause(ModuleStore, ErrorCodeUnavailable, "redis: ping", cause)
	assert.True(t, IsUnavailable(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "redis: ping: connection refused", err.Error())
	assert.False(t, IsInvalidInput(nil))
}
