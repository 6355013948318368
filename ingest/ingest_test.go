package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/resonance/core"
	"github.com/rushteam/resonance/signal"
	"github.com/rushteam/resonance/store"
)

// upstream 模拟上游：每个资源两页数据，第三页为空。
type upstream struct {
	failing  map[string]int // path -> 前 N 次返回 503
	hits     map[string]*atomic.Int32
	tokens   []string
	pageSize string
	algo     string
}

func newUpstream() *upstream {
	u := &upstream{failing: map[string]int{}, hits: map[string]*atomic.Int32{}}
	for _, p := range []string{"/posts/view", "/posts/like", "/posts/inspire", "/posts/rating", "/posts/summary/get"} {
		u.hits[p] = &atomic.Int32{}
	}
	return u
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	hits, ok := u.hits[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	n := hits.Add(1)
	u.tokens = append(u.tokens, r.Header.Get("Flic-Token"))
	u.pageSize = r.URL.Query().Get("page_size")
	if r.URL.Path != "/posts/summary/get" {
		u.algo = r.URL.Query().Get("resonance_algorithm")
	}
	if int(n) <= u.failing[r.URL.Path] {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	pageNo, _ := strconv.Atoi(r.URL.Query().Get("page"))
	var posts []map[string]any
	if pageNo <= 2 {
		base := int64(pageNo * 10)
		if r.URL.Path == "/posts/summary/get" {
			posts = []map[string]any{{"id": base, "title": "p"}, {"id": base + 1, "title": "q"}}
		} else {
			posts = []map[string]any{
				{"id": base, "user_id": 1, "post_id": base, "rating_percent": 80},
				{"id": base + 1, "user_id": 2, "post_id": base + 1},
			}
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"posts": posts})
}

func newClient(url string) *Client {
	return NewClient(Config{
		BaseURL:            url,
		FlicToken:          "tok",
		ResonanceAlgorithm: "resonance_algorithm_cjsvervb7dbhss8bdrj89s44jfjdbsjd0xnjkbvuire8zcjwerui3njfbvsujc5if",
		PageSize:           2,
		RetryWait:          time.Millisecond,
	})
}

func TestFetchInteractionsPaginates(t *testing.T) {
	up := newUpstream()
	srv := httptest.NewServer(up)
	defer srv.Close()

	records, err := newClient(srv.URL).FetchInteractions(context.Background(), core.KindRating)
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, core.Interaction{ID: 10, UserID: 1, ItemID: 10, Percent: 80}, records[0])
	assert.Equal(t, int32(3), up.hits["/posts/rating"].Load())
	assert.Equal(t, "2", up.pageSize)
	assert.NotEmpty(t, up.algo)
	for _, tok := range up.tokens {
		assert.Equal(t, "tok", tok)
	}
}

func TestFetchRetriesTransientErrors(t *testing.T) {
	up := newUpstream()
	up.failing["/posts/summary/get"] = 2
	srv := httptest.NewServer(up)
	defer srv.Close()

	posts, err := newClient(srv.URL).FetchPosts(context.Background())
	require.NoError(t, err)
	assert.Len(t, posts, 4)
	assert.Equal(t, int32(5), up.hits["/posts/summary/get"].Load())
}

func TestFetchGivesUp(t *testing.T) {
	up := newUpstream()
	up.failing["/posts/like"] = 100
	srv := httptest.NewServer(up)
	defer srv.Close()

	_, err := newClient(srv.URL).FetchInteractions(context.Background(), core.KindLike)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUpstream)
	assert.True(t, core.IsUnavailable(err))
	assert.Equal(t, int32(3), up.hits["/posts/like"].Load())
}

func TestIngesterIsolatesFailures(t *testing.T) {
	up := newUpstream()
	up.failing["/posts/inspire"] = 100
	srv := httptest.NewServer(up)
	defer srv.Close()

	ctx := context.Background()
	kv := signal.NewKVStore(store.NewMemoryStore(), "test")
	results, err := NewIngester(newClient(srv.URL), kv, nil).Run(ctx)
	require.Error(t, err)
	require.Len(t, results, 5)

	byName := map[string]Result{}
	for _, r := range results {
		byName[r.Resource] = r
	}
	assert.Error(t, byName["inspire"].Err)
	assert.NoError(t, byName["view"].Err)
	assert.Equal(t, 4, byName["posts"].Records)

	views, err := kv.LoadInteractions(ctx, core.KindView)
	require.NoError(t, err)
	assert.Len(t, views, 4)
	inspires, err := kv.LoadInteractions(ctx, core.KindInspire)
	require.NoError(t, err)
	assert.Empty(t, inspires)
	posts, err := kv.LoadPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 4)
}

func TestIngesterUnknownResource(t *testing.T) {
	kv := signal.NewKVStore(store.NewMemoryStore(), "test")
	results, err := NewIngester(newClient("http://127.0.0.1:0"), kv, nil).Run(context.Background(), "comments")
	require.Error(t, err)
	assert.True(t, core.IsInvalidInput(results[0].Err))
}
