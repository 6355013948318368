package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/resonance/core"
	"github.com/rushteam/resonance/pkg/resilience/retry"
	"github.com/rushteam/resonance/signal"
	"github.com/rushteam/resonance/store"
)

func TestFlattenPostFallbackKeys(t *testing.T) {
	post := core.Post{
		ID:          7,
		Title:       "t",
		Username:    "alice",
		ViewCount:   12,
		Category:    &core.PostCategory{Description: "crypto talk"},
		PostSummary: json.RawMessage(`{
			"actions": {"main_actions": [], "key_actions": ["dancing"]},
			"emotions": {"moods": ["calm"]},
			"entities": {"main_entity": {"gender": "female"}},
			"estimated_duration": 30,
			"keywords": [{"keyword": "beach"}, {"word": "ignored"}, "plain"],
			"no_of_person_in_video": 2,
			"targeted_audiance": {"relevant_groups": ["travellers"]},
			"topics_of_video": {"main_topic": "holiday", "sub_topics": ["sun", "sea"]},
			"visual_elements_of_video": {"notable_elements": ["waves"]},
			"quality_indicators": {"indicators": ["hd"]},
			"psycological_view_of_video": {"traits": ["joy"]}
		}`),
	}
	fp := FlattenPost(post)
	assert.Equal(t, "crypto talk", fp.Description)
	assert.Equal(t, []string{"dancing"}, fp.MainActions)
	assert.Equal(t, []string{"calm"}, fp.PrimaryEmotions)
	assert.Equal(t, "female", fp.MainCharacterGender)
	assert.Equal(t, "30", fp.EstimatedDuration)
	assert.Equal(t, []string{"beach"}, fp.Keywords)
	assert.Equal(t, 2, fp.NoOfPersonInVideo)
	assert.Equal(t, []string{"travellers"}, fp.TargetedAudience)
	assert.Equal(t, "holiday", fp.VideoTheme)
	assert.Equal(t, "sun, sea", fp.VisualStorytelling)
	assert.Equal(t, []string{"waves"}, fp.VisualElements)
	assert.Equal(t, []string{"hd"}, fp.QualityIndicators)
	assert.Equal(t, []string{"joy"}, fp.PsychologicalViews)

	item := fp.Item(Result{Summary: "s", Category: "Travel"})
	assert.Equal(t, int64(7), item.PostID)
	assert.Equal(t, "beach", item.Keywords.Join())
	assert.Equal(t, 12, item.ViewCount)
}

func TestFlattenPostWithoutSummary(t *testing.T) {
	for _, raw := range []string{"", "null", `"text"`, `[1,2]`} {
		fp := FlattenPost(core.Post{ID: 1, PostSummary: json.RawMessage(raw)})
		assert.Equal(t, int64(1), fp.ID)
		assert.Empty(t, fp.Keywords)
		assert.Empty(t, fp.MainActions)
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Result
		wantErr bool
	}{
		{"plain", `{"summary":"a","category":"Music"}`, Result{"a", "Music"}, false},
		{"fenced", "```json\n{\"summary\":\"b\",\"category\":\"Art\"}\n```", Result{"b", "Art"}, false},
		{"invalid category", `{"summary":"c","category":"music"}`, Result{"c", DefaultCategory}, false},
		{"missing field", `{"summary":"d"}`, Result{}, true},
		{"not json", `sure! here it is`, Result{}, true},
		{"empty", "   ", Result{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResponse(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	p, err := BuildPrompt(FlatPost{VideoTheme: "cooking"})
	require.NoError(t, err)
	assert.Contains(t, p, "exactly ONE of these categories: Education, Entertainment")
	assert.Contains(t, p, `"video_theme": "cooking"`)
	assert.NotContains(t, p, `"username"`)
}

type fakeSummarizer struct {
	mu      sync.Mutex
	fail    map[int64]bool
	calls   int
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (f *fakeSummarizer) Summarize(_ context.Context, p FlatPost) (Result, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)

	f.mu.Lock()
	f.calls++
	fail := f.fail[p.ID]
	f.mu.Unlock()
	if fail {
		return Result{}, errors.New("model down")
	}
	return Result{Summary: "about " + p.Title, Category: "Vlog"}, nil
}

func TestPoolDegradesFailuresAndPersists(t *testing.T) {
	ctx := context.Background()
	kv := signal.NewKVStore(store.NewMemoryStore(), "test")

	var posts []core.Post
	for i := int64(1); i <= 12; i++ {
		posts = append(posts, core.Post{ID: i, Title: "post"})
	}
	fs := &fakeSummarizer{fail: map[int64]bool{3: true, 8: true}}
	pool := NewPool(fs, WithWriter(kv))

	items, report, err := pool.Process(ctx, posts)
	require.NoError(t, err)
	assert.Equal(t, Report{Total: 12, Succeeded: 10, Degraded: 2}, report)
	require.Len(t, items, 12)
	assert.Equal(t, int64(1), items[0].PostID)
	assert.Equal(t, FallbackSummary, items[2].Summary)
	assert.Equal(t, DefaultCategory, items[2].Category)
	assert.Equal(t, "Vlog", items[0].Category)
	assert.LessOrEqual(t, fs.maxSeen.Load(), int32(DefaultWorkers))

	stored, err := kv.LoadItems(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 12)
}

func TestPoolRun(t *testing.T) {
	ctx := context.Background()
	kv := signal.NewKVStore(store.NewMemoryStore(), "test")
	require.NoError(t, kv.SavePosts(ctx, []core.Post{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}}))

	items, report, err := NewPool(&fakeSummarizer{}, WithWriter(kv), WithWorkers(1)).Run(ctx, kv)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, "about a", items[0].Summary)
}

func TestPoolCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	items, report, err := NewPool(&fakeSummarizer{}).Process(ctx, []core.Post{{ID: 1}, {ID: 2}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, items)
	assert.Equal(t, 2, report.Skipped)
}

func chatServer(t *testing.T, status int, content string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4.1-nano",
			"choices": []any{map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
}

func TestOpenAISummarizer(t *testing.T) {
	var hits atomic.Int32
	srv := chatServer(t, http.StatusOK, "```json\n{\"summary\":\"A trip.\",\"category\":\"Travel\"}\n```", &hits)

	s, err := NewOpenAISummarizer("key", WithBaseURL(srv.URL+"/v1"), WithRetry(fastRetry()))
	require.NoError(t, err)
	res, err := s.Summarize(context.Background(), FlatPost{ID: 1})
	require.NoError(t, err)
	assert.Equal(t, Result{Summary: "A trip.", Category: "Travel"}, res)
	assert.Equal(t, int32(1), hits.Load())
}

func TestOpenAISummarizerRetriesThenFails(t *testing.T) {
	var hits atomic.Int32
	srv := chatServer(t, http.StatusServiceUnavailable, "", &hits)

	s, err := NewOpenAISummarizer("key", WithBaseURL(srv.URL+"/v1"), WithRetry(fastRetry()))
	require.NoError(t, err)
	_, err = s.Summarize(context.Background(), FlatPost{ID: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrSummarizer)
	assert.Equal(t, int32(3), hits.Load())
}

func TestNewOpenAISummarizerWithoutKey(t *testing.T) {
	_, err := NewOpenAISummarizer("")
	require.Error(t, err)
	assert.True(t, core.IsInvalidInput(err))
}
