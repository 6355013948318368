package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fast() Config {
	return Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
}

func TestWithBackoffSucceedsAfterRetry(t *testing.T) {
	calls := 0
	err := WithBackoff(context.Background(), fast(), func() error {
		calls++
		if calls < 3 {
			return &HTTPError{StatusCode: 503}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithBackoffGivesUp(t *testing.T) {
	calls := 0
	err := WithBackoff(context.Background(), fast(), func() error {
		calls++
		return &HTTPError{StatusCode: 500, Message: "boom"}
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	var httpErr *HTTPError
	assert.True(t, errors.As(err, &httpErr))
}

func TestWithBackoffNonRetryable(t *testing.T) {
	calls := 0
	err := WithBackoff(context.Background(), fast(), func() error {
		calls++
		return &HTTPError{StatusCode: 400}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithBackoffCustomPredicate(t *testing.T) {
	cfg := fast()
	cfg.Retryable = func(error) bool { return true }
	calls := 0
	_ = WithBackoff(context.Background(), cfg, func() error {
		calls++
		return errors.New("anything")
	})
	assert.Equal(t, 3, calls)
}

func TestWithBackoffContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fast()
	cfg.InitialDelay = time.Hour
	err := WithBackoff(ctx, cfg, func() error {
		cancel()
		return &HTTPError{StatusCode: 502}
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.Canceled, false},
		{&HTTPError{StatusCode: 429}, true},
		{&HTTPError{StatusCode: 408}, true},
		{&HTTPError{StatusCode: 502}, true},
		{&HTTPError{StatusCode: 404}, false},
		{errors.New("plain"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsRetryable(tt.err), "%v", tt.err)
	}
}
