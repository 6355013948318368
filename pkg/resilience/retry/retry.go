// Package retry 提供指数退避 + 抖动的重试。
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/rushteam/resonance/pkg/logger"
)

// Config 是重试配置。
type Config struct {
	MaxAttempts    int           // 最大尝试次数（含第一次）
	InitialDelay   time.Duration // 第一次重试前的等待
	MaxDelay       time.Duration // 单次等待上限
	Multiplier     float64       // 退避倍数
	JitterFraction float64       // 抖动比例 0~1

	// Retryable 判定错误是否值得重试，为空时使用 IsRetryable
	Retryable func(error) bool
	Logger    *zap.Logger
}

// DefaultConfig 三次尝试，1s 起步，指数退避。
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   time.Second,
		MaxDelay:       30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// SummarizerConfig 用于大模型调用：次数少、起步更慢。
func SummarizerConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   2 * time.Second,
		MaxDelay:       10 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// WithBackoff 执行 fn，失败且可重试时按指数退避重试。全部失败返回最后一次错误。
func WithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	log := logger.OrNop(cfg.Logger)
	retryable := cfg.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	delay := cfg.InitialDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			if attempt > 1 {
				log.Info("operation succeeded after retry", zap.Int("attempt", attempt))
			}
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		log.Warn("operation failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Duration("delay", delay),
			zap.Error(lastErr),
		)
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
		delay = addJitter(delay, cfg.JitterFraction)
	}
	return fmt.Errorf("max retry attempts (%d) exceeded: %w", attempts, lastErr)
}

// IsRetryable 判断错误是否为暂时性错误：网络超时、连接被拒/重置、5xx、429、408。
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return IsRetryableStatus(httpErr.StatusCode)
	}
	return false
}

// IsRetryableStatus 5xx、429、408 可重试。
func IsRetryableStatus(code int) bool {
	return code >= 500 && code < 600 ||
		code == http.StatusTooManyRequests ||
		code == http.StatusRequestTimeout
}

// HTTPError 携带 HTTP 状态码的错误。
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func addJitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return d
	}
	if fraction > 1.0 {
		fraction = 1.0
	}
	// 抖动不需要密码学随机数
	return d + time.Duration(rand.Float64()*float64(d)*fraction)
}
