// Package circuitbreaker 基于 sony/gobreaker 的熔断器，状态变化写入日志与 Prometheus。
package circuitbreaker

import (
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/rushteam/resonance/metrics"
	"github.com/rushteam/resonance/pkg/logger"
)

// Config 是熔断器配置。
type Config struct {
	Name             string
	MaxRequests      uint32        // 半开状态允许的请求数
	Interval         time.Duration // 关闭状态下计数清零周期
	Timeout          time.Duration // 打开状态持续时间
	FailureThreshold float64       // 失败率阈值
	MinRequests      uint32        // 计算失败率所需的最少请求数
	Logger           *zap.Logger
}

// DefaultConfig 返回默认配置。
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// CircuitBreaker 包装 gobreaker.CircuitBreaker。
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

func New(cfg Config) *CircuitBreaker {
	log := logger.OrNop(cfg.Logger)
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("circuit", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.SetCircuitBreakerState(name, int(to))
		},
	}
	metrics.SetCircuitBreakerState(cfg.Name, int(gobreaker.StateClosed))
	return &CircuitBreaker{breaker: gobreaker.NewCircuitBreaker(settings), name: cfg.Name}
}

// Execute 通过熔断器执行 fn；熔断打开时立即返回 gobreaker.ErrOpenState。
func (cb *CircuitBreaker) Execute(fn func() (any, error)) (any, error) {
	return cb.breaker.Execute(fn)
}

func (cb *CircuitBreaker) State() gobreaker.State { return cb.breaker.State() }

func (cb *CircuitBreaker) Name() string { return cb.name }

func (cb *CircuitBreaker) IsOpen() bool { return cb.breaker.State() == gobreaker.StateOpen }
