package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rushteam/resonance/config"
	"github.com/rushteam/resonance/core"
	"github.com/rushteam/resonance/engine"
	"github.com/rushteam/resonance/signal"
	"github.com/rushteam/resonance/store"
)

// openSignalStore 按配置打开信号存储，返回的 close 函数释放底层连接。
func (a *app) openSignalStore(ctx context.Context) (core.SignalStore, func() error, error) {
	sc := a.cfg.Store
	switch sc.Backend {
	case config.BackendSQL:
		s, err := signal.OpenSQL(sc.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, nil, err
		}
		a.log.Info("signal store opened", zap.String("backend", s.Name()))
		return s, s.Close, nil
	case config.BackendRedis:
		rs, err := store.NewRedisStore(ctx, store.RedisOptions{Addr: sc.RedisAddr, Password: sc.RedisPassword, DB: sc.RedisDB})
		if err != nil {
			return nil, nil, err
		}
		a.log.Info("signal store opened", zap.String("backend", "redis"), zap.String("addr", sc.RedisAddr))
		return signal.NewKVStore(rs, sc.KeyPrefix), rs.Close, nil
	case config.BackendMemory, "":
		ms := store.NewMemoryStore()
		a.log.Warn("using in-memory signal store; data is lost on exit")
		return signal.NewKVStore(ms, sc.KeyPrefix), ms.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", sc.Backend)
	}
}

func (a *app) newEngine(reader core.SignalReader) (*engine.Engine, error) {
	opts := []engine.Option{
		engine.WithConfig(a.cfg.Engine),
		engine.WithLogger(a.log),
	}
	if a.cfg.PipelinePath != "" {
		stages, err := config.LoadStages(a.cfg.PipelinePath)
		if err != nil {
			return nil, fmt.Errorf("load pipeline %s: %w", a.cfg.PipelinePath, err)
		}
		a.log.Info("using configured stages", zap.String("pipeline", stages.Name), zap.Int("nodes", len(stages.Nodes)))
		opts = append(opts, engine.WithStages(stages))
	}
	return engine.New(reader, opts...), nil
}
