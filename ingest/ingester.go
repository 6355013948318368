package ingest

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rushteam/resonance/core"
	"github.com/rushteam/resonance/pkg/logger"
)

// ResourcePosts 是帖子资源名；交互资源名与 core.InteractionKind 相同。
const ResourcePosts = "posts"

// Resources 返回全部资源：四类交互与帖子。
func Resources() []string {
	out := make([]string, 0, len(core.InteractionKinds)+1)
	for _, k := range core.InteractionKinds {
		out = append(out, string(k))
	}
	return append(out, ResourcePosts)
}

// Result 是单个资源的拉取结果。
type Result struct {
	Resource string
	Records  int
	Err      error
}

// Ingester 拉取上游数据并写入 core.SignalWriter。
type Ingester struct {
	client *Client
	writer core.SignalWriter
	logger *zap.Logger
}

func NewIngester(client *Client, writer core.SignalWriter, log *zap.Logger) *Ingester {
	return &Ingester{client: client, writer: writer, logger: logger.OrNop(log)}
}

// Run 依次处理 resources（为空时处理全部）。单个资源失败不影响其他资源；
// 返回每个资源的结果，以及所有失败合并后的错误。
func (in *Ingester) Run(ctx context.Context, resources ...string) ([]Result, error) {
	if len(resources) == 0 {
		resources = Resources()
	}
	results := make([]Result, 0, len(resources))
	var errs []error
	for _, res := range resources {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		n, err := in.one(ctx, res)
		if err != nil {
			in.logger.Error("ingest resource failed", zap.String("resource", res), zap.Error(err))
			errs = append(errs, err)
		} else {
			in.logger.Info("ingest resource stored", zap.String("resource", res), zap.Int("records", n))
		}
		results = append(results, Result{Resource: res, Records: n, Err: err})
	}
	return results, errors.Join(errs...)
}

func (in *Ingester) one(ctx context.Context, resource string) (int, error) {
	if resource == ResourcePosts {
		posts, err := in.client.FetchPosts(ctx)
		if err != nil {
			return 0, err
		}
		return len(posts), in.writer.SavePosts(ctx, posts)
	}

	kind, ok := parseKind(resource)
	if !ok {
		return 0, core.NewDomainError(core.ModuleIngest, core.ErrorCodeInvalidInput,
			fmt.Sprintf("ingest: unknown resource %q", resource))
	}
	records, err := in.client.FetchInteractions(ctx, kind)
	if err != nil {
		return 0, err
	}
	return len(records), in.writer.SaveInteractions(ctx, kind, records)
}

func parseKind(s string) (core.InteractionKind, bool) {
	for _, k := range core.InteractionKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}
