// Package ingest 从上游帖子服务分页拉取交互表与帖子，并写入信号存储。
package ingest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rushteam/resonance/core"
	"github.com/rushteam/resonance/metrics"
	"github.com/rushteam/resonance/pkg/logger"
	"github.com/rushteam/resonance/pkg/resilience/retry"
)

// 上游分页接口
const (
	pathInteractions = "/posts/%s"
	pathPosts        = "/posts/summary/get"
	headerToken      = "Flic-Token"
	defaultPageSize  = 1000
	maxPages         = 100000
)

// Config 是上游客户端配置。
type Config struct {
	BaseURL            string
	FlicToken          string
	ResonanceAlgorithm string
	PageSize           int

	RatePerSecond float64       // <= 0 不限速
	Timeout       time.Duration // 单次请求超时
	MaxAttempts   int           // 含首次，默认 3
	RetryWait     time.Duration // 首次重试等待，默认 1s
	Logger        *zap.Logger
}

// Client 是上游分页接口的客户端。
type Client struct {
	http     *resty.Client
	limiter  *rate.Limiter
	pageSize int
	algo     string
	logger   *zap.Logger
}

func NewClient(cfg Config) *Client {
	log := logger.OrNop(cfg.Logger)
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	hc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.MaxAttempts - 1).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(10 * cfg.RetryWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return retry.IsRetryable(err)
			}
			return retry.IsRetryableStatus(r.StatusCode())
		})
	if cfg.FlicToken != "" {
		hc.SetHeader(headerToken, cfg.FlicToken)
	}
	hc.OnAfterResponse(func(_ *resty.Client, r *resty.Response) error {
		log.Debug("upstream response",
			zap.String("url", r.Request.URL),
			zap.Int("status", r.StatusCode()),
			zap.Duration("took", r.Time()),
		)
		return nil
	})

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	return &Client{
		http:     hc,
		limiter:  limiter,
		pageSize: cfg.PageSize,
		algo:     cfg.ResonanceAlgorithm,
		logger:   log,
	}
}

type page[T any] struct {
	Posts []T `json:"posts"`
}

// FetchInteractions 拉取某类交互的全部记录。
func (c *Client) FetchInteractions(ctx context.Context, kind core.InteractionKind) ([]core.Interaction, error) {
	params := map[string]string{"resonance_algorithm": c.algo}
	return fetchAll[core.Interaction](ctx, c, string(kind), fmt.Sprintf(pathInteractions, kind), params)
}

// FetchPosts 拉取全部帖子（含 post_summary）。
func (c *Client) FetchPosts(ctx context.Context) ([]core.Post, error) {
	return fetchAll[core.Post](ctx, c, "posts", pathPosts, nil)
}

// fetchAll 从 page=1 开始逐页请求，直到返回空的 posts 数组。
func fetchAll[T any](ctx context.Context, c *Client, resource, path string, params map[string]string) ([]T, error) {
	var all []T
	for pageNo := 1; pageNo <= maxPages; pageNo++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return all, err
		}
		var body page[T]
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetQueryParam("page", strconv.Itoa(pageNo)).
			SetQueryParam("page_size", strconv.Itoa(c.pageSize)).
			SetResult(&body).
			Get(path)
		if err != nil {
			return all, core.NewDomainErrorWithCause(core.ModuleIngest, core.ErrorCodeUnavailable,
				fmt.Sprintf("ingest: %s page %d", resource, pageNo), fmt.Errorf("%w: %w", core.ErrUpstream, err))
		}
		if resp.StatusCode() != http.StatusOK {
			httpErr := &retry.HTTPError{StatusCode: resp.StatusCode(), Message: truncate(resp.String(), 200)}
			return all, core.NewDomainErrorWithCause(core.ModuleIngest, core.ErrorCodeUnavailable,
				fmt.Sprintf("ingest: %s page %d", resource, pageNo), fmt.Errorf("%w: %w", core.ErrUpstream, httpErr))
		}
		if len(body.Posts) == 0 {
			c.logger.Info("upstream resource fetched",
				zap.String("resource", resource),
				zap.Int("pages", pageNo-1),
				zap.Int("records", len(all)),
			)
			return all, nil
		}
		metrics.RecordIngestPage(resource, len(body.Posts))
		all = append(all, body.Posts...)
	}
	return all, fmt.Errorf("ingest: %s exceeded %d pages", resource, maxPages)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
