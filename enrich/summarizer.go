package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/rushteam/resonance/core"
	"github.com/rushteam/resonance/pkg/logger"
	"github.com/rushteam/resonance/pkg/resilience/circuitbreaker"
	"github.com/rushteam/resonance/pkg/resilience/retry"
)

// Categories 是摘要模型可选的全部类别。
var Categories = []string{
	"Education", "Entertainment", "Technology", "Lifestyle", "Travel",
	"Food", "Health", "Fitness", "Finance", "News", "Comedy", "Gaming",
	"Music", "Art", "Fashion", "Business", "Science", "History",
	"Motivation", "Sports", "Politics", "Tutorial", "Review", "Vlog", "DIY",
}

// DefaultCategory 是模型返回无效类别或调用失败时使用的类别。
const DefaultCategory = "Entertainment"

// 调用失败时的摘要占位文本。
const (
	FallbackSummary       = "Failed to generate summary due to API error."
	MissingKeySummary     = "Failed to generate summary due to missing API key."
	systemPrompt          = "You are a helpful assistant that summarizes content and categorizes it accurately. Always return a valid JSON object."
	defaultSummarizeModel = "gpt-4.1-nano"
)

var categorySet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Categories))
	for _, c := range Categories {
		m[c] = struct{}{}
	}
	return m
}()

// IsCategory 判断是否为合法类别（区分大小写）。
func IsCategory(c string) bool {
	_, ok := categorySet[c]
	return ok
}

// Result 是一次摘要的结果。
type Result struct {
	Summary  string `json:"summary"`
	Category string `json:"category"`
}

// Fallback 返回调用失败时的默认结果。
func Fallback() Result {
	return Result{Summary: FallbackSummary, Category: DefaultCategory}
}

// Summarizer 为展开后的帖子生成 2-3 句摘要并归入 Categories 之一。
type Summarizer interface {
	Summarize(ctx context.Context, post FlatPost) (Result, error)
}

// BuildPrompt 构造用户提示词。
func BuildPrompt(post FlatPost) (string, error) {
	data, err := json.MarshalIndent(post.summaryInput(), "", "  ")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`Summarize the following post data in 2-3 sentences and classify it into exactly ONE of these categories: %s.
Ensure the response is a valid JSON object with 'summary' and 'category' fields, and nothing else.

Post Data:
%s

Response format:
{"summary": "Your summary here", "category": "One of the categories"}`, strings.Join(Categories, ", "), data), nil
}

// ParseResponse 解析模型输出：去掉 ```json 代码块标记，要求包含 summary 与 category，
// 类别不合法时改为 DefaultCategory。
func ParseResponse(raw string) (Result, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
		raw = strings.TrimSpace(raw)
	}
	if raw == "" {
		return Result{}, errors.New("empty response content")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return Result{}, fmt.Errorf("invalid JSON response: %w", err)
	}
	rawSummary, okS := fields["summary"]
	rawCategory, okC := fields["category"]
	if !okS || !okC {
		return Result{}, errors.New("response does not contain required 'summary' and 'category' fields")
	}
	var r Result
	if err := json.Unmarshal(rawSummary, &r.Summary); err != nil {
		return Result{}, fmt.Errorf("summary: %w", err)
	}
	if err := json.Unmarshal(rawCategory, &r.Category); err != nil || !IsCategory(r.Category) {
		r.Category = DefaultCategory
	}
	return r, nil
}

// OpenAISummarizer 通过 OpenAI Chat Completions 生成摘要。
// 每次调用经过熔断器，暂时性错误按指数退避重试。
type OpenAISummarizer struct {
	client      *openai.Client
	model       string
	temperature float32
	timeout     time.Duration
	retry       retry.Config
	breaker     *circuitbreaker.CircuitBreaker
	logger      *zap.Logger
}

// OpenAIOption 配置 OpenAISummarizer。
type OpenAIOption func(*openAIOptions)

type openAIOptions struct {
	baseURL string
	model   string
	timeout time.Duration
	retry   retry.Config
	logger  *zap.Logger
}

func WithBaseURL(u string) OpenAIOption { return func(o *openAIOptions) { o.baseURL = u } }

func WithModel(m string) OpenAIOption {
	return func(o *openAIOptions) {
		if m != "" {
			o.model = m
		}
	}
}

func WithTimeout(d time.Duration) OpenAIOption {
	return func(o *openAIOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func WithRetry(c retry.Config) OpenAIOption { return func(o *openAIOptions) { o.retry = c } }
func WithLogger(l *zap.Logger) OpenAIOption { return func(o *openAIOptions) { o.logger = l } }

// NewOpenAISummarizer 创建摘要器。apiKey 为空时返回 core.ErrSummarizer。
func NewOpenAISummarizer(apiKey string, opts ...OpenAIOption) (*OpenAISummarizer, error) {
	if apiKey == "" {
		return nil, core.NewDomainErrorWithCause(core.ModuleEnrich, core.ErrorCodeInvalidInput,
			"enrich: OPENAI_API_KEY is not set", core.ErrSummarizer)
	}
	o := openAIOptions{
		model:   defaultSummarizeModel,
		timeout: 60 * time.Second,
		retry:   retry.SummarizerConfig(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	log := logger.OrNop(o.logger)

	cfg := openai.DefaultConfig(apiKey)
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	o.retry.Retryable = isRetryableAPIError
	o.retry.Logger = log

	cbCfg := circuitbreaker.DefaultConfig("openai-summarizer")
	cbCfg.Logger = log
	return &OpenAISummarizer{
		client:      openai.NewClientWithConfig(cfg),
		model:       o.model,
		temperature: 0.7,
		timeout:     o.timeout,
		retry:       o.retry,
		breaker:     circuitbreaker.New(cbCfg),
		logger:      log,
	}, nil
}

// Summarize 调用模型并解析结果。API 不可用（重试耗尽或熔断打开）时返回包装 core.ErrSummarizer 的错误。
func (s *OpenAISummarizer) Summarize(ctx context.Context, post FlatPost) (Result, error) {
	prompt, err := BuildPrompt(post)
	if err != nil {
		return Result{}, err
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var content string
	err = retry.WithBackoff(ctx, s.retry, func() error {
		out, err := s.breaker.Execute(func() (any, error) {
			return s.complete(ctx, prompt)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				s.logger.Warn("summarizer circuit open, request rejected", zap.Int64("post", post.ID))
			}
			return err
		}
		content = out.(string)
		return nil
	})
	if err != nil {
		return Result{}, core.NewDomainErrorWithCause(core.ModuleEnrich, core.ErrorCodeUnavailable,
			fmt.Sprintf("enrich: summarize post %d", post.ID), errors.Join(core.ErrSummarizer, err))
	}

	r, err := ParseResponse(content)
	if err != nil {
		s.logger.Warn("unparseable summarizer response", zap.Int64("post", post.ID), zap.String("content", content))
		return Result{}, fmt.Errorf("enrich: post %d: %w", post.ID, err)
	}
	return r, nil
}

func (s *OpenAISummarizer) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: s.temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func isRetryableAPIError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retry.IsRetryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retry.IsRetryableStatus(reqErr.HTTPStatusCode)
	}
	return retry.IsRetryable(err)
}
