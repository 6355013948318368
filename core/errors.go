package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX），可穿透 fmt.Errorf("%w") 包装
//
// 使用场景：
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - Signal 错误：物品目录缺失（NOT_FOUND）
//   - Ingest / Enrich 错误：上游或摘要服务不可用（UNAVAILABLE）
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "NOT_SUPPORTED"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "signal", "engine"）
	Cause   error  // 底层错误，可为空
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Cause }

// IsDomainError 检查错误链中是否包含 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的 DomainError，如果没有则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorWithCause 创建携带底层错误的领域错误
func NewDomainErrorWithCause(module, code, message string, cause error) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误
)

// 模块名称常量
const (
	ModuleStore  = "store"  // KV 存储
	ModuleSignal = "signal" // 信号存储（交互表 + 物品表）
	ModuleEngine = "engine" // 推荐引擎
	ModuleEnrich = "enrich" // 摘要/分类
	ModuleIngest = "ingest" // 上游数据拉取
)

var (
	// ErrCatalogMissing 表示物品目录完全缺失，引擎无法初始化
	ErrCatalogMissing = NewDomainError(ModuleSignal, ErrorCodeNotFound, "signal: item catalog missing")

	// ErrUpstream 表示上游数据服务持续失败
	ErrUpstream = NewDomainError(ModuleIngest, ErrorCodeUnavailable, "ingest: upstream unavailable")

	// ErrSummarizer 表示摘要服务持续失败
	ErrSummarizer = NewDomainError(ModuleEnrich, ErrorCodeUnavailable, "enrich: summarizer unavailable")

	// ErrInvalidInput 表示请求参数无效
	ErrInvalidInput = NewDomainError(ModuleEngine, ErrorCodeInvalidInput, "engine: invalid input")
)

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotSupported
	}
	return false
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeUnavailable
	}
	return false
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeInvalidInput
	}
	return false
}
