package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrorCategory 交易所错误的稳定分类
type ErrorCategory int

const (
	CategoryUnknown ErrorCategory = iota
	CategoryUnauthorized
	CategoryInsufficientBalance
	CategoryInvalidTickSize
	CategoryBelowMinSize
	CategoryInvalidExpiration
	CategoryFokNotFilled
	CategoryPostOnlyCrossed
	CategoryMarketNotReady
	CategoryOrderDelayed
	CategoryOrderNotFound
)

// String 分类名称
func (c ErrorCategory) String() string {
	switch c {
	case CategoryUnauthorized:
		return "UNAUTHORIZED"
	case CategoryInsufficientBalance:
		return "INSUFFICIENT_BALANCE"
	case CategoryInvalidTickSize:
		return "INVALID_TICK_SIZE"
	case CategoryBelowMinSize:
		return "BELOW_MIN_SIZE"
	case CategoryInvalidExpiration:
		return "INVALID_EXPIRATION"
	case CategoryFokNotFilled:
		return "FOK_NOT_FILLED"
	case CategoryPostOnlyCrossed:
		return "POST_ONLY_CROSSED"
	case CategoryMarketNotReady:
		return "MARKET_NOT_READY"
	case CategoryOrderDelayed:
		return "ORDER_DELAYED"
	case CategoryOrderNotFound:
		return "ORDER_NOT_FOUND"
	default:
		return "UNKNOWN"
	}
}

// Classify 把交易所原始错误文本加 HTTP 状态码映射为分类。
// 全函数：任何输入都有确定结果；大小写不敏感的子串匹配，按优先级排列。
func Classify(raw string, httpStatus int) ErrorCategory {
	upper := strings.ToUpper(raw)

	switch {
	case httpStatus == http.StatusUnauthorized || strings.Contains(upper, "UNAUTHORIZED"):
		return CategoryUnauthorized
	case strings.Contains(upper, "INVALID_ORDER_NOT_ENOUGH_BALANCE"):
		return CategoryInsufficientBalance
	case strings.Contains(upper, "INVALID_ORDER_MIN_TICK_SIZE"):
		return CategoryInvalidTickSize
	case strings.Contains(upper, "INVALID_ORDER_MIN_SIZE"):
		return CategoryBelowMinSize
	case strings.Contains(upper, "INVALID_ORDER_EXPIRATION"):
		return CategoryInvalidExpiration
	case strings.Contains(upper, "FOK_ORDER_NOT_FILLED_ERROR"):
		return CategoryFokNotFilled
	case strings.Contains(upper, "INVALID_POST_ONLY_ORDER"):
		return CategoryPostOnlyCrossed
	case strings.Contains(upper, "MARKET_NOT_READY"):
		return CategoryMarketNotReady
	case strings.Contains(upper, "ORDER_DELAYED") || strings.Contains(upper, "DELAYING_ORDER_ERROR"):
		return CategoryOrderDelayed
	case strings.Contains(upper, "ORDER") && strings.Contains(upper, "NOT") && strings.Contains(upper, "FOUND"):
		return CategoryOrderNotFound
	default:
		return CategoryUnknown
	}
}

// OrderError 下单/撤单被交易所拒绝
type OrderError struct {
	Category ErrorCategory
	Raw      string
	Status   int
}

func (e *OrderError) Error() string {
	switch e.Category {
	case CategoryUnauthorized:
		return "authentication failed; reconnect wallet to refresh credentials"
	case CategoryInsufficientBalance:
		return "insufficient balance or token allowance"
	case CategoryInvalidTickSize:
		return "price does not respect market tick size"
	case CategoryBelowMinSize:
		return "size below market minimum"
	case CategoryInvalidExpiration:
		return "expiration invalid or too close"
	case CategoryFokNotFilled:
		return "no immediate full fill available"
	case CategoryPostOnlyCrossed:
		return "post-only order crosses the book"
	case CategoryMarketNotReady:
		return "market not ready for new orders"
	case CategoryOrderDelayed:
		return "delayed by matching conditions; retry after interval"
	case CategoryOrderNotFound:
		return "order no longer exists or already finalized"
	default:
		if e.Raw != "" {
			return "order rejected: " + e.Raw
		}
		return fmt.Sprintf("order rejected: HTTP %d", e.Status)
	}
}

// newOrderError 按原始文本和状态码构造分类错误
func newOrderError(raw string, status int) *OrderError {
	return &OrderError{
		Category: Classify(raw, status),
		Raw:      raw,
		Status:   status,
	}
}

// NetworkErrorKind 网络层失败的种类
type NetworkErrorKind int

const (
	// NetworkTimeout 请求超时
	NetworkTimeout NetworkErrorKind = iota
	// NetworkConnection 连接层失败（DNS、拒绝连接等）
	NetworkConnection
	// NetworkHTTPStatus 收到响应但状态码非 2xx
	NetworkHTTPStatus
)

// NetworkError 网络层失败。对下单/撤单永不吞掉，向调用方透传；
// 调用方可据 Retryable 决定是否重试。
type NetworkError struct {
	Kind   NetworkErrorKind
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	switch e.Kind {
	case NetworkTimeout:
		return fmt.Sprintf("request timed out: %v", e.Err)
	case NetworkConnection:
		return fmt.Sprintf("connection failed: %v", e.Err)
	default:
		return fmt.Sprintf("HTTP %d", e.Status)
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Retryable 超时和 5xx 可重试；4xx 业务拒绝不可重试
func (e *NetworkError) Retryable() bool {
	switch e.Kind {
	case NetworkTimeout:
		return true
	case NetworkHTTPStatus:
		return e.Status >= 500
	default:
		return false
	}
}

// classifyTransportError 区分超时与连接层失败
func classifyTransportError(err error) *NetworkError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &NetworkError{Kind: NetworkTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &NetworkError{Kind: NetworkTimeout, Err: err}
	}
	return &NetworkError{Kind: NetworkConnection, Err: err}
}
