package client

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestClassify_Table(t *testing.T) {
	cases := []struct {
		raw    string
		status int
		want   ErrorCategory
	}{
		{"", http.StatusUnauthorized, CategoryUnauthorized},
		{"Unauthorized", http.StatusOK, CategoryUnauthorized},
		{"INVALID_ORDER_NOT_ENOUGH_BALANCE", http.StatusBadRequest, CategoryInsufficientBalance},
		{"invalid_order_not_enough_balance", http.StatusBadRequest, CategoryInsufficientBalance},
		{"INVALID_ORDER_MIN_TICK_SIZE", http.StatusBadRequest, CategoryInvalidTickSize},
		{"INVALID_ORDER_MIN_SIZE", http.StatusBadRequest, CategoryBelowMinSize},
		{"INVALID_ORDER_EXPIRATION", http.StatusBadRequest, CategoryInvalidExpiration},
		{"FOK_ORDER_NOT_FILLED_ERROR", http.StatusBadRequest, CategoryFokNotFilled},
		{"INVALID_POST_ONLY_ORDER", http.StatusBadRequest, CategoryPostOnlyCrossed},
		{"MARKET_NOT_READY", http.StatusBadRequest, CategoryMarketNotReady},
		{"ORDER_DELAYED", http.StatusOK, CategoryOrderDelayed},
		{"DELAYING_ORDER_ERROR", http.StatusOK, CategoryOrderDelayed},
		{"order not found", http.StatusNotFound, CategoryOrderNotFound},
		{"Order abc123 Not Found", http.StatusOK, CategoryOrderNotFound},
		{"something brand new", http.StatusBadRequest, CategoryUnknown},
		{"", http.StatusInternalServerError, CategoryUnknown},
		// 包含分类子串的长文本也要命中
		{"error: INVALID_ORDER_MIN_TICK_SIZE at 0.005", http.StatusBadRequest, CategoryInvalidTickSize},
	}
	for _, tc := range cases {
		if got := Classify(tc.raw, tc.status); got != tc.want {
			t.Fatalf("Classify(%q, %d) = %v, want %v", tc.raw, tc.status, got, tc.want)
		}
	}
}

func TestClassify_MinSizeBeforeTickSize(t *testing.T) {
	// INVALID_ORDER_MIN_TICK_SIZE 包含 "INVALID_ORDER_MIN" 前缀，
	// 优先级必须保证不会误判为 BelowMinSize
	if got := Classify("INVALID_ORDER_MIN_TICK_SIZE", 400); got != CategoryInvalidTickSize {
		t.Fatalf("got %v", got)
	}
}

func TestOrderError_Messages(t *testing.T) {
	cases := []struct {
		err  *OrderError
		want string
	}{
		{newOrderError("UNAUTHORIZED", 401), "authentication failed; reconnect wallet to refresh credentials"},
		{newOrderError("INVALID_ORDER_NOT_ENOUGH_BALANCE", 400), "insufficient balance or token allowance"},
		{newOrderError("weird failure", 400), "order rejected: weird failure"},
		{newOrderError("", 503), "order rejected: HTTP 503"},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Fatalf("got %q want %q", got, tc.want)
		}
	}
}

func TestNetworkError_Retryable(t *testing.T) {
	cases := []struct {
		err  *NetworkError
		want bool
	}{
		{&NetworkError{Kind: NetworkTimeout}, true},
		{&NetworkError{Kind: NetworkConnection}, false},
		{&NetworkError{Kind: NetworkHTTPStatus, Status: 500}, true},
		{&NetworkError{Kind: NetworkHTTPStatus, Status: 503}, true},
		{&NetworkError{Kind: NetworkHTTPStatus, Status: 400}, false},
		{&NetworkError{Kind: NetworkHTTPStatus, Status: 404}, false},
	}
	for _, tc := range cases {
		if got := tc.err.Retryable(); got != tc.want {
			t.Fatalf("%+v Retryable()=%v want %v", tc.err, got, tc.want)
		}
	}
}

func TestClassifyTransportError(t *testing.T) {
	if ne := classifyTransportError(context.DeadlineExceeded); ne.Kind != NetworkTimeout {
		t.Fatalf("deadline exceeded: kind %v", ne.Kind)
	}
	if ne := classifyTransportError(errors.New("connection refused")); ne.Kind != NetworkConnection {
		t.Fatalf("plain error: kind %v", ne.Kind)
	}
}
