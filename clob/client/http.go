package client

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/polyterm/polyterm/pkg/logger"
)

// HTTP 调试输出默认关闭（开启方式：设置环境变量 POLYTERM_HTTP_DEBUG=1）
var httpDebug = os.Getenv("POLYTERM_HTTP_DEBUG") != ""

// DefaultRequestTimeout 每个网络调用的超时
const DefaultRequestTimeout = 15 * time.Second

// httpClient HTTP 客户端封装
type httpClient struct {
	client *http.Client
	host   string
}

// newHTTPClient 创建新的 HTTP 客户端
func newHTTPClient(host string, timeout time.Duration) *httpClient {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	transport := &http.Transport{
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &httpClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		host: strings.TrimSuffix(host, "/"),
	}
}

// do 执行请求。body 是已经序列化好的字节，与 L2 签名用的完全一致。
// 传输层失败返回 *NetworkError（区分超时和连接失败）。
func (h *httpClient) do(ctx context.Context, method, endpoint string, headers map[string]string, body []byte, params map[string]string) (*http.Response, error) {
	reqURL := h.host + endpoint
	if len(params) > 0 {
		u, err := url.Parse(reqURL)
		if err != nil {
			return nil, fmt.Errorf("parse url: %w", err)
		}
		q := u.Query()
		for k, v := range params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
		reqURL = u.String()
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", "polyterm")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Content-Type", "application/json")
	if method == http.MethodGet {
		req.Header.Set("Accept-Encoding", "gzip")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if httpDebug {
		logger.Logger.Debugf("[HTTP] %s %s body=%s", method, reqURL, string(body))
	}

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		if httpDebug {
			logger.Logger.Debugf("[HTTP] %s %s failed after %v: %v", method, reqURL, time.Since(start), err)
		}
		return nil, classifyTransportError(err)
	}
	if httpDebug {
		logger.Logger.Debugf("[HTTP] %s %s -> %d (%v)", method, reqURL, resp.StatusCode, time.Since(start))
	}
	return resp, nil
}

// readBody 读出响应体，处理 gzip 压缩
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}
	return io.ReadAll(reader)
}

// parseResponse 解析 2xx 响应；非 2xx 返回 *NetworkError（携带状态码和响应体）
func parseResponse(resp *http.Response, result interface{}) error {
	data, err := readBody(resp)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &NetworkError{
			Kind:   NetworkHTTPStatus,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("%s", strings.TrimSpace(string(data))),
		}
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("decode response: %w, body: %s", err, string(data))
		}
	}
	return nil
}
