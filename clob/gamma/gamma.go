package gamma

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// DefaultHost 市场发现 API 的默认地址
const DefaultHost = "https://gamma-api.polymarket.com"

// Client 只读市场发现客户端。仅用于把 instrument ID 解析为
// 展示用的市场/结果标题，不参与任何交易调用。
type Client struct {
	client *resty.Client
}

// NewClient 创建 Gamma 客户端。host 为空时使用 DefaultHost。
func NewClient(host string) *Client {
	if host == "" {
		host = DefaultHost
	}
	client := resty.New().
		SetBaseURL(host).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "polyterm")
	return &Client{client: client}
}

// Market Gamma API 市场数据
type Market struct {
	ID           string `json:"id"`
	Question     string `json:"question"`
	Slug         string `json:"slug"`
	ClobTokenIDs string `json:"clobTokenIds"` // JSON 字符串形式的 token ID 数组
	Outcomes     string `json:"outcomes"`     // JSON 字符串形式的结果标题数组
	EndDate      string `json:"endDate"`
	Category     string `json:"category"`
}

// TokenIDs 解析 ClobTokenIDs 字段
func (m *Market) TokenIDs() []string {
	var ids []string
	if err := json.Unmarshal([]byte(m.ClobTokenIDs), &ids); err != nil {
		return nil
	}
	return ids
}

// OutcomeTitles 解析 Outcomes 字段
func (m *Market) OutcomeTitles() []string {
	var titles []string
	if err := json.Unmarshal([]byte(m.Outcomes), &titles); err != nil {
		return nil
	}
	return titles
}

// OutcomeForToken 返回 tokenID 对应的结果标题，找不到时返回空串
func (m *Market) OutcomeForToken(tokenID string) string {
	ids := m.TokenIDs()
	titles := m.OutcomeTitles()
	for i, id := range ids {
		if id == tokenID && i < len(titles) {
			return titles[i]
		}
	}
	return ""
}

// MarketBySlug 按 slug 查询市场
func (c *Client) MarketBySlug(ctx context.Context, slug string) (*Market, error) {
	var markets []Market
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("slug", slug).
		SetResult(&markets).
		Get("/markets")
	if err != nil {
		return nil, errors.Wrap(err, "fetch market")
	}
	if resp.IsError() {
		return nil, errors.Errorf("gamma api: HTTP %d", resp.StatusCode())
	}
	if len(markets) == 0 {
		return nil, errors.Errorf("market not found: %s", slug)
	}
	return &markets[0], nil
}
