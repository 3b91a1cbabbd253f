package client

import (
	"crypto/ecdsa"
	"strings"
	"time"

	"github.com/polyterm/polyterm/clob/signing"
	"github.com/polyterm/polyterm/clob/types"
	"github.com/polyterm/polyterm/clob/wallet"
	"github.com/polyterm/polyterm/pkg/journal"
	"github.com/polyterm/polyterm/pkg/ratelimit"
)

// Client CLOB 交易网关。下单、撤单、订单/成交查询的唯一入口，
// 也是除凭证引导外唯一带网络副作用的组件。
type Client struct {
	host     string
	chainID  types.Chain
	identity *wallet.Identity

	httpClient *httpClient
	broker     *CredentialBroker
	builder    *OrderBuilder
	limiter    *ratelimit.Manager
	journal    *journal.Journal
}

// Options 客户端可选配置
type Options struct {
	// Timeout 每个网络调用的超时，零值用 DefaultRequestTimeout
	Timeout time.Duration

	// Journal 本地订单日志，nil 则不记录
	Journal *journal.Journal
}

// NewClient 创建交易网关。store 持有缓存的凭证，可为 nil。
func NewClient(host string, chainID types.Chain, identity *wallet.Identity, store *wallet.Store, opts *Options) (*Client, error) {
	if opts == nil {
		opts = &Options{}
	}

	builder, err := NewOrderBuilder(identity, chainID)
	if err != nil {
		return nil, err
	}

	httpClient := newHTTPClient(host, opts.Timeout)

	return &Client{
		host:       strings.TrimSuffix(host, "/"),
		chainID:    chainID,
		identity:   identity,
		httpClient: httpClient,
		broker:     NewCredentialBroker(httpClient, chainID, identity, store),
		builder:    builder,
		limiter:    ratelimit.NewManager(),
		journal:    opts.Journal,
	}, nil
}

// Host 返回交易所地址
func (c *Client) Host() string {
	return c.host
}

// Address 返回钱包地址
func (c *Client) Address() string {
	return c.identity.Address.Hex()
}

// Broker 返回凭证代理（供调用方在 401 后手动 Invalidate）
func (c *Client) Broker() *CredentialBroker {
	return c.broker
}

// privateKey 仅网关内部使用，绝不向外暴露
func (c *Client) privateKey() *ecdsa.PrivateKey {
	return c.identity.PrivateKey
}

// l2Headers 为一次请求构建 L2 认证头。body 必须是实际发送的字节。
func (c *Client) l2Headers(creds *types.ApiKeyCreds, method, path string, body []byte) (map[string]string, error) {
	args := &types.L2HeaderArgs{
		Method:      method,
		RequestPath: path,
	}
	if body != nil {
		s := string(body)
		args.Body = &s
	}
	headers, err := signing.CreateL2Headers(c.privateKey(), creds, args, nil)
	if err != nil {
		return nil, err
	}
	return headers.Map(), nil
}
