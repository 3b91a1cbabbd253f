package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/polyterm/polyterm/clob/signing"
	"github.com/polyterm/polyterm/clob/types"
	"github.com/polyterm/polyterm/clob/wallet"
	"github.com/polyterm/polyterm/pkg/logger"
)

// CredentialBroker 获取或创建 L2 认证所需的 API 凭证。
// 凭证缓存在内存和钱包存储里，跨进程重启复用；已有合法缓存时绝不重新生成。
// 同一钱包的并发请求通过 singleflight 合并为一次网络调用，避免触发交易所
// 限流或服务端重复创建凭证。
type CredentialBroker struct {
	http    *httpClient
	chainID types.Chain
	id      *wallet.Identity
	store   *wallet.Store

	mu     sync.Mutex
	cached *types.ApiKeyCreds
	group  singleflight.Group
}

// NewCredentialBroker 创建凭证代理。store 可为 nil（不持久化）。
func NewCredentialBroker(http *httpClient, chainID types.Chain, id *wallet.Identity, store *wallet.Store) *CredentialBroker {
	return &CredentialBroker{
		http:    http,
		chainID: chainID,
		id:      id,
		store:   store,
	}
}

// FetchOrCreate 返回本钱包的 API 凭证。
// 顺序：内存缓存 → 钱包存储 → derive 端点 → create 端点。
func (b *CredentialBroker) FetchOrCreate(ctx context.Context) (*types.ApiKeyCreds, error) {
	if creds := b.cachedCreds(); creds != nil {
		return creds, nil
	}

	v, err, _ := b.group.Do(b.id.Address.Hex(), func() (interface{}, error) {
		// 进入单飞后再查一次，前一个航班可能已经填好缓存
		if creds := b.cachedCreds(); creds != nil {
			return creds, nil
		}

		creds, err := b.deriveOrCreate(ctx)
		if err != nil {
			return nil, err
		}

		b.mu.Lock()
		b.cached = creds
		b.mu.Unlock()

		if b.store != nil {
			if err := b.store.SaveCreds(creds); err != nil {
				logger.Logger.Warnf("credential cache not persisted: %v", err)
			}
		}
		return creds, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.ApiKeyCreds), nil
}

// Invalidate 丢弃缓存的凭证（401 之后由调用方触发重新推导）
func (b *CredentialBroker) Invalidate() {
	b.mu.Lock()
	b.cached = nil
	b.mu.Unlock()
}

func (b *CredentialBroker) cachedCreds() *types.ApiKeyCreds {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cached.Valid() {
		return b.cached
	}
	if b.store != nil {
		if rec, err := b.store.Load(); err == nil && rec != nil && rec.Creds.Valid() && rec.Address == b.id.Address.Hex() {
			b.cached = rec.Creds
			return b.cached
		}
	}
	return nil
}

// deriveOrCreate 先尝试幂等的 derive；失败或返回不完整字段时退回 create。
// derive 返回 2xx 但字段不全是值得记录的独立情形（可能在服务端再创建一套
// 凭证），只退回一次，不循环重试。
func (b *CredentialBroker) deriveOrCreate(ctx context.Context) (*types.ApiKeyCreds, error) {
	headers, err := signing.CreateL1Headers(b.id.PrivateKey, b.chainID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create L1 headers: %w", err)
	}
	headerMap := headers.Map()

	creds, deriveErr := b.derive(ctx, headerMap)
	if deriveErr == nil {
		return creds, nil
	}

	// 传输层失败直接上抛：此时 create 多半也到不了服务端
	var netErr *NetworkError
	if errors.As(deriveErr, &netErr) && netErr.Kind != NetworkHTTPStatus {
		return nil, deriveErr
	}

	logger.Logger.Warnf("derive api key failed, falling back to create: %v", deriveErr)
	return b.create(ctx, headerMap)
}

func (b *CredentialBroker) derive(ctx context.Context, headers map[string]string) (*types.ApiKeyCreds, error) {
	resp, err := b.http.do(ctx, http.MethodGet, EndpointDeriveAPIKey, headers, nil, nil)
	if err != nil {
		return nil, err
	}

	var raw types.ApiKeyRaw
	if err := parseResponse(resp, &raw); err != nil {
		return nil, err
	}

	creds := raw.Creds()
	if !creds.Valid() {
		return nil, fmt.Errorf("derive returned incomplete credential fields (key=%t secret=%t passphrase=%t)",
			creds.Key != "", creds.Secret != "", creds.Passphrase != "")
	}
	return creds, nil
}

func (b *CredentialBroker) create(ctx context.Context, headers map[string]string) (*types.ApiKeyCreds, error) {
	body, _ := json.Marshal(map[string]interface{}{})
	resp, err := b.http.do(ctx, http.MethodPost, EndpointCreateAPIKey, headers, body, nil)
	if err != nil {
		return nil, err
	}

	var raw types.ApiKeyRaw
	if err := parseResponse(resp, &raw); err != nil {
		return nil, err
	}

	creds := raw.Creds()
	if !creds.Valid() {
		return nil, fmt.Errorf("create returned incomplete credential fields")
	}
	return creds, nil
}
