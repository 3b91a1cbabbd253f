package signing

import (
	"crypto/ecdsa"
	"fmt"
	"strconv"
	"time"

	"github.com/polyterm/polyterm/clob/types"
)

// CreateL1Headers 创建 L1 认证头（EIP712 签名验证）。
// nonce 和 timestamp 为 nil 时取默认值 0 / 当前时间；显式传入时结果确定，
// 便于测试。仅用于 API 凭证的推导和创建，不用于下单。
func CreateL1Headers(
	privateKey *ecdsa.PrivateKey,
	chainID types.Chain,
	nonce *int64,
	timestamp *int64,
) (*types.L1PolyHeader, error) {
	ts := time.Now().Unix()
	if timestamp != nil {
		ts = *timestamp
	}

	n := int64(0)
	if nonce != nil {
		n = *nonce
	}

	sig, err := BuildClobAuthSignature(privateKey, chainID, ts, n)
	if err != nil {
		return nil, fmt.Errorf("build EIP712 signature: %w", err)
	}

	address := AddressFromPrivateKey(privateKey)

	return &types.L1PolyHeader{
		PolyAddress:   address.Hex(),
		PolySignature: sig,
		PolyTimestamp: strconv.FormatInt(ts, 10),
		PolyNonce:     strconv.FormatInt(n, 10),
	}, nil
}

// CreateL2Headers 创建 L2 认证头（API 密钥 HMAC 验证）。
// 所有交易调用（下单、撤单、订单/成交查询）都使用该头。
func CreateL2Headers(
	privateKey *ecdsa.PrivateKey,
	creds *types.ApiKeyCreds,
	args *types.L2HeaderArgs,
	timestamp *int64,
) (*types.L2PolyHeader, error) {
	ts := time.Now().Unix()
	if timestamp != nil {
		ts = *timestamp
	}

	address := AddressFromPrivateKey(privateKey)

	sig, err := BuildHmacSignature(
		creds.Secret,
		ts,
		args.Method,
		args.RequestPath,
		args.Body,
	)
	if err != nil {
		return nil, fmt.Errorf("build HMAC signature: %w", err)
	}

	return &types.L2PolyHeader{
		PolyAddress:    address.Hex(),
		PolySignature:  sig,
		PolyTimestamp:  strconv.FormatInt(ts, 10),
		PolyAPIKey:     creds.Key,
		PolyPassphrase: creds.Passphrase,
	}, nil
}
