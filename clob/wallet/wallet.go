package wallet

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"
)

// ErrInvalidKey 签名私钥校验失败
var ErrInvalidKey = errors.New("invalid signing key")

// DefaultDerivationPath 默认 HD 钱包派生路径
const DefaultDerivationPath = "m/44'/60'/0'/0/0"

// Identity 钱包身份。PrivateKey 只由本包持有，绝不写日志，
// 仅序列化到权限受限的本地存储。
type Identity struct {
	Address    common.Address
	PrivateKey *ecdsa.PrivateKey

	// KeyHex 归一化的私钥十六进制（小写，无 0x 前缀），用于持久化
	KeyHex string
}

// Validate 校验并归一化用户提供的签名私钥。
// 接受带或不带 0x 前缀的 64 位十六进制；拒绝空输入、长度错误、
// 非十六进制字符和全零私钥。校验失败不产生任何副作用。
func Validate(rawKey string) (*Identity, error) {
	trimmed := strings.TrimSpace(rawKey)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidKey)
	}

	hexKey := strings.TrimPrefix(trimmed, "0x")
	hexKey = strings.TrimPrefix(hexKey, "0X")
	if len(hexKey) != 64 {
		return nil, fmt.Errorf("%w: expected 64 hex characters, got %d", ErrInvalidKey, len(hexKey))
	}

	keyBytes, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: non-hex characters", ErrInvalidKey)
	}

	allZero := true
	for _, b := range keyBytes {
		if b != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return nil, fmt.Errorf("%w: zero key", ErrInvalidKey)
	}

	privateKey, err := crypto.ToECDSA(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	return &Identity{
		Address:    crypto.PubkeyToAddress(privateKey.PublicKey),
		PrivateKey: privateKey,
		KeyHex:     strings.ToLower(hexKey),
	}, nil
}

// FromMnemonic 从助记词派生钱包身份。path 为空时使用默认派生路径。
func FromMnemonic(mnemonic string, path string) (*Identity, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	if mnemonic == "" {
		return nil, fmt.Errorf("%w: empty mnemonic", ErrInvalidKey)
	}
	if strings.TrimSpace(path) == "" {
		path = DefaultDerivationPath
	}

	w, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	parsed, err := hdwallet.ParseDerivationPath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid derivation path: %w", err)
	}

	account, err := w.Derive(parsed, false)
	if err != nil {
		return nil, fmt.Errorf("derive account: %w", err)
	}

	keyHex, err := w.PrivateKeyHex(account)
	if err != nil {
		return nil, fmt.Errorf("export private key: %w", err)
	}

	return Validate(keyHex)
}
