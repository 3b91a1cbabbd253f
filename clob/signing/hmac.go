package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// BuildHmacSignature 构建 L2 请求的 HMAC-SHA256 签名。
// 待签消息为 timestamp + METHOD + requestPath + body（body 为空时省略），
// body 必须是实际发送的请求体字节，逐字节一致。
func BuildHmacSignature(
	secret string,
	timestamp int64,
	method string,
	requestPath string,
	body *string,
) (string, error) {
	message := strconv.FormatInt(timestamp, 10) + strings.ToUpper(method) + requestPath
	if body != nil {
		message += *body
	}

	// secret 是 base64url 格式，解码前先还原为标准 base64
	sanitized := strings.ReplaceAll(secret, "-", "+")
	sanitized = strings.ReplaceAll(sanitized, "_", "/")

	keyData, err := base64.StdEncoding.DecodeString(sanitized)
	if err != nil {
		return "", fmt.Errorf("decode api secret: %w", err)
	}

	mac := hmac.New(sha256.New, keyData)
	mac.Write([]byte(message))
	digest := mac.Sum(nil)

	// 签名转回 URL 安全的 base64（保留 = 填充）
	sig := base64.StdEncoding.EncodeToString(digest)
	sig = strings.ReplaceAll(sig, "+", "-")
	sig = strings.ReplaceAll(sig, "/", "_")

	return sig, nil
}
