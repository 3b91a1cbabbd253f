package types

// Side 订单方向
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderType 订单有效期类型（time-in-force）
type OrderType string

const (
	OrderTypeGTC OrderType = "GTC" // Good Till Cancel - 一直有效直到取消
	OrderTypeFOK OrderType = "FOK" // Fill or Kill - 全部成交或全部取消
	OrderTypeGTD OrderType = "GTD" // Good Till Date - 指定日期前有效
)

// Chain 区块链网络
type Chain int

const (
	ChainPolygon Chain = 137
	ChainAmoy    Chain = 80002
)

// SignatureType 签名类型
type SignatureType int

const (
	// SignatureTypeEOA 标准以太坊钱包直接签名
	SignatureTypeEOA SignatureType = 0
)

// OrderStatus 订单状态（客户端视角的扁平枚举）
// FILLED 和 CANCELLED 是终态，其余状态下一次轮询仍可能变化。
type OrderStatus string

const (
	StatusLive      OrderStatus = "LIVE"
	StatusMatched   OrderStatus = "MATCHED"
	StatusFilled    OrderStatus = "FILLED"
	StatusCancelled OrderStatus = "CANCELLED"
	StatusDelayed   OrderStatus = "DELAYED"
	StatusUnmatched OrderStatus = "UNMATCHED"
)

// Terminal 报告该状态是否不再发生转移
func (s OrderStatus) Terminal() bool {
	return s == StatusFilled || s == StatusCancelled
}

// ApiKeyCreds API 密钥凭证（L2 认证三元组）
type ApiKeyCreds struct {
	Key        string `json:"key"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}

// Valid 三个字段都非空才视为可用凭证
func (c *ApiKeyCreds) Valid() bool {
	return c != nil && c.Key != "" && c.Secret != "" && c.Passphrase != ""
}

// ApiKeyRaw 原始 API 密钥（API 返回格式）
// derive 端点返回 "apiKey"，create 端点历史上也用过 "key"，两者都接受。
type ApiKeyRaw struct {
	ApiKey     string `json:"apiKey"`
	Key        string `json:"key"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}

// Creds 归一化为 ApiKeyCreds
func (r *ApiKeyRaw) Creds() *ApiKeyCreds {
	key := r.ApiKey
	if key == "" {
		key = r.Key
	}
	return &ApiKeyCreds{
		Key:        key,
		Secret:     r.Secret,
		Passphrase: r.Passphrase,
	}
}
