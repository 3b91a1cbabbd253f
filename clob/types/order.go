package types

import "time"

// OrderRequest 用户下单请求。传入 OrderSigner 后不可再修改。
type OrderRequest struct {
	// TokenID 条件代币资产 ID（instrument）
	TokenID string

	// Side 订单方向
	Side Side

	// Price 订单价格，(0,1) 开区间
	Price float64

	// Size 条件代币数量，必须 > 0
	Size float64

	// TimeInForce 有效期策略，默认 GTC
	TimeInForce OrderType

	// PostOnly 只挂单，不允许立即吃单
	PostOnly bool

	// DisplayMarketTitle 展示用市场标题（可选，不参与签名）
	DisplayMarketTitle string

	// DisplayOutcomeTitle 展示用结果标题（可选，不参与签名）
	DisplayOutcomeTitle string
}

// SignedOrder 已签名的订单（交易所规范结构）
// 构造后不可变，单次使用：重试必须用新 salt 重新签名。
type SignedOrder struct {
	Salt          int64  `json:"salt"`
	Maker         string `json:"maker"`
	Signer        string `json:"signer"`
	Taker         string `json:"taker"`
	TokenID       string `json:"tokenId"`
	MakerAmount   string `json:"makerAmount"`
	TakerAmount   string `json:"takerAmount"`
	Expiration    string `json:"expiration"`
	Nonce         string `json:"nonce"`
	FeeRateBps    string `json:"feeRateBps"`
	Side          Side   `json:"side"`
	SignatureType int    `json:"signatureType"`
	Signature     string `json:"signature"`
}

// NewOrder 提交订单的请求体
type NewOrder struct {
	Order     SignedOrder `json:"order"`
	Owner     string      `json:"owner"`
	OrderType OrderType   `json:"orderType"`
	PostOnly  bool        `json:"postOnly,omitempty"`
}

// OrderResponse 提交订单的响应
type OrderResponse struct {
	Success  bool   `json:"success"`
	ErrorMsg string `json:"errorMsg"`
	Error    string `json:"error"`
	OrderID  string `json:"orderId"`
	OrderIDU string `json:"orderID"`
	Status   string `json:"status"`
}

// ID 兼容 orderId / orderID 两种字段名
func (r *OrderResponse) ID() string {
	if r.OrderID != "" {
		return r.OrderID
	}
	return r.OrderIDU
}

// ErrorText 兼容 errorMsg / error 两种字段名
func (r *OrderResponse) ErrorText() string {
	if r.ErrorMsg != "" {
		return r.ErrorMsg
	}
	return r.Error
}

// CancelResponse 取消订单的响应
// canceled 列出成功取消的订单 ID，not_canceled 给出每个失败订单的原因。
type CancelResponse struct {
	Canceled    []string          `json:"canceled"`
	NotCanceled map[string]string `json:"not_canceled"`
	ErrorMsg    string            `json:"errorMsg"`
	Error       string            `json:"error"`
}

// ErrorText 兼容 errorMsg / error 两种字段名
func (r *CancelResponse) ErrorText() string {
	if r.ErrorMsg != "" {
		return r.ErrorMsg
	}
	return r.Error
}

// CancelResult cancelAll / cancelBulk 的聚合结果。部分失败是正常可报告
// 的结果，不作为错误抛出。
type CancelResult struct {
	Canceled    []string
	NotCanceled map[string]string
}

// OpenOrder 交易所返回的订单记录（/data/orders 和 /data/trades 共用形状）
type OpenOrder struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Owner        string `json:"owner"`
	MakerAddress string `json:"maker_address"`
	Market       string `json:"market"`
	AssetID      string `json:"asset_id"`
	Side         string `json:"side"`
	OriginalSize string `json:"original_size"`
	SizeMatched  string `json:"size_matched"`
	Price        string `json:"price"`
	Outcome      string `json:"outcome"`
	CreatedAt    int64  `json:"created_at"`
	Expiration   string `json:"expiration"`
	OrderType    string `json:"order_type"`
}

// PlacedOrder 客户端归一化后的订单视图。
// 不变式：status != FILLED 时 SizeMatched+SizeRemaining == OriginalSize；
// status == FILLED 时 SizeRemaining == 0。
type PlacedOrder struct {
	OrderID             string
	TokenID             string
	Side                Side
	Price               float64
	OriginalSize        float64
	SizeMatched         float64
	SizeRemaining       float64
	Status              OrderStatus
	CreatedAt           time.Time
	DisplayMarketTitle  string
	DisplayOutcomeTitle string
}
