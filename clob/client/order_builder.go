package client

import (
	"fmt"
	"math/big"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polyterm/polyterm/clob/signing"
	"github.com/polyterm/polyterm/clob/types"
	"github.com/polyterm/polyterm/clob/wallet"
)

// GTDValidityWindow GTD 订单的有效期窗口
const GTDValidityWindow = 24 * time.Hour

var micro = decimal.NewFromInt(1_000_000)

// OrderBuilder 把用户下单请求转换为交易所规范的已签名订单。
// 金额换算全程走定点整数运算，避免浮点漂移。
type OrderBuilder struct {
	identity        *wallet.Identity
	chainID         types.Chain
	exchangeAddress string

	// saltFn 每次调用生成新 salt。salt 绝不复用：重试必须重新签名。
	// 测试可注入固定值。
	saltFn func() int64

	// now 取当前时间，测试可注入
	now func() time.Time
}

// NewOrderBuilder 创建订单构建器
func NewOrderBuilder(identity *wallet.Identity, chainID types.Chain) (*OrderBuilder, error) {
	contracts, err := GetContractConfig(chainID)
	if err != nil {
		return nil, err
	}
	return &OrderBuilder{
		identity:        identity,
		chainID:         chainID,
		exchangeAddress: contracts.Exchange,
		saltFn:          func() int64 { return rand.Int64N(1 << 53) },
		now:             time.Now,
	}, nil
}

// scaleAmounts 把 price/size 换算为 1e6 定点整数。
// 四舍五入按标准规则（恰好 .5 远离零），与交易所期望一致；
// usdc = round(priceScaled * sizeScaled / 1e6)，全程整数运算。
func scaleAmounts(side types.Side, price, size float64) (makerAmt, takerAmt *big.Int, err error) {
	priceScaled := decimal.NewFromFloat(price).Mul(micro).Round(0)
	sizeScaled := decimal.NewFromFloat(size).Mul(micro).Round(0)
	usdc := priceScaled.Mul(sizeScaled).DivRound(micro, 0)

	if side == types.SideBuy {
		// 买入：maker 支付 USDC，taker 收到 tokens
		return usdc.BigInt(), sizeScaled.BigInt(), nil
	}
	// 卖出：maker 给出 tokens，taker 收到 USDC
	return sizeScaled.BigInt(), usdc.BigInt(), nil
}

// BuildOrder 构建并签名订单。请求校验失败或签名失败返回错误，
// 不产生任何网络副作用。
func (b *OrderBuilder) BuildOrder(req *types.OrderRequest) (*types.SignedOrder, error) {
	if req.TokenID == "" {
		return nil, fmt.Errorf("token id is required")
	}
	if req.Side != types.SideBuy && req.Side != types.SideSell {
		return nil, fmt.Errorf("invalid side: %q", req.Side)
	}
	if req.Price <= 0 || req.Price >= 1 {
		return nil, fmt.Errorf("price must be in (0,1), got %v", req.Price)
	}
	if req.Size <= 0 {
		return nil, fmt.Errorf("size must be positive, got %v", req.Size)
	}
	tif := req.TimeInForce
	if tif == "" {
		tif = types.OrderTypeGTC
	}
	switch tif {
	case types.OrderTypeGTC, types.OrderTypeFOK, types.OrderTypeGTD:
	default:
		return nil, fmt.Errorf("invalid time-in-force: %q", tif)
	}

	tokenID, ok := new(big.Int).SetString(req.TokenID, 10)
	if !ok {
		return nil, fmt.Errorf("invalid token id: %s", req.TokenID)
	}

	makerAmount, takerAmount, err := scaleAmounts(req.Side, req.Price, req.Size)
	if err != nil {
		return nil, err
	}

	// GTD 之外过期时间为 0（永不过期）
	expiration := big.NewInt(0)
	if tif == types.OrderTypeGTD {
		expiration = big.NewInt(b.now().Add(GTDValidityWindow).Unix())
	}

	salt := b.saltFn()
	address := b.identity.Address.Hex()

	orderData := &signing.OrderData{
		Salt:          salt,
		Maker:         address,
		Signer:        address,
		Taker:         signing.ZeroAddress,
		TokenID:       tokenID,
		MakerAmount:   makerAmount,
		TakerAmount:   takerAmount,
		Expiration:    expiration,
		Nonce:         big.NewInt(0),
		FeeRateBps:    big.NewInt(0),
		Side:          req.Side,
		SignatureType: types.SignatureTypeEOA,
	}

	signature, err := signing.BuildOrderSignature(
		b.identity.PrivateKey,
		b.chainID,
		b.exchangeAddress,
		orderData,
	)
	if err != nil {
		return nil, fmt.Errorf("sign order: %w", err)
	}

	return &types.SignedOrder{
		Salt:          salt,
		Maker:         address,
		Signer:        address,
		Taker:         signing.ZeroAddress,
		TokenID:       req.TokenID,
		MakerAmount:   makerAmount.String(),
		TakerAmount:   takerAmount.String(),
		Expiration:    expiration.String(),
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          req.Side,
		SignatureType: int(types.SignatureTypeEOA),
		Signature:     signature,
	}, nil
}

// parseSize 解析交易所返回的数量字符串，解析失败按 0 处理
func parseSize(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
