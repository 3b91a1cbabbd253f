package client

import (
	"math"
	"strconv"
	"testing"
	"testing/quick"
	"time"

	"github.com/polyterm/polyterm/clob/types"
	"github.com/polyterm/polyterm/clob/wallet"
)

const builderTestKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func testBuilder(t *testing.T) *OrderBuilder {
	t.Helper()
	id, err := wallet.Validate(builderTestKey)
	if err != nil {
		t.Fatalf("validate key: %v", err)
	}
	b, err := NewOrderBuilder(id, types.ChainPolygon)
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}
	b.saltFn = func() int64 { return 42 }
	b.now = func() time.Time { return time.Unix(1700000000, 0) }
	return b
}

func TestScaleAmounts_Buy(t *testing.T) {
	maker, taker, err := scaleAmounts(types.SideBuy, 0.65, 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if maker.String() != "65000000" {
		t.Fatalf("makerAmount = %s, want 65000000", maker)
	}
	if taker.String() != "100000000" {
		t.Fatalf("takerAmount = %s, want 100000000", taker)
	}
}

func TestScaleAmounts_Sell(t *testing.T) {
	maker, taker, err := scaleAmounts(types.SideSell, 0.65, 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if maker.String() != "100000000" {
		t.Fatalf("makerAmount = %s, want 100000000", maker)
	}
	if taker.String() != "65000000" {
		t.Fatalf("takerAmount = %s, want 65000000", taker)
	}
}

func TestScaleAmounts_NoFloatDrift(t *testing.T) {
	// 0.1*3 这类浮点陷阱不应漏到定点结果里
	maker, taker, err := scaleAmounts(types.SideBuy, 0.1, 3)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if maker.String() != "300000" || taker.String() != "3000000" {
		t.Fatalf("got maker=%s taker=%s", maker, taker)
	}
}

func TestScaleAmounts_RoundingProperty(t *testing.T) {
	// 任意合法 price/size：缩放结果与浮点理想值误差不超过 1 个最小单位
	f := func(p, s uint16) bool {
		price := 0.001 + float64(p%997)/1000.0
		if price >= 1 {
			price = 0.999
		}
		size := 0.01 + float64(s%5000)
		maker, taker, err := scaleAmounts(types.SideBuy, price, size)
		if err != nil {
			return false
		}
		wantTaker := size * 1e6
		if math.Abs(float64(taker.Int64())-wantTaker) > 1 {
			return false
		}
		wantMaker := price * size * 1e6
		// usdc 基于已缩放整数相乘再除，容许两步各 0.5 的舍入
		return math.Abs(float64(maker.Int64())-wantMaker) <= 2
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

func TestBuildOrder_Buy(t *testing.T) {
	b := testBuilder(t)
	so, err := b.BuildOrder(&types.OrderRequest{
		TokenID: "1234",
		Side:    types.SideBuy,
		Price:   0.65,
		Size:    100,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if so.Salt != 42 {
		t.Fatalf("salt = %d", so.Salt)
	}
	if so.MakerAmount != "65000000" || so.TakerAmount != "100000000" {
		t.Fatalf("amounts %s/%s", so.MakerAmount, so.TakerAmount)
	}
	if so.Maker != so.Signer || so.Maker == "" {
		t.Fatalf("maker/signer mismatch: %s / %s", so.Maker, so.Signer)
	}
	if so.Expiration != "0" {
		t.Fatalf("GTC expiration = %s, want 0", so.Expiration)
	}
	if so.Nonce != "0" || so.FeeRateBps != "0" {
		t.Fatalf("nonce/fee: %s / %s", so.Nonce, so.FeeRateBps)
	}
	if so.SignatureType != int(types.SignatureTypeEOA) {
		t.Fatalf("signature type %d", so.SignatureType)
	}
	if len(so.Signature) != 132 {
		t.Fatalf("signature shape: %q", so.Signature)
	}

	// 固定 salt 下构建是确定性的
	again, err := b.BuildOrder(&types.OrderRequest{
		TokenID: "1234", Side: types.SideBuy, Price: 0.65, Size: 100,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if again.Signature != so.Signature {
		t.Fatal("same inputs and salt produced different signatures")
	}
}

func TestBuildOrder_GTDExpiration(t *testing.T) {
	b := testBuilder(t)
	so, err := b.BuildOrder(&types.OrderRequest{
		TokenID:     "1234",
		Side:        types.SideSell,
		Price:       0.4,
		Size:        10,
		TimeInForce: types.OrderTypeGTD,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := time.Unix(1700000000, 0).Add(GTDValidityWindow).Unix()
	if so.Expiration != strconv.FormatInt(want, 10) {
		t.Fatalf("expiration %s, want %d", so.Expiration, want)
	}
}

func TestBuildOrder_Validation(t *testing.T) {
	b := testBuilder(t)
	cases := []struct {
		name string
		req  types.OrderRequest
	}{
		{"empty token", types.OrderRequest{Side: types.SideBuy, Price: 0.5, Size: 1}},
		{"bad side", types.OrderRequest{TokenID: "1", Side: "HOLD", Price: 0.5, Size: 1}},
		{"zero price", types.OrderRequest{TokenID: "1", Side: types.SideBuy, Price: 0, Size: 1}},
		{"price at 1", types.OrderRequest{TokenID: "1", Side: types.SideBuy, Price: 1, Size: 1}},
		{"negative price", types.OrderRequest{TokenID: "1", Side: types.SideBuy, Price: -0.2, Size: 1}},
		{"zero size", types.OrderRequest{TokenID: "1", Side: types.SideBuy, Price: 0.5, Size: 0}},
		{"bad tif", types.OrderRequest{TokenID: "1", Side: types.SideBuy, Price: 0.5, Size: 1, TimeInForce: "IOC"}},
		{"non-numeric token", types.OrderRequest{TokenID: "0xabc", Side: types.SideBuy, Price: 0.5, Size: 1}},
	}
	for _, tc := range cases {
		if _, err := b.BuildOrder(&tc.req); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestBuildOrder_DefaultTifIsGTC(t *testing.T) {
	b := testBuilder(t)
	so, err := b.BuildOrder(&types.OrderRequest{
		TokenID: "1", Side: types.SideBuy, Price: 0.5, Size: 1,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if so.Expiration != "0" {
		t.Fatalf("default tif expiration %s", so.Expiration)
	}
}
