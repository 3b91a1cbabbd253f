package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/polyterm/polyterm/clob/types"
	"github.com/polyterm/polyterm/pkg/logger"
)

// TradeHistoryLimit 成交历史最多返回的条数
const TradeHistoryLimit = 50

// NormalizeStatus 把交易所状态字符串归一化为 OrderStatus。
// 精确匹配 MATCHED/FILLED/UNMATCHED/DELAYED/CANCELLED（含 CANCELED 拼写），
// 其余一律视为 LIVE。
func NormalizeStatus(raw string) types.OrderStatus {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "MATCHED":
		return types.StatusMatched
	case "FILLED":
		return types.StatusFilled
	case "UNMATCHED":
		return types.StatusUnmatched
	case "DELAYED":
		return types.StatusDelayed
	case "CANCELLED", "CANCELED":
		return types.StatusCancelled
	default:
		return types.StatusLive
	}
}

// PlaceOrder 签名并提交订单。拒绝时返回分类后的 *OrderError，
// 绝不返回半成功结果；重试由调用方发起，并会用新 salt 重新签名。
func (c *Client) PlaceOrder(ctx context.Context, req *types.OrderRequest) (*types.PlacedOrder, error) {
	if err := c.limiter.Wait(ctx, "clob:order:post"); err != nil {
		return nil, err
	}

	creds, err := c.broker.FetchOrCreate(ctx)
	if err != nil {
		return nil, err
	}

	signed, err := c.builder.BuildOrder(req)
	if err != nil {
		return nil, err
	}

	tif := req.TimeInForce
	if tif == "" {
		tif = types.OrderTypeGTC
	}
	payload := types.NewOrder{
		Order:     *signed,
		Owner:     creds.Key,
		OrderType: tif,
		PostOnly:  req.PostOnly,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	headers, err := c.l2Headers(creds, http.MethodPost, EndpointPostOrder, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.do(ctx, http.MethodPost, EndpointPostOrder, headers, body, nil)
	if err != nil {
		return nil, err
	}
	data, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	var orderResp types.OrderResponse
	_ = json.Unmarshal(data, &orderResp)

	raw := orderResp.ErrorText()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if raw == "" {
			raw = strings.TrimSpace(string(data))
		}
		return nil, c.rejectOrder(raw, resp.StatusCode)
	}
	if raw != "" || (!orderResp.Success && orderResp.ID() == "") {
		return nil, c.rejectOrder(raw, resp.StatusCode)
	}

	status := NormalizeStatus(orderResp.Status)
	placed := &types.PlacedOrder{
		OrderID:             orderResp.ID(),
		TokenID:             req.TokenID,
		Side:                req.Side,
		Price:               req.Price,
		OriginalSize:        req.Size,
		Status:              status,
		CreatedAt:           time.Now(),
		DisplayMarketTitle:  req.DisplayMarketTitle,
		DisplayOutcomeTitle: req.DisplayOutcomeTitle,
	}
	switch status {
	case types.StatusFilled, types.StatusMatched:
		placed.SizeMatched = req.Size
		placed.SizeRemaining = 0
	default:
		placed.SizeMatched = 0
		placed.SizeRemaining = req.Size
	}

	if c.journal != nil {
		if err := c.journal.RecordPlacement(ctx, placed); err != nil {
			logger.Logger.Warnf("order journal write failed: %v", err)
		}
	}
	return placed, nil
}

// rejectOrder 分类拒绝原因；401 说明缓存凭证已失效，顺带作废
func (c *Client) rejectOrder(raw string, status int) error {
	orderErr := newOrderError(raw, status)
	if orderErr.Category == CategoryUnauthorized {
		c.broker.Invalidate()
	}
	return orderErr
}

// CancelOrder 取消单个订单。只有响应的 canceled 集合里明确含有该订单 ID
// 才算成功；HTTP 成功但 ID 不在 canceled 里仍视为失败，失败原因取
// not_canceled 中的条目。
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	if err := c.limiter.Wait(ctx, "clob:order:delete"); err != nil {
		return err
	}

	body, err := json.Marshal(map[string]string{"orderID": orderID})
	if err != nil {
		return err
	}

	cancelResp, status, err := c.doCancel(ctx, EndpointCancelOrder, body)
	if err != nil {
		return err
	}

	for _, id := range cancelResp.Canceled {
		if id == orderID {
			if c.journal != nil {
				if jerr := c.journal.RecordCancel(ctx, orderID); jerr != nil {
					logger.Logger.Warnf("order journal write failed: %v", jerr)
				}
			}
			return nil
		}
	}

	reason := cancelResp.NotCanceled[orderID]
	if reason == "" {
		reason = cancelResp.ErrorText()
	}
	return c.rejectOrder(reason, status)
}

// CancelAll 取消本钱包全部挂单。部分失败是正常结果，聚合返回不抛错。
func (c *Client) CancelAll(ctx context.Context) (*types.CancelResult, error) {
	if err := c.limiter.Wait(ctx, "clob:orders:delete"); err != nil {
		return nil, err
	}

	cancelResp, status, err := c.doCancel(ctx, EndpointCancelAll, nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, c.rejectOrder(cancelResp.ErrorText(), status)
	}
	return aggregateCancel(cancelResp, nil), nil
}

// CancelOrders 批量取消指定订单。notCanceled 里保证为每个未确认取消的
// ID 留有条目。
func (c *Client) CancelOrders(ctx context.Context, orderIDs []string) (*types.CancelResult, error) {
	if len(orderIDs) == 0 {
		return &types.CancelResult{NotCanceled: map[string]string{}}, nil
	}
	if err := c.limiter.Wait(ctx, "clob:orders:delete"); err != nil {
		return nil, err
	}

	body, err := json.Marshal(orderIDs)
	if err != nil {
		return nil, err
	}

	cancelResp, status, err := c.doCancel(ctx, EndpointCancelOrders, body)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, c.rejectOrder(cancelResp.ErrorText(), status)
	}
	return aggregateCancel(cancelResp, orderIDs), nil
}

// CancelMarketOrders 按 instrument 取消。instrument ID 去重后逐个请求，
// 结果合并；单个请求失败记入 notCanceled，不中断其余请求。
func (c *Client) CancelMarketOrders(ctx context.Context, tokenIDs []string) (*types.CancelResult, error) {
	result := &types.CancelResult{NotCanceled: map[string]string{}}

	seen := make(map[string]bool, len(tokenIDs))
	for _, tokenID := range tokenIDs {
		if tokenID == "" || seen[tokenID] {
			continue
		}
		seen[tokenID] = true

		if err := c.limiter.Wait(ctx, "clob:orders:delete"); err != nil {
			return nil, err
		}

		body, err := json.Marshal(map[string]string{"asset_id": tokenID})
		if err != nil {
			return nil, err
		}

		cancelResp, status, err := c.doCancel(ctx, EndpointCancelMarketOrders, body)
		if err != nil {
			var netErr *NetworkError
			if errors.As(err, &netErr) {
				result.NotCanceled[tokenID] = netErr.Error()
				continue
			}
			return nil, err
		}
		if status < 200 || status >= 300 {
			result.NotCanceled[tokenID] = cancelResp.ErrorText()
			continue
		}

		result.Canceled = append(result.Canceled, cancelResp.Canceled...)
		for id, reason := range cancelResp.NotCanceled {
			result.NotCanceled[id] = reason
		}
	}
	return result, nil
}

// doCancel 发送 DELETE 请求并解析取消响应（任何状态码下都尝试解析）
func (c *Client) doCancel(ctx context.Context, endpoint string, body []byte) (*types.CancelResponse, int, error) {
	creds, err := c.broker.FetchOrCreate(ctx)
	if err != nil {
		return nil, 0, err
	}

	headers, err := c.l2Headers(creds, http.MethodDelete, endpoint, body)
	if err != nil {
		return nil, 0, err
	}

	resp, err := c.httpClient.do(ctx, http.MethodDelete, endpoint, headers, body, nil)
	if err != nil {
		return nil, 0, err
	}
	data, err := readBody(resp)
	if err != nil {
		return nil, 0, err
	}

	var cancelResp types.CancelResponse
	if err := json.Unmarshal(data, &cancelResp); err != nil {
		cancelResp.Error = strings.TrimSpace(string(data))
	}
	if cancelResp.NotCanceled == nil {
		cancelResp.NotCanceled = map[string]string{}
	}
	return &cancelResp, resp.StatusCode, nil
}

// aggregateCancel 把交易所响应聚合为 CancelResult。requested 非空时，
// 每个没出现在 canceled 里的 ID 都会在 notCanceled 里有条目。
func aggregateCancel(resp *types.CancelResponse, requested []string) *types.CancelResult {
	result := &types.CancelResult{
		Canceled:    resp.Canceled,
		NotCanceled: map[string]string{},
	}
	for id, reason := range resp.NotCanceled {
		result.NotCanceled[id] = reason
	}

	canceled := make(map[string]bool, len(resp.Canceled))
	for _, id := range resp.Canceled {
		canceled[id] = true
	}
	for _, id := range requested {
		if !canceled[id] && result.NotCanceled[id] == "" {
			reason := resp.ErrorText()
			if reason == "" {
				reason = "no cancellation confirmation from exchange"
			}
			result.NotCanceled[id] = reason
		}
	}
	return result
}

// ListOpenOrders 获取本钱包的挂单。只读顾问视图：网络或解析失败时
// 返回空列表，不让调用方失败。
func (c *Client) ListOpenOrders(ctx context.Context) []types.PlacedOrder {
	orders, err := c.fetchOrderList(ctx, EndpointGetOpenOrders, "clob:orders:get")
	if err != nil {
		logger.Logger.Warnf("list open orders failed: %v", err)
		return []types.PlacedOrder{}
	}
	return orders
}

// ListTradeHistory 获取成交历史，最近优先，最多 TradeHistoryLimit 条。
// 与 ListOpenOrders 一样失败时降级为空列表。
func (c *Client) ListTradeHistory(ctx context.Context) []types.PlacedOrder {
	orders, err := c.fetchOrderList(ctx, EndpointGetTrades, "clob:trades:get")
	if err != nil {
		logger.Logger.Warnf("list trade history failed: %v", err)
		return []types.PlacedOrder{}
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	if len(orders) > TradeHistoryLimit {
		orders = orders[:TradeHistoryLimit]
	}
	return orders
}

func (c *Client) fetchOrderList(ctx context.Context, endpoint, limitKey string) ([]types.PlacedOrder, error) {
	if err := c.limiter.Wait(ctx, limitKey); err != nil {
		return nil, err
	}

	creds, err := c.broker.FetchOrCreate(ctx)
	if err != nil {
		return nil, err
	}

	headers, err := c.l2Headers(creds, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.do(ctx, http.MethodGet, endpoint, headers, nil, nil)
	if err != nil {
		return nil, err
	}
	data, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &NetworkError{Kind: NetworkHTTPStatus, Status: resp.StatusCode}
	}

	raw, err := decodeOrderList(data)
	if err != nil {
		return nil, err
	}

	orders := make([]types.PlacedOrder, 0, len(raw))
	for _, oo := range raw {
		orders = append(orders, toPlacedOrder(oo))
	}
	return orders, nil
}

// decodeOrderList 解码订单列表。交易所两种形状都出现过：
// 裸数组和 {data:[...]} 包装，显式枚举后解码，不做鸭子类型猜测。
func decodeOrderList(data []byte) ([]types.OpenOrder, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []types.OpenOrder
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var wrapped struct {
		Data []types.OpenOrder `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Data, nil
}

// toPlacedOrder 归一化交易所订单记录，维持
// sizeMatched + sizeRemaining == originalSize 不变式。
func toPlacedOrder(oo types.OpenOrder) types.PlacedOrder {
	original := parseSize(oo.OriginalSize)
	matched := parseSize(oo.SizeMatched)
	if matched > original {
		matched = original
	}

	status := NormalizeStatus(oo.Status)
	remaining := original - matched
	if status == types.StatusFilled {
		matched = original
		remaining = 0
	}

	price := parseSize(oo.Price)

	return types.PlacedOrder{
		OrderID:       oo.ID,
		TokenID:       oo.AssetID,
		Side:          types.Side(strings.ToUpper(oo.Side)),
		Price:         price,
		OriginalSize:  original,
		SizeMatched:   matched,
		SizeRemaining: remaining,
		Status:        status,
		CreatedAt:     time.Unix(oo.CreatedAt, 0),
	}
}
