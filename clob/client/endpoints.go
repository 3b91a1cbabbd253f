package client

// API 端点常量
const (
	// API Key endpoints
	EndpointDeriveAPIKey = "/auth/derive-api-key"
	EndpointCreateAPIKey = "/auth/api-key"

	// Order endpoints
	EndpointPostOrder          = "/order"
	EndpointCancelOrder        = "/order"
	EndpointCancelOrders       = "/orders"
	EndpointCancelAll          = "/cancel-all"
	EndpointCancelMarketOrders = "/cancel-market-orders"
	EndpointGetOpenOrders      = "/data/orders"
	EndpointGetTrades          = "/data/trades"
)
