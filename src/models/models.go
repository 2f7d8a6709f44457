package models

type AcceptAccountRequest struct {
	APIKey string `json:"api_key"`
}

type AcceptAccountResponse struct {
	APIKey   string                 `json:"api_key"`
	Balances map[string]BalanceInfo `json:"balances"`
}

type BalanceInfo struct {
	Available float64 `json:"available"`
	Frozen    float64 `json:"frozen"`
}

type BalanceResponse struct {
	APIKey   string                 `json:"api_key"`
	Balances map[string]BalanceInfo `json:"balances"`
}

type CreateOrderRequest struct {
	APIKey     string  `json:"api_key"`
	BaseAsset  string  `json:"base_asset"`
	QuoteAsset string  `json:"quote_asset"`
	Amount     float64 `json:"amount"`
	OrderType  string  `json:"order_type"` // BUY or SELL
}

type CreateOrderResponse struct {
	OrderID        string  `json:"order_id"`
	Symbol         string  `json:"symbol"`
	Side           string  `json:"side"`
	Status         string  `json:"status"`
	Amount         float64 `json:"amount"`
	Price          float64 `json:"price"` // snapshotted from the strategy ticker at creation
	NumberOfTrades int     `json:"number_of_trades"`
	FillPercent    float64 `json:"fill_percent"`
}

type CancelOrderResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

type TradeInfo struct {
	TradeID   string  `json:"trade_id"`
	OrderID   string  `json:"order_id"`
	Amount    float64 `json:"amount"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"` // unix timestamp in milliseconds
}

type OrderStatusResponse struct {
	OrderID        string      `json:"order_id"`
	APIKey         string      `json:"api_key"`
	Symbol         string      `json:"symbol"`
	Side           string      `json:"side"`
	Status         string      `json:"status"`
	Amount         float64     `json:"amount"`
	Price          float64     `json:"price"`
	FilledAmount   float64     `json:"filled_amount"`
	NumberOfTrades int         `json:"number_of_trades"`
	FillPercent    float64     `json:"fill_percent"`
	Trades         []TradeInfo `json:"trades"`
	Timestamp      int64       `json:"timestamp"` // unix timestamp in milliseconds
}

type StrategyInfo struct {
	Name            string  `json:"name"`
	Symbol          string  `json:"symbol"`
	Description     string  `json:"description,omitempty"`
	Status          string  `json:"status"`
	StatusChangedAt int64   `json:"status_changed_at"` // unix timestamp in milliseconds
	Buys            int     `json:"buys"`
	Sells           int     `json:"sells"`
	Price           float64 `json:"price"`
	Cursor          int     `json:"cursor"`
	IsInfinite      bool    `json:"is_infinite"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status           string `json:"status"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
	ActiveStrategies int    `json:"active_strategies"`
	ActiveAccounts   int    `json:"active_accounts"`
	OpenOrders       int64  `json:"open_orders"`
}

type MetricsResponse struct {
	OrdersCreated          int64   `json:"orders_created"`
	OrdersFilled           int64   `json:"orders_filled"`
	OrdersCanceled         int64   `json:"orders_canceled"`
	OpenOrders             int64   `json:"open_orders"`
	TradesExecuted         int64   `json:"trades_executed"`
	LatencyP50Ms           float64 `json:"latency_p50_ms"`
	LatencyP99Ms           float64 `json:"latency_p99_ms"`
	LatencyP999Ms          float64 `json:"latency_p999_ms"`
	ThroughputOrdersPerSec float64 `json:"throughput_orders_per_sec"`
}
