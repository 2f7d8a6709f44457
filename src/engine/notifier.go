package engine

import "time"

// OrderSummary is the order-resolution payload pushed to subscribers.
type OrderSummary struct {
	OrderID      string
	APIKey       string
	Symbol       string
	Side         OrderSide
	Status       OrderStatus
	Amount       float64
	Price        float64
	FilledAmount float64
	Trades       int
}

// Notifier receives every balance mutation, strategy status transition,
// ticker advance and order resolution. The exchange does not manage
// subscriber connections itself; implementations do.
type Notifier interface {
	BalanceUpdated(apiKey string, balances map[string]AssetBalance)
	StrategyStatusChanged(name string, status StrategyStatus, at time.Time)
	TickerAdvanced(name, symbol string, price float64, cursor int)
	OrderResolved(summary OrderSummary)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) BalanceUpdated(string, map[string]AssetBalance)          {}
func (NopNotifier) StrategyStatusChanged(string, StrategyStatus, time.Time) {}
func (NopNotifier) TickerAdvanced(string, string, float64, int)             {}
func (NopNotifier) OrderResolved(OrderSummary)                              {}
