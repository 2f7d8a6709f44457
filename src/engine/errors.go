package engine

import "fmt"

type UnknownAccountError struct {
	APIKey string
}

func (e *UnknownAccountError) Error() string {
	return fmt.Sprintf("unknown account: api key %q is not registered", e.APIKey)
}

type UnknownStrategyError struct {
	Symbol string
}

func (e *UnknownStrategyError) Error() string {
	return fmt.Sprintf("no strategy ingested for symbol %q", e.Symbol)
}

type DuplicateStrategyError struct {
	Symbol string
}

func (e *DuplicateStrategyError) Error() string {
	return fmt.Sprintf("strategy for symbol %q already ingested", e.Symbol)
}

type MalformedSymbolError struct {
	Symbol string
}

func (e *MalformedSymbolError) Error() string {
	return fmt.Sprintf("symbol %q is not in BASE_QUOTE form", e.Symbol)
}

type InvalidOrderTypeError struct {
	OrderType string
}

func (e *InvalidOrderTypeError) Error() string {
	return fmt.Sprintf("invalid order type %q: must be BUY or SELL", e.OrderType)
}

type InvalidAmountError struct {
	Amount float64
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid order amount %v: must be positive", e.Amount)
}

type InsufficientBalanceError struct {
	APIKey    string
	Asset     string
	Requested float64
	Available float64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s balance for api key %s: requested %v, available %v",
		e.Asset, e.APIKey, e.Requested, e.Available)
}

// OrderStateError reports an operation against an order past its terminal
// state (already filled or already canceled).
type OrderStateError struct {
	OrderID string
	Status  OrderStatus
}

func (e *OrderStateError) Error() string {
	return fmt.Sprintf("order %s is already %s", e.OrderID, e.Status)
}

type OrderNotFoundError struct {
	OrderID string
}

func (e *OrderNotFoundError) Error() string {
	return fmt.Sprintf("order %s not found", e.OrderID)
}
