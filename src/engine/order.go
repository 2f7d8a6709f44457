package engine

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

type OrderStatus string

const (
	StatusOpen     OrderStatus = "OPEN"
	StatusFilled   OrderStatus = "FILLED"
	StatusCanceled OrderStatus = "CANCELED"
)

const (
	maxTradesPerOrder   = 5
	maxUnfilledFraction = 0.03
)

// Trade is an immutable fill record. Its price is the order's creation-time
// snapshot; it is never re-sampled from the ticker.
type Trade struct {
	ID      string
	OrderID string
	Amount  float64
	Price   float64
	Created time.Time
}

// FillPlan describes how an order resolves: how many trades it spawns and
// what fraction of the amount they fill in total.
type FillPlan struct {
	NumberOfTrades int
	FillPercent    float64
}

// randomFillPlan draws 1-5 trades filling 97-100% of the order.
func randomFillPlan(rng *rand.Rand) FillPlan {
	n := int(math.Ceil(rng.Float64() * maxTradesPerOrder))
	// edge case: Float64 may return exactly 0
	if n < 1 {
		n = 1
	}
	return FillPlan{
		NumberOfTrades: n,
		FillPercent:    1 - rng.Float64()*maxUnfilledFraction,
	}
}

// Order is an in-flight simulated request. Trade fires and cancellation
// serialize on one mutex, so a fire that already recorded always wins over a
// concurrent cancel and nothing records after cancellation completes.
type Order struct {
	ID         string
	APIKey     string
	BaseAsset  string
	QuoteAsset string
	Symbol     string
	Side       OrderSide
	Amount     float64
	Price      float64
	Created    time.Time

	plan        FillPlan
	tradeAmount float64

	mu     sync.Mutex
	status OrderStatus
	trades []Trade
	tasks  []*Task
}

func NewOrder(apiKey, baseAsset, quoteAsset string, side OrderSide, amount, price float64, plan FillPlan) *Order {
	return &Order{
		ID:          uuid.New().String(),
		APIKey:      apiKey,
		BaseAsset:   baseAsset,
		QuoteAsset:  quoteAsset,
		Symbol:      baseAsset + "_" + quoteAsset,
		Side:        side,
		Amount:      amount,
		Price:       price,
		Created:     time.Now(),
		plan:        plan,
		tradeAmount: amount * plan.FillPercent / float64(plan.NumberOfTrades),
		status:      StatusOpen,
	}
}

func (o *Order) NumberOfTrades() int {
	return o.plan.NumberOfTrades
}

func (o *Order) FillPercent() float64 {
	return o.plan.FillPercent
}

func (o *Order) Status() OrderStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Trades returns a copy of the recorded fills.
func (o *Order) Trades() []Trade {
	o.mu.Lock()
	defer o.mu.Unlock()
	trades := make([]Trade, len(o.trades))
	copy(trades, o.trades)
	return trades
}

// FilledAmount is the sum of recorded trade amounts.
func (o *Order) FilledAmount() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	var total float64
	for _, t := range o.trades {
		total += t.Amount
	}
	return total
}

// fillTotals returns the traded base amount and its quote value.
func (o *Order) fillTotals() (amount, total float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, t := range o.trades {
		amount += t.Amount
		total += t.Amount * t.Price
	}
	return amount, total
}

// recordFill appends the next scheduled trade and reports whether the order
// just became fully filled. Recording against a canceled or filled order is
// a no-op.
func (o *Order) recordFill() (*Trade, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status != StatusOpen {
		return nil, false
	}

	trade := Trade{
		ID:      uuid.New().String(),
		OrderID: o.ID,
		Amount:  o.tradeAmount,
		Price:   o.Price,
		Created: time.Now(),
	}
	o.trades = append(o.trades, trade)

	if len(o.trades) == o.plan.NumberOfTrades {
		o.status = StatusFilled
		return &trade, true
	}
	return &trade, false
}

func (o *Order) attachTask(t *Task) {
	o.mu.Lock()
	o.tasks = append(o.tasks, t)
	o.mu.Unlock()
}

// Cancel aborts all trades not yet dispatched. A trade fire that already
// began recording wins the race; everything after the status flip is blocked.
func (o *Order) Cancel() error {
	o.mu.Lock()
	if o.status != StatusOpen {
		status := o.status
		o.mu.Unlock()
		return &OrderStateError{OrderID: o.ID, Status: status}
	}
	o.status = StatusCanceled
	tasks := o.tasks
	o.tasks = nil
	o.mu.Unlock()

	for _, t := range tasks {
		t.Cancel()
	}
	return nil
}
