package engine

import (
	"math/rand"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultInitialBalance = 1.0
	defaultCheckPeriod    = 10 * time.Second
	defaultOrderFillDelay = 15 * time.Second
)

// Settings are the exchange-level simulation tunables.
type Settings struct {
	Name           string
	InitialBalance float64
	CheckPeriod    time.Duration
	OrderFillDelay time.Duration
}

// Exchange owns the active strategies and accounts, routes order placement,
// schedules the periodic strategy condition checks and applies balance
// deltas when orders resolve.
type Exchange struct {
	Name string

	mu         sync.RWMutex
	strategies map[string]*Strategy // keyed by symbol
	accounts   map[string]*Account
	orders     map[string]*Order

	sched    *Scheduler
	notifier Notifier

	initialBalance float64
	checkPeriod    time.Duration
	fillDelay      time.Duration

	rngMu    sync.Mutex
	rng      *rand.Rand
	fillPlan func() FillPlan

	ordersCreated  atomic.Int64
	ordersFilled   atomic.Int64
	ordersCanceled atomic.Int64
	tradesExecuted atomic.Int64
}

func NewExchange(settings Settings, sched *Scheduler, notifier Notifier) *Exchange {
	if settings.InitialBalance <= 0 {
		settings.InitialBalance = defaultInitialBalance
	}
	if settings.CheckPeriod <= 0 {
		settings.CheckPeriod = defaultCheckPeriod
	}
	if settings.OrderFillDelay <= 0 {
		settings.OrderFillDelay = defaultOrderFillDelay
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}

	e := &Exchange{
		Name:           settings.Name,
		strategies:     make(map[string]*Strategy),
		accounts:       make(map[string]*Account),
		orders:         make(map[string]*Order),
		sched:          sched,
		notifier:       notifier,
		initialBalance: settings.InitialBalance,
		checkPeriod:    settings.CheckPeriod,
		fillDelay:      settings.OrderFillDelay,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	e.fillPlan = func() FillPlan {
		e.rngMu.Lock()
		defer e.rngMu.Unlock()
		return randomFillPlan(e.rng)
	}
	return e
}

// IngestStrategy registers a strategy, derives its base and quote assets
// from the symbol, marks it READY and schedules its recurring condition
// check for the lifetime of the session.
func (e *Exchange) IngestStrategy(strategy *Strategy) error {
	parts := strings.Split(strategy.Symbol, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return &MalformedSymbolError{Symbol: strategy.Symbol}
	}
	strategy.BaseAsset = parts[0]
	strategy.QuoteAsset = parts[1]

	e.mu.Lock()
	if _, exists := e.strategies[strategy.Symbol]; exists {
		e.mu.Unlock()
		return &DuplicateStrategyError{Symbol: strategy.Symbol}
	}
	e.strategies[strategy.Symbol] = strategy
	e.mu.Unlock()

	strategy.markReady()

	log.Info().
		Str("exchange", e.Name).
		Str("strategy", strategy.Name).
		Str("symbol", strategy.Symbol).
		Str("base_asset", strategy.BaseAsset).
		Str("quote_asset", strategy.QuoteAsset).
		Msg("Strategy ingested")

	e.sched.Every(e.checkPeriod, func() {
		e.runStrategyCheck(strategy)
	})
	return nil
}

func (e *Exchange) runStrategyCheck(strategy *Strategy) {
	res := strategy.CheckConditions()

	if res.StatusChanged {
		log.Info().
			Str("strategy", strategy.Name).
			Str("status", string(res.Status)).
			Msg("Strategy status changed")
		e.notifier.StrategyStatusChanged(strategy.Name, res.Status, res.At)
	}
	if res.TickerMoved {
		e.notifier.TickerAdvanced(strategy.Name, strategy.Symbol, res.Price, res.Cursor)
	}
}

// AcceptAccount registers an api key, seeding every known asset at the
// initial balance. Accepting an already-known key changes nothing.
func (e *Exchange) AcceptAccount(apiKey string) {
	e.mu.Lock()
	if _, exists := e.accounts[apiKey]; exists {
		e.mu.Unlock()
		return
	}
	account := NewAccount(apiKey, e.assetsLocked(), e.initialBalance)
	e.accounts[apiKey] = account
	e.mu.Unlock()

	log.Info().
		Str("exchange", e.Name).
		Str("api_key", apiKey).
		Msg("Api key accepted")

	e.notifier.BalanceUpdated(apiKey, account.Snapshot())
}

// Assets returns the sorted union of base and quote assets across ingested
// strategies.
func (e *Exchange) Assets() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.assetsLocked()
}

func (e *Exchange) assetsLocked() []string {
	seen := make(map[string]struct{}, 2*len(e.strategies))
	for _, strategy := range e.strategies {
		seen[strategy.BaseAsset] = struct{}{}
		seen[strategy.QuoteAsset] = struct{}{}
	}
	assets := make([]string, 0, len(seen))
	for asset := range seen {
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	return assets
}

// CreateOrder prices an order against the strategy owning the symbol,
// reserves the account balance synchronously and schedules the randomized
// fill plan. Settlement happens asynchronously when the last trade fires.
func (e *Exchange) CreateOrder(apiKey, baseAsset, quoteAsset string, amount float64, orderType string) (*Order, error) {
	side := OrderSide(orderType)
	if side != SideBuy && side != SideSell {
		return nil, &InvalidOrderTypeError{OrderType: orderType}
	}
	if amount <= 0 {
		return nil, &InvalidAmountError{Amount: amount}
	}

	symbol := baseAsset + "_" + quoteAsset

	e.mu.RLock()
	strategy, hasStrategy := e.strategies[symbol]
	account, hasAccount := e.accounts[apiKey]
	e.mu.RUnlock()

	if !hasStrategy {
		return nil, &UnknownStrategyError{Symbol: symbol}
	}
	if !hasAccount {
		return nil, &UnknownAccountError{APIKey: apiKey}
	}

	price := strategy.CurrentPrice()
	order := NewOrder(apiKey, baseAsset, quoteAsset, side, amount, price, e.fillPlan())

	if side == SideBuy {
		if err := account.reserve(quoteAsset, price*amount); err != nil {
			return nil, err
		}
	} else {
		if err := account.reserve(baseAsset, amount); err != nil {
			return nil, err
		}
	}

	e.mu.Lock()
	e.orders[order.ID] = order
	e.mu.Unlock()
	e.ordersCreated.Add(1)

	log.Info().
		Str("order_id", order.ID).
		Str("api_key", apiKey).
		Str("symbol", symbol).
		Str("side", string(side)).
		Float64("amount", amount).
		Float64("price", price).
		Int("number_of_trades", order.NumberOfTrades()).
		Float64("fill_percent", order.FillPercent()).
		Msg("Order created")

	e.notifier.BalanceUpdated(apiKey, account.Snapshot())
	e.scheduleTrades(order, strategy)
	return order, nil
}

// scheduleTrades spreads the planned trades evenly across the fill window:
// the i-th trade fires at (i+1) * (fillDelay / numberOfTrades).
func (e *Exchange) scheduleTrades(order *Order, strategy *Strategy) {
	step := e.fillDelay / time.Duration(order.NumberOfTrades())
	for i := 0; i < order.NumberOfTrades(); i++ {
		delay := time.Duration(i+1) * step
		task := e.sched.After(delay, func() {
			e.fireTrade(order, strategy)
		})
		order.attachTask(task)
	}
}

func (e *Exchange) fireTrade(order *Order, strategy *Strategy) {
	trade, completed := order.recordFill()
	if trade == nil {
		// edge case: a fire racing a cancellation resolves to a no-op
		return
	}
	e.tradesExecuted.Add(1)

	log.Debug().
		Str("order_id", order.ID).
		Str("trade_id", trade.ID).
		Float64("amount", trade.Amount).
		Float64("price", trade.Price).
		Msg("Trade fired")

	if completed {
		e.settleOrder(order, strategy)
	}
}

// settleOrder applies the final balance settlement for a fully filled order
// and increments the owning strategy's counter. The full reservation is
// released; the unfilled remainder returns to the available balance.
func (e *Exchange) settleOrder(order *Order, strategy *Strategy) {
	e.mu.RLock()
	account, hasAccount := e.accounts[order.APIKey]
	e.mu.RUnlock()
	if !hasAccount {
		// account withdrawal is not modeled; a missing account here is a bug
		log.Error().
			Str("order_id", order.ID).
			Str("api_key", order.APIKey).
			Msg("Settlement against unknown account")
		return
	}

	account.apply(e.settlementDeltas(order))

	if order.Side == SideBuy {
		strategy.RecordBuy()
	} else {
		strategy.RecordSell()
	}
	e.ordersFilled.Add(1)

	filled := order.FilledAmount()
	log.Info().
		Str("order_id", order.ID).
		Str("api_key", order.APIKey).
		Str("side", string(order.Side)).
		Float64("filled_amount", filled).
		Msg("Order filled and settled")

	e.notifier.BalanceUpdated(order.APIKey, account.Snapshot())
	e.notifier.OrderResolved(OrderSummary{
		OrderID:      order.ID,
		APIKey:       order.APIKey,
		Symbol:       order.Symbol,
		Side:         order.Side,
		Status:       StatusFilled,
		Amount:       order.Amount,
		Price:        order.Price,
		FilledAmount: filled,
		Trades:       order.NumberOfTrades(),
	})
}

// settlementDeltas releases the original reservation and converts the traded
// portion. BUY: the traded base amount becomes available, the reservation is
// unfrozen and its untraded remainder returns to the available quote
// balance. SELL mirrors this on the base side.
func (e *Exchange) settlementDeltas(order *Order) []balanceDelta {
	tradedAmount, tradedTotal := order.fillTotals()

	if order.Side == SideBuy {
		reserved := order.Price * order.Amount
		return []balanceDelta{
			{asset: order.BaseAsset, available: tradedAmount},
			{asset: order.QuoteAsset, available: reserved - tradedTotal, frozen: -reserved},
		}
	}
	return []balanceDelta{
		{asset: order.BaseAsset, available: order.Amount - tradedAmount, frozen: -order.Amount},
		{asset: order.QuoteAsset, available: tradedTotal},
	}
}

// CancelOrder aborts the order's pending trades, settles whatever already
// fired and refunds the untraded reservation. Strategy counters only move
// for completed orders, so cancellation never touches them.
func (e *Exchange) CancelOrder(orderID string) error {
	e.mu.RLock()
	order, exists := e.orders[orderID]
	e.mu.RUnlock()
	if !exists {
		return &OrderNotFoundError{OrderID: orderID}
	}

	if err := order.Cancel(); err != nil {
		return err
	}

	e.mu.RLock()
	account, hasAccount := e.accounts[order.APIKey]
	e.mu.RUnlock()
	if hasAccount {
		account.apply(e.settlementDeltas(order))
		e.notifier.BalanceUpdated(order.APIKey, account.Snapshot())
	}
	e.ordersCanceled.Add(1)

	log.Info().
		Str("order_id", orderID).
		Str("symbol", order.Symbol).
		Int("trades_fired", len(order.Trades())).
		Msg("Order canceled")

	e.notifier.OrderResolved(OrderSummary{
		OrderID:      order.ID,
		APIKey:       order.APIKey,
		Symbol:       order.Symbol,
		Side:         order.Side,
		Status:       StatusCanceled,
		Amount:       order.Amount,
		Price:        order.Price,
		FilledAmount: order.FilledAmount(),
		Trades:       len(order.Trades()),
	})
	return nil
}

// Balance returns a copy of the account's ledger.
func (e *Exchange) Balance(apiKey string) (map[string]AssetBalance, error) {
	e.mu.RLock()
	account, exists := e.accounts[apiKey]
	e.mu.RUnlock()
	if !exists {
		return nil, &UnknownAccountError{APIKey: apiKey}
	}
	return account.Snapshot(), nil
}

func (e *Exchange) GetOrder(orderID string) (*Order, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	order, exists := e.orders[orderID]
	return order, exists
}

// StrategySnapshots lists the observable state of every ingested strategy,
// sorted by name.
func (e *Exchange) StrategySnapshots() []StrategySnapshot {
	e.mu.RLock()
	strategies := make([]*Strategy, 0, len(e.strategies))
	for _, strategy := range e.strategies {
		strategies = append(strategies, strategy)
	}
	e.mu.RUnlock()

	snapshots := make([]StrategySnapshot, 0, len(strategies))
	for _, strategy := range strategies {
		snapshots = append(snapshots, strategy.Snapshot())
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Name < snapshots[j].Name
	})
	return snapshots
}

// Stats exposes session counters for the metrics endpoint.
type Stats struct {
	Strategies     int
	Accounts       int
	OrdersCreated  int64
	OrdersFilled   int64
	OrdersCanceled int64
	OpenOrders     int64
	TradesExecuted int64
}

func (e *Exchange) Stats() Stats {
	e.mu.RLock()
	strategies := len(e.strategies)
	accounts := len(e.accounts)
	var open int64
	for _, order := range e.orders {
		if order.Status() == StatusOpen {
			open++
		}
	}
	e.mu.RUnlock()

	return Stats{
		Strategies:     strategies,
		Accounts:       accounts,
		OrdersCreated:  e.ordersCreated.Load(),
		OrdersFilled:   e.ordersFilled.Load(),
		OrdersCanceled: e.ordersCanceled.Load(),
		OpenOrders:     open,
		TradesExecuted: e.tradesExecuted.Load(),
	}
}
