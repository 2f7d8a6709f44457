package engine

import (
	"sync"
	"time"
)

type StrategyStatus string

const (
	StrategyInitialized          StrategyStatus = "INITIALIZED"
	StrategyReady                StrategyStatus = "READY"
	StrategyPriceChangeTriggered StrategyStatus = "PRICE_CHANGE_TRIGGERED"
	StrategyInfiniteLoop         StrategyStatus = "INFINITE_LOOP"
	StrategySucceeded            StrategyStatus = "SUCCEEDED"
	StrategyFailed               StrategyStatus = "FAILED"
)

// TriggerCondition is an exact-match target on the buy/sell counters, not a
// threshold.
type TriggerCondition struct {
	Buys  int
	Sells int
}

// Strategy pairs a symbol with a scripted ticker and the trigger protocol
// that drives its status state machine. All mutable state (cursor, counters,
// status, trigger flag) is serialized by one mutex so a periodic check and a
// concurrent order settlement never interleave non-atomically.
type Strategy struct {
	Name        string
	Symbol      string
	BaseAsset   string // derived from Symbol at ingestion
	QuoteAsset  string // derived from Symbol at ingestion
	Description string

	ticker      *Ticker
	trigger     TriggerCondition
	stopTrigger TriggerCondition
	isInfinite  bool

	mu              sync.Mutex
	isTriggered     bool
	status          StrategyStatus
	statusChangedAt time.Time
	buys            int
	sells           int
}

func NewStrategy(name, symbol, description string, ticker *Ticker, trigger, stopTrigger TriggerCondition, isInfinite bool) *Strategy {
	return &Strategy{
		Name:            name,
		Symbol:          symbol,
		Description:     description,
		ticker:          ticker,
		trigger:         trigger,
		stopTrigger:     stopTrigger,
		isInfinite:      isInfinite,
		status:          StrategyInitialized,
		statusChangedAt: time.Now(),
	}
}

// CheckResult reports what a periodic condition check changed, so the caller
// can push updates to subscribers.
type CheckResult struct {
	Status        StrategyStatus
	StatusChanged bool
	At            time.Time
	TickerMoved   bool
	Price         float64
	Cursor        int
}

// CheckConditions evaluates the trigger protocol once. Exactly one of the
// following happens per call: the infinite transition, the stop evaluation,
// a single cursor step, or the start-trigger evaluation. Terminal strategies
// (SUCCEEDED/FAILED) ignore further checks.
func (s *Strategy) CheckConditions() CheckResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StrategySucceeded || s.status == StrategyFailed {
		return CheckResult{Status: s.status, At: s.statusChangedAt, Price: s.ticker.Current(), Cursor: s.ticker.Cursor()}
	}

	var res CheckResult

	if s.isInfinite && !s.isTriggered {
		s.isTriggered = true
		s.setStatusLocked(StrategyInfiniteLoop)
		res.StatusChanged = true
	}

	if s.isTriggered {
		if s.ticker.AtLastIndex() {
			if !s.isInfinite {
				s.isTriggered = false
				if s.buys == s.stopTrigger.Buys && s.sells == s.stopTrigger.Sells {
					s.setStatusLocked(StrategySucceeded)
				} else {
					s.setStatusLocked(StrategyFailed)
				}
				res.StatusChanged = true
			} else {
				s.ticker.Reset()
				res.TickerMoved = true
			}
		} else {
			s.ticker.Advance()
			res.TickerMoved = true
		}
	} else if s.ticker.Cursor() == 0 {
		if s.buys == s.trigger.Buys && s.sells == s.trigger.Sells {
			s.isTriggered = true
			s.setStatusLocked(StrategyPriceChangeTriggered)
			res.StatusChanged = true
		}
	}

	res.Status = s.status
	res.At = s.statusChangedAt
	res.Price = s.ticker.Current()
	res.Cursor = s.ticker.Cursor()
	return res
}

func (s *Strategy) setStatusLocked(status StrategyStatus) {
	s.status = status
	s.statusChangedAt = time.Now()
}

// markReady is called once at ingestion, before any periodic check runs.
func (s *Strategy) markReady() {
	s.mu.Lock()
	s.setStatusLocked(StrategyReady)
	s.mu.Unlock()
}

// CurrentPrice returns the ticker value at the current cursor. This is the
// price snapshot used for order creation.
func (s *Strategy) CurrentPrice() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticker.Current()
}

func (s *Strategy) Status() (StrategyStatus, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.statusChangedAt
}

// Counts returns the completed-order counters.
func (s *Strategy) Counts() (buys, sells int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buys, s.sells
}

// RecordBuy increments the buy counter. Called once per completed BUY order,
// never per trade.
func (s *Strategy) RecordBuy() {
	s.mu.Lock()
	s.buys++
	s.mu.Unlock()
}

// RecordSell increments the sell counter. Called once per completed SELL
// order, never per trade.
func (s *Strategy) RecordSell() {
	s.mu.Lock()
	s.sells++
	s.mu.Unlock()
}

// StrategySnapshot is a point-in-time copy of the observable strategy state.
type StrategySnapshot struct {
	Name            string
	Symbol          string
	Description     string
	Status          StrategyStatus
	StatusChangedAt time.Time
	Buys            int
	Sells           int
	Price           float64
	Cursor          int
	IsInfinite      bool
}

func (s *Strategy) Snapshot() StrategySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StrategySnapshot{
		Name:            s.Name,
		Symbol:          s.Symbol,
		Description:     s.Description,
		Status:          s.status,
		StatusChangedAt: s.statusChangedAt,
		Buys:            s.buys,
		Sells:           s.sells,
		Price:           s.ticker.Current(),
		Cursor:          s.ticker.Cursor(),
		IsInfinite:      s.isInfinite,
	}
}
