package engine

import "testing"

func newReadyStrategy(ticker []float64, trigger, stop TriggerCondition, isInfinite bool) *Strategy {
	s := NewStrategy("test-strategy", "BTC_USD", "", NewTicker(ticker, isInfinite), trigger, stop, isInfinite)
	s.markReady()
	return s
}

func TestStrategyStartsInitialized(t *testing.T) {
	s := NewStrategy("s", "BTC_USD", "", NewTicker([]float64{100}, false), TriggerCondition{}, TriggerCondition{}, false)

	status, _ := s.Status()
	if status != StrategyInitialized {
		t.Errorf("Expected INITIALIZED, got: %v", status)
	}

	s.markReady()
	status, _ = s.Status()
	if status != StrategyReady {
		t.Errorf("Expected READY after ingestion, got: %v", status)
	}
}

func TestCheckWithoutTriggerMatchStaysReady(t *testing.T) {
	s := newReadyStrategy([]float64{100, 101}, TriggerCondition{Buys: 1}, TriggerCondition{}, false)

	res := s.CheckConditions()
	if res.Status != StrategyReady {
		t.Errorf("Expected READY, got: %v", res.Status)
	}
	if res.StatusChanged {
		t.Error("Expected no status change without a trigger match")
	}
	if res.Cursor != 0 {
		t.Errorf("Expected cursor to stay at 0, got: %d", res.Cursor)
	}
}

func TestTriggerMatchStartsPriceMovement(t *testing.T) {
	s := newReadyStrategy([]float64{100, 101, 102}, TriggerCondition{Buys: 1}, TriggerCondition{Buys: 1, Sells: 1}, false)

	s.RecordBuy()

	res := s.CheckConditions()
	if res.Status != StrategyPriceChangeTriggered {
		t.Errorf("Expected PRICE_CHANGE_TRIGGERED, got: %v", res.Status)
	}
	if !res.StatusChanged {
		t.Error("Expected status change to be reported")
	}
	// the triggering check does not advance the cursor yet
	if res.Cursor != 0 {
		t.Errorf("Expected cursor 0 on the triggering check, got: %d", res.Cursor)
	}

	res = s.CheckConditions()
	if !res.TickerMoved {
		t.Error("Expected the next check to advance the ticker")
	}
	if res.Cursor != 1 {
		t.Errorf("Expected cursor 1, got: %d", res.Cursor)
	}
	if res.Price != 101 {
		t.Errorf("Expected price 101, got: %v", res.Price)
	}
}

func TestTriggerOnlyEvaluatedAtCursorZero(t *testing.T) {
	s := newReadyStrategy([]float64{100, 101}, TriggerCondition{Buys: 1}, TriggerCondition{}, false)
	s.ticker.Advance()
	s.RecordBuy()

	res := s.CheckConditions()
	if res.Status != StrategyReady {
		t.Errorf("Expected READY when cursor is not at 0, got: %v", res.Status)
	}
}

func TestStopTriggerMatchSucceeds(t *testing.T) {
	// trigger {0,0} matches immediately; single-value ticker is always at its
	// last index, so the second check evaluates the stop trigger
	s := newReadyStrategy([]float64{100}, TriggerCondition{}, TriggerCondition{}, false)

	res := s.CheckConditions()
	if res.Status != StrategyPriceChangeTriggered {
		t.Fatalf("Expected PRICE_CHANGE_TRIGGERED, got: %v", res.Status)
	}

	res = s.CheckConditions()
	if res.Status != StrategySucceeded {
		t.Errorf("Expected SUCCEEDED, got: %v", res.Status)
	}
	if !res.StatusChanged {
		t.Error("Expected terminal transition to be reported")
	}
}

func TestStopTriggerMismatchFails(t *testing.T) {
	s := newReadyStrategy([]float64{100}, TriggerCondition{}, TriggerCondition{Buys: 5, Sells: 5}, false)

	s.CheckConditions()
	res := s.CheckConditions()
	if res.Status != StrategyFailed {
		t.Errorf("Expected FAILED on stop trigger mismatch, got: %v", res.Status)
	}
}

func TestTerminalStrategyIgnoresFurtherChecks(t *testing.T) {
	s := newReadyStrategy([]float64{100}, TriggerCondition{}, TriggerCondition{Buys: 5, Sells: 5}, false)

	s.CheckConditions()
	s.CheckConditions()
	_, failedAt := s.Status()

	res := s.CheckConditions()
	if res.Status != StrategyFailed {
		t.Errorf("Expected terminal status to persist, got: %v", res.Status)
	}
	if res.StatusChanged || res.TickerMoved {
		t.Error("Expected a terminal strategy check to change nothing")
	}
	if _, at := s.Status(); !at.Equal(failedAt) {
		t.Error("Expected status timestamp to be untouched after the terminal transition")
	}
}

func TestInfiniteStrategyTriggersAndAdvancesSameCheck(t *testing.T) {
	s := newReadyStrategy([]float64{100, 101, 102}, TriggerCondition{}, TriggerCondition{}, true)

	res := s.CheckConditions()
	if res.Status != StrategyInfiniteLoop {
		t.Errorf("Expected INFINITE_LOOP, got: %v", res.Status)
	}
	if !res.StatusChanged {
		t.Error("Expected status change to be reported")
	}
	// the infinite transition falls through to the cursor step in the same call
	if !res.TickerMoved || res.Cursor != 1 {
		t.Errorf("Expected cursor 1 after the first infinite check, got cursor %d moved %v", res.Cursor, res.TickerMoved)
	}
}

func TestInfiniteStrategyWrapsAtLastIndex(t *testing.T) {
	s := newReadyStrategy([]float64{100, 101, 102}, TriggerCondition{}, TriggerCondition{}, true)

	s.CheckConditions() // cursor 1
	s.CheckConditions() // cursor 2, last index

	res := s.CheckConditions()
	if res.Cursor != 0 {
		t.Errorf("Expected cursor to wrap to 0, got: %d", res.Cursor)
	}
	if res.Status != StrategyInfiniteLoop {
		t.Errorf("Expected INFINITE_LOOP to persist, got: %v", res.Status)
	}
	if res.StatusChanged {
		t.Error("Expected no status change on wrap")
	}
}

func TestCountersAreMonotonic(t *testing.T) {
	s := newReadyStrategy([]float64{100}, TriggerCondition{}, TriggerCondition{}, false)

	s.RecordBuy()
	s.RecordBuy()
	s.RecordSell()

	buys, sells := s.Counts()
	if buys != 2 || sells != 1 {
		t.Errorf("Expected counts (2, 1), got: (%d, %d)", buys, sells)
	}
}

func TestSnapshotReflectsState(t *testing.T) {
	s := newReadyStrategy([]float64{100, 200}, TriggerCondition{Buys: 1}, TriggerCondition{}, false)
	s.RecordBuy()
	s.CheckConditions()
	s.CheckConditions()

	snap := s.Snapshot()
	if snap.Status != StrategyPriceChangeTriggered {
		t.Errorf("Expected PRICE_CHANGE_TRIGGERED, got: %v", snap.Status)
	}
	if snap.Buys != 1 || snap.Sells != 0 {
		t.Errorf("Expected counts (1, 0), got: (%d, %d)", snap.Buys, snap.Sells)
	}
	if snap.Price != 200 || snap.Cursor != 1 {
		t.Errorf("Expected price 200 at cursor 1, got: %v at %d", snap.Price, snap.Cursor)
	}
}
