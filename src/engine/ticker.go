package engine

// Ticker holds a scripted sequence of price points and a playback cursor.
// It is not safe for concurrent use on its own; the owning Strategy's lock
// serializes all access.
type Ticker struct {
	values     []float64
	isInfinite bool
	cursor     int
}

func NewTicker(values []float64, isInfinite bool) *Ticker {
	return &Ticker{
		values:     values,
		isInfinite: isInfinite,
	}
}

// Current returns the price at the cursor.
func (t *Ticker) Current() float64 {
	return t.values[t.cursor]
}

func (t *Ticker) Cursor() int {
	return t.cursor
}

func (t *Ticker) Len() int {
	return len(t.values)
}

// AtLastIndex reports whether the cursor sits on the final price point.
// A single-point ticker is always at its last index.
func (t *Ticker) AtLastIndex() bool {
	return t.cursor == len(t.values)-1
}

// Advance moves the cursor forward by exactly one step. At the last index it
// is a no-op; cyclic playback goes through Reset instead.
func (t *Ticker) Advance() {
	if t.cursor < len(t.values)-1 {
		t.cursor++
	}
}

func (t *Ticker) Reset() {
	t.cursor = 0
}
