package engine

import "sync"

// AssetBalance splits one asset's holdings into the unreserved portion and
// the portion frozen for open orders.
type AssetBalance struct {
	Available float64 `json:"available"`
	Frozen    float64 `json:"frozen"`
}

// Account is one simulated identity's per-asset ledger. A single mutex
// serializes every mutation so concurrent order placement and settlement
// touching the same asset never lose updates.
type Account struct {
	APIKey string

	mu       sync.Mutex
	balances map[string]AssetBalance
}

func NewAccount(apiKey string, assets []string, initialBalance float64) *Account {
	balances := make(map[string]AssetBalance, len(assets))
	for _, asset := range assets {
		balances[asset] = AssetBalance{Available: initialBalance}
	}
	return &Account{
		APIKey:   apiKey,
		balances: balances,
	}
}

// Snapshot returns a copy of the ledger suitable for push delivery.
func (a *Account) Snapshot() map[string]AssetBalance {
	a.mu.Lock()
	defer a.mu.Unlock()
	snapshot := make(map[string]AssetBalance, len(a.balances))
	for asset, balance := range a.balances {
		snapshot[asset] = balance
	}
	return snapshot
}

// reserve moves amount from available to frozen, failing when the available
// balance cannot cover it. Balances never go negative.
func (a *Account) reserve(asset string, amount float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	balance := a.balances[asset]
	if balance.Available < amount {
		return &InsufficientBalanceError{
			APIKey:    a.APIKey,
			Asset:     asset,
			Requested: amount,
			Available: balance.Available,
		}
	}
	balance.Available -= amount
	balance.Frozen += amount
	a.balances[asset] = balance
	return nil
}

// balanceDelta is one settlement mutation against a single asset.
type balanceDelta struct {
	asset     string
	available float64
	frozen    float64
}

// apply commits a group of settlement mutations atomically.
func (a *Account) apply(deltas []balanceDelta) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, d := range deltas {
		balance := a.balances[d.asset]
		balance.Available += d.available
		balance.Frozen += d.frozen
		a.balances[d.asset] = balance
	}
}
