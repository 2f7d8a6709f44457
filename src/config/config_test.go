package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Expected config write to succeed, got: %v", err)
	}
	return path
}

const validConfig = `
exchange:
  name: test-exchange
  initial_balance: 250.5
  check_period: 2s
  order_fill_delay: 5s

server:
  port: 9090
  ws_port: 9091

logging:
  level: debug
  format: json

strategies:
  - name: btc-ramp
    symbol: BTC_USD
    ticker: [100.0, 101.5, 103.0]
    is_infinite: false
    trigger: { buys: 1, sells: 0 }
    stop_trigger: { buys: 1, sells: 1 }
    description: ramp
  - name: eth-cycle
    symbol: ETH_USD
    ticker: [300.0, 301.0]
    is_infinite: true
`

func TestLoadParsesFullConfig(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Expected load to succeed, got: %v", err)
	}

	if cfg.Exchange.Name != "test-exchange" {
		t.Errorf("Expected exchange name test-exchange, got: %v", cfg.Exchange.Name)
	}
	if cfg.Exchange.InitialBalance != 250.5 {
		t.Errorf("Expected initial balance 250.5, got: %v", cfg.Exchange.InitialBalance)
	}
	if cfg.Exchange.CheckPeriod != 2*time.Second {
		t.Errorf("Expected check period 2s, got: %v", cfg.Exchange.CheckPeriod)
	}
	if cfg.Exchange.OrderFillDelay != 5*time.Second {
		t.Errorf("Expected order fill delay 5s, got: %v", cfg.Exchange.OrderFillDelay)
	}
	if cfg.Server.Port != 9090 || cfg.Server.WSPort != 9091 {
		t.Errorf("Expected ports 9090/9091, got: %d/%d", cfg.Server.Port, cfg.Server.WSPort)
	}

	if len(cfg.Strategies) != 2 {
		t.Fatalf("Expected 2 strategies, got: %d", len(cfg.Strategies))
	}
	btc := cfg.Strategies[0]
	if btc.Symbol != "BTC_USD" || len(btc.Ticker) != 3 || btc.Ticker[1] != 101.5 {
		t.Errorf("Expected BTC_USD ticker [100 101.5 103], got: %+v", btc)
	}
	if btc.Trigger.Buys != 1 || btc.StopTrigger.Sells != 1 {
		t.Errorf("Expected trigger {1,0} and stop {1,1}, got: %+v / %+v", btc.Trigger, btc.StopTrigger)
	}
	if !cfg.Strategies[1].IsInfinite {
		t.Error("Expected eth-cycle to be infinite")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "exchange:\n  name: defaults-only\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Expected load to succeed, got: %v", err)
	}

	if cfg.Exchange.InitialBalance != 1.0 {
		t.Errorf("Expected default initial balance 1.0, got: %v", cfg.Exchange.InitialBalance)
	}
	if cfg.Exchange.CheckPeriod != 10*time.Second {
		t.Errorf("Expected default check period 10s, got: %v", cfg.Exchange.CheckPeriod)
	}
	if cfg.Exchange.OrderFillDelay != 15*time.Second {
		t.Errorf("Expected default order fill delay 15s, got: %v", cfg.Exchange.OrderFillDelay)
	}
	if cfg.Server.Port != 8080 || cfg.Server.WSPort != 8081 {
		t.Errorf("Expected default ports 8080/8081, got: %d/%d", cfg.Server.Port, cfg.Server.WSPort)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Expected default logging info/json, got: %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("MOCKEX_SERVER_PORT", "3000")

	path := writeConfig(t, validConfig)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Expected load to succeed, got: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("Expected env override port 3000, got: %d", cfg.Server.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Expected an error for a missing config file")
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "missing exchange name",
			mutate:  func(c *Config) { c.Exchange.Name = "" },
			wantSub: "exchange.name",
		},
		{
			name:    "negative initial balance",
			mutate:  func(c *Config) { c.Exchange.InitialBalance = -1 },
			wantSub: "initial_balance",
		},
		{
			name:    "malformed symbol",
			mutate:  func(c *Config) { c.Strategies[0].Symbol = "BTCUSD" },
			wantSub: "BASE_QUOTE",
		},
		{
			name:    "duplicate name",
			mutate:  func(c *Config) { c.Strategies[1].Name = c.Strategies[0].Name },
			wantSub: "duplicate name",
		},
		{
			name: "duplicate symbol",
			mutate: func(c *Config) {
				c.Strategies[1].Symbol = c.Strategies[0].Symbol
			},
			wantSub: "duplicate symbol",
		},
		{
			name:    "empty ticker",
			mutate:  func(c *Config) { c.Strategies[0].Ticker = nil },
			wantSub: "ticker",
		},
		{
			name:    "negative trigger count",
			mutate:  func(c *Config) { c.Strategies[0].Trigger.Buys = -1 },
			wantSub: "trigger counts",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := baseConfig()
			tc.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Expected validation to fail")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("Expected error mentioning %q, got: %v", tc.wantSub, err)
			}
		})
	}
}

func baseConfig() *Config {
	return &Config{
		Exchange: ExchangeConfig{
			Name:           "test",
			InitialBalance: 1,
			CheckPeriod:    time.Second,
			OrderFillDelay: time.Second,
		},
		Strategies: []StrategyConfig{
			{Name: "a", Symbol: "BTC_USD", Ticker: []float64{1}},
			{Name: "b", Symbol: "ETH_USD", Ticker: []float64{1}},
		},
	}
}
