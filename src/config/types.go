package config

import (
	"fmt"
	"strings"
	"time"
)

// Config aggregates everything the simulator reads at startup.
type Config struct {
	Exchange   ExchangeConfig   `mapstructure:"exchange"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Strategies []StrategyConfig `mapstructure:"strategies"`
}

// ExchangeConfig holds the exchange identity and simulation tunables.
type ExchangeConfig struct {
	Name           string        `mapstructure:"name"`
	InitialBalance float64       `mapstructure:"initial_balance"`
	CheckPeriod    time.Duration `mapstructure:"check_period"`
	OrderFillDelay time.Duration `mapstructure:"order_fill_delay"`
}

type ServerConfig struct {
	Port   int `mapstructure:"port"`
	WSPort int `mapstructure:"ws_port"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// TriggerConfig is an exact-match target on a strategy's buy/sell counters.
type TriggerConfig struct {
	Buys  int `mapstructure:"buys"`
	Sells int `mapstructure:"sells"`
}

// StrategyConfig is one scripted test scenario: a symbol, its price
// sequence and the trigger/stop conditions.
type StrategyConfig struct {
	Name        string        `mapstructure:"name"`
	Symbol      string        `mapstructure:"symbol"`
	Ticker      []float64     `mapstructure:"ticker"`
	IsInfinite  bool          `mapstructure:"is_infinite"`
	Trigger     TriggerConfig `mapstructure:"trigger"`
	StopTrigger TriggerConfig `mapstructure:"stop_trigger"`
	Description string        `mapstructure:"description"`
}

func (c *Config) Validate() error {
	if c.Exchange.Name == "" {
		return fmt.Errorf("exchange.name is required")
	}
	if c.Exchange.InitialBalance < 0 {
		return fmt.Errorf("exchange.initial_balance must not be negative")
	}

	names := make(map[string]struct{}, len(c.Strategies))
	symbols := make(map[string]struct{}, len(c.Strategies))
	for i, s := range c.Strategies {
		if s.Name == "" {
			return fmt.Errorf("strategies[%d]: name is required", i)
		}
		if _, dup := names[s.Name]; dup {
			return fmt.Errorf("strategies[%d]: duplicate name %q", i, s.Name)
		}
		names[s.Name] = struct{}{}

		parts := strings.Split(s.Symbol, "_")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return fmt.Errorf("strategies[%d] %q: symbol %q is not in BASE_QUOTE form", i, s.Name, s.Symbol)
		}
		if _, dup := symbols[s.Symbol]; dup {
			return fmt.Errorf("strategies[%d] %q: duplicate symbol %q", i, s.Name, s.Symbol)
		}
		symbols[s.Symbol] = struct{}{}

		if len(s.Ticker) == 0 {
			return fmt.Errorf("strategies[%d] %q: ticker must contain at least one price", i, s.Name)
		}
		if s.Trigger.Buys < 0 || s.Trigger.Sells < 0 || s.StopTrigger.Buys < 0 || s.StopTrigger.Sells < 0 {
			return fmt.Errorf("strategies[%d] %q: trigger counts must not be negative", i, s.Name)
		}
	}
	return nil
}
