package store

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"spot-trader/internal/indicator"
	"spot-trader/internal/types"
)

const (
	VariantConsecutive = "CONSECUTIVE"
	VariantAlgorithmic = "ALGORITHMIC"

	CandleStoreMemory = "MEMORY"
	CandleStoreRedis  = "REDIS"

	AdvisorNone   = "NONE"
	AdvisorOpenAI = "OPENAI"

	AdvisorModeVeto  = "VETO"
	AdvisorModeForce = "FORCE"

	TrendLong  = "LONG"
	TrendShort = "SHORT"
)

type Config struct {
	PollSeconds int      `yaml:"poll_seconds"`
	Variant     string   `yaml:"variant"`
	Timeframes  []string `yaml:"timeframes"`
	MaxCandles  int      `yaml:"max_candles"`
	CandleStore struct {
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr      string `yaml:"addr"`
			Password  string `yaml:"password"`
			DB        int    `yaml:"db"`
			KeyPrefix string `yaml:"key_prefix"`
		} `yaml:"redis"`
	} `yaml:"candle_store"`
	Feed struct {
		Enabled bool   `yaml:"enabled"`
		URL     string `yaml:"url"`
	} `yaml:"feed"`
	JournalPath string `yaml:"journal_path"`
	APIAddr     string `yaml:"api_addr"`
	Advisor     struct {
		Provider      string  `yaml:"provider"`
		Mode          string  `yaml:"mode"`
		MinConfidence float64 `yaml:"min_confidence"`
		Model         string  `yaml:"model"`
		MaxTokens     int     `yaml:"max_tokens"`
		Temperature   float32 `yaml:"temperature"`
		System        string  `yaml:"system"`
		Schema        string  `yaml:"schema"`
		BaseURL       string  `yaml:"base_url"`
	} `yaml:"advisor"`
	Paper struct {
		SpreadBps     float64                   `yaml:"spread_bps"`
		FeePercentage float64                   `yaml:"fee_percentage"`
		Balances      map[string]types.Holdings `yaml:"balances"`
	} `yaml:"paper"`
	Symbols map[string]*SymbolConfig `yaml:"symbols"`
}

// SymbolConfig is the static trading configuration of one pair.
// Fields mutated at runtime (weights, trend, thresholds, lock) are seeded from here into engine.SymbolState.
type SymbolConfig struct {
	Base               string            `yaml:"base"`
	Quote              string            `yaml:"quote"`
	AgreementThreshold float64           `yaml:"agreement_threshold"`
	TradeFeePercentage float64           `yaml:"trade_fee_percentage"`
	MinHoldHours       float64           `yaml:"min_hold_hours"`
	Quantity           float64           `yaml:"quantity"`
	Trend              string            `yaml:"trend"`
	MinimumBuy         float64           `yaml:"minimum_buy"`
	MinimumSell        float64           `yaml:"minimum_sell"`
	Filter             types.Filter      `yaml:"filter"`
	TakeProfit         TakeProfitConfig  `yaml:"take_profit"`
	StopLoss           StopLossConfig    `yaml:"stop_loss"`
	Consecutive        ConsecutiveConfig `yaml:"consecutive"`
	Indicators         []IndicatorConfig `yaml:"indicators"`
}

type TakeProfitConfig struct {
	Enabled bool    `yaml:"enabled"`
	Percent float64 `yaml:"percent"`
}

type StopLossConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Offset       float64 `yaml:"offset"`
	AgingPerHour float64 `yaml:"aging_per_hour"`
}

type ConsecutiveConfig struct {
	Target     types.Action `yaml:"target"`
	FlipTarget bool         `yaml:"flip_target"`
}

// IndicatorConfig configures one indicator vote.
type IndicatorConfig = indicator.Config

// SymbolNames returns the configured symbols in sorted order.
func (c *Config) SymbolNames() []string {
	names := make([]string, 0, len(c.Symbols))
	for s := range c.Symbols {
		names = append(names, s)
	}
	sort.Strings(names)
	return names
}

func (c *Config) Validate() error {
	if c.Variant != VariantConsecutive && c.Variant != VariantAlgorithmic {
		return fmt.Errorf("invalid variant '%s': must be '%s' or '%s'", c.Variant, VariantConsecutive, VariantAlgorithmic)
	}
	if len(c.Timeframes) == 0 {
		return errors.New("timeframes cannot be empty")
	}
	if c.CandleStore.Kind != CandleStoreMemory && c.CandleStore.Kind != CandleStoreRedis {
		return fmt.Errorf("invalid candle_store.kind '%s': must be '%s' or '%s'", c.CandleStore.Kind, CandleStoreMemory, CandleStoreRedis)
	}
	if c.CandleStore.Kind == CandleStoreRedis && c.CandleStore.Redis.Addr == "" {
		return errors.New("candle_store.redis.addr is required for REDIS")
	}
	if c.Feed.Enabled && c.Feed.URL == "" {
		return errors.New("feed.url is required when feed is enabled")
	}
	switch c.Advisor.Provider {
	case AdvisorNone, AdvisorOpenAI:
	default:
		return fmt.Errorf("invalid advisor.provider '%s'", c.Advisor.Provider)
	}
	if c.Advisor.Mode != AdvisorModeVeto && c.Advisor.Mode != AdvisorModeForce {
		return fmt.Errorf("invalid advisor.mode '%s': must be '%s' or '%s'", c.Advisor.Mode, AdvisorModeVeto, AdvisorModeForce)
	}
	if c.Advisor.MinConfidence < 0 || c.Advisor.MinConfidence > 1 {
		return fmt.Errorf("advisor.min_confidence must be between 0-1, got %.2f", c.Advisor.MinConfidence)
	}
	if len(c.Symbols) == 0 {
		return errors.New("symbols cannot be empty")
	}
	for _, name := range c.SymbolNames() {
		if err := c.Symbols[name].Validate(); err != nil {
			return fmt.Errorf("symbol %s: %w", name, err)
		}
	}
	return nil
}

func (s *SymbolConfig) Validate() error {
	if s == nil {
		return errors.New("missing configuration")
	}
	if s.AgreementThreshold < 0 || s.AgreementThreshold > 100 {
		return fmt.Errorf("agreement_threshold must be between 0-100, got %.2f", s.AgreementThreshold)
	}
	if s.Trend != TrendLong && s.Trend != TrendShort {
		return fmt.Errorf("trend must be '%s' or '%s', got '%s'", TrendLong, TrendShort, s.Trend)
	}
	if s.Filter.MinNotional < 0 || s.Filter.MaxNotional < 0 {
		return errors.New("filter notionals cannot be negative")
	}
	if s.Filter.MaxNotional > 0 && s.Filter.MaxNotional < s.Filter.MinNotional {
		return fmt.Errorf("filter.max_notional %.2f is below min_notional %.2f", s.Filter.MaxNotional, s.Filter.MinNotional)
	}
	switch s.Consecutive.Target {
	case "", types.ActionBuy, types.ActionSell:
	default:
		return fmt.Errorf("consecutive.target must be BUY, SELL or empty, got '%s'", s.Consecutive.Target)
	}
	if s.StopLoss.AgingPerHour < 0 {
		return fmt.Errorf("stop_loss.aging_per_hour cannot be negative, got %.4f", s.StopLoss.AgingPerHour)
	}
	if len(s.Indicators) == 0 {
		return errors.New("indicators cannot be empty")
	}
	seen := map[string]bool{}
	for _, ic := range s.Indicators {
		if ic.Name == "" {
			return errors.New("indicator name cannot be empty")
		}
		if seen[ic.Name] {
			return fmt.Errorf("indicator %s configured twice", ic.Name)
		}
		seen[ic.Name] = true
		if _, ok := indicator.Lookup(ic.Name); !ok {
			return fmt.Errorf("unknown indicator %s", ic.Name)
		}
		if math.IsNaN(ic.Weight) || ic.Weight < 0 {
			return fmt.Errorf("indicator %s: weight must be >= 0", ic.Name)
		}
	}
	return nil
}

// applyDefaults fills unset fields. Called before Validate.
func (c *Config) applyDefaults() {
	if c.PollSeconds == 0 {
		c.PollSeconds = 15
	}
	if c.Variant == "" {
		c.Variant = VariantConsecutive
	}
	c.Variant = strings.ToUpper(c.Variant)
	if c.MaxCandles == 0 {
		c.MaxCandles = 500
	}
	if c.CandleStore.Kind == "" {
		c.CandleStore.Kind = CandleStoreMemory
	}
	c.CandleStore.Kind = strings.ToUpper(c.CandleStore.Kind)
	if c.CandleStore.Redis.KeyPrefix == "" {
		c.CandleStore.Redis.KeyPrefix = "candles"
	}
	if c.JournalPath == "" {
		c.JournalPath = "data/journal.db"
	}
	if c.Advisor.Provider == "" {
		c.Advisor.Provider = AdvisorNone
	}
	c.Advisor.Provider = strings.ToUpper(c.Advisor.Provider)
	if c.Advisor.Mode == "" {
		c.Advisor.Mode = AdvisorModeVeto
	}
	c.Advisor.Mode = strings.ToUpper(c.Advisor.Mode)
	if c.Advisor.MaxTokens == 0 {
		c.Advisor.MaxTokens = 200
	}
	if c.Paper.SpreadBps == 0 {
		c.Paper.SpreadBps = 5
	}
	for name, s := range c.Symbols {
		if s == nil {
			continue
		}
		if s.Trend == "" {
			s.Trend = TrendLong
		}
		s.Trend = strings.ToUpper(s.Trend)
		s.Consecutive.Target = types.Action(strings.ToUpper(string(s.Consecutive.Target)))
		if s.Base == "" && s.Quote == "" {
			s.Base, s.Quote = SplitSymbol(name)
		}
		for i := range s.Indicators {
			s.Indicators[i].Name = strings.ToUpper(s.Indicators[i].Name)
			if s.Indicators[i].Weight == 0 {
				s.Indicators[i].Weight = 1
			}
		}
	}
}

var knownQuotes = []string{"USDT", "USDC", "FDUSD", "BUSD", "BTC", "ETH", "BNB", "EUR", "TRY"}

// SplitSymbol splits a concatenated pair such as BTCUSDT into base and quote.
func SplitSymbol(symbol string) (base, quote string) {
	s := strings.ToUpper(symbol)
	for _, q := range knownQuotes {
		if strings.HasSuffix(s, q) && len(s) > len(q) {
			return strings.TrimSuffix(s, q), q
		}
	}
	return s, ""
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(b)
}

// ParseConfig decodes YAML, applies defaults and validates.
func ParseConfig(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}
