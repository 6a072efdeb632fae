// Package config loads econsim settings from a YAML file and environment
// variables, and answers the two questions the pricing engine asks of it:
// which market group a world belongs to, and what a group's curve looks like.
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/talgya/econsim/internal/catalog"
	"github.com/talgya/econsim/internal/economy"
)

// DefaultGroup receives every unmapped world and backs every unset curve field.
const DefaultGroup = "default"

// Config represents the complete application configuration
type Config struct {
	Engine    EngineConfig    `mapstructure:"engine"`
	Simulator SimulatorConfig `mapstructure:"simulator"`
	World     WorldConfig     `mapstructure:"world_config"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Display   DisplayConfig   `mapstructure:"display"`
	Traffic   TrafficConfig   `mapstructure:"traffic"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// EngineConfig controls how fast simulated time runs.
type EngineConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"` // real time per sim-minute
	Speed        float64       `mapstructure:"speed"`
}

// SimulatorConfig holds the decay and autosave cadence, in sim time.
type SimulatorConfig struct {
	DecayInterval time.Duration `mapstructure:"decay_interval"`
	SaveInterval  time.Duration `mapstructure:"save_interval"`
}

// WorldConfig maps worlds to market groups and groups to curve parameters.
type WorldConfig struct {
	Groups      map[string][]string    `mapstructure:"groups"`
	GroupConfig map[string]GroupParams `mapstructure:"group_config"`
}

// GroupParams is a partial CurveParams. Nil fields fall back to the default group.
type GroupParams struct {
	BasePrice         *float64 `mapstructure:"base_price"`
	SellSteepness     *float64 `mapstructure:"sell_steepness"`
	BuySteepness      *float64 `mapstructure:"buy_steepness"`
	BuyAsymptoteSlope *float64 `mapstructure:"buy_asymptote_slope"`
	SellPriceFactor   *float64 `mapstructure:"sell_price_factor"`
	BuyPriceFactor    *float64 `mapstructure:"buy_price_factor"`
	BuyDecayPerDay    *float64 `mapstructure:"buy_decay_per_day"`
	SaleDecayPerDay   *float64 `mapstructure:"sale_decay_per_day"`
}

// CatalogConfig locates the item groups file.
type CatalogConfig struct {
	ItemsPath string `mapstructure:"items_path"`
}

// StorageConfig holds persistence configuration
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// DisplayConfig controls how prices are rounded for display and settlement.
type DisplayConfig struct {
	Decimals int32 `mapstructure:"decimals"`
}

// TrafficConfig drives the synthetic trade generator.
type TrafficConfig struct {
	Enabled   bool              `mapstructure:"enabled"`
	Seed      int64             `mapstructure:"seed"`
	Group     string            `mapstructure:"group"`
	Intensity float64           `mapstructure:"intensity"` // peak trades per good per tick
	Goods     []catalog.RawGood `mapstructure:"goods"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	// ECONSIM_STORAGE_DB_PATH overrides storage.db_path, and so on.
	v.SetEnvPrefix("ECONSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("engine.tick_interval", "1s")
	v.SetDefault("engine.speed", 1.0)

	v.SetDefault("simulator.decay_interval", "5m")
	v.SetDefault("simulator.save_interval", "5m")

	// Default group curve. A file that sets only some fields keeps the rest.
	v.SetDefault("world_config.group_config.default.base_price", 10.0)
	v.SetDefault("world_config.group_config.default.sell_steepness", 0.01)
	v.SetDefault("world_config.group_config.default.buy_steepness", 0.01)
	v.SetDefault("world_config.group_config.default.buy_asymptote_slope", 0.0)
	v.SetDefault("world_config.group_config.default.sell_price_factor", 1.0)
	v.SetDefault("world_config.group_config.default.buy_price_factor", 1.0)
	v.SetDefault("world_config.group_config.default.buy_decay_per_day", 0.1)
	v.SetDefault("world_config.group_config.default.sale_decay_per_day", 0.1)

	v.SetDefault("catalog.items_path", "configs/items.yaml")
	v.SetDefault("storage.db_path", "data/econsim.db")
	v.SetDefault("display.decimals", 2)

	v.SetDefault("traffic.enabled", false)
	v.SetDefault("traffic.seed", 42)
	v.SetDefault("traffic.group", DefaultGroup)
	v.SetDefault("traffic.intensity", 1.0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.Engine.TickInterval <= 0 {
		return fmt.Errorf("engine.tick_interval must be positive")
	}
	if !(c.Engine.Speed > 0) {
		return fmt.Errorf("engine.speed must be positive")
	}

	if err := wholeMinutes("simulator.decay_interval", c.Simulator.DecayInterval); err != nil {
		return err
	}
	if err := wholeMinutes("simulator.save_interval", c.Simulator.SaveInterval); err != nil {
		return err
	}

	if err := c.World.validate(); err != nil {
		return err
	}

	if c.Catalog.ItemsPath == "" {
		return fmt.Errorf("catalog.items_path is required")
	}
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}
	if c.Display.Decimals < 0 || c.Display.Decimals > 8 {
		return fmt.Errorf("display.decimals must be between 0 and 8")
	}

	if c.Traffic.Enabled {
		if c.Traffic.Group == "" {
			return fmt.Errorf("traffic.group is required when traffic is enabled")
		}
		if !(c.Traffic.Intensity > 0) {
			return fmt.Errorf("traffic.intensity must be positive when traffic is enabled")
		}
		if len(c.Traffic.Goods) == 0 {
			return fmt.Errorf("traffic.goods must contain at least one good when traffic is enabled")
		}
		for i, g := range c.Traffic.Goods {
			if g.Kind == "" {
				return fmt.Errorf("traffic.goods[%d].kind is required", i)
			}
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

func wholeMinutes(key string, d time.Duration) error {
	if d < time.Minute {
		return fmt.Errorf("%s must be at least 1 minute", key)
	}
	if d%time.Minute != 0 {
		return fmt.Errorf("%s must be a whole number of minutes", key)
	}
	return nil
}

func (w WorldConfig) validate() error {
	def, ok := w.GroupConfig[DefaultGroup]
	if !ok {
		return fmt.Errorf("world_config.group_config.%s is required", DefaultGroup)
	}
	if missing := def.missing(); len(missing) > 0 {
		return fmt.Errorf("world_config.group_config.%s is missing %s", DefaultGroup, strings.Join(missing, ", "))
	}

	for _, group := range sortedKeys(w.GroupConfig) {
		if err := validateParams(group, w.resolve(group)); err != nil {
			return err
		}
	}

	owner := make(map[string]string)
	for _, group := range sortedKeys(w.Groups) {
		for _, world := range w.Groups[group] {
			if world == "" {
				return fmt.Errorf("world_config.groups.%s contains an empty world name", group)
			}
			if prev, dup := owner[world]; dup {
				return fmt.Errorf("world %q is in both world_config.groups.%s and world_config.groups.%s", world, prev, group)
			}
			owner[world] = group
		}
	}

	return nil
}

func validateParams(group string, p economy.CurveParams) error {
	prefix := "world_config.group_config." + group
	switch {
	case p.BasePrice < 0:
		return fmt.Errorf("%s.base_price must not be negative", prefix)
	case !(p.SellSteepness > 0):
		return fmt.Errorf("%s.sell_steepness must be positive", prefix)
	case !(p.BuySteepness > 0):
		return fmt.Errorf("%s.buy_steepness must be positive", prefix)
	case p.BuyAsymptoteSlope < 0:
		return fmt.Errorf("%s.buy_asymptote_slope must not be negative", prefix)
	case p.SellPriceFactor < 0:
		return fmt.Errorf("%s.sell_price_factor must not be negative", prefix)
	case p.BuyPriceFactor < 0:
		return fmt.Errorf("%s.buy_price_factor must not be negative", prefix)
	case p.BuyDecayPerDay < 0 || p.BuyDecayPerDay >= 1:
		return fmt.Errorf("%s.buy_decay_per_day must be in [0, 1)", prefix)
	case p.SaleDecayPerDay < 0 || p.SaleDecayPerDay >= 1:
		return fmt.Errorf("%s.sale_decay_per_day must be in [0, 1)", prefix)
	}
	return nil
}

// GroupOf returns the market group a world trades in.
func (c *Config) GroupOf(world string) string {
	for group, worlds := range c.World.Groups {
		for _, w := range worlds {
			if w == world {
				return group
			}
		}
	}
	return DefaultGroup
}

// CurveParams returns a group's curve with unset fields taken from the
// default group. Unknown groups get the default curve.
func (c *Config) CurveParams(group string) economy.CurveParams {
	return c.World.resolve(group)
}

// Groups returns every group named in the configuration, sorted.
func (c *Config) Groups() []string {
	seen := map[string]bool{DefaultGroup: true}
	for g := range c.World.Groups {
		seen[g] = true
	}
	for g := range c.World.GroupConfig {
		seen[g] = true
	}
	return sortedKeys(seen)
}

// DecayIntervalSeconds is the decay interval as the scheduler consumes it.
func (c *Config) DecayIntervalSeconds() float64 {
	return c.Simulator.DecayInterval.Seconds()
}

func (w WorldConfig) resolve(group string) economy.CurveParams {
	def := w.GroupConfig[DefaultGroup]
	own := w.GroupConfig[group]
	return economy.CurveParams{
		BasePrice:         pick(own.BasePrice, def.BasePrice),
		SellSteepness:     pick(own.SellSteepness, def.SellSteepness),
		BuySteepness:      pick(own.BuySteepness, def.BuySteepness),
		BuyAsymptoteSlope: pick(own.BuyAsymptoteSlope, def.BuyAsymptoteSlope),
		SellPriceFactor:   pick(own.SellPriceFactor, def.SellPriceFactor),
		BuyPriceFactor:    pick(own.BuyPriceFactor, def.BuyPriceFactor),
		BuyDecayPerDay:    pick(own.BuyDecayPerDay, def.BuyDecayPerDay),
		SaleDecayPerDay:   pick(own.SaleDecayPerDay, def.SaleDecayPerDay),
	}
}

func (p GroupParams) missing() []string {
	fields := []struct {
		key string
		v   *float64
	}{
		{"base_price", p.BasePrice},
		{"sell_steepness", p.SellSteepness},
		{"buy_steepness", p.BuySteepness},
		{"buy_asymptote_slope", p.BuyAsymptoteSlope},
		{"sell_price_factor", p.SellPriceFactor},
		{"buy_price_factor", p.BuyPriceFactor},
		{"buy_decay_per_day", p.BuyDecayPerDay},
		{"sale_decay_per_day", p.SaleDecayPerDay},
	}
	var out []string
	for _, f := range fields {
		if f.v == nil {
			out = append(out, f.key)
		}
	}
	return out
}

func pick(own, def *float64) float64 {
	if own != nil {
		return *own
	}
	if def != nil {
		return *def
	}
	return 0
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
