// Package config loads and validates the sale daemon configuration.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/Alium-Finance/alium-collectible/core/types"
)

// Defaults applied when a field is omitted.
const (
	DefaultListenAddress = ":8645"
	DefaultDataDir       = "./saled-data"
	DefaultRatePerMinute = 600
	DefaultRateBurst     = 40
)

// StablecoinConfig registers one accepted payment asset.
type StablecoinConfig struct {
	Address  string `toml:"Address"`
	Name     string `toml:"Name"`
	Symbol   string `toml:"Symbol"`
	Decimals uint8  `toml:"Decimals"`
}

// CatalogTypeConfig seeds one collectible type in the registry.
type CatalogTypeConfig struct {
	NominalPrice uint64 `toml:"NominalPrice"`
	Supply       uint64 `toml:"Supply"`
	Info         string `toml:"Info"`
}

// SaleTypeConfig pairs a catalog type with its per-account purchase limit.
type SaleTypeConfig struct {
	TypeID   uint64 `toml:"TypeID"`
	BuyLimit uint64 `toml:"BuyLimit"`
}

// PublicSaleConfig wires the public sale engine.
type PublicSaleConfig struct {
	Address     string           `toml:"Address"`
	Types       []SaleTypeConfig `toml:"Types"`
	Stablecoins []string         `toml:"Stablecoins"`
}

// StrategicSaleConfig wires the strategic private sale engine.
type StrategicSaleConfig struct {
	Address     string   `toml:"Address"`
	Types       []uint64 `toml:"Types"`
	Stablecoins []string `toml:"Stablecoins"`
	WhiteList   []string `toml:"WhiteList"`
}

// ExchangerConfig wires the burn-for-reward exchanger.
type ExchangerConfig struct {
	Address string   `toml:"Address"`
	Types   []uint64 `toml:"Types"`
}

// Config is the daemon's TOML configuration.
type Config struct {
	ListenAddress      string              `toml:"ListenAddress"`
	DataDir            string              `toml:"DataDir"`
	Environment        string              `toml:"Environment"`
	Owner              string              `toml:"Owner"`
	Founder            string              `toml:"Founder"`
	RateLimitPerMinute float64             `toml:"RateLimitPerMinute"`
	RateLimitBurst     int                 `toml:"RateLimitBurst"`
	Stablecoins        []StablecoinConfig  `toml:"Stablecoins"`
	CatalogTypes       []CatalogTypeConfig `toml:"CatalogTypes"`
	PublicSale         PublicSaleConfig    `toml:"PublicSale"`
	StrategicSale      StrategicSaleConfig `toml:"StrategicSale"`
	Exchanger          ExchangerConfig     `toml:"Exchanger"`
}

// Load reads the TOML file at path, applies defaults and validates.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := &Config{}
	if err := toml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddress == "" {
		c.ListenAddress = DefaultListenAddress
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.RateLimitPerMinute <= 0 {
		c.RateLimitPerMinute = DefaultRatePerMinute
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = DefaultRateBurst
	}
}

// Validate checks addresses and wiring coherence.
func (c *Config) Validate() error {
	if c.Owner == "" {
		return errors.New("config: Owner is required")
	}
	if c.Founder == "" {
		return errors.New("config: Founder is required")
	}
	checks := map[string]string{
		"Owner":                 c.Owner,
		"Founder":               c.Founder,
		"PublicSale.Address":    c.PublicSale.Address,
		"StrategicSale.Address": c.StrategicSale.Address,
		"Exchanger.Address":     c.Exchanger.Address,
	}
	for field, value := range checks {
		if value == "" {
			continue
		}
		if _, err := types.ParseAddress(value); err != nil {
			return fmt.Errorf("config: %s: %w", field, err)
		}
	}
	for i, coin := range c.Stablecoins {
		if _, err := types.ParseAddress(coin.Address); err != nil {
			return fmt.Errorf("config: Stablecoins[%d].Address: %w", i, err)
		}
		if coin.Symbol == "" {
			return fmt.Errorf("config: Stablecoins[%d].Symbol is required", i)
		}
	}
	for i, member := range c.StrategicSale.WhiteList {
		if _, err := types.ParseAddress(member); err != nil {
			return fmt.Errorf("config: StrategicSale.WhiteList[%d]: %w", i, err)
		}
	}
	for _, assets := range [][]string{c.PublicSale.Stablecoins, c.StrategicSale.Stablecoins} {
		for _, asset := range assets {
			if _, err := types.ParseAddress(asset); err != nil {
				return fmt.Errorf("config: sale stablecoin %q: %w", asset, err)
			}
		}
	}
	return nil
}

// MustAddress parses a validated address field. It panics on malformed input
// and is meant for use after Validate has succeeded.
func MustAddress(s string) types.Address {
	addr, err := types.ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}
