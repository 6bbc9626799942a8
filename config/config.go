package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/holiman/uint256"

	"fycore/native/auction"
)

const defaultFloorRay = "500000000000000000000000000" // one half

// Config carries the host-level settings for running the ledger core.
type Config struct {
	DataDir     string        `toml:"DataDir"`
	GenesisFile string        `toml:"GenesisFile"`
	Environment string        `toml:"Environment"`
	Auction     AuctionConfig `toml:"auction"`
}

// AuctionConfig configures the liquidation price decay.
type AuctionConfig struct {
	// DurationSeconds is the decay window length.
	DurationSeconds int64 `toml:"DurationSeconds"`
	// FloorRay is the terminal price fraction as a decimal RAY string.
	FloorRay string `toml:"FloorRay"`
}

// Load reads the configuration from the given path and applies defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s has unknown keys: %v", path, undecoded)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration with every field at its default.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./fycore-data"
	}
	if strings.TrimSpace(c.Environment) == "" {
		c.Environment = "local"
	}
	if c.Auction.DurationSeconds == 0 {
		c.Auction.DurationSeconds = 3600
	}
	if strings.TrimSpace(c.Auction.FloorRay) == "" {
		c.Auction.FloorRay = defaultFloorRay
	}
}

// Validate checks the configuration for values the engines cannot accept.
func (c *Config) Validate() error {
	if _, err := c.AuctionParams(); err != nil {
		return err
	}
	return nil
}

// AuctionParams converts the auction section into engine parameters.
func (c *Config) AuctionParams() (auction.Params, error) {
	floor, err := uint256.FromDecimal(strings.TrimSpace(c.Auction.FloorRay))
	if err != nil {
		return auction.Params{}, fmt.Errorf("config: auction FloorRay: %w", err)
	}
	params := auction.Params{
		Duration: time.Duration(c.Auction.DurationSeconds) * time.Second,
		FloorRay: floor,
	}
	if err := params.Validate(); err != nil {
		return auction.Params{}, fmt.Errorf("config: %w", err)
	}
	return params, nil
}
