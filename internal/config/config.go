package config

import (
	"fmt"
	"os"
	"time"

	"StakeSentinel/internal/numeric"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration. Amounts and rates are base-10
// integer strings in base units.
type Config struct {
	Accounts struct {
		Owner     string `yaml:"owner"`     // administers the balance ledger
		Authority string `yaml:"authority"` // adjusts reward rate and voting period floor
	} `yaml:"accounts"`
	Rewards struct {
		Rate     string `yaml:"rate"`     // reward units emitted per second
		Identity string `yaml:"identity"` // issuer identity registered on the balance ledger
	} `yaml:"rewards"`
	Governance struct {
		MinVotingPeriod time.Duration `yaml:"min_voting_period"`
		AutoFinalize    bool          `yaml:"auto_finalize"`
	} `yaml:"governance"`
	Schedule struct {
		CheckpointCron string `yaml:"checkpoint_cron"`
		SweepCron      string `yaml:"sweep_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Sim struct {
		Accounts int    `yaml:"accounts"`
		Deposit  string `yaml:"deposit"` // per-account deposit in base units
	} `yaml:"sim"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("LEDGER_OWNER"); v != "" {
		cfg.Accounts.Owner = v
	}
	if v := os.Getenv("LEDGER_AUTHORITY"); v != "" {
		cfg.Accounts.Authority = v
	}
	if v := os.Getenv("REWARD_RATE"); v != "" {
		cfg.Rewards.Rate = v
	}
	if v := os.Getenv("MIN_VOTING_PERIOD"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Governance.MinVotingPeriod = d
		}
	}
	if v := os.Getenv("CRON_CHECKPOINT"); v != "" {
		cfg.Schedule.CheckpointCron = v
	}
	if v := os.Getenv("CRON_SWEEP"); v != "" {
		cfg.Schedule.SweepCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	// Defaults
	if cfg.Accounts.Owner == "" {
		cfg.Accounts.Owner = "operator"
	}
	if cfg.Accounts.Authority == "" {
		cfg.Accounts.Authority = cfg.Accounts.Owner
	}
	if cfg.Rewards.Rate == "" {
		// 0.0000115 units/s at 18 decimals
		cfg.Rewards.Rate = "11500000000000"
	}
	if cfg.Rewards.Identity == "" {
		cfg.Rewards.Identity = "reward-ledger"
	}
	if cfg.Governance.MinVotingPeriod == 0 {
		cfg.Governance.MinVotingPeriod = 24 * time.Hour
	}
	if cfg.Schedule.CheckpointCron == "" {
		cfg.Schedule.CheckpointCron = "0 * * * * *"
	}
	if cfg.Schedule.SweepCron == "" {
		cfg.Schedule.SweepCron = "30 * * * * *"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/stake_sentinel.db"
	}
	if cfg.Sim.Accounts == 0 {
		cfg.Sim.Accounts = 3
	}
	if cfg.Sim.Deposit == "" {
		cfg.Sim.Deposit = "1000000000000000000" // 1.0 unit
	}

	return cfg, nil
}

// Validate checks that all required fields are set and parseable.
func (c *Config) Validate() error {
	if c.Accounts.Owner == "" {
		return fmt.Errorf("accounts.owner is required")
	}
	if c.Rewards.Identity == "" {
		return fmt.Errorf("rewards.identity is required")
	}
	rate, err := numeric.Parse(c.Rewards.Rate)
	if err != nil {
		return fmt.Errorf("rewards.rate: %w", err)
	}
	if rate.Sign() <= 0 {
		return fmt.Errorf("rewards.rate must be positive")
	}
	if _, err := numeric.Parse(c.Sim.Deposit); err != nil {
		return fmt.Errorf("sim.deposit: %w", err)
	}
	if c.Governance.MinVotingPeriod <= 0 {
		return fmt.Errorf("governance.min_voting_period must be positive")
	}
	return nil
}
