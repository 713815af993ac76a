package extension

import "time"

// Config holds the Vault extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.vault" or "vault" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for vault routes (default: "/vault").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// InitialFunding is the vault's starting holdings in base units
	// (1 coin = 10^9 base units). Must be positive (default: 1 coin).
	InitialFunding int64 `json:"initial_funding" mapstructure:"initial_funding" yaml:"initial_funding"`

	// UnitDeposit is the only admissible deposit size in base units
	// (default: 0.5 coins).
	UnitDeposit int64 `json:"unit_deposit" mapstructure:"unit_deposit" yaml:"unit_deposit"`

	// AccountCap is the per-account recorded-balance ceiling in base units
	// (default: 1 coin).
	AccountCap int64 `json:"account_cap" mapstructure:"account_cap" yaml:"account_cap"`

	// GlobalCap locks deposits once accepting one would bring holdings to
	// this level or beyond, in base units (default: 2 coins).
	GlobalCap int64 `json:"global_cap" mapstructure:"global_cap" yaml:"global_cap"`

	// JournalBatchSize is the number of journal entries to buffer before
	// flushing to the store (default: 100).
	JournalBatchSize int `json:"journal_batch_size" mapstructure:"journal_batch_size" yaml:"journal_batch_size"`

	// JournalFlushInterval is how frequently the journal buffer is flushed
	// even if the batch size has not been reached (default: 5s).
	JournalFlushInterval time.Duration `json:"journal_flush_interval" mapstructure:"journal_flush_interval" yaml:"journal_flush_interval"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		InitialFunding:       1_000_000_000,
		UnitDeposit:          500_000_000,
		AccountCap:           1_000_000_000,
		GlobalCap:            2_000_000_000,
		JournalBatchSize:     100,
		JournalFlushInterval: 5 * time.Second,
	}
}
