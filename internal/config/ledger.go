package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// LedgerConfig tunes the ledger aggregation. Amounts in any other currency
// are ignored by the aggregator.
type LedgerConfig struct {
	Currency string `mapstructure:"currency"`
}

func DefaultLedgerConfig() LedgerConfig {
	return LedgerConfig{
		Currency: "ICA",
	}
}

// LedgerConfigHolder keeps the current ledger config and hot-reloads it from
// an optional ledger.yml file.
type LedgerConfigHolder struct {
	current atomic.Value // holds LedgerConfig
}

func NewLedgerConfigHolder() (*LedgerConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("ledger")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/tradewind/config") // Volume-mounted config
	v.AddConfigPath("/etc/tradewind")            // System config
	v.AddConfigPath(".")                         // Current directory (dev mode)

	v.SetEnvPrefix("TRADEWIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultLedgerConfig()
	v.SetDefault("ledger.currency", defaults.Currency)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg LedgerConfig
	if err := v.UnmarshalKey("ledger", &cfg); err != nil {
		return nil, err
	}
	if err := validateLedgerConfig(cfg); err != nil {
		return nil, err
	}

	holder := &LedgerConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated LedgerConfig
		if err := v.UnmarshalKey("ledger", &updated); err != nil {
			log.Printf("[ledger-config] reload failed: %v", err)
			return
		}
		if err := validateLedgerConfig(updated); err != nil {
			log.Printf("[ledger-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[ledger-config] reloaded (currency=%s)", updated.Currency)
	})

	return holder, nil
}

// Current returns the active ledger config.
func (h *LedgerConfigHolder) Current() LedgerConfig {
	if h == nil {
		return DefaultLedgerConfig()
	}
	cfg, ok := h.current.Load().(LedgerConfig)
	if !ok {
		return DefaultLedgerConfig()
	}
	return cfg
}

func validateLedgerConfig(cfg LedgerConfig) error {
	if strings.TrimSpace(cfg.Currency) == "" {
		return errors.New("ledger currency must not be empty")
	}
	return nil
}
