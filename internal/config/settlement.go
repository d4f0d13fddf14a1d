package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// SettlementConfig tunes the simulated gateway settlement step. Operators
// adjust these live while load-testing; changes apply without a restart.
type SettlementConfig struct {
	DelayMillis   int `mapstructure:"delayMillis"`
	TimeoutMillis int `mapstructure:"timeoutMillis"`
}

func DefaultSettlementConfig() SettlementConfig {
	return SettlementConfig{
		DelayMillis:   1000,
		TimeoutMillis: 5000,
	}
}

func (c SettlementConfig) Delay() time.Duration {
	return time.Duration(c.DelayMillis) * time.Millisecond
}

func (c SettlementConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMillis) * time.Millisecond
}

type SettlementConfigHolder struct {
	current atomic.Value // holds SettlementConfig
}

func NewSettlementConfigHolder() (*SettlementConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("settlement")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/musichub/config")
	v.AddConfigPath("/etc/musichub")
	v.AddConfigPath(".")

	v.SetEnvPrefix("MUSICHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultSettlementConfig()
		v.SetDefault("settlement.delayMillis", defaults.DelayMillis)
		v.SetDefault("settlement.timeoutMillis", defaults.TimeoutMillis)
	}

	var cfg SettlementConfig
	if err := v.UnmarshalKey("settlement", &cfg); err != nil {
		return nil, err
	}
	if err := validateSettlementConfig(cfg); err != nil {
		return nil, err
	}

	holder := &SettlementConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated SettlementConfig
		if err := v.UnmarshalKey("settlement", &updated); err != nil {
			log.Printf("[settlement-config] reload failed: %v", err)
			return
		}
		if err := validateSettlementConfig(updated); err != nil {
			log.Printf("[settlement-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[settlement-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticSettlementConfigHolder returns a holder pinned to the given
// config, with no file watching.
func NewStaticSettlementConfigHolder(cfg SettlementConfig) *SettlementConfigHolder {
	holder := &SettlementConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *SettlementConfigHolder) Get() SettlementConfig {
	return h.current.Load().(SettlementConfig)
}

func validateSettlementConfig(cfg SettlementConfig) error {
	if cfg.TimeoutMillis <= 0 {
		return errors.New("settlement.timeoutMillis must be positive")
	}
	if cfg.DelayMillis < 0 {
		return errors.New("settlement.delayMillis cannot be negative")
	}
	return nil
}
