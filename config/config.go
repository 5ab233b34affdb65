// Package config loads server configuration from the environment
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/effectiveacceleration/marketplace/internal/constants"
	"github.com/effectiveacceleration/marketplace/pkg/signing"
)

// Defaults
const (
	DefaultPort                 = "8080"
	DefaultFeeBps               = 1931
	DefaultCollateralLockPeriod = 24 * time.Hour
	DefaultSignatureWindow      = 5 * time.Minute
	// DefaultTreasury receives marketplace fees when no treasury is configured
	DefaultTreasury = "0x000000000000000000000000000000000000fee5"
)

// Config is the server configuration
type Config struct {
	Port     string
	LogLevel string

	DB DBConfig

	FeeBps               uint32
	Treasury             string
	CollateralLockPeriod time.Duration
	SignatureWindow      time.Duration
	FaucetEnabled        bool
}

// DBConfig holds database connection settings
type DBConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	SSLEnabled bool
}

// Load reads the configuration from environment variables, falling back to defaults
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault(constants.EnvServerPort, DefaultPort)
	v.SetDefault(constants.EnvLogLevel, "info")
	v.SetDefault(constants.EnvDBHost, "localhost")
	v.SetDefault(constants.EnvDBPort, 5432)
	v.SetDefault(constants.EnvDBUser, "postgres")
	v.SetDefault(constants.EnvDBPassword, "postgres")
	v.SetDefault(constants.EnvDBName, "postgres")
	v.SetDefault(constants.EnvDBSSLMode, "disable")
	v.SetDefault(constants.EnvMarketplaceFeeBps, DefaultFeeBps)
	v.SetDefault(constants.EnvMarketplaceTreasury, DefaultTreasury)
	v.SetDefault(constants.EnvCollateralLockPeriod, DefaultCollateralLockPeriod)
	v.SetDefault(constants.EnvSignatureWindow, DefaultSignatureWindow)
	v.SetDefault(constants.EnvFaucetEnabled, false)

	cfg := &Config{
		Port:     v.GetString(constants.EnvServerPort),
		LogLevel: v.GetString(constants.EnvLogLevel),
		DB: DBConfig{
			Host:       v.GetString(constants.EnvDBHost),
			Port:       v.GetInt(constants.EnvDBPort),
			User:       v.GetString(constants.EnvDBUser),
			Password:   v.GetString(constants.EnvDBPassword),
			Name:       v.GetString(constants.EnvDBName),
			SSLEnabled: v.GetString(constants.EnvDBSSLMode) == "enable",
		},
		FeeBps:               v.GetUint32(constants.EnvMarketplaceFeeBps),
		Treasury:             v.GetString(constants.EnvMarketplaceTreasury),
		CollateralLockPeriod: v.GetDuration(constants.EnvCollateralLockPeriod),
		SignatureWindow:      v.GetDuration(constants.EnvSignatureWindow),
		FaucetEnabled:        v.GetBool(constants.EnvFaucetEnabled),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and normalizes the treasury address
func (c *Config) Validate() error {
	if c.FeeBps > 10000 {
		return fmt.Errorf("%s must be at most 10000, got %d", constants.EnvMarketplaceFeeBps, c.FeeBps)
	}
	if c.Treasury == "" {
		return fmt.Errorf("%s cannot be empty", constants.EnvMarketplaceTreasury)
	}
	treasury, err := signing.NormalizeAddress(c.Treasury)
	if err != nil {
		return fmt.Errorf("%s: %w", constants.EnvMarketplaceTreasury, err)
	}
	c.Treasury = treasury
	if c.SignatureWindow <= 0 {
		return fmt.Errorf("%s must be positive", constants.EnvSignatureWindow)
	}
	return nil
}
