package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/effectiveacceleration/marketplace/internal/constants"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, uint32(DefaultFeeBps), cfg.FeeBps)
	assert.Equal(t, DefaultTreasury, cfg.Treasury)
	assert.Equal(t, DefaultCollateralLockPeriod, cfg.CollateralLockPeriod)
	assert.Equal(t, DefaultSignatureWindow, cfg.SignatureWindow)
	assert.False(t, cfg.FaucetEnabled)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.False(t, cfg.DB.SSLEnabled)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(constants.EnvServerPort, "9090")
	t.Setenv(constants.EnvMarketplaceFeeBps, "250")
	t.Setenv(constants.EnvCollateralLockPeriod, "2h")
	t.Setenv(constants.EnvFaucetEnabled, "true")
	t.Setenv(constants.EnvDBPort, "6543")
	t.Setenv(constants.EnvDBSSLMode, "enable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, uint32(250), cfg.FeeBps)
	assert.Equal(t, 2*time.Hour, cfg.CollateralLockPeriod)
	assert.True(t, cfg.FaucetEnabled)
	assert.Equal(t, 6543, cfg.DB.Port)
	assert.True(t, cfg.DB.SSLEnabled)
}

func TestValidateNormalizesTreasury(t *testing.T) {
	cfg := &Config{
		FeeBps:          DefaultFeeBps,
		Treasury:        "0x00000000000000000000000000000000000000AB",
		SignatureWindow: DefaultSignatureWindow,
	}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "0x00000000000000000000000000000000000000ab", cfg.Treasury)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid",
			modify: func(*Config) {},
		},
		{
			name:    "fee above 100%",
			modify:  func(c *Config) { c.FeeBps = 10001 },
			wantErr: constants.EnvMarketplaceFeeBps,
		},
		{
			name:    "empty treasury",
			modify:  func(c *Config) { c.Treasury = "" },
			wantErr: constants.EnvMarketplaceTreasury,
		},
		{
			name:    "malformed treasury",
			modify:  func(c *Config) { c.Treasury = "treasury" },
			wantErr: constants.EnvMarketplaceTreasury,
		},
		{
			name:    "short treasury",
			modify:  func(c *Config) { c.Treasury = "0xfee5" },
			wantErr: constants.EnvMarketplaceTreasury,
		},
		{
			name:    "zero signature window",
			modify:  func(c *Config) { c.SignatureWindow = 0 },
			wantErr: constants.EnvSignatureWindow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				FeeBps:          DefaultFeeBps,
				Treasury:        DefaultTreasury,
				SignatureWindow: DefaultSignatureWindow,
			}
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
