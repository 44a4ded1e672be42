package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/viper"
)

// Config holds the application configuration. It is loaded once at startup
// and passed explicitly into every component.
type Config struct {
	OKXAPIKey     string
	OKXSecretKey  string
	OKXPassphrase string

	PrivateKey string

	OKXBaseURL string
	MEEBaseURL string

	Slippage     string
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// Load reads configuration from environment variables and an optional
// .okx-dex.yaml config file. The aggregator credentials are validated here:
// a missing secret fails at startup, not on the first request.
func Load() (*Config, error) {
	viper.SetConfigName(".okx-dex")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	viper.SetDefault("mee_base_url", "https://network.biconomy.io")
	viper.SetDefault("slippage", "0.05")
	viper.SetDefault("poll_interval", "3s")
	viper.SetDefault("poll_timeout", "5m")

	viper.SetEnvPrefix("OKX")
	viper.AutomaticEnv()

	// The signing key and the aggregator credentials keep their historical
	// environment names.
	_ = viper.BindEnv("api_key", "OKX_API_KEY")
	_ = viper.BindEnv("secret_key", "OKX_SECRET_KEY")
	_ = viper.BindEnv("passphrase", "OKX_PASSPHRASE")
	_ = viper.BindEnv("private_key", "PRIVATE_KEY")
	_ = viper.BindEnv("okx_base_url", "OKX_BASE_URL")
	_ = viper.BindEnv("mee_base_url", "MEE_BASE_URL")

	// Config file is optional.
	_ = viper.ReadInConfig()

	cfg := &Config{
		OKXAPIKey:     viper.GetString("api_key"),
		OKXSecretKey:  viper.GetString("secret_key"),
		OKXPassphrase: viper.GetString("passphrase"),
		PrivateKey:    formatPrivateKey(viper.GetString("private_key")),
		OKXBaseURL:    viper.GetString("okx_base_url"),
		MEEBaseURL:    viper.GetString("mee_base_url"),
		Slippage:      viper.GetString("slippage"),
		PollInterval:  viper.GetDuration("poll_interval"),
		PollTimeout:   viper.GetDuration("poll_timeout"),
	}

	if cfg.OKXAPIKey == "" || cfg.OKXSecretKey == "" || cfg.OKXPassphrase == "" {
		return nil, fmt.Errorf("missing OKX API credentials. Set OKX_API_KEY, OKX_SECRET_KEY and OKX_PASSPHRASE, or create a .okx-dex.yaml config file")
	}

	return cfg, nil
}

// formatPrivateKey normalizes a signing key to its 0x-prefixed form.
func formatPrivateKey(key string) string {
	if key == "" {
		return ""
	}
	if strings.HasPrefix(key, "0x") {
		return key
	}
	return "0x" + key
}

// SignerAddress derives the signer's address from the configured private
// key. Commands that only read (quotes, token lists) never call this, so a
// missing key does not block them.
func (c *Config) SignerAddress() (common.Address, error) {
	if c.PrivateKey == "" {
		return common.Address{}, fmt.Errorf("private key not available. Set the PRIVATE_KEY environment variable")
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(c.PrivateKey, "0x"))
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid private key: %w", err)
	}
	return crypto.PubkeyToAddress(key.PublicKey), nil
}
