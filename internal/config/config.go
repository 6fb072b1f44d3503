package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"basebond/internal/contracts"
)

// Store backends for the operation history.
const (
	StoreNone     = "none"
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// addressKeys maps config keys to logical contract names.
var addressKeys = map[string]contracts.Name{
	"event-factory-address":   contracts.EventFactory,
	"ticket-nft-address":      contracts.TicketNFT,
	"event-poap-address":      contracts.EventPOAP,
	"loyalty-staking-address": contracts.LoyaltyStaking,
	"event-treasury-address":  contracts.EventTreasury,
	"idrx-address":            contracts.IDRXToken,
}

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL      string
	ChainID     uint64
	ExplorerURL string
	ProjectID   string

	Addresses contracts.Addresses

	PrivateKey string
	From       string
	Yes        bool

	ConfirmTimeout time.Duration
	PollInterval   time.Duration
	Confirmations  uint64
	MaxRetries     int
	RetryBackoff   time.Duration
	MaxBatch       int

	TokenDecimals   uint8
	RewardRateScale int64
	Locale          string
	FractionDigits  int

	Store     string
	StorePath string
	PGDSN     string
	RedisURL  string
	RedisTTL  time.Duration

	NATSURL     string
	NATSSubject string

	LogLevel string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BASEBOND")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("explorer-url", "https://sepolia.basescan.org")
	v.SetDefault("confirm-timeout", 2*time.Minute)
	v.SetDefault("poll-interval", 2*time.Second)
	v.SetDefault("confirmations", uint64(1))
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("max-batch", 100)
	v.SetDefault("token-decimals", 18)
	v.SetDefault("reward-rate-scale", int64(100))
	v.SetDefault("locale", "id")
	v.SetDefault("fraction-digits", 2)
	v.SetDefault("store", StoreFile)
	v.SetDefault("store-path", "./data/operations.json")
	v.SetDefault("redis-ttl", 168*time.Hour)
	v.SetDefault("nats-subject", "basebond.invalidate")
	v.SetDefault("log-level", "info")
	// Registered so AutomaticEnv sees keys that have no flag.
	for key := range addressKeys {
		v.SetDefault(key, "")
	}
	for _, key := range []string{"rpc", "project-id", "private-key", "from", "pg-dsn", "redis-url", "nats-url"} {
		v.SetDefault(key, "")
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	decimals := v.GetUint("token-decimals")
	if decimals > 77 {
		return Config{}, fmt.Errorf("token-decimals %d out of range", decimals)
	}

	addrs := make(contracts.Addresses, len(addressKeys))
	for key, name := range addressKeys {
		if raw := strings.TrimSpace(v.GetString(key)); raw != "" {
			addrs[name] = raw
		}
	}

	cfg := Config{
		RPCURL:          v.GetString("rpc"),
		ChainID:         v.GetUint64("chain-id"),
		ExplorerURL:     v.GetString("explorer-url"),
		ProjectID:       v.GetString("project-id"),
		Addresses:       addrs,
		PrivateKey:      v.GetString("private-key"),
		From:            v.GetString("from"),
		Yes:             v.GetBool("yes"),
		ConfirmTimeout:  v.GetDuration("confirm-timeout"),
		PollInterval:    v.GetDuration("poll-interval"),
		Confirmations:   v.GetUint64("confirmations"),
		MaxRetries:      v.GetInt("max-retries"),
		RetryBackoff:    v.GetDuration("retry-backoff"),
		MaxBatch:        v.GetInt("max-batch"),
		TokenDecimals:   uint8(decimals),
		RewardRateScale: v.GetInt64("reward-rate-scale"),
		Locale:          strings.ToLower(v.GetString("locale")),
		FractionDigits:  v.GetInt("fraction-digits"),
		Store:           strings.ToLower(v.GetString("store")),
		StorePath:       v.GetString("store-path"),
		PGDSN:           v.GetString("pg-dsn"),
		RedisURL:        v.GetString("redis-url"),
		RedisTTL:        v.GetDuration("redis-ttl"),
		NATSURL:         v.GetString("nats-url"),
		NATSSubject:     v.GetString("nats-subject"),
		LogLevel:        v.GetString("log-level"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Store {
	case StoreNone, StoreFile, StorePostgres, StoreRedis:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	switch c.Locale {
	case "id", "en":
	default:
		return fmt.Errorf("unknown locale %q", c.Locale)
	}
	if c.FractionDigits < 0 {
		return fmt.Errorf("fraction-digits must not be negative")
	}
	if c.RewardRateScale <= 0 {
		return fmt.Errorf("reward-rate-scale must be positive")
	}
	if c.Store == StorePostgres && c.PGDSN == "" {
		return fmt.Errorf("pg-dsn is required for the postgres store")
	}
	if c.Store == StoreRedis && c.RedisURL == "" {
		return fmt.Errorf("redis-url is required for the redis store")
	}
	return nil
}

// Redacted returns the settings safe to print. The private key is masked.
func (c Config) Redacted() map[string]interface{} {
	key := ""
	if c.PrivateKey != "" {
		key = "***"
	}
	dsn := ""
	if c.PGDSN != "" {
		dsn = "***"
	}
	addrs := make(map[string]string, len(c.Addresses))
	for name, addr := range c.Addresses {
		addrs[string(name)] = addr
	}
	return map[string]interface{}{
		"rpc":               c.RPCURL,
		"chain-id":          c.ChainID,
		"explorer-url":      c.ExplorerURL,
		"project-id":        c.ProjectID,
		"addresses":         addrs,
		"private-key":       key,
		"from":              c.From,
		"confirm-timeout":   c.ConfirmTimeout.String(),
		"poll-interval":     c.PollInterval.String(),
		"confirmations":     c.Confirmations,
		"max-retries":       c.MaxRetries,
		"retry-backoff":     c.RetryBackoff.String(),
		"max-batch":         c.MaxBatch,
		"token-decimals":    c.TokenDecimals,
		"reward-rate-scale": c.RewardRateScale,
		"locale":            c.Locale,
		"fraction-digits":   c.FractionDigits,
		"store":             c.Store,
		"store-path":        c.StorePath,
		"pg-dsn":            dsn,
		"redis-url":         c.RedisURL,
		"redis-ttl":         c.RedisTTL.String(),
		"nats-url":          c.NATSURL,
		"nats-subject":      c.NATSSubject,
		"log-level":         c.LogLevel,
	}
}
