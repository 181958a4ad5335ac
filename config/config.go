// Package config loads node configuration from a JSON file, then applies
// VIVO_* environment overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/tolelom/vivorun/storage"
)

// GenesisQuest is a quest seeded into state by the genesis block.
type GenesisQuest struct {
	ID           uint32 `json:"id" yaml:"id"`
	Title        string `json:"title" yaml:"title"`
	Description  string `json:"description" yaml:"description"`
	RewardAmount uint64 `json:"reward_amount" yaml:"reward_amount"`
	TargetScore  uint64 `json:"target_score" yaml:"target_score"`
}

// GenesisConfig describes the chain's initial state.
type GenesisConfig struct {
	ChainID      string         `json:"chain_id" env:"VIVO_CHAIN_ID"`
	TokenAddress string         `json:"token_address" env:"VIVO_TOKEN_ADDRESS"`
	Quests       []GenesisQuest `json:"quests"`
	QuestsFile   string         `json:"quests_file" env:"VIVO_QUESTS_FILE"` // YAML catalog, appended to Quests
}

// RPCConfig configures the JSON-RPC server.
type RPCConfig struct {
	Port      int     `json:"port" env:"VIVO_RPC_PORT"`
	AuthToken string  `json:"auth_token" env:"VIVO_RPC_AUTH_TOKEN"` // empty disables bearer auth
	RateLimit float64 `json:"rate_limit" env:"VIVO_RPC_RATE_LIMIT"` // requests per second per client; 0 disables
	RateBurst int     `json:"rate_burst" env:"VIVO_RPC_RATE_BURST"`
}

// StorageConfig selects the ledger database.
type StorageConfig struct {
	Backend        string `json:"backend" env:"VIVO_STORAGE_BACKEND"` // leveldb | sqlite | redis
	RedisAddr      string `json:"redis_addr" env:"VIVO_REDIS_ADDR"`
	RedisPassword  string `json:"redis_password" env:"VIVO_REDIS_PASSWORD"`
	RedisDB        int    `json:"redis_db" env:"VIVO_REDIS_DB"`
	RedisNamespace string `json:"redis_namespace" env:"VIVO_REDIS_NAMESPACE"`
}

// LogConfig configures the node logger.
type LogConfig struct {
	Level  string `json:"level" env:"VIVO_LOG_LEVEL"`
	Format string `json:"format" env:"VIVO_LOG_FORMAT"` // json | console
}

// Config holds all node configuration.
type Config struct {
	NodeID          string        `json:"node_id" env:"VIVO_NODE_ID"`
	DataDir         string        `json:"data_dir" env:"VIVO_DATA_DIR"`
	MaxBlockTxs     int           `json:"max_block_txs" env:"VIVO_MAX_BLOCK_TXS"` // 0 → 500
	BlockIntervalMS int           `json:"block_interval_ms" env:"VIVO_BLOCK_INTERVAL_MS"`
	Validators      []string      `json:"validators" env:"VIVO_VALIDATORS" envSeparator:","` // authorised proposer pubkey hexes
	RPC             RPCConfig     `json:"rpc"`
	Storage         StorageConfig `json:"storage"`
	Log             LogConfig     `json:"log"`
	Genesis         GenesisConfig `json:"genesis"`
}

// DefaultConfig returns a single-node development configuration.
func DefaultConfig() *Config {
	return &Config{
		NodeID:          "node0",
		DataDir:         "./data",
		MaxBlockTxs:     500,
		BlockIntervalMS: 1000,
		RPC: RPCConfig{
			Port:      8545,
			RateLimit: 50,
			RateBurst: 100,
		},
		Storage: StorageConfig{Backend: storage.BackendLevelDB},
		Log:     LogConfig{Level: "info", Format: "console"},
		Genesis: GenesisConfig{ChainID: "vivorun-dev"},
	}
}

// Load reads a JSON config file from path over the defaults, then applies
// environment overrides. An empty path uses the defaults alone.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseEnv overrides fields of target from the environment. Unset variables
// leave the current value in place.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Save writes the config to path as formatted JSON.
func Save(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if c.Genesis.ChainID == "" {
		return errors.New("genesis.chain_id is required")
	}
	if c.RPC.Port <= 0 || c.RPC.Port > 65535 {
		return fmt.Errorf("rpc.port %d out of range", c.RPC.Port)
	}
	if c.RPC.RateLimit < 0 {
		return errors.New("rpc.rate_limit must not be negative")
	}
	switch c.Storage.Backend {
	case "", storage.BackendLevelDB, storage.BackendSQLite:
	case storage.BackendRedis:
		if c.Storage.RedisAddr == "" {
			return errors.New("storage.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}
	switch c.Log.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}
	return nil
}

// BlockInterval returns the block production period.
func (c *Config) BlockInterval() time.Duration {
	if c.BlockIntervalMS <= 0 {
		return time.Second
	}
	return time.Duration(c.BlockIntervalMS) * time.Millisecond
}

// StorageOptions converts the storage section for storage.Open.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend: c.Storage.Backend,
		DataDir: c.DataDir,
		Redis: storage.RedisOptions{
			Addr:      c.Storage.RedisAddr,
			Password:  c.Storage.RedisPassword,
			DB:        c.Storage.RedisDB,
			Namespace: c.Storage.RedisNamespace,
		},
	}
}
