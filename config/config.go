// Package config loads the indexer's runtime configuration: the host chain
// RPC endpoint, the on-disk bbolt path, the HTTP API bind address, and
// logging/staleness knobs. Values come from a ".env" file (if present),
// environment variables, and CLI flag overrides applied by the caller.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the effective configuration for a glittrd process.
type Config struct {
	Network string `json:"network"`
	DataDir string `json:"data_dir"`

	BTCRPCURL      string `json:"btc_rpc_url"`
	BTCRPCUsername string `json:"btc_rpc_username"`
	BTCRPCPassword string `json:"btc_rpc_password"`

	APIBindAddr string `json:"api_bind_addr"`
	LogLevel    string `json:"log_level"`

	// OracleMaxStaleness is loaded and validated (it must be > 0), but the
	// indexer does not read it: oracle staleness comes from each
	// contract's oracle setting, and a setting without max_staleness
	// allows a window of 0 blocks.
	OracleMaxStaleness uint64 `json:"oracle_max_staleness"`

	// RPCTimeout is loaded and validated (it must be > 0) and passed to the
	// RPC client config, but the btcd client is built without it, so no
	// per-call timeout is applied. Failed fetches are retried by the
	// driver's loop with exponential backoff.
	RPCTimeout time.Duration `json:"rpc_timeout"`
}

var allowedLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".glittr"
	}
	return filepath.Join(home, ".glittr")
}

func DefaultConfig() Config {
	return Config{
		Network:            "regtest",
		DataDir:            DefaultDataDir(),
		BTCRPCURL:          "127.0.0.1:18443",
		BTCRPCUsername:     "",
		BTCRPCPassword:     "",
		APIBindAddr:        "0.0.0.0:3001",
		LogLevel:           "info",
		OracleMaxStaleness: 10,
		RPCTimeout:         30 * time.Second,
	}
}

// Load reads "<dir>/.env" if present, then overlays environment variables
// on top of DefaultConfig. CLI flags, if any, should be applied by the
// caller after Load returns.
func Load(envDir string) Config {
	if envDir != "" {
		_ = godotenv.Load(filepath.Join(envDir, ".env"))
	} else {
		_ = godotenv.Load(".env")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvPrefix("GLITTR")

	cfg := DefaultConfig()
	if s := v.GetString("NETWORK"); s != "" {
		cfg.Network = s
	}
	if s := v.GetString("DATA_DIR"); s != "" {
		cfg.DataDir = s
	}
	if s := v.GetString("BTC_RPC_URL"); s != "" {
		cfg.BTCRPCURL = s
	}
	if s := v.GetString("BTC_RPC_USERNAME"); s != "" {
		cfg.BTCRPCUsername = s
	}
	if s := v.GetString("BTC_RPC_PASSWORD"); s != "" {
		cfg.BTCRPCPassword = s
	}
	if s := v.GetString("API_BIND_ADDR"); s != "" {
		cfg.APIBindAddr = s
	}
	if s := v.GetString("LOG_LEVEL"); s != "" {
		cfg.LogLevel = s
	}
	if n := v.GetUint64("ORACLE_MAX_STALENESS"); n != 0 {
		cfg.OracleMaxStaleness = n
	}
	if d := v.GetDuration("RPC_TIMEOUT"); d != 0 {
		cfg.RPCTimeout = d
	}
	return cfg
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Network) == "" {
		return errors.New("network is required")
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return errors.New("data_dir is required")
	}
	if strings.TrimSpace(cfg.BTCRPCURL) == "" {
		return errors.New("btc_rpc_url is required")
	}
	if err := validateAddr(cfg.APIBindAddr); err != nil {
		return fmt.Errorf("invalid api_bind_addr: %w", err)
	}
	logLevel := strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if _, ok := allowedLogLevels[logLevel]; !ok {
		return fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	if cfg.OracleMaxStaleness == 0 {
		return errors.New("oracle_max_staleness must be > 0")
	}
	if cfg.RPCTimeout <= 0 {
		return errors.New("rpc_timeout must be > 0")
	}
	return nil
}

func validateAddr(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return errors.New("empty address")
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if strings.TrimSpace(port) == "" {
		return errors.New("missing port")
	}
	if strings.Contains(host, " ") {
		return errors.New("invalid host")
	}
	return nil
}
