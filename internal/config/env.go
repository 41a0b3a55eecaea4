package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/AlexZinkM/confidential-pay/internal/crypto"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Config contains all configuration parameters for the application.
// Note: the master key is kept out of Config; load it with LoadMasterKey.
type Config struct {
	Port           string        `envconfig:"PORT" default:"8080"`
	DataDir        string        `envconfig:"DATA_DIR" default:"./data"`
	MPCMode        string        `envconfig:"MPC_MODE" default:"local"`
	MPCServiceURL  string        `envconfig:"MPC_SERVICE_URL" default:"http://localhost:8001"`
	MPCTimeout     time.Duration `envconfig:"MPC_TIMEOUT" default:"30s"`
	MPCMaxAttempts int           `envconfig:"MPC_MAX_ATTEMPTS" default:"3"`
	AutoConfirm    bool          `envconfig:"AUTO_CONFIRM" default:"false"`
	SolanaRPCURL   string        `envconfig:"SOLANA_RPC_URL"` // empty disables settlement verification
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
}

const (
	MPCModeLocal   = "local"
	MPCModeCluster = "cluster"

	masterKeyEnv = "ENCRYPTION_MASTER_KEY"
)

// unsafeMasterKeys are development placeholders that must never reach production
var unsafeMasterKeys = []string{
	"0000000000000000000000000000000000000000000000000000000000000000",
	"0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
	"2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a",
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c
	return nil
}

// Validate checks values envconfig cannot express.
func (c *Config) Validate() error {
	if c.MPCMode != MPCModeLocal && c.MPCMode != MPCModeCluster {
		return fmt.Errorf("MPC_MODE must be %q or %q", MPCModeLocal, MPCModeCluster)
	}
	if c.MPCTimeout <= 0 {
		return errors.New("MPC_TIMEOUT must be positive")
	}
	if c.MPCMaxAttempts < 1 {
		return errors.New("MPC_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// GetPort returns port from configuration
func GetPort() string {
	return Get().Port
}

// GetDataDir returns the storage directory from configuration
func GetDataDir() string {
	return Get().DataDir
}

// ParseMasterKey decodes a 64 character hex master key and rejects known
// placeholder values. All failures wrap crypto.ErrConfiguration.
func ParseMasterKey(keyHex string) ([]byte, error) {
	keyHex = strings.TrimSpace(keyHex)
	if len(keyHex) != hex.EncodedLen(crypto.MasterKeySize) {
		return nil, fmt.Errorf("%w: master key must be a %d character hex string (found length %d)",
			crypto.ErrConfiguration, hex.EncodedLen(crypto.MasterKeySize), len(keyHex))
	}

	normalized := strings.ToLower(keyHex)
	for _, unsafe := range unsafeMasterKeys {
		if normalized == unsafe {
			return nil, fmt.Errorf("%w: master key is a known placeholder value; configure a unique secret",
				crypto.ErrConfiguration)
		}
	}

	key, err := hex.DecodeString(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hex in master key", crypto.ErrConfiguration)
	}
	return key, nil
}

// LoadMasterKey reads the master key from ENCRYPTION_MASTER_KEY.
// Caller must zero the returned slice after handing it to the codec.
func LoadMasterKey() ([]byte, error) {
	keyHex, ok := os.LookupEnv(masterKeyEnv)
	if !ok || keyHex == "" {
		return nil, fmt.Errorf("%w: %s is not set", crypto.ErrConfiguration, masterKeyEnv)
	}
	return ParseMasterKey(keyHex)
}

// PromptForMasterKey prompts for the master key in the terminal.
// The key is read without echoing (hidden input).
// Use it at startup when ENCRYPTION_MASTER_KEY is not provided.
func PromptForMasterKey() ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, fmt.Errorf("%w: stdin is not a terminal and %s is not set", crypto.ErrConfiguration, masterKeyEnv)
	}
	fmt.Fprint(os.Stderr, "Enter encryption master key (hex): ")
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to read master key: %w", err)
	}
	defer clear(raw)

	return ParseMasterKey(string(raw))
}
