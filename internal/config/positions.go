package config

import (
	"github.com/spf13/pflag"
)

// PositionsConfig holds configuration for the positions command.
type PositionsConfig struct {
	RPCURL   string
	Chain    string
	Pool     string
	Wallet   string
	Tokens   []string
	LogLevel string
}

// LoadPositions merges config file, environment variables, and flags into PositionsConfig.
func LoadPositions(cfgFile string, flags *pflag.FlagSet) (PositionsConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"chain":     "ethereum",
		"log-level": "info",
	})
	if err != nil {
		return PositionsConfig{}, err
	}

	cfg := PositionsConfig{
		RPCURL:   v.GetString("rpc"),
		Chain:    v.GetString("chain"),
		Pool:     v.GetString("pool"),
		Wallet:   v.GetString("wallet"),
		Tokens:   getStringSlice(v, "token"),
		LogLevel: v.GetString("log-level"),
	}

	return cfg, nil
}
