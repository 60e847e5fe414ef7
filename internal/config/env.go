package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvConfig holds process-level overrides read from the environment.
type EnvConfig struct {
	Mode         string `env:"SQUADSIM_MODE"`
	MaxTurns     int    `env:"SQUADSIM_MAX_TURNS"`
	MovesPerTurn int    `env:"SQUADSIM_MOVES_PER_TURN"`
	Seed         int64  `env:"SQUADSIM_SEED"`
	LogLevel     string `env:"SQUADSIM_LOG_LEVEL" envDefault:"info"`
}

// ParseEnv loads EnvConfig from environment variables.
func ParseEnv() (EnvConfig, error) {
	var ec EnvConfig
	if err := env.Parse(&ec); err != nil {
		return EnvConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return ec, nil
}

// Apply overrides the rules with every non-zero environment value.
func (ec EnvConfig) Apply(rc *RulesConfig) {
	if ec.Mode != "" {
		rc.Mode = ec.Mode
	}
	if ec.MaxTurns > 0 {
		rc.MaxTurns = ec.MaxTurns
	}
	if ec.MovesPerTurn > 0 {
		rc.MovesPerTurn = ec.MovesPerTurn
	}
}
