package conformity

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/simpyt/search-room/internal/domain"
)

// Config tunes the near-miss classification.
type Config struct {
	// ToleranceFraction is the share of a dimension's range that still counts as
	// a near miss outside a violated bound.
	ToleranceFraction float64 `json:"tolerance_fraction"`
	// Floors substitute for an absent lower bound per dimension (0 when unset).
	Floors map[domain.Dimension]float64 `json:"floors,omitempty"`
}

// DefaultConfig returns the documented defaults (10% tolerance, zero floors).
func DefaultConfig() Config {
	return Config{ToleranceFraction: 0.10}
}

// LoadConfigFromFile loads evaluator settings from a JSON file, falling back to
// defaults on read errors.
func LoadConfigFromFile(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read conformity config: %w", err)
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("unmarshal conformity config: %w", err)
	}
	if cfg.ToleranceFraction < 0 {
		cfg.ToleranceFraction = 0
	}
	return cfg, nil
}

func (c Config) floor(d domain.Dimension) float64 {
	if v, ok := c.Floors[d]; ok {
		return v
	}
	return 0
}
