package lottietex

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// BridgeConfig is captured by value when a load starts.
type BridgeConfig struct {
	Quality       float64 `yaml:"quality"`
	Loop          bool    `yaml:"loop"`
	Autoplay      bool    `yaml:"autoplay"`
	FrameThrottle int     `yaml:"frameThrottle"`
}

func DefaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		Quality:       1,
		FrameThrottle: 1,
	}
}

func validQuality(q float64) bool {
	return q > 0 && !math.IsInf(q, 0) && !math.IsNaN(q)
}

func (c BridgeConfig) Validate() error {
	if !validQuality(c.Quality) {
		return newError(KindInvalidConfig, "", fmt.Errorf("quality must be a finite value > 0, got %v", c.Quality))
	}
	if c.FrameThrottle < 1 {
		return newError(KindInvalidConfig, "", fmt.Errorf("frameThrottle must be >= 1, got %d", c.FrameThrottle))
	}
	return nil
}

// LoadBridgeConfig reads a YAML file. Omitted fields keep their defaults.
func LoadBridgeConfig(path string) (BridgeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BridgeConfig{}, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseBridgeConfig(data)
}

func ParseBridgeConfig(data []byte) (BridgeConfig, error) {
	cfg := DefaultBridgeConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return BridgeConfig{}, newError(KindInvalidConfig, "", fmt.Errorf("failed to parse config: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		return BridgeConfig{}, err
	}
	return cfg, nil
}
