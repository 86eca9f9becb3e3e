package generaterecommendations

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout time.Duration
	// DefaultLimit caps the list when the job sets no limit. 0 returns every match.
	DefaultLimit int
}

func DefaultConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.DefaultLimit < 0 {
		return fmt.Errorf("default limit must not be negative")
	}
	return nil
}
