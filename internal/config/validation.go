package config

import "fmt"

func validate(c *Config) error {
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be > 0")
	}
	if c.PageSize <= 0 || c.PageSize > 500 {
		return fmt.Errorf("page size must be between 1 and 500")
	}
	if c.PageDelay < 0 {
		return fmt.Errorf("page delay must be >= 0")
	}
	if c.AssetRateLimitRPS <= 0 {
		return fmt.Errorf("asset rate limit must be > 0")
	}
	return nil
}
