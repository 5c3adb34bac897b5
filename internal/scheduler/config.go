package scheduler

import "time"

// Config controls scheduler intervals and batch sizes.
type Config struct {
	RunInterval time.Duration
	// BillingDay is the day of month from which the monthly generation run
	// is eligible.
	BillingDay int
	BatchSize  int
	JobTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		RunInterval: time.Minute,
		BillingDay:  1,
		BatchSize:   200,
		JobTimeout:  5 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.BillingDay < 1 || c.BillingDay > 28 {
		c.BillingDay = defaults.BillingDay
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}
