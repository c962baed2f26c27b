package services

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	defaultMatchDateWindowDays = 3
	defaultIdempotencyTTL      = 24 * time.Hour
)

type serviceConfig struct {
	now             func() time.Time
	matchWindowDays int
	idempotencyTTL  time.Duration
	validate        *validator.Validate
}

// ServiceOption is a functional option for configuring the reconciliation services
type ServiceOption func(*serviceConfig)

// WithClock overrides the clock used for timestamps and idempotency expiry.
func WithClock(now func() time.Time) ServiceOption {
	return func(c *serviceConfig) {
		c.now = now
	}
}

// WithMatchDateWindow sets the ± calendar-day window used to build candidates.
func WithMatchDateWindow(days int) ServiceOption {
	return func(c *serviceConfig) {
		if days >= 0 {
			c.matchWindowDays = days
		}
	}
}

// WithIdempotencyTTL sets how long guard records block or replay.
func WithIdempotencyTTL(ttl time.Duration) ServiceOption {
	return func(c *serviceConfig) {
		if ttl > 0 {
			c.idempotencyTTL = ttl
		}
	}
}

func newServiceConfig(options ...ServiceOption) serviceConfig {
	validate := validator.New()
	validate.SetTagName("binding")
	cfg := serviceConfig{
		now:             func() time.Time { return time.Now().UTC() },
		matchWindowDays: defaultMatchDateWindowDays,
		idempotencyTTL:  defaultIdempotencyTTL,
		validate:        validate,
	}
	for _, option := range options {
		option(&cfg)
	}
	return cfg
}
