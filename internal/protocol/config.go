package protocol

import (
	"time"

	"github.com/Rican7/retry/backoff"
	"github.com/Rican7/retry/strategy"
)

// Config holds various configuration parameters for a client connection.
type Config struct {
	Dial           DialFunc      // Network dialer.
	DialTimeout    time.Duration // Timeout for establishing a network connection.
	AttemptTimeout time.Duration // Timeout for each individual connection attempt, handshake included.
	RetryLimit     uint          // Maximum number of retries, or 0 for unlimited.
	BackoffFactor  time.Duration // Exponential backoff factor for retries.
	BackoffCap     time.Duration // Maximum connection retry backoff value.
}

func (config Config) withDefaults() Config {
	if config.Dial == nil {
		config.Dial = Dial
	}
	if config.DialTimeout == 0 {
		config.DialTimeout = 5 * time.Second
	}
	if config.AttemptTimeout == 0 {
		config.AttemptTimeout = 15 * time.Second
	}
	if config.BackoffFactor == 0 {
		config.BackoffFactor = 100 * time.Millisecond
	}
	if config.BackoffCap == 0 {
		config.BackoffCap = time.Second
	}
	return config
}

// RetryStrategies returns a configuration for the retry package based on a Config.
func (config Config) RetryStrategies() (strategies []strategy.Strategy) {
	limit, factor, cap := config.RetryLimit, config.BackoffFactor, config.BackoffCap
	// The retry package counts the first attempt against the limit.
	if limit++; limit > 1 {
		strategies = append(strategies, strategy.Limit(limit))
	}
	backoffFunc := backoff.BinaryExponential(factor)
	strategies = append(strategies,
		func(attempt uint) bool {
			if attempt > 0 {
				duration := backoffFunc(attempt)
				// Duration might be negative in case of integer overflow.
				if !(0 < duration && duration <= cap) {
					duration = cap
				}
				time.Sleep(duration)
			}
			return true
		},
	)
	return
}
