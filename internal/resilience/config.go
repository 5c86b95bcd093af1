package resilience

import "time"

// PolicyFrom builds a Policy from config values; zero values keep defaults.
func PolicyFrom(attempts, baseDelayMs int) Policy {
	p := DefaultPolicy()
	if attempts > 0 {
		p.Attempts = attempts
	}
	if baseDelayMs > 0 {
		p.BaseDelay = time.Duration(baseDelayMs) * time.Millisecond
	}
	return p
}

// BreakerConfigFrom builds a BreakerConfig from config values; zero values
// keep defaults.
func BreakerConfigFrom(threshold, cooldownSecs int) BreakerConfig {
	c := DefaultBreakerConfig()
	if threshold > 0 {
		c.Threshold = threshold
	}
	if cooldownSecs > 0 {
		c.Cooldown = time.Duration(cooldownSecs) * time.Second
	}
	return c
}
