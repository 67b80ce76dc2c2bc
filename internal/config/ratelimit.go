package config

import (
	"os"
	"strconv"
	"time"
)

// RateLimitConfig describes one token bucket: capacity tokens refilled at
// RefillTokens per RefillInterval, with bucket state expiring after TTL of
// inactivity.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

// RateLimits groups the three buckets the API applies, mirroring the
// abuse surfaces: credential guessing (login/refresh), mass account
// creation (register) and document upload spam (submit).
type RateLimits struct {
	Auth     RateLimitConfig
	Register RateLimitConfig
	Upload   RateLimitConfig
}

// LoadRateLimits reads the rate-limit settings. Each bucket can be tuned
// via RATE_LIMIT_<BUCKET>_CAPACITY and RATE_LIMIT_<BUCKET>_REFILL_EVERY;
// RATE_LIMIT_ENABLED=0 turns the limiter off globally.
func LoadRateLimits() RateLimits {
	enabled := envBool("RATE_LIMIT_ENABLED", true)
	return RateLimits{
		Auth:     bucket("AUTH", enabled, 5, 3*time.Minute),
		Register: bucket("REGISTER", enabled, 3, 20*time.Minute),
		Upload:   bucket("UPLOAD", enabled, 5, 10*time.Minute),
	}
}

func bucket(name string, enabled bool, capacity int, refillEvery time.Duration) RateLimitConfig {
	c := RateLimitConfig{
		Enabled:        enabled,
		Capacity:       envInt("RATE_LIMIT_"+name+"_CAPACITY", capacity),
		RefillTokens:   1,
		RefillInterval: envDur("RATE_LIMIT_"+name+"_REFILL_EVERY", refillEvery),
		Prefix:         "rl:" + name,
	}
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	c.TTL = 5 * c.RefillInterval
	return c
}

func envBool(k string, d bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "True", "yes", "on":
		return true
	case "0", "false", "FALSE", "False", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
