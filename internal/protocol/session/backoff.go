package session

import (
	"math/rand"
	"time"
)

// NextBackoffDelay returns how long a supervisor waits before restart
// attempt N (1-based). The first attempt waits InitialDelay. Later attempts
// grow by Multiplier up to MaxDelay; Jitter then scales the result by
// [0.5, 1.5), still capped at MaxDelay.
func NextBackoffDelay(cfg BackoffConfig, attempt int, rng *rand.Rand) time.Duration {
	if attempt <= 1 || cfg.InitialDelay <= 0 {
		return max(cfg.InitialDelay, 0)
	}
	mult := max(cfg.Multiplier, 1.0)

	delay := float64(cfg.InitialDelay)
	for i := 1; i < attempt; i++ {
		delay *= mult
		if cfg.MaxDelay > 0 && delay >= float64(cfg.MaxDelay) {
			delay = float64(cfg.MaxDelay)
			break
		}
	}
	if cfg.Jitter {
		delay *= jitterFactor(rng)
	}
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	return time.Duration(delay)
}

// jitterFactor is 0.5 without a source.
func jitterFactor(rng *rand.Rand) float64 {
	if rng == nil {
		return 0.5
	}
	return 0.5 + rng.Float64()
}
