package mixer

import (
	"math/rand"
	"time"
)

const (
	jitterVariance = 0.3
	jitterFloor    = 100 * time.Millisecond

	delayPostDistribution = 2000 * time.Millisecond
	delayTimeDelay        = 3000 * time.Millisecond
	delayObfuscation      = 1500 * time.Millisecond
	delayDecoy            = 1000 * time.Millisecond
)

// Jitter perturbs base by up to ±variance·base, clamped to a 100ms
// floor, to defeat timing correlation.
func Jitter(base time.Duration, variance float64) time.Duration {
	spread := float64(base) * variance
	d := time.Duration(float64(base) + (rand.Float64()*2-1)*spread)
	if d < jitterFloor {
		d = jitterFloor
	}
	return d
}
