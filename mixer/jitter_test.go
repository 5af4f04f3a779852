package mixer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJitterBounds(t *testing.T) {
	base := 1000 * time.Millisecond
	for i := 0; i < 1000; i++ {
		d := Jitter(base, 0.3)
		assert.GreaterOrEqual(t, d, 700*time.Millisecond)
		assert.LessOrEqual(t, d, 1300*time.Millisecond)
	}
}

func TestJitterFloor(t *testing.T) {
	for _, base := range []time.Duration{0, time.Millisecond, 50 * time.Millisecond} {
		for i := 0; i < 100; i++ {
			assert.GreaterOrEqual(t, Jitter(base, 0.3), 100*time.Millisecond)
		}
	}
}
