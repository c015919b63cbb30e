package device

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/nerrad567/synthfleet/internal/timewave"
)

// Reliability yields the probability that a device's communication link
// is up at a point in simulated time, relative to the simulation start.
type Reliability interface {
	UpProbability(relTime time.Duration) float64
}

// Constant is a reliability that never changes.
type Constant float64

// UpProbability implements Reliability.
func (c Constant) UpProbability(time.Duration) float64 { return float64(c) }

// Curve is a reliability that follows a time-indexed probability curve,
// linearly interpolated between samples and clamped at the endpoints.
type Curve []timewave.Point

// UpProbability implements Reliability.
func (c Curve) UpProbability(relTime time.Duration) float64 {
	return timewave.Interp(c, relTime)
}

// RadioFactor maps a received signal strength onto a reliability
// multiplier in [0,1]. GoodRSSI or better yields 1, BadRSSI or worse
// yields 0. The skew keeps the factor near 1 across most of the range
// and collapses it sharply near BadRSSI, matching how radio links
// degrade in practice.
func RadioFactor(rssi float64) float64 {
	good := 1 - (rssi-GoodRSSI)/(BadRSSI-GoodRSSI)
	if good < 0 {
		good = 0
	} else if good > 1 {
		good = 1
	}
	return 1 - math.Pow(1-good, 4)
}

// sampleToggleInterval draws the time until the next communication
// reliability re-roll: exponentially distributed around mean, capped at
// 100x mean so a single draw cannot stall the model.
func sampleToggleInterval(rng *rand.Rand, mean time.Duration) time.Duration {
	d := time.Duration(rng.ExpFloat64() * float64(mean))
	if limit := 100 * mean; d > limit {
		d = limit
	}
	return d
}

// sampleBatteryLife draws a battery life normally distributed around mu,
// clamped to mu +/- 2 sigma and floored at one second.
func sampleBatteryLife(rng *rand.Rand, mu, sigma time.Duration) time.Duration {
	life := time.Duration(float64(mu) + rng.NormFloat64()*float64(sigma))
	if lo := mu - 2*sigma; life < lo {
		life = lo
	}
	if hi := mu + 2*sigma; life > hi {
		life = hi
	}
	if life < time.Second {
		life = time.Second
	}
	return life
}
