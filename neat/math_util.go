package neat

import (
	"math"
	"math/rand"
)

// clamp restricts a value to a given range [minVal, maxVal].
func clamp(value, minVal, maxVal float64) float64 {
	return math.Max(minVal, math.Min(value, maxVal))
}

// --- Statistical Functions ---

// Mean calculates the average of a slice of float64 values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	return Sum(values) / float64(len(values))
}

// Stdev calculates the sample standard deviation of a slice of float64 values.
func Stdev(values []float64) float64 {
	if len(values) < 2 {
		return 0.0
	}
	mean := Mean(values)
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	return math.Sqrt(variance / float64(len(values)-1))
}

// Sum calculates the sum of a slice of float64 values.
func Sum(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum
}

// MaxFloat returns the maximum value, or negative infinity for an empty slice.
func MaxFloat(values []float64) float64 {
	maxVal := math.Inf(-1)
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	return maxVal
}

// MinFloat returns the minimum value, or positive infinity for an empty slice.
func MinFloat(values []float64) float64 {
	minVal := math.Inf(1)
	for _, v := range values {
		if v < minVal {
			minVal = v
		}
	}
	return minVal
}

// --------------------------- Roulette ---------------------------

// RouletteWheelLayout picks an outcome index with probability proportional
// to its weight. Outcomes can be removed between spins.
type RouletteWheelLayout struct {
	probabilities []float64
	total         float64
}

// NewRouletteWheelLayout builds a wheel from non-negative weights.
func NewRouletteWheelLayout(weights ...float64) *RouletteWheelLayout {
	w := &RouletteWheelLayout{probabilities: make([]float64, len(weights))}
	for i, p := range weights {
		if p < 0 || math.IsNaN(p) {
			p = 0
		}
		w.probabilities[i] = p
		w.total += p
	}
	return w
}

// Len returns the number of outcomes, removed ones included.
func (w *RouletteWheelLayout) Len() int { return len(w.probabilities) }

// Empty reports whether every outcome has zero weight.
func (w *RouletteWheelLayout) Empty() bool { return w.total <= 0 }

// Probability returns the current weight of outcome i.
func (w *RouletteWheelLayout) Probability(i int) float64 { return w.probabilities[i] }

// Spin draws an outcome. It returns -1 when the wheel is empty.
func (w *RouletteWheelLayout) Spin(rng *rand.Rand) int {
	if w.Empty() {
		return -1
	}
	throw := rng.Float64() * w.total
	acc := 0.0
	last := -1
	for i, p := range w.probabilities {
		if p <= 0 {
			continue
		}
		last = i
		acc += p
		if throw < acc {
			return i
		}
	}
	// Floating point slack can leave throw == total.
	return last
}

// RemoveOutcome zeroes the weight of outcome i.
func (w *RouletteWheelLayout) RemoveOutcome(i int) {
	w.total -= w.probabilities[i]
	w.probabilities[i] = 0
	if w.total < 1e-12 {
		w.total = 0
	}
}

// Copy returns an independent wheel with the same weights.
func (w *RouletteWheelLayout) Copy() *RouletteWheelLayout {
	c := &RouletteWheelLayout{probabilities: make([]float64, len(w.probabilities)), total: w.total}
	copy(c.probabilities, w.probabilities)
	return c
}

// gaussian draws from N(mean, sigma^2).
func gaussian(rng *rand.Rand, mean, sigma float64) float64 {
	return rng.NormFloat64()*sigma + mean
}
