package neat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vector(pairs ...float64) CoordinateVector {
	v := CoordinateVector{}
	for i := 0; i < len(pairs); i += 2 {
		v.Elements = append(v.Elements, CoordinateElement{ID: uint32(pairs[i]), Value: pairs[i+1]})
	}
	return v
}

func TestDistanceMetrics(t *testing.T) {
	a := vector(1, 1.0, 2, -2.0, 5, 0.5)
	b := vector(1, 3.0, 3, 1.0, 5, 0.5)

	// matched: |1-3| + |0.5-0.5|, mismatched: |-2| + |1|
	assert.InDelta(t, 5.0, NewManhattanDistanceMetric().Distance(a, b), 1e-12)
	assert.InDelta(t, math.Sqrt(4+4+1), NewEuclideanDistanceMetric().Distance(a, b), 1e-12)

	m := ManhattanDistanceMetric{MatchCoeff: 1, MismatchCoeff: 0, MismatchConstant: 10}
	assert.InDelta(t, 22.0, m.Distance(a, b), 1e-12)

	assert.Zero(t, NewManhattanDistanceMetric().Distance(a, a))
	assert.Zero(t, NewEuclideanDistanceMetric().Distance(CoordinateVector{}, CoordinateVector{}))
}

func TestGenomeDistanceCache(t *testing.T) {
	_, pop, _ := newModularPopulation(t, testConfig(), 2)
	cache := NewGenomeDistanceCache(nil)

	d := cache.Distance(pop[0], pop[1])
	assert.Equal(t, d, cache.Distance(pop[1], pop[0]), "distance is symmetric and cached")
	assert.Equal(t, 1, cache.Misses)
	assert.Equal(t, 1, cache.Hits)
	assert.Zero(t, cache.Distance(pop[0], pop[0]))

	want := NewManhattanDistanceMetric().Distance(pop[0].Position(), pop[1].Position())
	assert.InDelta(t, want, d, 1e-12)

	cache.Clear()
	assert.Empty(t, cache.Distances)
}

func TestEvaluationInfo(t *testing.T) {
	e := NewEvaluationInfo(3)
	for _, f := range []float64{1, 2, 3, 4} {
		e.SetFitness(f, f*10)
	}
	assert.Equal(t, 4.0, e.Fitness)
	assert.Equal(t, []float64{40}, e.AuxFitness)
	assert.Equal(t, 4, e.EvaluationCount)
	assert.Equal(t, []float64{2, 3, 4}, e.History())
	assert.InDelta(t, 3.0, e.MeanFitness(), 1e-12)
	assert.InDelta(t, 1.0, e.FitnessSpread(), 1e-12)

	e.SetHistory([]float64{1, 2, 3, 4, 5})
	assert.Equal(t, []float64{3, 4, 5}, e.History())

	e.Reset()
	assert.Zero(t, e.Fitness)
	assert.Empty(t, e.History())
	assert.Zero(t, e.EvaluationCount)
}

func TestAggregations(t *testing.T) {
	in := []float64{1, -4, 2}
	tests := map[string]float64{
		"sum":     -1,
		"product": -8,
		"min":     -4,
		"max":     2,
		"mean":    -1.0 / 3,
		"maxabs":  -4,
	}
	for name, want := range tests {
		fn, err := GetAggregation(name)
		require.NoError(t, err, name)
		assert.InDelta(t, want, fn(in), 1e-12, name)
	}

	sum, err := GetAggregation("")
	require.NoError(t, err)
	assert.Equal(t, 3.0, sum([]float64{1, 2}))
	assert.Zero(t, AggregateMax(nil))
	assert.Zero(t, AggregateProduct(nil))

	_, err = GetAggregation("median")
	assert.Error(t, err)
}

func TestActivationLibrary(t *testing.T) {
	lib, err := NewActivationLibrary([]string{"sigmoid", "rbf_gaussian"}, []float64{1, 0})
	require.NoError(t, err)
	assert.Equal(t, 2, lib.Len())
	assert.False(t, lib.AcceptsAuxArgs(), "zero-probability functions do not count")

	fn, err := lib.Function(1)
	require.NoError(t, err)
	assert.Equal(t, "rbf_gaussian", fn.Name())
	assert.InDelta(t, 1.0, fn.Calculate(0.3, []float64{0.3, 1}), 1e-12)

	_, err = lib.Function(5)
	assert.ErrorIs(t, err, ErrInconsistentState)
	_, err = NewActivationLibrary([]string{"bogus"}, nil)
	assert.Error(t, err)

	assert.InDelta(t, 0.5, Sigmoid(0), 1e-12)
}
