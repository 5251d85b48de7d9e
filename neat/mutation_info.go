package neat

import (
	"fmt"
	"math/rand"
)

// ConnectionSelectionType decides which active connections a weight-mutation pass touches.
type ConnectionSelectionType int

const (
	// SelectProportional mutates each connection independently with a fixed probability.
	SelectProportional ConnectionSelectionType = iota
	// SelectFixedQuantity mutates exactly N distinct connections.
	SelectFixedQuantity
)

// ConnectionPerturbanceType is the kind of change applied to a selected weight.
type ConnectionPerturbanceType int

const (
	PerturbUniform ConnectionPerturbanceType = iota
	PerturbGaussian
	PerturbReset
)

func (t ConnectionPerturbanceType) String() string {
	switch t {
	case PerturbUniform:
		return "uniform"
	case PerturbGaussian:
		return "gaussian"
	case PerturbReset:
		return "reset"
	}
	return fmt.Sprintf("ConnectionPerturbanceType(%d)", int(t))
}

// ConnectionMutationInfo describes one weight-mutation variant.
type ConnectionMutationInfo struct {
	ActivationProbability float64
	SelectionType         ConnectionSelectionType
	SelectionProportion   float64 // SelectProportional
	SelectionQuantity     int     // SelectFixedQuantity
	PerturbanceType       ConnectionPerturbanceType
	PerturbanceMagnitude  float64 // PerturbUniform half-width
	Sigma                 float64 // PerturbGaussian standard deviation
}

// Perturb returns the mutated weight clamped to ±weightRange.
func (m ConnectionMutationInfo) Perturb(weight, weightRange float64, rng *rand.Rand) float64 {
	switch m.PerturbanceType {
	case PerturbUniform:
		weight += (rng.Float64()*2 - 1) * m.PerturbanceMagnitude
	case PerturbGaussian:
		weight += gaussian(rng, 0, m.Sigma)
	case PerturbReset:
		weight = (rng.Float64()*2 - 1) * weightRange
	}
	return clamp(weight, -weightRange, weightRange)
}

// ConnectionMutationInfoList is a weighted set of weight-mutation variants.
type ConnectionMutationInfoList []ConnectionMutationInfo

// Wheel builds the roulette over ActivationProbability.
func (l ConnectionMutationInfoList) Wheel() *RouletteWheelLayout {
	weights := make([]float64, len(l))
	for i, info := range l {
		weights[i] = info.ActivationProbability
	}
	return NewRouletteWheelLayout(weights...)
}

// DefaultConnectionMutationInfoList returns the standard mix of proportional
// jiggles, small fixed-quantity gaussian jiggles and resets.
func DefaultConnectionMutationInfoList() ConnectionMutationInfoList {
	return ConnectionMutationInfoList{
		{ActivationProbability: 0.125, SelectionType: SelectProportional, SelectionProportion: 0.5, PerturbanceType: PerturbUniform, PerturbanceMagnitude: 0.05},
		{ActivationProbability: 0.125, SelectionType: SelectProportional, SelectionProportion: 0.1, PerturbanceType: PerturbUniform, PerturbanceMagnitude: 0.05},
		{ActivationProbability: 0.125, SelectionType: SelectProportional, SelectionProportion: 0.01, PerturbanceType: PerturbUniform, PerturbanceMagnitude: 0.05},
		{ActivationProbability: 0.125, SelectionType: SelectFixedQuantity, SelectionQuantity: 1, PerturbanceType: PerturbGaussian, Sigma: 0.7},
		{ActivationProbability: 0.125, SelectionType: SelectFixedQuantity, SelectionQuantity: 2, PerturbanceType: PerturbGaussian, Sigma: 0.7},
		{ActivationProbability: 0.125, SelectionType: SelectFixedQuantity, SelectionQuantity: 3, PerturbanceType: PerturbGaussian, Sigma: 0.7},
		{ActivationProbability: 0.125, SelectionType: SelectFixedQuantity, SelectionQuantity: 1, PerturbanceType: PerturbReset},
		{ActivationProbability: 0.125, SelectionType: SelectFixedQuantity, SelectionQuantity: 2, PerturbanceType: PerturbReset},
	}
}

// GentleConnectionMutationInfoList never resets weights.
func GentleConnectionMutationInfoList() ConnectionMutationInfoList {
	return ConnectionMutationInfoList{
		{ActivationProbability: 0.5, SelectionType: SelectProportional, SelectionProportion: 0.1, PerturbanceType: PerturbUniform, PerturbanceMagnitude: 0.02},
		{ActivationProbability: 0.5, SelectionType: SelectFixedQuantity, SelectionQuantity: 1, PerturbanceType: PerturbGaussian, Sigma: 0.3},
	}
}

// ConnectionMutationScheme resolves a scheme name from configuration.
func ConnectionMutationScheme(name string) (ConnectionMutationInfoList, error) {
	switch name {
	case "", "default":
		return DefaultConnectionMutationInfoList(), nil
	case "gentle":
		return GentleConnectionMutationInfoList(), nil
	}
	return nil, fmt.Errorf("unknown weight_mutation_scheme '%s'", name)
}
