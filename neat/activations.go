package neat

import (
	"fmt"
	"math"
	"math/rand"
)

// ActivationType defines the type for plain activation functions.
type ActivationType func(input float64, params ...float64) float64

// ActivationFunctions maps function names to the plain activation functions.
// This allows configuration to specify activations by name.
var ActivationFunctions = map[string]ActivationType{
	"sigmoid":  Sigmoid,
	"tanh":     Tanh,
	"relu":     ReLU,
	"identity": Identity,
	"clamped":  Clamped,
	"gaussian": Gaussian,
	"absolute": Absolute,
	"sine":     Sine,
	"cosine":   Cosine,
	"hat":      Hat,
	"square":   Square,
	"cube":     Cube,
	"abs":      Absolute, // Alias for absolute
}

// ActivationFunction is the per-neuron function used by the decoder. Functions
// that accept auxiliary arguments keep per-neuron state in NeuronGene.AuxState
// and own the routine that mutates it.
type ActivationFunction interface {
	Name() string
	Calculate(x float64, aux []float64) float64
	AcceptsAuxArgs() bool
	RandomAuxArgs(rng *rand.Rand, weightRange float64) []float64
	MutateAuxArgs(aux []float64, rng *rand.Rand, weightRange float64)
}

// plainActivation adapts an ActivationType that takes no auxiliary state.
type plainActivation struct {
	name string
	fn   ActivationType
}

func (a plainActivation) Name() string { return a.name }

func (a plainActivation) Calculate(x float64, _ []float64) float64 { return a.fn(x) }

func (a plainActivation) AcceptsAuxArgs() bool { return false }

func (a plainActivation) RandomAuxArgs(*rand.Rand, float64) []float64 { return nil }

func (a plainActivation) MutateAuxArgs([]float64, *rand.Rand, float64) {}

// RBFGaussian is a radial basis function whose centre and radius are evolved
// per neuron. AuxState layout: [centre, radius].
type RBFGaussian struct {
	CenterSigma float64
	RadiusSigma float64
	MinRadius   float64
}

// NewRBFGaussian returns an RBF activation with the usual mutation scales.
func NewRBFGaussian() *RBFGaussian {
	return &RBFGaussian{CenterSigma: 0.1, RadiusSigma: 0.1, MinRadius: 0.01}
}

func (a *RBFGaussian) Name() string { return "rbf_gaussian" }

func (a *RBFGaussian) Calculate(x float64, aux []float64) float64 {
	center, radius := 0.0, 1.0
	if len(aux) >= 2 {
		center, radius = aux[0], aux[1]
	}
	d := (x - center) / radius
	return math.Exp(-d * d)
}

func (a *RBFGaussian) AcceptsAuxArgs() bool { return true }

func (a *RBFGaussian) RandomAuxArgs(rng *rand.Rand, weightRange float64) []float64 {
	center := (rng.Float64()*2 - 1) * weightRange
	radius := math.Max(a.MinRadius, rng.Float64())
	return []float64{center, radius}
}

func (a *RBFGaussian) MutateAuxArgs(aux []float64, rng *rand.Rand, weightRange float64) {
	if len(aux) < 2 {
		return
	}
	aux[0] = clamp(aux[0]+gaussian(rng, 0, a.CenterSigma), -weightRange, weightRange)
	aux[1] = math.Max(a.MinRadius, aux[1]+gaussian(rng, 0, a.RadiusSigma))
}

// --------------------------- ActivationLibrary ---------------------------

// ActivationLibrary maps activation function IDs to functions together with
// the probability of choosing each one for a new hidden neuron. ID 0 is the
// default used for fixed (non-hidden) neurons.
type ActivationLibrary struct {
	functions []ActivationFunction
	wheel     *RouletteWheelLayout
}

// NewActivationLibrary builds a library from function names. A nil or short
// probability slice gives the missing entries equal weight.
func NewActivationLibrary(names []string, probabilities []float64) (*ActivationLibrary, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("activation library needs at least one function")
	}
	lib := &ActivationLibrary{}
	weights := make([]float64, len(names))
	for i, name := range names {
		fn, err := GetActivation(name)
		if err != nil {
			return nil, err
		}
		lib.functions = append(lib.functions, fn)
		weights[i] = 1.0
		if i < len(probabilities) {
			weights[i] = probabilities[i]
		}
	}
	lib.wheel = NewRouletteWheelLayout(weights...)
	if lib.wheel.Empty() {
		return nil, fmt.Errorf("activation library selection probabilities sum to zero")
	}
	return lib, nil
}

// GetActivation resolves an activation function by name.
func GetActivation(name string) (ActivationFunction, error) {
	if name == "rbf_gaussian" {
		return NewRBFGaussian(), nil
	}
	if fn, ok := ActivationFunctions[name]; ok {
		return plainActivation{name: name, fn: fn}, nil
	}
	return nil, fmt.Errorf("unknown activation function: %s", name)
}

// Len returns the number of functions in the library.
func (l *ActivationLibrary) Len() int { return len(l.functions) }

// Function returns the function registered under id.
func (l *ActivationLibrary) Function(id int) (ActivationFunction, error) {
	if id < 0 || id >= len(l.functions) {
		return nil, fmt.Errorf("%w: activation function id %d not in library", ErrInconsistentState, id)
	}
	return l.functions[id], nil
}

// RandomFunctionID draws a function ID by selection probability.
func (l *ActivationLibrary) RandomFunctionID(rng *rand.Rand) int {
	return l.wheel.Spin(rng)
}

// AcceptsAuxArgs reports whether any function with a non-zero selection
// probability carries auxiliary state.
func (l *ActivationLibrary) AcceptsAuxArgs() bool {
	for i, fn := range l.functions {
		if fn.AcceptsAuxArgs() && l.wheel.Probability(i) > 0 {
			return true
		}
	}
	return false
}

// --- Standard Activation Function Implementations ---

// Sigmoid is the steepened logistic function used by NEAT.
func Sigmoid(x float64, params ...float64) float64 {
	return 1.0 / (1.0 + math.Exp(-4.9*x))
}

// Tanh activation function.
func Tanh(x float64, params ...float64) float64 {
	return math.Tanh(x)
}

// ReLU (Rectified Linear Unit) activation function.
func ReLU(x float64, params ...float64) float64 {
	return math.Max(0, x)
}

// Identity activation function (linear).
func Identity(x float64, params ...float64) float64 {
	return x
}

// Clamped activation function (clamps output between -1 and 1).
func Clamped(x float64, params ...float64) float64 {
	return clamp(x, -1.0, 1.0)
}

// Gaussian activation function.
func Gaussian(x float64, params ...float64) float64 {
	return math.Exp(-x * x / 2.0)
}

// Absolute value activation function.
func Absolute(x float64, params ...float64) float64 {
	return math.Abs(x)
}

// Sine activation function.
func Sine(x float64, params ...float64) float64 {
	return math.Sin(x)
}

// Cosine activation function.
func Cosine(x float64, params ...float64) float64 {
	return math.Cos(x)
}

// Hat activation function (triangular pulse centered at 0).
func Hat(x float64, params ...float64) float64 {
	return math.Max(0.0, 1.0-math.Abs(x))
}

// Square activation function (x^2).
func Square(x float64, params ...float64) float64 {
	return x * x
}

// Cube activation function (x^3).
func Cube(x float64, params ...float64) float64 {
	return x * x * x
}
