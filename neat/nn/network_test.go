package nn

import (
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablogps/EspNeat-sub001/neat"
)

func testFactory(t *testing.T, inputs, outputs int, feedForward bool, opts ...func(*neat.Config)) *neat.GenomeFactory {
	t.Helper()
	c := neat.DefaultConfig()
	c.Factory.InputCount = inputs
	c.Factory.OutputCount = outputs
	c.Factory.Seed = 3
	c.Factory.DebugChecks = true
	c.Genome.FeedForward = feedForward
	for _, opt := range opts {
		opt(c)
	}
	f, err := neat.NewGenomeFactory(c)
	require.NoError(t, err)
	f.Logger.SetOutput(io.Discard)
	return f
}

// singleLinkSpec wires the global input into one local input and the local
// output into the global output, with the regulatory neuron fed by the bias.
func singleLinkSpec(pandemonium int, regulatoryWeight float64) neat.ModuleSpec {
	return neat.ModuleSpec{
		Pandemonium:      pandemonium,
		RegulatoryInputs: []neat.Link{{NeuronID: 0, Weight: regulatoryWeight}},
		LocalInputs:      [][]neat.Link{{{NeuronID: 1, Weight: 1}}},
		LocalOutputs:     []neat.Link{{NeuronID: 2, Weight: 1}},
	}
}

func setFreeWeights(g *neat.Genome, w float64) {
	for _, c := range g.Connections() {
		if !c.Protected {
			c.Weight = w
		}
	}
}

func sig(x float64) float64 { return neat.Sigmoid(x) }

func TestDecodeBaseGenome(t *testing.T) {
	f := testFactory(t, 2, 1, true)
	pop, err := f.CreateGenomeList(1, 0)
	require.NoError(t, err)

	net, err := Decode(pop[0])
	require.NoError(t, err)
	assert.False(t, net.IsCyclic())
	assert.Empty(t, net.PandemoniumGroups())

	out, err := net.Activate([]float64{0.3, 0.9})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, out[0], 1e-12, "placeholder weight is zero")

	_, err = net.Activate([]float64{1})
	assert.Error(t, err)
}

func TestModuleOutputIsGatedByRegulatoryNeuron(t *testing.T) {
	f := testFactory(t, 1, 1, true)
	pop, err := f.CreateGenomeList(1, 0)
	require.NoError(t, err)
	_, err = f.AddModule(pop, singleLinkSpec(0, 1))
	require.NoError(t, err)
	g := pop[0]
	require.Equal(t, 1, g.ActiveConnectionCount())
	setFreeWeights(g, 1)

	net, err := Decode(g)
	require.NoError(t, err)
	assert.False(t, net.IsCyclic())

	for _, x := range []float64{0, 0.5, 1} {
		out, err := net.Activate([]float64{x})
		require.NoError(t, err)
		lo := sig(sig(x))
		assert.InDelta(t, sig(lo*sig(1)), out[0], 1e-12)
	}
}

func TestPandemoniumPassesOnlyTheWinner(t *testing.T) {
	f := testFactory(t, 1, 1, true)
	pop, err := f.CreateGenomeList(1, 0)
	require.NoError(t, err)
	_, err = f.AddModule(pop, singleLinkSpec(1, 2))
	require.NoError(t, err)
	second, err := f.AddModule(pop, singleLinkSpec(1, -2))
	require.NoError(t, err)
	g := pop[0]
	setFreeWeights(g, 1)

	net, err := Decode(g)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, net.PandemoniumGroups())

	x := 0.7
	lo := sig(sig(x))
	out, err := net.Activate([]float64{x})
	require.NoError(t, err)
	assert.InDelta(t, sig(lo*sig(2)), out[0], 1e-12, "first module wins")

	for _, c := range g.Connections() {
		if c.TargetID == second.RegulatoryID {
			c.Weight = 3
		}
	}
	net, err = Decode(g)
	require.NoError(t, err)
	out, err = net.Activate([]float64{x})
	require.NoError(t, err)
	assert.InDelta(t, sig(lo*sig(3)), out[0], 1e-12, "second module takes over")
}

func TestRecurrentNetworkRelaxes(t *testing.T) {
	f := testFactory(t, 1, 1, false)
	pop, err := f.CreateGenomeList(1, 0)
	require.NoError(t, err)
	info, err := f.AddModule(pop, singleLinkSpec(0, 1))
	require.NoError(t, err)

	s := pop[0].Snapshot()
	lo := info.LocalOutputIDs[0]
	s.Connections = append(s.Connections, neat.ConnectionSnapshot{ID: 500, Source: lo, Target: lo, Weight: 0.5, Module: info.ID})
	g, err := f.RestoreGenome(s)
	require.NoError(t, err)

	net, err := Decode(g)
	require.NoError(t, err)
	require.True(t, net.IsCyclic())

	first, err := net.Activate([]float64{1})
	require.NoError(t, err)
	second, err := net.Activate([]float64{1})
	require.NoError(t, err)
	assert.False(t, math.IsNaN(first[0]))
	assert.NotEqual(t, first[0], second[0], "state carries over between activations")

	net.Reset()
	again, err := net.Activate([]float64{1})
	require.NoError(t, err)
	assert.Equal(t, first[0], again[0])
}

func TestDecodeEvolvedGenomes(t *testing.T) {
	f := testFactory(t, 2, 2, true, func(c *neat.Config) {
		c.Genome.AddNodeMutationProbability = 0.3
		c.Genome.AddConnectionMutationProbability = 0.3
	})
	pop, err := f.CreateGenomeList(3, 0)
	require.NoError(t, err)
	_, err = f.AddModule(pop, neat.ModuleSpec{
		RegulatoryInputs: []neat.Link{{NeuronID: 0, Weight: 1}},
		LocalInputs:      [][]neat.Link{{{NeuronID: 1, Weight: 1}}, {{NeuronID: 2, Weight: 1}}},
		LocalOutputs:     []neat.Link{{NeuronID: 3, Weight: 1}, {NeuronID: 4, Weight: 1}},
	})
	require.NoError(t, err)

	g := pop[0]
	for i := 0; i < 100; i++ {
		child, err := g.CreateOffspring(uint32(i + 1))
		require.NoError(t, err)
		g = child
	}
	net, err := Decode(g)
	require.NoError(t, err)
	assert.False(t, net.IsCyclic())
	out, err := net.Activate([]float64{0.2, -0.4})
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, v := range out {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}
