package neat

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weightedList(weight float64, ids ...uint32) ConnectionGeneList {
	l := make(ConnectionGeneList, len(ids))
	for i, id := range ids {
		l[i] = NewConnectionGene(id, id, id+100, weight, 1, false)
	}
	return l
}

func TestCorrelateConnectionGeneLists(t *testing.T) {
	r := CorrelateConnectionGeneLists(weightedList(1, 1, 2, 4, 7), weightedList(0.5, 1, 3, 4))

	types := make([]CorrelationItemType, len(r.Items))
	for i, item := range r.Items {
		types[i] = item.Type
	}
	assert.Equal(t, []CorrelationItemType{MatchedGene, DisjointGene, DisjointGene, MatchedGene, ExcessGene}, types)
	assert.Equal(t, uint32(2), r.Items[1].Gene1.InnovationID)
	assert.Nil(t, r.Items[1].Gene2)
	assert.Equal(t, uint32(3), r.Items[2].Gene2.InnovationID)

	assert.Equal(t, 2, r.Stats.MatchingGeneCount)
	assert.Equal(t, 2, r.Stats.DisjointGeneCount)
	assert.Equal(t, 1, r.Stats.ExcessGeneCount)
	assert.InDelta(t, 1.0, r.Stats.ConnectionWeightDelta, 1e-12)
	assert.True(t, r.PerformIntegrityCheck())

	r.Items[0].Gene2 = nil
	assert.False(t, r.PerformIntegrityCheck())
}

func TestCorrelateEmptyLists(t *testing.T) {
	r := CorrelateConnectionGeneLists(nil, weightedList(1, 5, 6))
	assert.Equal(t, 2, r.Stats.ExcessGeneCount)
	assert.True(t, r.PerformIntegrityCheck())
}

func crossoverConfig() *Config {
	c := structuralConfig()
	c.Genome.DisjointExcessGenesRecombinedProbability = 1.0
	return c
}

// breed evolves a population and then produces rounds crossover children
// between random parents with random fitness.
func breed(t *testing.T, c *Config, rounds int) []*Genome {
	t.Helper()
	_, pop, _ := newModularPopulation(t, c, 6)
	evolve(t, pop, 300, 3)

	rng := rand.New(rand.NewSource(4))
	var children []*Genome
	for i := 0; i < rounds; i++ {
		p1, p2 := pop[rng.Intn(len(pop))], pop[rng.Intn(len(pop))]
		p1.Evaluation.SetFitness(float64(rng.Intn(3)))
		p2.Evaluation.SetFitness(float64(rng.Intn(3)))
		child, err := p1.CreateOffspringSexual(p2, 1)
		require.NoError(t, err)
		children = append(children, child)
	}
	return children
}

func TestCrossoverOffspringPassIntegrity(t *testing.T) {
	for _, child := range breed(t, crossoverConfig(), 100) {
		require.NoError(t, child.PerformIntegrityCheck())
		assert.Equal(t, uint32(1), child.BirthGeneration())
	}
}

func TestCrossoverRecurrentOffspringPassIntegrity(t *testing.T) {
	c := crossoverConfig()
	c.Genome.FeedForward = false
	for _, child := range breed(t, c, 100) {
		require.NoError(t, child.PerformIntegrityCheck())
	}
}

func TestCrossoverIsDeterministicForASeed(t *testing.T) {
	a := breed(t, crossoverConfig(), 20)
	b := breed(t, crossoverConfig(), 20)
	require.Len(t, b, len(a))
	for i := range a {
		assert.Equal(t, a[i].Snapshot(), b[i].Snapshot())
	}
}

func activeEndpoints(g *Genome) map[ConnectionEndpoints]bool {
	lo, hi := g.activeConnectionRange()
	out := make(map[ConnectionEndpoints]bool)
	for _, c := range g.connections[lo:hi] {
		out[c.Endpoints()] = true
	}
	return out
}

func TestCrossoverWithoutRecombinationFollowsFitterParent(t *testing.T) {
	c := structuralConfig()
	c.Genome.DisjointExcessGenesRecombinedProbability = 0
	_, pop, _ := newModularPopulation(t, c, 2)
	evolve(t, pop, 200, 5)

	fitter, weaker := pop[0], pop[1]
	fitter.Evaluation.SetFitness(10)
	weaker.Evaluation.SetFitness(1)

	for i := 0; i < 10; i++ {
		child, err := weaker.CreateOffspringSexual(fitter, 1)
		require.NoError(t, err)
		assert.Equal(t, activeEndpoints(fitter), activeEndpoints(child))
		assert.Equal(t, fitter.ActiveConnectionCount(), child.ActiveConnectionCount())
	}
}

func TestCrossoverKeepsClosedModules(t *testing.T) {
	c := structuralConfig()
	_, pop, _ := newModularPopulation(t, c, 2)
	evolve(t, pop, 100, 6)
	f := pop[0].factory
	_, err := f.AddModule(pop, ModuleSpec{
		RegulatoryInputs: []Link{{NeuronID: 0, Weight: 1}},
		LocalInputs:      [][]Link{{{NeuronID: 7, Weight: 1}}},
		LocalOutputs:     []Link{{NeuronID: 2, Weight: 1}},
	})
	require.NoError(t, err)

	child, err := pop[0].CreateOffspringSexual(pop[1], 1)
	require.NoError(t, err)
	lo := f.Layout().FirstActiveConnectionIndex
	assert.Equal(t, connectionIDs(pop[0])[:lo], connectionIDs(child)[:lo])
}

func TestCrossoverRequiresSharedFactory(t *testing.T) {
	_, pop1, _ := newModularPopulation(t, testConfig(), 1)
	_, pop2, _ := newModularPopulation(t, testConfig(), 1)
	_, err := pop1[0].CreateOffspringSexual(pop2[0], 1)
	assert.ErrorIs(t, err, ErrPreconditionFailed)
	_, err = pop1[0].CreateOffspringSexual(nil, 1)
	assert.ErrorIs(t, err, ErrPreconditionFailed)
}
