package neat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireIntegrityError(t *testing.T, g *Genome, invariant string) {
	t.Helper()
	err := g.PerformIntegrityCheck()
	require.Error(t, err)
	var ie *IntegrityError
	require.True(t, errors.As(err, &ie), "expected *IntegrityError, got %T", err)
	assert.Equal(t, invariant, ie.Invariant, ie.Error())
	assert.Equal(t, g.ID(), ie.GenomeID)
}

func TestIntegrityCheckDetectsCorruption(t *testing.T) {
	tests := []struct {
		name      string
		invariant string
		corrupt   func(g *Genome)
	}{
		{"weight out of range", "weight", func(g *Genome) {
			g.connections[len(g.connections)-1].Weight = 100
		}},
		{"unsorted active connections", "order", func(g *Genome) {
			n := len(g.connections)
			g.connections[n-1], g.connections[n-2] = g.connections[n-2], g.connections[n-1]
		}},
		{"stale adjacency", "connectivity", func(g *Genome) {
			g.NeuronByID(5).SourceNeurons.Add(2)
		}},
		{"wrong active count", "counts", func(g *Genome) {
			g.activeConnectionCount++
		}},
		{"duplicate endpoints", "unique", func(g *Genome) {
			dup := g.connections[len(g.connections)-1].Copy()
			dup.InnovationID = 50
			g.connections = append(g.connections, dup)
		}},
		{"missing regulatory neuron", "layout", func(g *Genome) {
			g.neurons.RemoveAt(3)
		}},
		{"connection leaves active module", "endpoints", func(g *Genome) {
			g.connections = append(g.connections, NewConnectionGene(60, 1, 7, 0, 1, false))
		}},
		{"redundant hidden neuron", "redundant", func(g *Genome) {
			g.neurons = append(g.neurons, NewNeuronGene(70, HiddenNode, 1, 0, nil))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, pop, _ := newModularPopulation(t, testConfig(), 1)
			g := pop[0]
			require.NoError(t, g.PerformIntegrityCheck())
			tt.corrupt(g)
			requireIntegrityError(t, g, tt.invariant)
		})
	}
}

func TestIntegrityCheckDetectsCycle(t *testing.T) {
	_, pop, _ := newModularPopulation(t, testConfig(), 1)
	g := pop[0]
	// 5 -> 19 -> 7, then 5 -> 22 -> 19.
	_, err := g.splitConnection(connectionIndex(t, g, 12))
	require.NoError(t, err)
	_, err = g.splitConnection(connectionIndex(t, g, 20))
	require.NoError(t, err)

	hidden19, err := g.activeNeuron(19)
	require.NoError(t, err)
	assert.True(t, g.isConnectionCyclic(hidden19, 22), "22 is an ancestor of 19")
	hidden22, err := g.activeNeuron(22)
	require.NoError(t, err)
	assert.False(t, g.isConnectionCyclic(hidden22, 19))

	g.connections = append(g.connections, NewConnectionGene(90, 19, 22, 1, 1, false))
	require.NoError(t, g.rebuildConnectivity())
	g.recomputeDerived()
	requireIntegrityError(t, g, "acyclic")
}

func TestIntegrityCheckAllowsRecurrentCycles(t *testing.T) {
	c := testConfig()
	c.Genome.FeedForward = false
	_, pop, _ := newModularPopulation(t, c, 1)
	g := pop[0]
	g.connections = append(g.connections, NewConnectionGene(90, 7, 7, 1, 1, false))
	require.NoError(t, g.rebuildConnectivity())
	g.recomputeDerived()
	assert.NoError(t, g.PerformIntegrityCheck())
}
