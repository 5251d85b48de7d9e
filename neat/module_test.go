package neat

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// secondSpec builds a module fed by the first module's local output.
func secondSpec() ModuleSpec {
	return ModuleSpec{
		Pandemonium:      1,
		RegulatoryInputs: []Link{{NeuronID: 1, Weight: -1}},
		LocalInputs:      [][]Link{{{NeuronID: 7, Weight: 1}, {NeuronID: 1, Weight: 0.5}}},
		LocalOutputs:     []Link{{NeuronID: 2, Weight: 1}},
	}
}

func moduleChunk(g *Genome, moduleID int) []ConnectionSnapshot {
	var out []ConnectionSnapshot
	for _, c := range g.Snapshot().Connections {
		if c.Module == moduleID {
			out = append(out, c)
		}
	}
	return out
}

func TestAddModuleValidation(t *testing.T) {
	tests := []struct {
		name string
		spec ModuleSpec
	}{
		{"no local inputs", ModuleSpec{LocalOutputs: []Link{{NeuronID: 2, Weight: 1}}}},
		{"no local outputs", ModuleSpec{LocalInputs: [][]Link{{{NeuronID: 1, Weight: 1}}}}},
		{"missing source", ModuleSpec{
			LocalInputs:  [][]Link{{{NeuronID: 99, Weight: 1}}},
			LocalOutputs: []Link{{NeuronID: 2, Weight: 1}},
		}},
		{"output feeds module", ModuleSpec{
			LocalInputs:  [][]Link{{{NeuronID: 2, Weight: 1}}},
			LocalOutputs: []Link{{NeuronID: 2, Weight: 1}},
		}},
		{"local output targets input", ModuleSpec{
			LocalInputs:  [][]Link{{{NeuronID: 1, Weight: 1}}},
			LocalOutputs: []Link{{NeuronID: 1, Weight: 1}},
		}},
		{"weight out of range", ModuleSpec{
			RegulatoryInputs: []Link{{NeuronID: 0, Weight: 50}},
			LocalInputs:      [][]Link{{{NeuronID: 1, Weight: 1}}},
			LocalOutputs:     []Link{{NeuronID: 2, Weight: 1}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestFactory(t, testConfig())
			pop, err := f.CreateGenomeList(2, 0)
			require.NoError(t, err)

			_, err = f.AddModule(pop, tt.spec)
			assert.ErrorIs(t, err, ErrPreconditionFailed)
			assert.Empty(t, f.Modules())
			assert.Len(t, pop[0].Connections(), 1, "a rejected module leaves genomes alone")
		})
	}
}

func TestAddModuleRecurrentOutputSource(t *testing.T) {
	c := testConfig()
	c.Genome.FeedForward = false
	f := newTestFactory(t, c)
	pop, err := f.CreateGenomeList(1, 0)
	require.NoError(t, err)

	_, err = f.AddModule(pop, ModuleSpec{
		LocalInputs:  [][]Link{{{NeuronID: 2, Weight: 1}}},
		LocalOutputs: []Link{{NeuronID: 2, Weight: 1}},
	})
	require.NoError(t, err)
	assert.NoError(t, pop[0].PerformIntegrityCheck())
}

func TestAddModuleClonesChampion(t *testing.T) {
	_, pop, _ := newModularPopulation(t, structuralConfig(), 4)
	evolve(t, pop, 100, 7)
	pop[2].Evaluation.SetFitness(5)
	champion := moduleChunk(pop[2], 1)
	f := pop[0].factory

	info, err := f.AddModule(pop, secondSpec())
	require.NoError(t, err)
	assert.Equal(t, 2, info.ID)
	assert.Equal(t, 1, info.Pandemonium)

	for i, g := range pop {
		assert.Equal(t, uint32(i), g.ID(), "genomes keep their identity")
		assert.Equal(t, champion, moduleChunk(g, 1))
		assert.Zero(t, g.Evaluation.Fitness)
		assert.Equal(t, 1, g.ActiveConnectionCount())
	}
	l := f.Layout()
	assert.Equal(t, 2, l.ActiveModule)
	assert.Equal(t, 2, l.Regulatory)
	assert.Equal(t, 3, l.LocalIn)
	assert.Equal(t, 2, l.LocalOut)
	assert.Equal(t, len(pop[0].Neurons())-3, l.FirstActiveNeuronIndex)
	assert.Equal(t, l.FirstActiveNeuronIndex-l.BaseNeuronCount(), l.InHiddenModules)
}

func TestClosedModulesAreFrozen(t *testing.T) {
	_, pop, _ := newModularPopulation(t, structuralConfig(), 3)
	f := pop[0].factory
	_, err := f.AddModule(pop, secondSpec())
	require.NoError(t, err)
	frozen := moduleChunk(pop[0], 1)

	evolve(t, pop, 200, 8)
	for _, g := range pop {
		assert.Equal(t, frozen, moduleChunk(g, 1))
	}
}

func TestActivateModule(t *testing.T) {
	_, pop, _ := newModularPopulation(t, structuralConfig(), 3)
	f := pop[0].factory
	_, err := f.AddModule(pop, secondSpec())
	require.NoError(t, err)

	require.NoError(t, f.ActivateModule(pop, 1))
	modules := f.Modules()
	require.Len(t, modules, 2)
	assert.Equal(t, 2, modules[0].ID)
	assert.Equal(t, 1, modules[1].ID)

	l := f.Layout()
	assert.Equal(t, 1, l.ActiveModule)
	for _, g := range pop {
		assert.Equal(t, RegulatoryNode, g.neurons[l.FirstActiveNeuronIndex].NodeType)
		assert.Equal(t, 1, g.neurons[l.FirstActiveNeuronIndex].ModuleID)
		assert.Equal(t, 2, g.ActiveConnectionCount())
		require.NoError(t, g.PerformIntegrityCheck())
	}

	// Module 1 evolves again, module 2 is now frozen.
	frozen := moduleChunk(pop[0], 2)
	evolve(t, pop, 100, 9)
	for _, g := range pop {
		assert.Equal(t, frozen, moduleChunk(g, 2))
	}

	before := pop[0].Snapshot()
	require.NoError(t, f.ActivateModule(pop, 1))
	assert.Equal(t, before, pop[0].Snapshot(), "activating the active module is a no-op")

	assert.ErrorIs(t, f.ActivateModule(pop, 9), ErrModuleNotFound)
}

func TestDeleteModule(t *testing.T) {
	_, pop, _ := newModularPopulation(t, testConfig(), 2)
	f := pop[0].factory
	_, err := f.AddModule(pop, secondSpec())
	require.NoError(t, err)

	err = f.DeleteModule(pop, 2)
	assert.ErrorIs(t, err, ErrModuleActive)
	assert.ErrorIs(t, err, ErrPreconditionFailed)
	assert.ErrorIs(t, f.DeleteModule(pop, 0), ErrPreconditionFailed)
	assert.ErrorIs(t, f.DeleteModule(pop, 9), ErrModuleNotFound)

	require.NoError(t, f.DeleteModule(pop, 1))
	modules := f.Modules()
	require.Len(t, modules, 1)
	assert.Equal(t, 2, modules[0].ID)

	for _, g := range pop {
		assert.Nil(t, g.NeuronByID(7))
		for _, c := range g.Connections() {
			assert.NotEqual(t, uint32(7), c.SourceID, "links from the deleted module go with it")
			assert.NotEqual(t, 1, c.ModuleID)
		}
		require.NoError(t, g.PerformIntegrityCheck())
	}
	assert.Equal(t, 0, f.Layout().InHiddenModules)
}

func TestResetActiveModule(t *testing.T) {
	_, pop, _ := newModularPopulation(t, structuralConfig(), 3)
	f := pop[0].factory
	evolve(t, pop, 150, 10)

	require.NoError(t, f.ResetActiveModule(pop))
	for _, g := range pop {
		assert.Equal(t, []uint32{3, 8, 9, 10, 11, 12, 13}, connectionIDs(g))
		assert.Len(t, g.Neurons(), 7, "hidden neurons are dropped")
		assert.NoError(t, g.PerformIntegrityCheck())
	}

	empty := newTestFactory(t, testConfig())
	base, err := empty.CreateGenomeList(1, 0)
	require.NoError(t, err)
	assert.ErrorIs(t, empty.ResetActiveModule(base), ErrPreconditionFailed)
}

func TestReadersAreSafeDuringModuleBatches(t *testing.T) {
	f, pop, _ := newModularPopulation(t, testConfig(), 3)
	second, err := f.AddModule(pop, secondSpec())
	require.NoError(t, err)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			_ = pop[1].Position()
			_ = pop[1].Graph()
			_ = pop[1].Dump()
		}
	}()

	for i := 0; i < 20; i++ {
		id := 1
		if i%2 == 1 {
			id = second.ID
		}
		require.NoError(t, f.ActivateModule(pop, id))
	}
	close(done)
	wg.Wait()

	for _, g := range pop {
		assert.NoError(t, g.PerformIntegrityCheck())
	}
}
