package neat

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/gofrs/uuid"
)

// Layout holds the boundary markers shared by every genome of a population.
// Closed modules are structurally identical across the population, so these
// indices are derived once per batch operation rather than per genome.
type Layout struct {
	InputCount  int
	OutputCount int

	ActiveModule               int // 0 means only the base topology exists
	FirstActiveNeuronIndex     int // index of the active module's regulatory neuron
	FirstActiveConnectionIndex int // index of the first non-protected connection of the active module
	InHiddenModules            int // neurons in closed (non-active) modules

	Regulatory int
	LocalIn    int
	LocalOut   int
}

// BaseNeuronCount is the number of bias, input and output neurons.
func (l Layout) BaseNeuronCount() int { return 1 + l.InputCount + l.OutputCount }

// LastBaseIndex is the index of the last global output neuron.
func (l Layout) LastBaseIndex() int { return l.BaseNeuronCount() - 1 }

// GenomeFactory is the population-wide authority for genome IDs, innovation
// IDs, innovation history and module layout. All genomes created by a factory
// keep a reference to it and route ID issuance through it.
type GenomeFactory struct {
	Config *Config
	Logger *log.Logger
	RunID  uuid.UUID

	// mu serialises every operation that issues IDs, consults the history
	// buffers or draws from rng.
	mu  sync.Mutex
	rng *rand.Rand

	activations         *ActivationLibrary
	weightMutations     ConnectionMutationInfoList
	weightMutationWheel *RouletteWheelLayout
	mutationWheel       *RouletteWheelLayout
	nonDestructiveWheel *RouletteWheelLayout

	genomeIDs     *IDGenerator
	innovationIDs *IDGenerator

	addedConnectionBuffer *KeyedCircularBuffer[ConnectionEndpoints, uint32]
	addedNeuronBuffer     *KeyedCircularBuffer[uint32, AddedNeuronGeneStruct]

	layout       Layout
	modules      []*ModuleInfo // layout order: oldest first, active last
	nextModuleID int
}

// NewGenomeFactory creates a factory for the given configuration.
func NewGenomeFactory(config *Config) (*GenomeFactory, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	lib, err := NewActivationLibrary(config.Activation.Options, config.Activation.Probabilities)
	if err != nil {
		return nil, err
	}
	scheme, err := ConnectionMutationScheme(config.Genome.WeightMutationScheme)
	if err != nil {
		return nil, err
	}
	runID, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate run id: %w", err)
	}
	seed := config.Factory.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	f := &GenomeFactory{
		Config:              config,
		Logger:              log.New(os.Stderr, "neat: ", log.LstdFlags),
		RunID:               runID,
		rng:                 rand.New(rand.NewSource(seed)),
		activations:         lib,
		weightMutations:     scheme,
		weightMutationWheel: scheme.Wheel(),
	}
	g := &config.Genome
	f.mutationWheel = NewRouletteWheelLayout(
		g.ConnectionWeightMutationProbability,
		g.AddNodeMutationProbability,
		g.AddConnectionMutationProbability,
		g.NodeAuxStateMutationProbability,
		g.DeleteConnectionMutationProbability,
	)
	f.nonDestructiveWheel = NewRouletteWheelLayout(
		g.ConnectionWeightMutationProbability,
		g.AddNodeMutationProbability,
		g.AddConnectionMutationProbability,
		g.NodeAuxStateMutationProbability,
		0,
	)
	f.reset()
	return f, nil
}

// Reset discards all ID and history state and starts a new run with a fresh
// RunID. Genomes created before the reset must not be used with the factory
// afterwards.
func (f *GenomeFactory) Reset() error {
	runID, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("failed to generate run id: %w", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	previous := f.RunID
	f.RunID = runID
	f.reset()
	f.Logger.Printf("factory reset: run %s replaces %s", f.RunID, previous)
	return nil
}

func (f *GenomeFactory) reset() {
	in, out := f.Config.Factory.InputCount, f.Config.Factory.OutputCount
	f.genomeIDs = NewIDGenerator(0)
	// bias, inputs and outputs take IDs 0..in+out, the placeholder connection the next one.
	f.innovationIDs = NewIDGenerator(uint32(in + out + 2))
	f.addedConnectionBuffer = NewKeyedCircularBuffer[ConnectionEndpoints, uint32](f.Config.Factory.HistoryBufferSize)
	f.addedNeuronBuffer = NewKeyedCircularBuffer[uint32, AddedNeuronGeneStruct](f.Config.Factory.HistoryBufferSize)
	f.modules = nil
	f.nextModuleID = 1
	f.layout = Layout{
		InputCount:                 in,
		OutputCount:                out,
		FirstActiveNeuronIndex:     1 + in + out,
		FirstActiveConnectionIndex: 1,
	}
}

// Layout returns a copy of the current boundary markers.
func (f *GenomeFactory) Layout() Layout {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.layout
}

// ActivationLibrary returns the library hidden neurons draw their functions from.
func (f *GenomeFactory) ActivationLibrary() *ActivationLibrary { return f.activations }

// CreateGenomeList creates count genomes holding only the base topology:
// bias, global inputs, global outputs and one zero-weight placeholder
// connection from the bias to the first output.
func (f *GenomeFactory) CreateGenomeList(count int, birthGeneration uint32) ([]*Genome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if count <= 0 {
		return nil, preconditionf("genome count must be positive, got %d", count)
	}
	if len(f.modules) > 0 {
		return nil, preconditionf("base genomes can only be created before any module is added")
	}
	genomes := make([]*Genome, 0, count)
	for i := 0; i < count; i++ {
		g := f.createBaseGenome(birthGeneration)
		if err := f.debugCheck(g); err != nil {
			return nil, err
		}
		genomes = append(genomes, g)
	}
	return genomes, nil
}

func (f *GenomeFactory) createBaseGenome(birthGeneration uint32) *Genome {
	in, out := f.layout.InputCount, f.layout.OutputCount
	neurons := make(NeuronGeneList, 0, 1+in+out)
	neurons = append(neurons, NewNeuronGene(0, BiasNode, 0, 0, nil))
	for i := 1; i <= in; i++ {
		neurons = append(neurons, NewNeuronGene(uint32(i), InputNode, 0, 0, nil))
	}
	for i := in + 1; i <= in+out; i++ {
		neurons = append(neurons, NewNeuronGene(uint32(i), OutputNode, 0, 0, nil))
	}
	placeholder := NewConnectionGene(uint32(in+out+1), 0, uint32(in+1), 0, 0, true)
	g := newGenome(f, f.genomeIDs.NextID(), birthGeneration, neurons, ConnectionGeneList{placeholder})
	g.rebuildConnectivity()
	return g
}

// SelectChampion returns the fittest genome; ties go to the earliest one.
func SelectChampion(population []*Genome) (*Genome, error) {
	if len(population) == 0 {
		return nil, preconditionf("population is empty")
	}
	champion := population[0]
	for _, g := range population[1:] {
		if g.Evaluation.Fitness > champion.Evaluation.Fitness {
			champion = g
		}
	}
	return champion, nil
}

// cloneChampionAcross overwrites every genome's gene lists with copies of the
// champion's, keeping each genome's identity. Evaluations are cleared.
func (f *GenomeFactory) cloneChampionAcross(population []*Genome, champion *Genome) error {
	for _, g := range population {
		if g.factory != f {
			return preconditionf("genome %d belongs to a different factory", g.id)
		}
	}
	neurons, connections := champion.neurons, champion.connections
	for _, g := range population {
		if g != champion {
			g.neurons = neurons.Copy()
			g.connections = connections.Copy()
			g.activeConnectionCount = champion.activeConnectionCount
			g.auxStateNeuronCount = champion.auxStateNeuronCount
		}
		g.Evaluation.Reset()
		g.invalidateCaches()
	}
	return nil
}

// deriveLayout recomputes the shared boundary markers from a representative genome.
func (f *GenomeFactory) deriveLayout(g *Genome) Layout {
	l := Layout{
		InputCount:   f.layout.InputCount,
		OutputCount:  f.layout.OutputCount,
		ActiveModule: f.activeModuleID(),
	}
	base := l.BaseNeuronCount()
	l.FirstActiveNeuronIndex = len(g.neurons)
	if l.ActiveModule != 0 {
		for i := base; i < len(g.neurons); i++ {
			if g.neurons[i].ModuleID == l.ActiveModule {
				l.FirstActiveNeuronIndex = i
				break
			}
		}
	}
	l.InHiddenModules = l.FirstActiveNeuronIndex - base

	chunkStart := len(g.connections)
	for i, c := range g.connections {
		if c.ModuleID == l.ActiveModule {
			chunkStart = i
			break
		}
	}
	i := chunkStart
	for i < len(g.connections) && g.connections[i].ModuleID == l.ActiveModule && g.connections[i].Protected {
		i++
	}
	l.FirstActiveConnectionIndex = i

	for _, n := range g.neurons {
		switch n.NodeType {
		case RegulatoryNode:
			l.Regulatory++
		case LocalInputNode:
			l.LocalIn++
		case LocalOutputNode:
			l.LocalOut++
		}
	}
	return l
}

func (f *GenomeFactory) activeModuleID() int {
	if len(f.modules) == 0 {
		return 0
	}
	return f.modules[len(f.modules)-1].ID
}

// randomWeight draws a weight uniformly from ±WeightRange.
func (f *GenomeFactory) randomWeight() float64 {
	return (f.rng.Float64()*2 - 1) * f.Config.Genome.WeightRange
}

// newHiddenActivation draws an activation function, and aux state if it needs one.
func (f *GenomeFactory) newHiddenActivation() (int, []float64, error) {
	id := f.activations.RandomFunctionID(f.rng)
	fn, err := f.activations.Function(id)
	if err != nil {
		return 0, nil, err
	}
	if !fn.AcceptsAuxArgs() {
		return id, nil, nil
	}
	return id, fn.RandomAuxArgs(f.rng, f.Config.Genome.WeightRange), nil
}

// debugCheck runs the integrity check when debug checks are enabled.
func (f *GenomeFactory) debugCheck(g *Genome) error {
	if !f.Config.Factory.DebugChecks {
		return nil
	}
	return g.checkIntegrity()
}
