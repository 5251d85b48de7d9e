package neat

import (
	"gonum.org/v1/gonum/graph/simple"
)

// Genome represents an individual organism in the population.
// It consists of NeuronGenes and ConnectionGenes laid out per module; only the
// active (last) module is ever changed by mutation or crossover.
type Genome struct {
	id              uint32
	birthGeneration uint32
	factory         *GenomeFactory

	neurons     NeuronGeneList
	connections ConnectionGeneList

	// Derived counts, kept in step with the gene lists.
	activeConnectionCount int
	auxStateNeuronCount   int

	// Evaluation holds the fitness assigned by the caller's evaluator.
	Evaluation EvaluationInfo

	// Caches dropped whenever the gene lists change.
	position *CoordinateVector
	graph    *simple.DirectedGraph
}

func newGenome(f *GenomeFactory, id, birthGeneration uint32, neurons NeuronGeneList, connections ConnectionGeneList) *Genome {
	return &Genome{
		id:              id,
		birthGeneration: birthGeneration,
		factory:         f,
		neurons:         neurons,
		connections:     connections,
		Evaluation:      NewEvaluationInfo(f.Config.Genome.FitnessHistoryLength),
	}
}

// ID returns the genome's unique identifier.
func (g *Genome) ID() uint32 { return g.id }

// BirthGeneration returns the generation the genome was created in.
func (g *Genome) BirthGeneration() uint32 { return g.birthGeneration }

// Factory returns the factory that owns this genome.
func (g *Genome) Factory() *GenomeFactory { return g.factory }

// Neurons exposes the neuron gene list. Callers must treat it as read-only.
func (g *Genome) Neurons() NeuronGeneList { return g.neurons }

// Connections exposes the connection gene list. Callers must treat it as read-only.
func (g *Genome) Connections() ConnectionGeneList { return g.connections }

// ActiveConnectionCount is the number of non-protected connections in the active module.
func (g *Genome) ActiveConnectionCount() int { return g.activeConnectionCount }

// AuxStateNeuronCount is the number of active-module neurons carrying auxiliary state.
func (g *Genome) AuxStateNeuronCount() int { return g.auxStateNeuronCount }

// Complexity is the total connection count.
func (g *Genome) Complexity() float64 { return float64(len(g.connections)) }

// activeNeuronRange returns [lo, hi) of the active module's neuron block.
func (g *Genome) activeNeuronRange() (int, int) {
	return g.factory.layout.FirstActiveNeuronIndex, len(g.neurons)
}

// activeConnectionRange returns [lo, hi) of the active module's non-protected connections.
func (g *Genome) activeConnectionRange() (int, int) {
	return g.factory.layout.FirstActiveConnectionIndex, len(g.connections)
}

// activeNeuron looks up id inside the active module block.
func (g *Genome) activeNeuron(id uint32) (*NeuronGene, error) {
	lo, hi := g.activeNeuronRange()
	if n := g.neurons.GetByID(id, lo, hi); n != nil {
		return n, nil
	}
	return nil, inconsistentf("genome %d: neuron %d not found in active module", g.id, id)
}

// NeuronByID looks up a neuron anywhere in the genome.
func (g *Genome) NeuronByID(id uint32) *NeuronGene {
	l := g.factory.layout
	if int(id) < l.BaseNeuronCount() && g.neurons[id].InnovationID == id {
		return g.neurons[id]
	}
	for _, n := range g.neurons {
		if n.InnovationID == id {
			return n
		}
	}
	return nil
}

func (g *Genome) invalidateCaches() {
	g.position = nil
	g.graph = nil
}

// clone returns a deep copy with a new identity and a cleared evaluation.
func (g *Genome) clone(id, birthGeneration uint32) *Genome {
	c := newGenome(g.factory, id, birthGeneration, g.neurons.Copy(), g.connections.Copy())
	c.activeConnectionCount = g.activeConnectionCount
	c.auxStateNeuronCount = g.auxStateNeuronCount
	return c
}

// CreateOffspring produces an asexual offspring: a mutated copy of g.
func (g *Genome) CreateOffspring(birthGeneration uint32) (*Genome, error) {
	f := g.factory
	f.mu.Lock()
	defer f.mu.Unlock()

	child := g.clone(f.genomeIDs.NextID(), birthGeneration)
	if _, err := child.mutate(); err != nil {
		return nil, err
	}
	return child, nil
}

// CreateOffspringSexual produces an offspring by crossover with other. Both
// parents must come from the same factory.
func (g *Genome) CreateOffspringSexual(other *Genome, birthGeneration uint32) (*Genome, error) {
	if other == nil || other.factory != g.factory {
		return nil, preconditionf("crossover parents must share a factory")
	}
	f := g.factory
	f.mu.Lock()
	defer f.mu.Unlock()

	child, err := g.crossover(other, birthGeneration)
	if err != nil {
		return nil, err
	}
	if err := f.debugCheck(child); err != nil {
		return nil, err
	}
	return child, nil
}

// --------------------------- Derived state ---------------------------

// RebuildConnectivity recomputes every neuron's source and target sets from
// the connection list.
func (g *Genome) RebuildConnectivity() error {
	return g.rebuildConnectivity()
}

func (g *Genome) rebuildConnectivity() error {
	byID := make(map[uint32]*NeuronGene, len(g.neurons))
	for _, n := range g.neurons {
		n.SourceNeurons = make(NeuronIDSet)
		n.TargetNeurons = make(NeuronIDSet)
		byID[n.InnovationID] = n
	}
	for _, c := range g.connections {
		src, ok := byID[c.SourceID]
		if !ok {
			return inconsistentf("genome %d: connection %d references missing source neuron %d", g.id, c.InnovationID, c.SourceID)
		}
		tgt, ok := byID[c.TargetID]
		if !ok {
			return inconsistentf("genome %d: connection %d references missing target neuron %d", g.id, c.InnovationID, c.TargetID)
		}
		src.TargetNeurons.Add(c.TargetID)
		tgt.SourceNeurons.Add(c.SourceID)
	}
	g.invalidateCaches()
	return nil
}

// RecomputeActiveConnectionCount recounts the non-protected connections of the active module.
func (g *Genome) RecomputeActiveConnectionCount() int {
	lo, hi := g.activeConnectionRange()
	count := 0
	for _, c := range g.connections[lo:hi] {
		if !c.Protected {
			count++
		}
	}
	g.activeConnectionCount = count
	return count
}

// RecomputeAuxStateNeuronCount recounts the active-module neurons whose
// activation function carries auxiliary state.
func (g *Genome) RecomputeAuxStateNeuronCount() int {
	lo, hi := g.activeNeuronRange()
	count := 0
	for _, n := range g.neurons[lo:hi] {
		if n.NodeType != HiddenNode {
			continue
		}
		if fn, err := g.factory.activations.Function(n.ActivationFnID); err == nil && fn.AcceptsAuxArgs() {
			count++
		}
	}
	g.auxStateNeuronCount = count
	return count
}

func (g *Genome) recomputeDerived() {
	g.RecomputeActiveConnectionCount()
	g.RecomputeAuxStateNeuronCount()
	g.invalidateCaches()
}

// Position returns the genome's coordinate in the active module's connection
// space: one (innovation ID, weight) element per active connection. The vector
// is cached until the next change to the genome.
func (g *Genome) Position() CoordinateVector {
	g.factory.mu.Lock()
	defer g.factory.mu.Unlock()
	if g.position == nil {
		lo, hi := g.activeConnectionRange()
		elements := make([]CoordinateElement, 0, hi-lo)
		for _, c := range g.connections[lo:hi] {
			elements = append(elements, CoordinateElement{ID: c.InnovationID, Value: c.Weight})
		}
		g.position = &CoordinateVector{Elements: elements}
	}
	return *g.position
}

// Graph returns a gonum snapshot of the genome's connectivity. Node IDs are
// neuron innovation IDs. Self-loops, which only occur in recurrent genomes,
// are left out because the simple graph cannot represent them.
func (g *Genome) Graph() *simple.DirectedGraph {
	g.factory.mu.Lock()
	defer g.factory.mu.Unlock()
	return g.connectivityGraph()
}

func (g *Genome) connectivityGraph() *simple.DirectedGraph {
	if g.graph == nil {
		dg := simple.NewDirectedGraph()
		for _, n := range g.neurons {
			dg.AddNode(simple.Node(int64(n.InnovationID)))
		}
		for _, c := range g.connections {
			if c.SourceID == c.TargetID {
				continue
			}
			dg.SetEdge(dg.NewEdge(simple.Node(int64(c.SourceID)), simple.Node(int64(c.TargetID))))
		}
		g.graph = dg
	}
	return g.graph
}
