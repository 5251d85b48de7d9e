package neat

import (
	"slices"

	"github.com/campoy/unique"
)

// CorrelationItemType classifies a gene position in a two-list correlation.
type CorrelationItemType int

const (
	MatchedGene CorrelationItemType = iota
	DisjointGene
	ExcessGene
)

// CorrelationItem pairs up genes with the same innovation ID. Exactly one of
// Gene1/Gene2 is nil for disjoint and excess items.
type CorrelationItem struct {
	Type  CorrelationItemType
	Gene1 *ConnectionGene
	Gene2 *ConnectionGene
}

// CorrelationStatistics summarises a correlation.
type CorrelationStatistics struct {
	MatchingGeneCount     int
	DisjointGeneCount     int
	ExcessGeneCount       int
	ConnectionWeightDelta float64 // sum of |w1-w2| over matching genes
}

// CorrelationResults is the ordered outcome of correlating two connection lists.
type CorrelationResults struct {
	Items []CorrelationItem
	Stats CorrelationStatistics
}

// CorrelateConnectionGeneLists walks two ID-sorted lists in one merge pass.
// Genes past the end of the other list are excess, other mismatches disjoint.
func CorrelateConnectionGeneLists(list1, list2 ConnectionGeneList) *CorrelationResults {
	r := &CorrelationResults{Items: make([]CorrelationItem, 0, len(list1)+len(list2))}
	i, j := 0, 0
	for i < len(list1) && j < len(list2) {
		c1, c2 := list1[i], list2[j]
		switch {
		case c1.InnovationID < c2.InnovationID:
			r.add(CorrelationItem{Type: DisjointGene, Gene1: c1})
			i++
		case c1.InnovationID > c2.InnovationID:
			r.add(CorrelationItem{Type: DisjointGene, Gene2: c2})
			j++
		default:
			r.add(CorrelationItem{Type: MatchedGene, Gene1: c1, Gene2: c2})
			i++
			j++
		}
	}
	for ; i < len(list1); i++ {
		r.add(CorrelationItem{Type: ExcessGene, Gene1: list1[i]})
	}
	for ; j < len(list2); j++ {
		r.add(CorrelationItem{Type: ExcessGene, Gene2: list2[j]})
	}
	return r
}

func (r *CorrelationResults) add(item CorrelationItem) {
	r.Items = append(r.Items, item)
	switch item.Type {
	case MatchedGene:
		r.Stats.MatchingGeneCount++
		d := item.Gene1.Weight - item.Gene2.Weight
		if d < 0 {
			d = -d
		}
		r.Stats.ConnectionWeightDelta += d
	case DisjointGene:
		r.Stats.DisjointGeneCount++
	case ExcessGene:
		r.Stats.ExcessGeneCount++
	}
}

// PerformIntegrityCheck verifies that items are ID-ordered and well formed.
func (r *CorrelationResults) PerformIntegrityCheck() bool {
	var prev uint32
	for i, item := range r.Items {
		var id uint32
		switch item.Type {
		case MatchedGene:
			if item.Gene1 == nil || item.Gene2 == nil || item.Gene1.InnovationID != item.Gene2.InnovationID {
				return false
			}
			id = item.Gene1.InnovationID
		case DisjointGene, ExcessGene:
			if (item.Gene1 == nil) == (item.Gene2 == nil) {
				return false
			}
			if item.Gene1 != nil {
				id = item.Gene1.InnovationID
			} else {
				id = item.Gene2.InnovationID
			}
		default:
			return false
		}
		if i > 0 && item.Type != ExcessGene && id <= prev {
			return false
		}
		prev = id
	}
	return true
}

// --------------------------- Offspring builder ---------------------------

// offspringBuilder accumulates the active-module genes of a crossover child.
type offspringBuilder struct {
	feedForward bool
	neurons     map[uint32]*NeuronGene
	neuronIDs   []uint32
	connections ConnectionGeneList
	byEndpoints map[ConnectionEndpoints]int // index into connections
	sources     map[uint32][]uint32         // target -> sources, for cycle checks
}

func newOffspringBuilder(feedForward bool) *offspringBuilder {
	return &offspringBuilder{
		feedForward: feedForward,
		neurons:     make(map[uint32]*NeuronGene),
		byEndpoints: make(map[ConnectionEndpoints]int),
		sources:     make(map[uint32][]uint32),
	}
}

// registerNeuron records n; the first registration of an ID wins.
func (b *offspringBuilder) registerNeuron(n *NeuronGene) {
	b.neuronIDs = append(b.neuronIDs, n.InnovationID)
	if _, ok := b.neurons[n.InnovationID]; !ok {
		b.neurons[n.InnovationID] = n.copyWithoutConnectivity()
	}
}

// tryAddGene adds a copy of c taken from parent. A gene whose endpoints are
// already present replaces the existing one only when overwrite is set. With
// checkCycles, a gene that would close a cycle in the accumulated graph is skipped.
func (b *offspringBuilder) tryAddGene(c *ConnectionGene, parent *Genome, overwrite, checkCycles bool) error {
	key := c.Endpoints()
	if idx, ok := b.byEndpoints[key]; ok {
		if overwrite {
			b.connections[idx] = c.Copy()
		}
		return nil
	}
	if checkCycles && b.wouldCycle(c.SourceID, c.TargetID) {
		return nil
	}
	for _, id := range []uint32{c.SourceID, c.TargetID} {
		if _, ok := b.neurons[id]; ok {
			continue
		}
		n, err := parent.activeNeuron(id)
		if err != nil {
			return err
		}
		b.registerNeuron(n)
	}
	b.byEndpoints[key] = len(b.connections)
	b.connections = append(b.connections, c.Copy())
	b.sources[c.TargetID] = append(b.sources[c.TargetID], c.SourceID)
	return nil
}

// wouldCycle reports whether src->tgt closes a cycle in the builder's graph.
func (b *offspringBuilder) wouldCycle(src, tgt uint32) bool {
	if src == tgt {
		return true
	}
	visited := map[uint32]bool{src: true}
	stack := []uint32{src}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, s := range b.sources[n] {
			if s == tgt {
				return true
			}
			if !visited[s] {
				visited[s] = true
				stack = append(stack, s)
			}
		}
	}
	return false
}

// build returns the neuron and connection genes sorted by innovation ID.
func (b *offspringBuilder) build() (NeuronGeneList, ConnectionGeneList) {
	ids := b.neuronIDs
	unique.Slice(&ids, func(i, j int) bool { return ids[i] < ids[j] })
	neurons := make(NeuronGeneList, 0, len(ids))
	for _, id := range ids {
		neurons = append(neurons, b.neurons[id])
	}
	connections := slices.Clone(b.connections)
	connections.SortByInnovationID(0, len(connections))
	return neurons, connections
}

// crossover recombines the active modules of g and other. Closed modules are
// copied from g. Genes come in two passes: first everything the fitter parent
// contributes, then (when recombination fires) the other parent's disjoint
// and excess genes, each checked against the accumulated graph so that a
// feed-forward child stays acyclic.
func (g *Genome) crossover(other *Genome, birthGeneration uint32) (*Genome, error) {
	f := g.factory
	clo, chi := g.activeConnectionRange()
	olo, ohi := other.activeConnectionRange()
	corr := CorrelateConnectionGeneLists(g.connections[clo:chi], other.connections[olo:ohi])

	// fitter == 1 means g, 2 means other.
	fitter := 1
	switch {
	case g.Evaluation.Fitness < other.Evaluation.Fitness:
		fitter = 2
	case g.Evaluation.Fitness == other.Evaluation.Fitness && f.rng.Float64() < 0.5:
		fitter = 2
	}
	recombine := f.rng.Float64() < f.Config.Genome.DisjointExcessGenesRecombinedProbability

	builder := newOffspringBuilder(f.Config.Genome.FeedForward)
	nlo, nhi := g.activeNeuronRange()
	for _, n := range g.neurons[nlo:nhi] {
		if n.NodeType != HiddenNode {
			builder.registerNeuron(n)
		}
	}

	parentOf := func(item CorrelationItem) (*ConnectionGene, *Genome, int) {
		if item.Gene1 != nil {
			return item.Gene1, g, 1
		}
		return item.Gene2, other, 2
	}

	for _, item := range corr.Items {
		if item.Type == MatchedGene {
			if f.rng.Float64() < 0.5 {
				if err := builder.tryAddGene(item.Gene1, g, true, false); err != nil {
					return nil, err
				}
			} else if err := builder.tryAddGene(item.Gene2, other, true, false); err != nil {
				return nil, err
			}
			continue
		}
		gene, parent, side := parentOf(item)
		if side != fitter {
			continue
		}
		if err := builder.tryAddGene(gene, parent, false, false); err != nil {
			return nil, err
		}
	}

	if recombine {
		for _, item := range corr.Items {
			if item.Type == MatchedGene {
				continue
			}
			gene, parent, side := parentOf(item)
			if side == fitter {
				continue
			}
			if err := builder.tryAddGene(gene, parent, false, builder.feedForward); err != nil {
				return nil, err
			}
		}
	}

	activeNeurons, activeConnections := builder.build()
	neurons := make(NeuronGeneList, 0, nlo+len(activeNeurons))
	for _, n := range g.neurons[:nlo] {
		neurons = append(neurons, n.copyWithoutConnectivity())
	}
	neurons = append(neurons, activeNeurons...)
	connections := make(ConnectionGeneList, 0, clo+len(activeConnections))
	connections = append(connections, g.connections[:clo].Copy()...)
	connections = append(connections, activeConnections...)

	child := newGenome(f, f.genomeIDs.NextID(), birthGeneration, neurons, connections)
	if err := child.rebuildConnectivity(); err != nil {
		return nil, err
	}
	child.recomputeDerived()
	return child, nil
}
