package neat

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph/topo"
)

// PerformIntegrityCheck verifies every structural invariant of the genome and
// returns an *IntegrityError describing the first violation found.
func (g *Genome) PerformIntegrityCheck() error {
	f := g.factory
	f.mu.Lock()
	defer f.mu.Unlock()
	return g.checkIntegrity()
}

func (g *Genome) integrityError(invariant string, index int, format string, args ...interface{}) error {
	return &IntegrityError{GenomeID: g.id, Invariant: invariant, Index: index, Detail: fmt.Sprintf(format, args...)}
}

func (g *Genome) checkIntegrity() error {
	checks := []func() error{
		g.checkNeuronLayout,
		g.checkConnectionLayout,
		g.checkConnectionEndpoints,
		g.checkConnectivity,
		g.checkDerivedCounts,
		g.checkAcyclic,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// checkNeuronLayout verifies the base block and that every module occupies a
// contiguous, ID-sorted block in module order.
func (g *Genome) checkNeuronLayout() error {
	f := g.factory
	l := f.layout
	base := l.BaseNeuronCount()
	if len(g.neurons) < base {
		return g.integrityError("layout", -1, "%d neurons, base topology needs %d", len(g.neurons), base)
	}
	for i := 0; i < base; i++ {
		n := g.neurons[i]
		want := OutputNode
		switch {
		case i == 0:
			want = BiasNode
		case i <= l.InputCount:
			want = InputNode
		}
		if n.NodeType != want || n.InnovationID != uint32(i) || n.ModuleID != 0 {
			return g.integrityError("layout", i, "expected %s neuron %d in module 0, found %s", want, i, n)
		}
	}

	seen := make(map[uint32]bool, len(g.neurons))
	idx := base
	for _, m := range f.modules {
		start := idx
		if start == len(g.neurons) {
			return g.integrityError("layout", idx, "module %d has no neuron block", m.ID)
		}
		if m.ID == l.ActiveModule && start != l.FirstActiveNeuronIndex {
			return g.integrityError("layout", idx, "active module starts at %d, layout says %d", start, l.FirstActiveNeuronIndex)
		}
		expect := []struct {
			t   NodeType
			ids []uint32
		}{
			{RegulatoryNode, []uint32{m.RegulatoryID}},
			{LocalInputNode, m.LocalInputIDs},
			{LocalOutputNode, m.LocalOutputIDs},
		}
		for _, e := range expect {
			for _, id := range e.ids {
				if idx >= len(g.neurons) {
					return g.integrityError("layout", idx, "module %d block truncated", m.ID)
				}
				n := g.neurons[idx]
				if n.NodeType != e.t || n.InnovationID != id || n.ModuleID != m.ID {
					return g.integrityError("layout", idx, "module %d: expected %s neuron %d, found %s", m.ID, e.t, id, n)
				}
				idx++
			}
		}
		for idx < len(g.neurons) && g.neurons[idx].ModuleID == m.ID {
			if g.neurons[idx].NodeType != HiddenNode {
				return g.integrityError("layout", idx, "module %d: unexpected %s neuron in hidden section", m.ID, g.neurons[idx].NodeType)
			}
			idx++
		}
		if !g.neurons.IsSorted(start, idx) {
			return g.integrityError("order", start, "module %d neuron block not sorted by ID", m.ID)
		}
	}
	if idx != len(g.neurons) {
		return g.integrityError("layout", idx, "neuron %s lies outside every module block", g.neurons[idx])
	}
	if len(f.modules) == 0 && l.FirstActiveNeuronIndex != base {
		return g.integrityError("layout", -1, "no modules but first active neuron index is %d", l.FirstActiveNeuronIndex)
	}
	for i, n := range g.neurons {
		if seen[n.InnovationID] {
			return g.integrityError("unique", i, "duplicate neuron ID %d", n.InnovationID)
		}
		seen[n.InnovationID] = true
	}
	return nil
}

// checkConnectionLayout verifies module chunk order, protected-first order
// inside each chunk, ID order and uniqueness, and the active boundary.
func (g *Genome) checkConnectionLayout() error {
	f := g.factory
	l := f.layout
	order := []int{0}
	for _, m := range f.modules {
		order = append(order, m.ID)
	}

	idx := 0
	for _, module := range order {
		start := idx
		for idx < len(g.connections) && g.connections[idx].ModuleID == module && g.connections[idx].Protected {
			idx++
		}
		firstActive := idx
		for idx < len(g.connections) && g.connections[idx].ModuleID == module && !g.connections[idx].Protected {
			idx++
		}
		if module == 0 && firstActive != idx {
			return g.integrityError("layout", firstActive, "base module holds an unprotected connection")
		}
		if module == l.ActiveModule && firstActive != l.FirstActiveConnectionIndex {
			return g.integrityError("layout", firstActive, "active connections start at %d, layout says %d", firstActive, l.FirstActiveConnectionIndex)
		}
		if !g.connections.IsSorted(start, firstActive) || !g.connections.IsSorted(firstActive, idx) {
			return g.integrityError("order", start, "module %d connections not sorted by ID", module)
		}
	}
	if idx != len(g.connections) {
		return g.integrityError("layout", idx, "connection %s out of module order", g.connections[idx])
	}

	ids := make(map[uint32]bool, len(g.neurons)+len(g.connections))
	for _, n := range g.neurons {
		ids[n.InnovationID] = true
	}
	endpoints := make(map[ConnectionEndpoints]bool, len(g.connections))
	weightRange := f.Config.Genome.WeightRange
	for i, c := range g.connections {
		if ids[c.InnovationID] {
			return g.integrityError("unique", i, "innovation ID %d used twice", c.InnovationID)
		}
		ids[c.InnovationID] = true
		if endpoints[c.Endpoints()] {
			return g.integrityError("unique", i, "duplicate connection %d->%d", c.SourceID, c.TargetID)
		}
		endpoints[c.Endpoints()] = true
		if math.Abs(c.Weight) > weightRange || math.IsNaN(c.Weight) {
			return g.integrityError("weight", i, "weight %g outside ±%g", c.Weight, weightRange)
		}
	}
	return nil
}

// checkConnectionEndpoints verifies that endpoints exist and that active
// connections stay inside the active module with legal neuron types.
func (g *Genome) checkConnectionEndpoints() error {
	f := g.factory
	l := f.layout
	byID := make(map[uint32]*NeuronGene, len(g.neurons))
	for _, n := range g.neurons {
		byID[n.InnovationID] = n
	}
	for i, c := range g.connections {
		src, tgt := byID[c.SourceID], byID[c.TargetID]
		if src == nil || tgt == nil {
			return g.integrityError("endpoints", i, "connection %s references a missing neuron", c)
		}
		if c.Protected {
			continue
		}
		if i >= l.FirstActiveConnectionIndex && (src.ModuleID != l.ActiveModule || tgt.ModuleID != l.ActiveModule) {
			return g.integrityError("endpoints", i, "active connection %s leaves the active module", c)
		}
		if src.ModuleID != c.ModuleID || tgt.ModuleID != c.ModuleID {
			return g.integrityError("endpoints", i, "connection %s crosses modules without protection", c)
		}
		switch src.NodeType {
		case LocalInputNode, HiddenNode:
		case LocalOutputNode:
			if f.Config.Genome.FeedForward {
				return g.integrityError("endpoints", i, "feed-forward connection %s leaves a local output", c)
			}
		default:
			return g.integrityError("endpoints", i, "connection %s has illegal source type %s", c, src.NodeType)
		}
		if tgt.NodeType != HiddenNode && tgt.NodeType != LocalOutputNode {
			return g.integrityError("endpoints", i, "connection %s has illegal target type %s", c, tgt.NodeType)
		}
	}
	return nil
}

// checkConnectivity compares adjacency sets against the connection list and
// rejects hidden neurons with no connections.
func (g *Genome) checkConnectivity() error {
	sources := make(map[uint32]NeuronIDSet, len(g.neurons))
	targets := make(map[uint32]NeuronIDSet, len(g.neurons))
	for _, c := range g.connections {
		if sources[c.TargetID] == nil {
			sources[c.TargetID] = make(NeuronIDSet)
		}
		if targets[c.SourceID] == nil {
			targets[c.SourceID] = make(NeuronIDSet)
		}
		sources[c.TargetID].Add(c.SourceID)
		targets[c.SourceID].Add(c.TargetID)
	}
	for i, n := range g.neurons {
		if !sameSet(n.SourceNeurons, sources[n.InnovationID]) {
			return g.integrityError("connectivity", i, "source set of neuron %d does not match connections", n.InnovationID)
		}
		if !sameSet(n.TargetNeurons, targets[n.InnovationID]) {
			return g.integrityError("connectivity", i, "target set of neuron %d does not match connections", n.InnovationID)
		}
		if n.isRedundant() {
			return g.integrityError("redundant", i, "hidden neuron %d has no connections", n.InnovationID)
		}
	}
	return nil
}

func sameSet(a, b NeuronIDSet) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if !b.Contains(id) {
			return false
		}
	}
	return true
}

func (g *Genome) checkDerivedCounts() error {
	active, aux := g.activeConnectionCount, g.auxStateNeuronCount
	defer func() {
		g.activeConnectionCount, g.auxStateNeuronCount = active, aux
	}()
	if want := g.RecomputeActiveConnectionCount(); want != active {
		return g.integrityError("counts", -1, "active connection count %d, expected %d", active, want)
	}
	if want := g.RecomputeAuxStateNeuronCount(); want != aux {
		return g.integrityError("counts", -1, "aux state neuron count %d, expected %d", aux, want)
	}
	return nil
}

func (g *Genome) checkAcyclic() error {
	if !g.factory.Config.Genome.FeedForward {
		return nil
	}
	for i, c := range g.connections {
		if c.SourceID == c.TargetID {
			return g.integrityError("acyclic", i, "self-loop on neuron %d", c.SourceID)
		}
	}
	if _, err := topo.Sort(g.connectivityGraph()); err != nil {
		return g.integrityError("acyclic", -1, "%v", err)
	}
	return nil
}
