package neat

import (
	"fmt"
	"math"
	"slices"
)

// Link is one fixed connection between a module's interface neuron and an
// existing neuron outside the module.
type Link struct {
	NeuronID uint32
	Weight   float64
}

// ModuleSpec describes the fixed wiring of a new module.
type ModuleSpec struct {
	Pandemonium int
	// RegulatoryInputs feed the module's regulatory neuron.
	RegulatoryInputs []Link
	// LocalInputs has one entry per local input neuron, listing its sources.
	LocalInputs [][]Link
	// LocalOutputs has one entry per local output neuron; each targets a global output.
	LocalOutputs []Link
}

// ModuleInfo records the IDs reserved for a module.
type ModuleInfo struct {
	ID             int
	Pandemonium    int
	RegulatoryID   uint32
	LocalInputIDs  []uint32
	LocalOutputIDs []uint32
	// PairBaseID is the ID of the LocalInputIDs[0]->LocalOutputIDs[0]
	// connection; pair (i, j) uses PairBaseID + i*len(LocalOutputIDs) + j.
	PairBaseID uint32
}

func (m *ModuleInfo) pairID(i, j int) uint32 {
	return m.PairBaseID + uint32(i*len(m.LocalOutputIDs)+j)
}

func (m *ModuleInfo) copyInfo() ModuleInfo {
	c := *m
	c.LocalInputIDs = slices.Clone(m.LocalInputIDs)
	c.LocalOutputIDs = slices.Clone(m.LocalOutputIDs)
	return c
}

// Modules returns copies of the module records in layout order; the active module is last.
func (f *GenomeFactory) Modules() []ModuleInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ModuleInfo, len(f.modules))
	for i, m := range f.modules {
		out[i] = m.copyInfo()
	}
	return out
}

func (f *GenomeFactory) moduleIndex(id int) int {
	return slices.IndexFunc(f.modules, func(m *ModuleInfo) bool { return m.ID == id })
}

// AddModule appends a new module to every genome and makes it the active
// one. The fittest genome is first cloned across the population. Each genome
// then gets its own random subset of local-input to local-output connections.
func (f *GenomeFactory) AddModule(population []*Genome, spec ModuleSpec) (ModuleInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	champion, err := SelectChampion(population)
	if err != nil {
		return ModuleInfo{}, err
	}
	if err := f.validateModuleSpec(champion, spec); err != nil {
		return ModuleInfo{}, err
	}
	if err := f.cloneChampionAcross(population, champion); err != nil {
		return ModuleInfo{}, err
	}

	info := &ModuleInfo{ID: f.nextModuleID, Pandemonium: spec.Pandemonium}
	f.nextModuleID++

	// Interface neurons and protected wiring use one contiguous ID block,
	// followed by every candidate local pair and some slack.
	info.RegulatoryID = f.innovationIDs.NextID()
	for range spec.LocalInputs {
		info.LocalInputIDs = append(info.LocalInputIDs, f.innovationIDs.NextID())
	}
	for range spec.LocalOutputs {
		info.LocalOutputIDs = append(info.LocalOutputIDs, f.innovationIDs.NextID())
	}

	regulatory := NewNeuronGene(info.RegulatoryID, RegulatoryNode, info.ID, 0, nil)
	regulatory.Pandemonium = spec.Pandemonium
	neurons := NeuronGeneList{regulatory}
	for _, id := range info.LocalInputIDs {
		neurons = append(neurons, NewNeuronGene(id, LocalInputNode, info.ID, 0, nil))
	}
	for _, id := range info.LocalOutputIDs {
		neurons = append(neurons, NewNeuronGene(id, LocalOutputNode, info.ID, 0, nil))
	}

	var protected ConnectionGeneList
	for _, l := range spec.RegulatoryInputs {
		protected = append(protected, NewConnectionGene(f.innovationIDs.NextID(), l.NeuronID, info.RegulatoryID, l.Weight, info.ID, true))
	}
	for i, links := range spec.LocalInputs {
		for _, l := range links {
			protected = append(protected, NewConnectionGene(f.innovationIDs.NextID(), l.NeuronID, info.LocalInputIDs[i], l.Weight, info.ID, true))
		}
	}
	for i, l := range spec.LocalOutputs {
		protected = append(protected, NewConnectionGene(f.innovationIDs.NextID(), info.LocalOutputIDs[i], l.NeuronID, l.Weight, info.ID, true))
	}

	info.PairBaseID = f.innovationIDs.Reserve(len(info.LocalInputIDs) * len(info.LocalOutputIDs))
	f.innovationIDs.Reserve(f.Config.Factory.ModuleIDSlack)

	f.modules = append(f.modules, info)
	for _, g := range population {
		g.neurons = append(g.neurons, neurons.Copy()...)
		g.connections = append(g.connections, protected.Copy()...)
	}
	f.layout = f.deriveLayout(champion)

	for _, g := range population {
		f.populateActiveModule(g, info)
		if err := g.rebuildConnectivity(); err != nil {
			return ModuleInfo{}, err
		}
		g.recomputeDerived()
	}
	if err := f.debugCheckAll(population); err != nil {
		return ModuleInfo{}, err
	}
	f.Logger.Printf("added module %d (%d local inputs, %d local outputs) to %d genomes",
		info.ID, len(info.LocalInputIDs), len(info.LocalOutputIDs), len(population))
	return info.copyInfo(), nil
}

// populateActiveModule appends a random subset of the module's candidate
// local connections to g. At least one connection is always created.
func (f *GenomeFactory) populateActiveModule(g *Genome, info *ModuleInfo) {
	nIn, nOut := len(info.LocalInputIDs), len(info.LocalOutputIDs)
	pairs := nIn * nOut
	count := int(math.Round(f.Config.Genome.InitialInterconnectionsProportion * float64(pairs)))
	count = max(1, min(count, pairs))

	chosen := f.rng.Perm(pairs)[:count]
	slices.Sort(chosen)
	for _, p := range chosen {
		i, j := p/nOut, p%nOut
		g.connections = append(g.connections, NewConnectionGene(
			info.pairID(i, j), info.LocalInputIDs[i], info.LocalOutputIDs[j], f.randomWeight(), info.ID, false))
	}
}

// validateModuleSpec checks that every link endpoint is a legal neuron of g.
func (f *GenomeFactory) validateModuleSpec(g *Genome, spec ModuleSpec) error {
	if len(spec.LocalInputs) == 0 || len(spec.LocalOutputs) == 0 {
		return preconditionf("a module needs at least one local input and one local output")
	}
	checkSource := func(l Link) error {
		n := g.NeuronByID(l.NeuronID)
		if n == nil {
			return preconditionf("module source neuron %d does not exist", l.NeuronID)
		}
		switch n.NodeType {
		case BiasNode, InputNode, LocalOutputNode:
		case OutputNode:
			if f.Config.Genome.FeedForward {
				return preconditionf("global output %d cannot feed a module in a feed-forward genome", l.NeuronID)
			}
		default:
			return preconditionf("neuron %d of type %s cannot feed a module", l.NeuronID, n.NodeType)
		}
		return f.checkLinkWeight(l)
	}
	for _, l := range spec.RegulatoryInputs {
		if err := checkSource(l); err != nil {
			return err
		}
	}
	for _, links := range spec.LocalInputs {
		for _, l := range links {
			if err := checkSource(l); err != nil {
				return err
			}
		}
	}
	for _, l := range spec.LocalOutputs {
		n := g.NeuronByID(l.NeuronID)
		if n == nil || n.NodeType != OutputNode {
			return preconditionf("local output target %d is not a global output", l.NeuronID)
		}
		if err := f.checkLinkWeight(l); err != nil {
			return err
		}
	}
	return nil
}

func (f *GenomeFactory) checkLinkWeight(l Link) error {
	if math.Abs(l.Weight) > f.Config.Genome.WeightRange {
		return preconditionf("link weight %g from neuron %d exceeds weight range", l.Weight, l.NeuronID)
	}
	return nil
}

// ActivateModule makes an existing module the active one by moving its
// neuron block and connection chunk to the tail of every genome.
func (f *GenomeFactory) ActivateModule(population []*Genome, moduleID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := f.moduleIndex(moduleID)
	if idx < 0 {
		return fmt.Errorf("%w: %d", ErrModuleNotFound, moduleID)
	}
	if idx == len(f.modules)-1 {
		return nil
	}
	champion, err := SelectChampion(population)
	if err != nil {
		return err
	}
	if err := f.cloneChampionAcross(population, champion); err != nil {
		return err
	}

	info := f.modules[idx]
	f.modules = append(slices.Delete(f.modules, idx, idx+1), info)
	for _, g := range population {
		g.neurons = moveToTail(g.neurons, func(n *NeuronGene) bool { return n.ModuleID == moduleID })
		g.connections = moveToTail(g.connections, func(c *ConnectionGene) bool { return c.ModuleID == moduleID })
	}
	f.layout = f.deriveLayout(champion)
	for _, g := range population {
		g.recomputeDerived()
	}
	if err := f.debugCheckAll(population); err != nil {
		return err
	}
	f.Logger.Printf("activated module %d", moduleID)
	return nil
}

// moveToTail stably moves the elements matching pred to the end of s.
func moveToTail[T any](s []T, pred func(T) bool) []T {
	out := make([]T, 0, len(s))
	var tail []T
	for _, v := range s {
		if pred(v) {
			tail = append(tail, v)
		} else {
			out = append(out, v)
		}
	}
	return append(out, tail...)
}

// DeleteModule removes a closed module from every genome, together with any
// connection that touches its neurons.
func (f *GenomeFactory) DeleteModule(population []*Genome, moduleID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if moduleID == 0 {
		return preconditionf("the base module cannot be deleted")
	}
	idx := f.moduleIndex(moduleID)
	if idx < 0 {
		return fmt.Errorf("%w: %d", ErrModuleNotFound, moduleID)
	}
	if idx == len(f.modules)-1 {
		return fmt.Errorf("%w: %w: %d", ErrPreconditionFailed, ErrModuleActive, moduleID)
	}
	champion, err := SelectChampion(population)
	if err != nil {
		return err
	}
	if err := f.cloneChampionAcross(population, champion); err != nil {
		return err
	}

	f.modules = slices.Delete(f.modules, idx, idx+1)
	for _, g := range population {
		removed := make(NeuronIDSet)
		g.neurons.RemoveAll(func(n *NeuronGene) bool {
			if n.ModuleID == moduleID {
				removed.Add(n.InnovationID)
				return true
			}
			return false
		})
		g.connections.RemoveAll(func(c *ConnectionGene) bool {
			return c.ModuleID == moduleID || removed.Contains(c.SourceID) || removed.Contains(c.TargetID)
		})
		if err := g.rebuildConnectivity(); err != nil {
			return err
		}
	}
	f.layout = f.deriveLayout(champion)
	for _, g := range population {
		g.recomputeDerived()
	}
	if err := f.debugCheckAll(population); err != nil {
		return err
	}
	f.Logger.Printf("deleted module %d", moduleID)
	return nil
}

// ResetActiveModule strips the active module back to its fixed wiring and
// gives every genome a fresh random set of local connections.
func (f *GenomeFactory) ResetActiveModule(population []*Genome) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.modules) == 0 {
		return preconditionf("there is no active module to reset")
	}
	champion, err := SelectChampion(population)
	if err != nil {
		return err
	}
	if err := f.cloneChampionAcross(population, champion); err != nil {
		return err
	}

	info := f.modules[len(f.modules)-1]
	for _, g := range population {
		g.neurons.RemoveAll(func(n *NeuronGene) bool {
			return n.ModuleID == info.ID && n.NodeType == HiddenNode
		})
		g.connections.RemoveAll(func(c *ConnectionGene) bool {
			return c.ModuleID == info.ID && !c.Protected
		})
	}
	f.layout = f.deriveLayout(champion)
	for _, g := range population {
		f.populateActiveModule(g, info)
		if err := g.rebuildConnectivity(); err != nil {
			return err
		}
		g.recomputeDerived()
	}
	if err := f.debugCheckAll(population); err != nil {
		return err
	}
	f.Logger.Printf("reset active module %d", info.ID)
	return nil
}

func (f *GenomeFactory) debugCheckAll(population []*Genome) error {
	for _, g := range population {
		if err := f.debugCheck(g); err != nil {
			return err
		}
	}
	return nil
}
