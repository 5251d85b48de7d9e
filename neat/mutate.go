package neat

import "fmt"

// MutationKind names the operator a Mutate call ended up applying.
type MutationKind int

const (
	MutationConnectionWeights MutationKind = iota
	MutationAddNode
	MutationAddConnection
	MutationNodeAuxState
	MutationDeleteConnection
	// MutationNone means no operator was applicable.
	MutationNone
)

func (k MutationKind) String() string {
	switch k {
	case MutationConnectionWeights:
		return "connection_weights"
	case MutationAddNode:
		return "add_node"
	case MutationAddConnection:
		return "add_connection"
	case MutationNodeAuxState:
		return "node_aux_state"
	case MutationDeleteConnection:
		return "delete_connection"
	case MutationNone:
		return "none"
	}
	return fmt.Sprintf("MutationKind(%d)", int(k))
}

type mutationResult int

const (
	mutationApplied mutationResult = iota
	mutationNotApplicable
)

// Mutate applies exactly one mutation operator chosen by roulette. Operators
// that turn out not to be applicable are removed from the wheel and another
// one is drawn, until one succeeds or none remain.
func (g *Genome) Mutate() (MutationKind, error) {
	f := g.factory
	f.mu.Lock()
	defer f.mu.Unlock()
	return g.mutate()
}

func (g *Genome) mutate() (MutationKind, error) {
	f := g.factory
	var wheel *RouletteWheelLayout
	if g.activeConnectionCount < 2 {
		// Never delete down to an empty module.
		wheel = f.nonDestructiveWheel.Copy()
	} else {
		wheel = f.mutationWheel.Copy()
	}

	kind := MutationNone
	for !wheel.Empty() {
		outcome := wheel.Spin(f.rng)
		candidate := MutationKind(outcome)

		var res mutationResult
		var err error
		switch candidate {
		case MutationConnectionWeights:
			res, err = g.mutateConnectionWeights()
		case MutationAddNode:
			res, err = g.mutateAddNode()
		case MutationAddConnection:
			res, err = g.mutateAddConnection()
		case MutationNodeAuxState:
			res, err = g.mutateNodeAuxState()
		case MutationDeleteConnection:
			res, err = g.mutateDeleteConnection()
		default:
			return MutationNone, inconsistentf("roulette returned unknown mutation outcome %d", outcome)
		}
		if err != nil {
			return MutationNone, err
		}
		if res == mutationApplied {
			kind = candidate
			break
		}
		wheel.RemoveOutcome(outcome)
	}

	g.invalidateCaches()
	if err := f.debugCheck(g); err != nil {
		return kind, err
	}
	return kind, nil
}

// --------------------------- Weights ---------------------------

func (g *Genome) mutateConnectionWeights() (mutationResult, error) {
	if g.activeConnectionCount == 0 {
		return mutationNotApplicable, nil
	}
	f := g.factory
	outcome := f.weightMutationWheel.Spin(f.rng)
	if outcome < 0 {
		return mutationNotApplicable, nil
	}
	info := f.weightMutations[outcome]
	weightRange := f.Config.Genome.WeightRange
	lo, hi := g.activeConnectionRange()
	active := g.connections[lo:hi]

	switch info.SelectionType {
	case SelectProportional:
		mutated := 0
		for _, c := range active {
			if f.rng.Float64() < info.SelectionProportion {
				c.Weight = info.Perturb(c.Weight, weightRange, f.rng)
				mutated++
			}
		}
		// Guarantee that at least one weight changes.
		if mutated == 0 {
			c := active[f.rng.Intn(len(active))]
			c.Weight = info.Perturb(c.Weight, weightRange, f.rng)
		}

	case SelectFixedQuantity:
		n := min(info.SelectionQuantity, len(active))
		for n > 0 {
			c := active[f.rng.Intn(len(active))]
			if c.IsMutated {
				continue
			}
			c.Weight = info.Perturb(c.Weight, weightRange, f.rng)
			c.IsMutated = true
			n--
		}
		for _, c := range active {
			c.IsMutated = false
		}

	default:
		return mutationNotApplicable, inconsistentf("unknown connection selection type %d", info.SelectionType)
	}
	return mutationApplied, nil
}

// --------------------------- Add node ---------------------------

func (g *Genome) mutateAddNode() (mutationResult, error) {
	if g.activeConnectionCount == 0 {
		return mutationNotApplicable, nil
	}
	lo, _ := g.activeConnectionRange()
	return g.splitConnection(lo + g.factory.rng.Intn(g.activeConnectionCount))
}

// splitConnection replaces the connection at idx with a new hidden neuron and
// two connections. The incoming one keeps the old weight.
func (g *Genome) splitConnection(idx int) (mutationResult, error) {
	f := g.factory
	old := g.connections[idx]
	src, err := g.activeNeuron(old.SourceID)
	if err != nil {
		return mutationNotApplicable, err
	}
	tgt, err := g.activeNeuron(old.TargetID)
	if err != nil {
		return mutationNotApplicable, err
	}
	g.connections.RemoveAt(idx)

	ids, reused := f.addedNeuronBuffer.TryGetValue(old.InnovationID)
	if reused && g.containsAny(ids) {
		reused = false
	}
	if !reused {
		ids = AddedNeuronGeneStruct{
			NeuronID:         f.innovationIDs.NextID(),
			InputConnection:  f.innovationIDs.NextID(),
			OutputConnection: f.innovationIDs.NextID(),
		}
		f.addedNeuronBuffer.Enqueue(old.InnovationID, ids)
	}

	fnID, aux, err := f.newHiddenActivation()
	if err != nil {
		return mutationNotApplicable, err
	}
	module := f.layout.ActiveModule
	neuron := NewNeuronGene(ids.NeuronID, HiddenNode, module, fnID, aux)
	in := NewConnectionGene(ids.InputConnection, old.SourceID, ids.NeuronID, old.Weight, module, false)
	out := NewConnectionGene(ids.OutputConnection, ids.NeuronID, old.TargetID, f.Config.Genome.splitOutputWeight(), module, false)

	// Fresh IDs are the largest issued so far and land at the tail anyway.
	nlo, _ := g.activeNeuronRange()
	clo, _ := g.activeConnectionRange()
	g.neurons.InsertIntoPosition(neuron, nlo)
	g.connections.InsertIntoPosition(in, clo)
	g.connections.InsertIntoPosition(out, clo)

	src.TargetNeurons.Remove(old.TargetID)
	tgt.SourceNeurons.Remove(old.SourceID)
	src.TargetNeurons.Add(ids.NeuronID)
	tgt.SourceNeurons.Add(ids.NeuronID)
	neuron.SourceNeurons.Add(old.SourceID)
	neuron.TargetNeurons.Add(old.TargetID)

	g.activeConnectionCount++
	if aux != nil {
		g.auxStateNeuronCount++
	}
	return mutationApplied, nil
}

// containsAny reports whether any ID of a remembered split already exists in
// the active module, in which case the history entry cannot be reused.
func (g *Genome) containsAny(ids AddedNeuronGeneStruct) bool {
	nlo, nhi := g.activeNeuronRange()
	if _, ok := g.neurons.BinarySearch(ids.NeuronID, nlo, nhi); ok {
		return true
	}
	clo, chi := g.activeConnectionRange()
	for _, id := range []uint32{ids.InputConnection, ids.OutputConnection} {
		if _, ok := g.connections.BinarySearch(id, clo, chi); ok {
			return true
		}
	}
	return false
}

// --------------------------- Add connection ---------------------------

func (g *Genome) mutateAddConnection() (mutationResult, error) {
	f := g.factory
	feedForward := f.Config.Genome.FeedForward
	lo, hi := g.activeNeuronRange()

	var sources, targets []*NeuronGene
	for _, n := range g.neurons[lo:hi] {
		// The regulatory neuron only gates the module's outputs, so it is
		// never a source or target of evolved connections, recurrent or not.
		switch n.NodeType {
		case LocalInputNode:
			sources = append(sources, n)
		case HiddenNode:
			sources = append(sources, n)
			targets = append(targets, n)
		case LocalOutputNode:
			targets = append(targets, n)
			if !feedForward {
				sources = append(sources, n)
			}
		}
	}
	if len(sources) == 0 || len(targets) == 0 {
		return mutationNotApplicable, nil
	}

	for attempt := 0; attempt < f.Config.Genome.AddConnectionAttempts; attempt++ {
		src := sources[f.rng.Intn(len(sources))]
		tgt := targets[f.rng.Intn(len(targets))]
		if src.TargetNeurons.Contains(tgt.InnovationID) {
			continue
		}
		if feedForward && (src == tgt || g.isConnectionCyclic(src, tgt.InnovationID)) {
			continue
		}
		return g.addConnection(src, tgt, f.randomWeight())
	}
	return mutationNotApplicable, nil
}

// isConnectionCyclic reports whether adding src->targetID would close a
// cycle, i.e. whether targetID is src itself or one of its ancestors. The
// walk stays inside the active module: nothing upstream of the module's
// fixed inputs can be reached from inside it.
func (g *Genome) isConnectionCyclic(src *NeuronGene, targetID uint32) bool {
	if src.InnovationID == targetID {
		return true
	}
	lo, hi := g.activeNeuronRange()
	visited := NeuronIDSet{src.InnovationID: {}}
	stack := []*NeuronGene{src}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for id := range n.SourceNeurons {
			if id == targetID {
				return true
			}
			if visited.Contains(id) {
				continue
			}
			visited.Add(id)
			if parent := g.neurons.GetByID(id, lo, hi); parent != nil {
				stack = append(stack, parent)
			}
		}
	}
	return false
}

// addConnection inserts src->tgt into the active module, reusing a historical
// ID for the same endpoints when that ID is not already present.
func (g *Genome) addConnection(src, tgt *NeuronGene, weight float64) (mutationResult, error) {
	f := g.factory
	key := ConnectionEndpoints{SourceID: src.InnovationID, TargetID: tgt.InnovationID}
	clo, chi := g.activeConnectionRange()

	id, reused := f.addedConnectionBuffer.TryGetValue(key)
	if reused {
		if _, exists := g.connections.BinarySearch(id, clo, chi); exists {
			reused = false
		}
	}
	if !reused {
		id = f.innovationIDs.NextID()
		f.addedConnectionBuffer.Enqueue(key, id)
	}

	c := NewConnectionGene(id, src.InnovationID, tgt.InnovationID, weight, f.layout.ActiveModule, false)
	g.connections.InsertIntoPosition(c, clo)
	src.TargetNeurons.Add(tgt.InnovationID)
	tgt.SourceNeurons.Add(src.InnovationID)
	g.activeConnectionCount++
	return mutationApplied, nil
}

// --------------------------- Aux state ---------------------------

func (g *Genome) mutateNodeAuxState() (mutationResult, error) {
	f := g.factory
	if !f.activations.AcceptsAuxArgs() {
		return mutationNotApplicable, preconditionf("aux state mutation requested but no activation function accepts auxiliary arguments")
	}
	if g.auxStateNeuronCount == 0 {
		return mutationNotApplicable, nil
	}

	pick := f.rng.Intn(g.auxStateNeuronCount)
	lo, hi := g.activeNeuronRange()
	for _, n := range g.neurons[lo:hi] {
		if n.NodeType != HiddenNode {
			continue
		}
		fn, err := f.activations.Function(n.ActivationFnID)
		if err != nil {
			return mutationNotApplicable, err
		}
		if !fn.AcceptsAuxArgs() {
			continue
		}
		if pick == 0 {
			fn.MutateAuxArgs(n.AuxState, f.rng, f.Config.Genome.WeightRange)
			return mutationApplied, nil
		}
		pick--
	}
	return mutationNotApplicable, inconsistentf("genome %d: aux state neuron count %d exceeds eligible neurons", g.id, g.auxStateNeuronCount)
}

// --------------------------- Delete connection ---------------------------

func (g *Genome) mutateDeleteConnection() (mutationResult, error) {
	if g.activeConnectionCount < 2 {
		return mutationNotApplicable, nil
	}
	lo, _ := g.activeConnectionRange()
	idx := lo + g.factory.rng.Intn(g.activeConnectionCount)
	if err := g.deleteConnection(idx); err != nil {
		return mutationNotApplicable, err
	}
	return mutationApplied, nil
}

// deleteConnection removes the connection at idx and any hidden endpoint
// left without connections.
func (g *Genome) deleteConnection(idx int) error {
	c := g.connections[idx]
	src, err := g.activeNeuron(c.SourceID)
	if err != nil {
		return err
	}
	tgt, err := g.activeNeuron(c.TargetID)
	if err != nil {
		return err
	}
	g.connections.RemoveAt(idx)
	g.activeConnectionCount--

	src.TargetNeurons.Remove(c.TargetID)
	tgt.SourceNeurons.Remove(c.SourceID)

	if err := g.removeIfRedundant(src); err != nil {
		return err
	}
	if tgt != src {
		return g.removeIfRedundant(tgt)
	}
	return nil
}

func (g *Genome) removeIfRedundant(n *NeuronGene) error {
	if !n.isRedundant() {
		return nil
	}
	lo, hi := g.activeNeuronRange()
	i, ok := g.neurons.BinarySearch(n.InnovationID, lo, hi)
	if !ok {
		return inconsistentf("genome %d: redundant neuron %d vanished from active module", g.id, n.InnovationID)
	}
	g.neurons.RemoveAt(i)
	if n.AuxState != nil {
		g.auxStateNeuronCount--
	}
	return nil
}
