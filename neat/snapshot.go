package neat

import (
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/gosuri/uitable"
)

// NeuronSnapshot is the serialisable form of a NeuronGene. Adjacency is not
// stored; it is rebuilt from the connections on restore.
type NeuronSnapshot struct {
	ID           uint32    `json:"id"`
	Type         NodeType  `json:"type"`
	Module       int       `json:"module"`
	Pandemonium  int       `json:"pandemonium,omitempty"`
	ActivationFn int       `json:"activation_fn"`
	AuxState     []float64 `json:"aux_state,omitempty"`
}

// ConnectionSnapshot is the serialisable form of a ConnectionGene.
type ConnectionSnapshot struct {
	ID        uint32  `json:"id"`
	Source    uint32  `json:"source"`
	Target    uint32  `json:"target"`
	Weight    float64 `json:"weight"`
	Module    int     `json:"module"`
	Protected bool    `json:"protected,omitempty"`
}

// GenomeSnapshot is the serialisable form of a Genome.
type GenomeSnapshot struct {
	ID              uint32               `json:"id"`
	BirthGeneration uint32               `json:"birth_generation"`
	Fitness         float64              `json:"fitness"`
	AuxFitness      []float64            `json:"aux_fitness,omitempty"`
	EvaluationCount int                  `json:"evaluation_count"`
	History         []float64            `json:"history,omitempty"`
	Neurons         []NeuronSnapshot     `json:"neurons"`
	Connections     []ConnectionSnapshot `json:"connections"`
}

// Snapshot captures the genome's genes and evaluation.
func (g *Genome) Snapshot() GenomeSnapshot {
	s := GenomeSnapshot{
		ID:              g.id,
		BirthGeneration: g.birthGeneration,
		Fitness:         g.Evaluation.Fitness,
		AuxFitness:      append([]float64(nil), g.Evaluation.AuxFitness...),
		EvaluationCount: g.Evaluation.EvaluationCount,
		History:         g.Evaluation.History(),
		Neurons:         make([]NeuronSnapshot, len(g.neurons)),
		Connections:     make([]ConnectionSnapshot, len(g.connections)),
	}
	for i, n := range g.neurons {
		s.Neurons[i] = NeuronSnapshot{
			ID:           n.InnovationID,
			Type:         n.NodeType,
			Module:       n.ModuleID,
			Pandemonium:  n.Pandemonium,
			ActivationFn: n.ActivationFnID,
			AuxState:     append([]float64(nil), n.AuxState...),
		}
	}
	for i, c := range g.connections {
		s.Connections[i] = ConnectionSnapshot{
			ID:        c.InnovationID,
			Source:    c.SourceID,
			Target:    c.TargetID,
			Weight:    c.Weight,
			Module:    c.ModuleID,
			Protected: c.Protected,
		}
	}
	return s
}

// RestoreGenome rebuilds a genome from a snapshot taken under the factory's
// current layout. The result is always integrity checked.
func (f *GenomeFactory) RestoreGenome(s GenomeSnapshot) (*Genome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	neurons := make(NeuronGeneList, len(s.Neurons))
	for i, n := range s.Neurons {
		if _, err := f.activations.Function(n.ActivationFn); err != nil {
			return nil, err
		}
		var aux []float64
		if len(n.AuxState) > 0 {
			aux = append(aux, n.AuxState...)
		}
		neurons[i] = NewNeuronGene(n.ID, n.Type, n.Module, n.ActivationFn, aux)
		neurons[i].Pandemonium = n.Pandemonium
	}
	connections := make(ConnectionGeneList, len(s.Connections))
	for i, c := range s.Connections {
		connections[i] = NewConnectionGene(c.ID, c.Source, c.Target, c.Weight, c.Module, c.Protected)
	}

	g := newGenome(f, s.ID, s.BirthGeneration, neurons, connections)
	g.Evaluation.Fitness = s.Fitness
	g.Evaluation.AuxFitness = append([]float64(nil), s.AuxFitness...)
	g.Evaluation.EvaluationCount = s.EvaluationCount
	g.Evaluation.SetHistory(s.History)
	if err := g.rebuildConnectivity(); err != nil {
		return nil, err
	}
	g.recomputeDerived()
	if err := g.checkIntegrity(); err != nil {
		return nil, fmt.Errorf("restored genome %d is invalid: %w", s.ID, err)
	}

	f.genomeIDs.ObserveID(s.ID)
	for _, n := range neurons {
		f.innovationIDs.ObserveID(n.InnovationID)
	}
	for _, c := range connections {
		f.innovationIDs.ObserveID(c.InnovationID)
	}
	return g, nil
}

// --------------------------- Factory state ---------------------------

// ConnectionHistoryEntry is one remembered add-connection innovation.
type ConnectionHistoryEntry struct {
	Source uint32 `json:"source"`
	Target uint32 `json:"target"`
	ID     uint32 `json:"id"`
}

// NeuronHistoryEntry is one remembered add-node innovation.
type NeuronHistoryEntry struct {
	SplitConnection  uint32 `json:"split_connection"`
	NeuronID         uint32 `json:"neuron_id"`
	InputConnection  uint32 `json:"input_connection"`
	OutputConnection uint32 `json:"output_connection"`
}

// FactoryState is everything a factory needs to resume issuing IDs
// consistently with previously created genomes.
type FactoryState struct {
	RunID             string                   `json:"run_id"`
	NextGenomeID      uint32                   `json:"next_genome_id"`
	NextInnovationID  uint32                   `json:"next_innovation_id"`
	NextModuleID      int                      `json:"next_module_id"`
	Layout            Layout                   `json:"layout"`
	Modules           []ModuleInfo             `json:"modules"`
	ConnectionHistory []ConnectionHistoryEntry `json:"connection_history"`
	NeuronHistory     []NeuronHistoryEntry     `json:"neuron_history"`
}

// State captures the factory's ID generators, history buffers and module layout.
func (f *GenomeFactory) State() FactoryState {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := FactoryState{
		RunID:            f.RunID.String(),
		NextGenomeID:     f.genomeIDs.Peek(),
		NextInnovationID: f.innovationIDs.Peek(),
		NextModuleID:     f.nextModuleID,
		Layout:           f.layout,
	}
	for _, m := range f.modules {
		s.Modules = append(s.Modules, m.copyInfo())
	}
	keys, ids := f.addedConnectionBuffer.Entries()
	for i, k := range keys {
		s.ConnectionHistory = append(s.ConnectionHistory, ConnectionHistoryEntry{Source: k.SourceID, Target: k.TargetID, ID: ids[i]})
	}
	split, added := f.addedNeuronBuffer.Entries()
	for i, k := range split {
		a := added[i]
		s.NeuronHistory = append(s.NeuronHistory, NeuronHistoryEntry{
			SplitConnection:  k,
			NeuronID:         a.NeuronID,
			InputConnection:  a.InputConnection,
			OutputConnection: a.OutputConnection,
		})
	}
	return s
}

// RestoreState replaces the factory's ID and history state. Genomes must be
// restored afterwards with RestoreGenome.
func (f *GenomeFactory) RestoreState(s FactoryState) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if s.Layout.InputCount != f.Config.Factory.InputCount || s.Layout.OutputCount != f.Config.Factory.OutputCount {
		return preconditionf("state has %d inputs and %d outputs, config has %d and %d",
			s.Layout.InputCount, s.Layout.OutputCount, f.Config.Factory.InputCount, f.Config.Factory.OutputCount)
	}
	if s.RunID != "" {
		id, err := uuid.FromString(s.RunID)
		if err != nil {
			return fmt.Errorf("invalid run id '%s': %w", s.RunID, err)
		}
		f.RunID = id
	}

	f.reset()
	f.genomeIDs.Reset(s.NextGenomeID)
	f.innovationIDs.Reset(s.NextInnovationID)
	f.nextModuleID = s.NextModuleID
	f.layout = s.Layout
	for _, m := range s.Modules {
		info := m.copyInfo()
		f.modules = append(f.modules, &info)
	}
	for _, e := range s.ConnectionHistory {
		f.addedConnectionBuffer.Enqueue(ConnectionEndpoints{SourceID: e.Source, TargetID: e.Target}, e.ID)
	}
	for _, e := range s.NeuronHistory {
		f.addedNeuronBuffer.Enqueue(e.SplitConnection, AddedNeuronGeneStruct{
			NeuronID:         e.NeuronID,
			InputConnection:  e.InputConnection,
			OutputConnection: e.OutputConnection,
		})
	}
	return nil
}

// --------------------------- Dump ---------------------------

// Dump renders the genome's genes as two plain-text tables.
func (g *Genome) Dump() string {
	g.factory.mu.Lock()
	defer g.factory.mu.Unlock()

	neurons := uitable.New()
	neurons.MaxColWidth = 40
	neurons.Wrap = false
	neurons.AddRow("Index", "Neuron", "Type", "Module", "Fn", "Sources", "Targets")
	for i, n := range g.neurons {
		fn := "-"
		if f, err := g.factory.activations.Function(n.ActivationFnID); err == nil && n.NodeType == HiddenNode {
			fn = f.Name()
		}
		neurons.AddRow(i, n.InnovationID, n.NodeType, n.ModuleID, fn, formatIDs(n.SourceNeurons), formatIDs(n.TargetNeurons))
	}

	connections := uitable.New()
	connections.MaxColWidth = 40
	connections.Wrap = false
	connections.AddRow("Index", "Connection", "Source", "Target", "Weight", "Module", "Protected")
	for i, c := range g.connections {
		connections.AddRow(i, c.InnovationID, c.SourceID, c.TargetID, fmt.Sprintf("%+.4f", c.Weight), c.ModuleID, c.Protected)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Genome %d (born %d, fitness %.4f, %d active connections)\n",
		g.id, g.birthGeneration, g.Evaluation.Fitness, g.activeConnectionCount)
	sb.WriteString(neurons.String())
	sb.WriteString("\n\n")
	sb.WriteString(connections.String())
	sb.WriteString("\n")
	return sb.String()
}

func formatIDs(s NeuronIDSet) string {
	ids := s.Sorted()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ",")
}
