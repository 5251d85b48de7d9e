package neat

import (
	"fmt"
	"sort"
)

// NodeType identifies the role a neuron gene plays in the genome layout.
type NodeType int

const (
	BiasNode NodeType = iota
	InputNode
	OutputNode
	RegulatoryNode
	LocalInputNode
	LocalOutputNode
	HiddenNode
)

var nodeTypeNames = [...]string{
	BiasNode:        "bias",
	InputNode:       "input",
	OutputNode:      "output",
	RegulatoryNode:  "regulatory",
	LocalInputNode:  "local_input",
	LocalOutputNode: "local_output",
	HiddenNode:      "hidden",
}

func (t NodeType) String() string {
	if t < 0 || int(t) >= len(nodeTypeNames) {
		return fmt.Sprintf("NodeType(%d)", int(t))
	}
	return nodeTypeNames[t]
}

// IsBase reports whether the type belongs to the fixed base topology (bias, inputs, outputs).
func (t NodeType) IsBase() bool {
	return t == BiasNode || t == InputNode || t == OutputNode
}

// NeuronIDSet is a set of neuron innovation IDs.
type NeuronIDSet map[uint32]struct{}

func (s NeuronIDSet) Add(id uint32) { s[id] = struct{}{} }

func (s NeuronIDSet) Remove(id uint32) { delete(s, id) }

func (s NeuronIDSet) Contains(id uint32) bool {
	_, ok := s[id]
	return ok
}

func (s NeuronIDSet) Len() int { return len(s) }

// Sorted returns the members in ascending order.
func (s NeuronIDSet) Sorted() []uint32 {
	ids := make([]uint32, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s NeuronIDSet) copySet() NeuronIDSet {
	c := make(NeuronIDSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// --------------------------- NeuronGene ---------------------------

// NeuronGene represents a neuron in the genome.
// SourceNeurons and TargetNeurons are derived from the connection gene list
// and must match it whenever control returns to the caller.
type NeuronGene struct {
	InnovationID   uint32
	NodeType       NodeType
	ModuleID       int
	Pandemonium    int // grouping tag, only meaningful on regulatory neurons
	ActivationFnID int
	AuxState       []float64

	SourceNeurons NeuronIDSet
	TargetNeurons NeuronIDSet
}

// NewNeuronGene creates a neuron gene with empty adjacency sets.
func NewNeuronGene(id uint32, nodeType NodeType, moduleID, activationFnID int, auxState []float64) *NeuronGene {
	return &NeuronGene{
		InnovationID:   id,
		NodeType:       nodeType,
		ModuleID:       moduleID,
		ActivationFnID: activationFnID,
		AuxState:       auxState,
		SourceNeurons:  make(NeuronIDSet),
		TargetNeurons:  make(NeuronIDSet),
	}
}

func (ng *NeuronGene) ID() uint32 { return ng.InnovationID }

// String returns a string representation of the NeuronGene.
func (ng *NeuronGene) String() string {
	return fmt.Sprintf("NeuronGene(ID: %d, Type: %s, Module: %d, Fn: %d, In: %d, Out: %d)",
		ng.InnovationID, ng.NodeType, ng.ModuleID, ng.ActivationFnID, len(ng.SourceNeurons), len(ng.TargetNeurons))
}

// Copy creates a deep copy of the NeuronGene, adjacency included.
func (ng *NeuronGene) Copy() *NeuronGene {
	c := ng.copyWithoutConnectivity()
	c.SourceNeurons = ng.SourceNeurons.copySet()
	c.TargetNeurons = ng.TargetNeurons.copySet()
	return c
}

func (ng *NeuronGene) copyWithoutConnectivity() *NeuronGene {
	var aux []float64
	if ng.AuxState != nil {
		aux = make([]float64, len(ng.AuxState))
		copy(aux, ng.AuxState)
	}
	c := NewNeuronGene(ng.InnovationID, ng.NodeType, ng.ModuleID, ng.ActivationFnID, aux)
	c.Pandemonium = ng.Pandemonium
	return c
}

// isRedundant reports whether a hidden neuron has lost all of its connections.
func (ng *NeuronGene) isRedundant() bool {
	return ng.NodeType == HiddenNode && len(ng.SourceNeurons) == 0 && len(ng.TargetNeurons) == 0
}

// --------------------------- ConnectionGene ---------------------------

// ConnectionGene represents a weighted connection between two neurons.
type ConnectionGene struct {
	InnovationID uint32
	SourceID     uint32
	TargetID     uint32
	Weight       float64
	ModuleID     int
	// Protected connections define fixed module wiring; they are never
	// deleted, split or counted as active.
	Protected bool

	// IsMutated is scratch state used inside a single weight-mutation pass.
	IsMutated bool
}

// NewConnectionGene creates a new ConnectionGene.
func NewConnectionGene(id, sourceID, targetID uint32, weight float64, moduleID int, protected bool) *ConnectionGene {
	return &ConnectionGene{
		InnovationID: id,
		SourceID:     sourceID,
		TargetID:     targetID,
		Weight:       weight,
		ModuleID:     moduleID,
		Protected:    protected,
	}
}

func (cg *ConnectionGene) ID() uint32 { return cg.InnovationID }

// Endpoints returns the (source, target) key of the connection.
func (cg *ConnectionGene) Endpoints() ConnectionEndpoints {
	return ConnectionEndpoints{SourceID: cg.SourceID, TargetID: cg.TargetID}
}

// String returns a string representation of the ConnectionGene.
func (cg *ConnectionGene) String() string {
	return fmt.Sprintf("ConnGene(ID: %d, %d->%d, Weight: %.3f, Module: %d, Protected: %t)",
		cg.InnovationID, cg.SourceID, cg.TargetID, cg.Weight, cg.ModuleID, cg.Protected)
}

// Copy creates a deep copy of the ConnectionGene. The scratch flag is not carried over.
func (cg *ConnectionGene) Copy() *ConnectionGene {
	return NewConnectionGene(cg.InnovationID, cg.SourceID, cg.TargetID, cg.Weight, cg.ModuleID, cg.Protected)
}

// ConnectionEndpoints uniquely identifies a connection by the neurons it joins.
type ConnectionEndpoints struct {
	SourceID uint32
	TargetID uint32
}
