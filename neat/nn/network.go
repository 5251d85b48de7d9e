// Package nn decodes genomes into runnable networks.
package nn

import (
	"fmt"

	"github.com/campoy/unique"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/pablogps/EspNeat-sub001/neat"
)

// DefaultTimesteps is the number of relaxation steps a cyclic network runs per activation.
const DefaultTimesteps = 3

// link is an incoming connection of a node. Gated links run from a module's
// local output to a global output and are scaled by the module's regulatory value.
type link struct {
	from   int
	weight float64
	gated  bool
	module int
}

// neuralNode represents a node during network activation.
type neuralNode struct {
	id       uint32
	nodeType neat.NodeType
	module   int
	fn       neat.ActivationFunction
	aux      []float64
	inputs   []link
}

// Network is the phenome of a genome. In acyclic networks nodes are evaluated
// once in topological order; cyclic networks are relaxed for Timesteps
// synchronous steps and keep their state between activations until Reset.
type Network struct {
	Timesteps int

	nodes     []neuralNode
	bias      int
	inputs    []int
	outputs   []int
	order     []int // acyclic evaluation order, bias and inputs excluded
	cyclic    bool
	aggregate neat.AggregationType

	regulatory  map[int]int   // module -> node index of its regulatory neuron
	pandemonium map[int]int   // module -> pandemonium group
	groups      map[int][]int // group -> member modules, in layout order

	values []float64
	next   []float64
	buf    []float64
}

// Decode builds a network from a genome.
func Decode(g *neat.Genome) (*Network, error) {
	f := g.Factory()
	lib := f.ActivationLibrary()
	aggregate, err := neat.GetAggregation(f.Config.Activation.Aggregation)
	if err != nil {
		return nil, err
	}

	neurons := g.Neurons()
	net := &Network{
		Timesteps:   DefaultTimesteps,
		nodes:       make([]neuralNode, len(neurons)),
		bias:        -1,
		aggregate:   aggregate,
		regulatory:  make(map[int]int),
		pandemonium: make(map[int]int),
		groups:      make(map[int][]int),
		values:      make([]float64, len(neurons)),
		next:        make([]float64, len(neurons)),
	}

	index := make(map[uint32]int, len(neurons))
	for i, n := range neurons {
		fn, err := lib.Function(n.ActivationFnID)
		if err != nil {
			return nil, fmt.Errorf("neuron %d: %w", n.InnovationID, err)
		}
		index[n.InnovationID] = i
		net.nodes[i] = neuralNode{id: n.InnovationID, nodeType: n.NodeType, module: n.ModuleID, fn: fn, aux: n.AuxState}
		switch n.NodeType {
		case neat.BiasNode:
			net.bias = i
		case neat.InputNode:
			net.inputs = append(net.inputs, i)
		case neat.OutputNode:
			net.outputs = append(net.outputs, i)
		case neat.RegulatoryNode:
			net.regulatory[n.ModuleID] = i
			net.pandemonium[n.ModuleID] = n.Pandemonium
			if n.Pandemonium != 0 {
				net.groups[n.Pandemonium] = append(net.groups[n.Pandemonium], n.ModuleID)
			}
		}
	}
	if net.bias < 0 {
		return nil, fmt.Errorf("genome %d has no bias neuron", g.ID())
	}

	selfLoop := false
	for _, c := range g.Connections() {
		src, ok := index[c.SourceID]
		if !ok {
			return nil, fmt.Errorf("connection %d: unknown source neuron %d", c.InnovationID, c.SourceID)
		}
		tgt, ok := index[c.TargetID]
		if !ok {
			return nil, fmt.Errorf("connection %d: unknown target neuron %d", c.InnovationID, c.TargetID)
		}
		selfLoop = selfLoop || src == tgt
		gated := net.nodes[src].nodeType == neat.LocalOutputNode && net.nodes[tgt].nodeType == neat.OutputNode
		net.nodes[tgt].inputs = append(net.nodes[tgt].inputs, link{
			from:   src,
			weight: c.Weight,
			gated:  gated,
			module: net.nodes[src].module,
		})
	}

	order, acyclic := net.evaluationOrder()
	net.cyclic = selfLoop || !acyclic
	if !net.cyclic {
		net.order = order
	}
	return net, nil
}

// evaluationOrder sorts the nodes topologically. A gated link also depends on
// the regulatory neurons of every module competing in its pandemonium group,
// so those get virtual edges to the link's target.
func (net *Network) evaluationOrder() ([]int, bool) {
	dg := simple.NewDirectedGraph()
	for i := range net.nodes {
		dg.AddNode(simple.Node(int64(i)))
	}
	addEdge := func(from, to int) {
		if from != to {
			dg.SetEdge(dg.NewEdge(simple.Node(int64(from)), simple.Node(int64(to))))
		}
	}
	for i, nd := range net.nodes {
		for _, l := range nd.inputs {
			addEdge(l.from, i)
			if l.gated {
				for _, r := range net.competitors(l.module) {
					addEdge(r, i)
				}
			}
		}
	}

	sorted, err := topo.Sort(dg)
	if err != nil {
		return nil, false
	}
	order := make([]int, 0, len(sorted))
	for _, n := range sorted {
		i := int(n.ID())
		if t := net.nodes[i].nodeType; t == neat.BiasNode || t == neat.InputNode {
			continue
		}
		order = append(order, i)
	}
	return order, true
}

// competitors returns the regulatory node indices a module's gate depends on.
func (net *Network) competitors(module int) []int {
	r, ok := net.regulatory[module]
	if !ok {
		return nil
	}
	group := net.pandemonium[module]
	if group == 0 {
		return []int{r}
	}
	out := make([]int, 0, len(net.groups[group]))
	for _, m := range net.groups[group] {
		out = append(out, net.regulatory[m])
	}
	return out
}

// IsCyclic reports whether the network is relaxed over timesteps.
func (net *Network) IsCyclic() bool { return net.cyclic }

// PandemoniumGroups returns the non-zero pandemonium groups, ascending.
func (net *Network) PandemoniumGroups() []int {
	groups := make([]int, 0, len(net.pandemonium))
	for _, p := range net.pandemonium {
		if p != 0 {
			groups = append(groups, p)
		}
	}
	unique.Slice(&groups, func(i, j int) bool { return groups[i] < groups[j] })
	return groups
}

// Reset clears the state carried between activations of a cyclic network.
func (net *Network) Reset() {
	for i := range net.values {
		net.values[i] = 0
	}
}

// Activate computes the network's output for a given slice of input values.
func (net *Network) Activate(inputs []float64) ([]float64, error) {
	if len(inputs) != len(net.inputs) {
		return nil, fmt.Errorf("mismatch between input count (%d) and network input nodes (%d)", len(inputs), len(net.inputs))
	}

	if net.cyclic {
		net.loadInputs(net.values, inputs)
		for step := 0; step < net.Timesteps; step++ {
			copy(net.next, net.values)
			for i := range net.nodes {
				if t := net.nodes[i].nodeType; t == neat.BiasNode || t == neat.InputNode {
					continue
				}
				net.next[i] = net.evaluate(i, net.values)
			}
			net.values, net.next = net.next, net.values
		}
	} else {
		net.Reset()
		net.loadInputs(net.values, inputs)
		for _, i := range net.order {
			net.values[i] = net.evaluate(i, net.values)
		}
	}

	outputs := make([]float64, len(net.outputs))
	for k, i := range net.outputs {
		outputs[k] = net.values[i]
	}
	return outputs, nil
}

func (net *Network) loadInputs(values, inputs []float64) {
	values[net.bias] = 1.0
	for k, i := range net.inputs {
		values[i] = inputs[k]
	}
}

// evaluate computes node i from the values in src.
func (net *Network) evaluate(i int, src []float64) float64 {
	nd := &net.nodes[i]
	buf := net.buf[:0]
	for _, l := range nd.inputs {
		w := l.weight
		if l.gated {
			w *= net.gate(l.module, src)
		}
		buf = append(buf, src[l.from]*w)
	}
	net.buf = buf
	x := net.aggregate(buf)
	if nd.nodeType == neat.RegulatoryNode {
		return neat.Sigmoid(x)
	}
	return nd.fn.Calculate(x, nd.aux)
}

// gate is the factor applied to a module's links into the global outputs:
// its regulatory value, or 0 when another module of its pandemonium group
// has a higher one. Ties go to the module listed first.
func (net *Network) gate(module int, src []float64) float64 {
	r, ok := net.regulatory[module]
	if !ok {
		return 1.0
	}
	group := net.pandemonium[module]
	if group == 0 {
		return src[r]
	}
	winner, best := -1, 0.0
	for _, m := range net.groups[group] {
		if v := src[net.regulatory[m]]; winner < 0 || v > best {
			winner, best = m, v
		}
	}
	if winner != module {
		return 0
	}
	return src[r]
}
