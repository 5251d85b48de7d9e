package neat

import (
	"cmp"
	"slices"
)

// innovationGene is implemented by both gene kinds so the list helpers can be shared.
type innovationGene interface {
	ID() uint32
}

func compareID[T innovationGene](g T, id uint32) int {
	return cmp.Compare(g.ID(), id)
}

// searchRange binary searches s[lo:hi] for id. It returns the absolute index
// and true on a hit, or the absolute insertion point and false on a miss.
// The range must be sorted by innovation ID.
func searchRange[T innovationGene](s []T, id uint32, lo, hi int) (int, bool) {
	i, found := slices.BinarySearchFunc(s[lo:hi], id, compareID[T])
	return lo + i, found
}

func sortedRange[T innovationGene](s []T, lo, hi int) bool {
	return slices.IsSortedFunc(s[lo:hi], func(a, b T) int { return cmp.Compare(a.ID(), b.ID()) })
}

func sortRange[T innovationGene](s []T, lo, hi int) {
	slices.SortStableFunc(s[lo:hi], func(a, b T) int { return cmp.Compare(a.ID(), b.ID()) })
}

// --------------------------- NeuronGeneList ---------------------------

// NeuronGeneList stores neuron genes in layout order: bias, inputs, outputs,
// then one block per module (regulatory, local inputs, local outputs, hidden),
// oldest module first and the active module last. IDs are ascending within a
// module block, not across the whole list.
type NeuronGeneList []*NeuronGene

// Copy returns a deep copy of the list.
func (l NeuronGeneList) Copy() NeuronGeneList {
	c := make(NeuronGeneList, len(l))
	for i, ng := range l {
		c[i] = ng.Copy()
	}
	return c
}

// BinarySearch looks up id inside l[lo:hi].
func (l NeuronGeneList) BinarySearch(id uint32, lo, hi int) (int, bool) {
	return searchRange(l, id, lo, hi)
}

// GetByID returns the neuron with the given id from the sorted range l[lo:hi].
func (l NeuronGeneList) GetByID(id uint32, lo, hi int) *NeuronGene {
	if i, ok := l.BinarySearch(id, lo, hi); ok {
		return l[i]
	}
	return nil
}

// InsertIntoPosition inserts g at its sorted place inside l[lo:] and returns the index used.
func (l *NeuronGeneList) InsertIntoPosition(g *NeuronGene, lo int) int {
	i, _ := searchRange(*l, g.InnovationID, lo, len(*l))
	*l = slices.Insert(*l, i, g)
	return i
}

// RemoveAt deletes the gene at index i.
func (l *NeuronGeneList) RemoveAt(i int) {
	*l = slices.Delete(*l, i, i+1)
}

// RemoveAll deletes every gene matching pred and returns the number removed.
func (l *NeuronGeneList) RemoveAll(pred func(*NeuronGene) bool) int {
	before := len(*l)
	*l = slices.DeleteFunc(*l, pred)
	return before - len(*l)
}

// IsSorted reports whether l[lo:hi] is sorted by innovation ID.
func (l NeuronGeneList) IsSorted(lo, hi int) bool { return sortedRange(l, lo, hi) }

// SortByInnovationID sorts l[lo:hi] in place.
func (l NeuronGeneList) SortByInnovationID(lo, hi int) { sortRange(l, lo, hi) }

// --------------------------- ConnectionGeneList ---------------------------

// ConnectionGeneList stores connection genes grouped by module. Inside each
// module chunk protected connections come first, followed by the active ones.
type ConnectionGeneList []*ConnectionGene

// Copy returns a deep copy of the list.
func (l ConnectionGeneList) Copy() ConnectionGeneList {
	c := make(ConnectionGeneList, len(l))
	for i, cg := range l {
		c[i] = cg.Copy()
	}
	return c
}

// BinarySearch looks up id inside l[lo:hi].
func (l ConnectionGeneList) BinarySearch(id uint32, lo, hi int) (int, bool) {
	return searchRange(l, id, lo, hi)
}

// InsertIntoPosition inserts g at its sorted place inside l[lo:] and returns the index used.
func (l *ConnectionGeneList) InsertIntoPosition(g *ConnectionGene, lo int) int {
	i, _ := searchRange(*l, g.InnovationID, lo, len(*l))
	*l = slices.Insert(*l, i, g)
	return i
}

// RemoveAt deletes the gene at index i.
func (l *ConnectionGeneList) RemoveAt(i int) {
	*l = slices.Delete(*l, i, i+1)
}

// RemoveAll deletes every gene matching pred and returns the number removed.
func (l *ConnectionGeneList) RemoveAll(pred func(*ConnectionGene) bool) int {
	before := len(*l)
	*l = slices.DeleteFunc(*l, pred)
	return before - len(*l)
}

// IsSorted reports whether l[lo:hi] is sorted by innovation ID.
func (l ConnectionGeneList) IsSorted(lo, hi int) bool { return sortedRange(l, lo, hi) }

// SortByInnovationID sorts l[lo:hi] in place.
func (l ConnectionGeneList) SortByInnovationID(lo, hi int) { sortRange(l, lo, hi) }

// LastID returns the highest innovation ID in l[lo:hi], or 0 for an empty range.
// The range must be sorted.
func (l ConnectionGeneList) LastID(lo, hi int) uint32 {
	if hi <= lo {
		return 0
	}
	return l[hi-1].InnovationID
}
