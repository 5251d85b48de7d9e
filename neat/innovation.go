package neat

// IDGenerator issues innovation and genome IDs in ascending order.
type IDGenerator struct {
	next uint32
}

// NewIDGenerator creates a generator whose first issued ID is next.
func NewIDGenerator(next uint32) *IDGenerator {
	return &IDGenerator{next: next}
}

// NextID issues a single ID.
func (g *IDGenerator) NextID() uint32 {
	id := g.next
	g.next++
	return id
}

// Reserve issues a contiguous block of n IDs and returns the first one.
func (g *IDGenerator) Reserve(n int) uint32 {
	first := g.next
	g.next += uint32(n)
	return first
}

// Peek returns the ID the next call to NextID will issue.
func (g *IDGenerator) Peek() uint32 { return g.next }

// Reset makes next the next ID issued.
func (g *IDGenerator) Reset(next uint32) { g.next = next }

// ObserveID moves the generator past id. Used when genomes are restored from storage.
func (g *IDGenerator) ObserveID(id uint32) {
	if id >= g.next {
		g.next = id + 1
	}
}

// --------------------------- History buffers ---------------------------

// KeyedCircularBuffer is a bounded key/value cache. Once full, every insertion
// evicts the oldest entry.
type KeyedCircularBuffer[K comparable, V any] struct {
	keys  []K
	index map[K]V
	head  int // slot of the oldest entry once the buffer is full
	size  int
}

// NewKeyedCircularBuffer creates a buffer holding at most capacity entries.
func NewKeyedCircularBuffer[K comparable, V any](capacity int) *KeyedCircularBuffer[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &KeyedCircularBuffer[K, V]{
		keys:  make([]K, capacity),
		index: make(map[K]V),
	}
}

// Enqueue stores value under key, evicting the oldest entry on overflow.
// Re-enqueueing an existing key refreshes its value without growing the buffer.
func (b *KeyedCircularBuffer[K, V]) Enqueue(key K, value V) {
	if _, ok := b.index[key]; ok {
		b.index[key] = value
		return
	}
	capacity := len(b.keys)
	if b.size == capacity {
		delete(b.index, b.keys[b.head])
		b.keys[b.head] = key
		b.head = (b.head + 1) % capacity
	} else {
		b.keys[(b.head+b.size)%capacity] = key
		b.size++
	}
	b.index[key] = value
}

// TryGetValue returns the value stored under key.
func (b *KeyedCircularBuffer[K, V]) TryGetValue(key K) (V, bool) {
	v, ok := b.index[key]
	return v, ok
}

// Len returns the number of entries held.
func (b *KeyedCircularBuffer[K, V]) Len() int { return b.size }

// Capacity returns the maximum number of entries.
func (b *KeyedCircularBuffer[K, V]) Capacity() int { return len(b.keys) }

// Clear drops every entry.
func (b *KeyedCircularBuffer[K, V]) Clear() {
	var zero K
	for i := range b.keys {
		b.keys[i] = zero
	}
	b.index = make(map[K]V)
	b.head = 0
	b.size = 0
}

// Entries returns keys and values oldest first.
func (b *KeyedCircularBuffer[K, V]) Entries() ([]K, []V) {
	keys := make([]K, 0, b.size)
	values := make([]V, 0, b.size)
	for i := 0; i < b.size; i++ {
		k := b.keys[(b.head+i)%len(b.keys)]
		keys = append(keys, k)
		values = append(values, b.index[k])
	}
	return keys, values
}

// AddedNeuronGeneStruct records the IDs produced by splitting a connection.
type AddedNeuronGeneStruct struct {
	NeuronID         uint32
	InputConnection  uint32
	OutputConnection uint32
}
