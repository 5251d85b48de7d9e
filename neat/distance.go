package neat

import (
	"math"
)

// CoordinateElement is one dimension of a genome position.
type CoordinateElement struct {
	ID    uint32
	Value float64
}

// CoordinateVector is a sparse position in connection space, sorted by ID.
type CoordinateVector struct {
	Elements []CoordinateElement
}

// Len returns the number of non-zero dimensions.
func (v CoordinateVector) Len() int { return len(v.Elements) }

// DistanceMetric measures the distance between two genome positions.
type DistanceMetric interface {
	Distance(a, b CoordinateVector) float64
}

// ManhattanDistanceMetric sums absolute differences of matching dimensions.
// Dimensions present in only one vector add MismatchCoeff*|value| plus MismatchConstant.
type ManhattanDistanceMetric struct {
	MatchCoeff       float64
	MismatchCoeff    float64
	MismatchConstant float64
}

// NewManhattanDistanceMetric returns the plain L1 metric.
func NewManhattanDistanceMetric() ManhattanDistanceMetric {
	return ManhattanDistanceMetric{MatchCoeff: 1, MismatchCoeff: 1}
}

func (m ManhattanDistanceMetric) Distance(a, b CoordinateVector) float64 {
	d := 0.0
	walkCoordinates(a, b,
		func(x, y float64) { d += m.MatchCoeff * math.Abs(x-y) },
		func(x float64) { d += m.MismatchConstant + m.MismatchCoeff*math.Abs(x) },
	)
	return d
}

// EuclideanDistanceMetric is the L2 counterpart of ManhattanDistanceMetric.
type EuclideanDistanceMetric struct {
	MatchCoeff       float64
	MismatchCoeff    float64
	MismatchConstant float64
}

// NewEuclideanDistanceMetric returns the plain L2 metric.
func NewEuclideanDistanceMetric() EuclideanDistanceMetric {
	return EuclideanDistanceMetric{MatchCoeff: 1, MismatchCoeff: 1}
}

func (m EuclideanDistanceMetric) Distance(a, b CoordinateVector) float64 {
	d := 0.0
	walkCoordinates(a, b,
		func(x, y float64) {
			diff := x - y
			d += m.MatchCoeff * diff * diff
		},
		func(x float64) { d += m.MismatchConstant + m.MismatchCoeff*x*x },
	)
	return math.Sqrt(d)
}

// walkCoordinates merges two sorted vectors, calling match for shared IDs and
// mismatch for IDs found in only one of them.
func walkCoordinates(a, b CoordinateVector, match func(x, y float64), mismatch func(x float64)) {
	i, j := 0, 0
	for i < len(a.Elements) && j < len(b.Elements) {
		ea, eb := a.Elements[i], b.Elements[j]
		switch {
		case ea.ID < eb.ID:
			mismatch(ea.Value)
			i++
		case ea.ID > eb.ID:
			mismatch(eb.Value)
			j++
		default:
			match(ea.Value, eb.Value)
			i++
			j++
		}
	}
	for ; i < len(a.Elements); i++ {
		mismatch(a.Elements[i].Value)
	}
	for ; j < len(b.Elements); j++ {
		mismatch(b.Elements[j].Value)
	}
}

// --------------------------- GenomeDistanceCache ---------------------------

type genomePair struct {
	lo, hi uint32
}

// GenomeDistanceCache stores calculated distances between genomes to avoid redundant computations.
// Entries go stale when a genome changes; call Clear after mutating a population.
type GenomeDistanceCache struct {
	Metric    DistanceMetric
	Distances map[genomePair]float64
	Hits      int
	Misses    int
}

// NewGenomeDistanceCache creates a new distance cache.
func NewGenomeDistanceCache(metric DistanceMetric) *GenomeDistanceCache {
	if metric == nil {
		metric = NewManhattanDistanceMetric()
	}
	return &GenomeDistanceCache{
		Metric:    metric,
		Distances: make(map[genomePair]float64),
	}
}

// Distance calculates or retrieves the distance between two genomes.
func (dc *GenomeDistanceCache) Distance(genome1, genome2 *Genome) float64 {
	key := genomePair{lo: genome1.ID(), hi: genome2.ID()}
	if key.lo > key.hi {
		key.lo, key.hi = key.hi, key.lo
	}
	if d, ok := dc.Distances[key]; ok {
		dc.Hits++
		return d
	}
	dc.Misses++
	d := dc.Metric.Distance(genome1.Position(), genome2.Position())
	dc.Distances[key] = d
	return d
}

// Clear drops every cached distance.
func (dc *GenomeDistanceCache) Clear() {
	dc.Distances = make(map[genomePair]float64)
}
