package neat

// EvaluationInfo holds the fitness assigned to a genome together with a short
// history of past scores.
type EvaluationInfo struct {
	Fitness         float64
	AuxFitness      []float64
	EvaluationCount int

	history       []float64
	historyLength int
}

// NewEvaluationInfo creates an evaluation record keeping the last historyLength scores.
func NewEvaluationInfo(historyLength int) EvaluationInfo {
	if historyLength < 1 {
		historyLength = 1
	}
	return EvaluationInfo{historyLength: historyLength}
}

// SetFitness records a new score.
func (e *EvaluationInfo) SetFitness(fitness float64, aux ...float64) {
	e.Fitness = fitness
	e.AuxFitness = append(e.AuxFitness[:0], aux...)
	e.EvaluationCount++
	if e.historyLength < 1 {
		e.historyLength = 1
	}
	if len(e.history) == e.historyLength {
		copy(e.history, e.history[1:])
		e.history = e.history[:len(e.history)-1]
	}
	e.history = append(e.history, fitness)
}

// History returns the recorded scores, oldest first.
func (e *EvaluationInfo) History() []float64 {
	return append([]float64(nil), e.history...)
}

// MeanFitness averages the recorded scores.
func (e *EvaluationInfo) MeanFitness() float64 { return Mean(e.history) }

// FitnessSpread is the sample standard deviation of the recorded scores.
func (e *EvaluationInfo) FitnessSpread() float64 { return Stdev(e.history) }

// SetHistory replaces the recorded scores, keeping only the newest ones that
// fit the history length.
func (e *EvaluationInfo) SetHistory(scores []float64) {
	if e.historyLength < 1 {
		e.historyLength = 1
	}
	if len(scores) > e.historyLength {
		scores = scores[len(scores)-e.historyLength:]
	}
	e.history = append([]float64(nil), scores...)
}

// Reset clears the score and its history.
func (e *EvaluationInfo) Reset() {
	e.Fitness = 0
	e.AuxFitness = nil
	e.EvaluationCount = 0
	e.history = nil
}
