package neat

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[Genome]
feed_forward = false
connection_weight_range = 3.0
node_aux_state_mutation_probability = 0.1
weight_mutation_scheme = gentle ; inline comment

[Factory]
input_count = 3
output_count = 2
debug_checks = true

[Activation]
options = sigmoid rbf_gaussian
probabilities = 0.5 0.5
aggregation = max
`)
	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.False(t, config.Genome.FeedForward)
	assert.Equal(t, 3.0, config.Genome.WeightRange)
	assert.Equal(t, "gentle", config.Genome.WeightMutationScheme)
	assert.Equal(t, 3, config.Factory.InputCount)
	assert.Equal(t, 2, config.Factory.OutputCount)
	assert.True(t, config.Factory.DebugChecks)
	assert.Equal(t, []string{"sigmoid", "rbf_gaussian"}, config.Activation.Options)
	assert.Equal(t, []float64{0.5, 0.5}, config.Activation.Probabilities)
	assert.Equal(t, "max", config.Activation.Aggregation)

	// Keys missing from the file keep their defaults.
	assert.Equal(t, 0x20000, config.Factory.HistoryBufferSize)
	assert.Equal(t, 5, config.Genome.AddConnectionAttempts)
}

func TestLoadConfigRejectsAuxMutationWithoutAuxFunctions(t *testing.T) {
	path := writeConfig(t, `
[Genome]
node_aux_state_mutation_probability = 0.2

[Activation]
options = sigmoid tanh
`)
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPreconditionFailed))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"no inputs", func(c *Config) { c.Factory.InputCount = 0 }},
		{"negative weight range", func(c *Config) { c.Genome.WeightRange = -1 }},
		{"probability above one", func(c *Config) { c.Genome.AddNodeMutationProbability = 1.5 }},
		{"unknown activation", func(c *Config) { c.Activation.Options = []string{"nope"} }},
		{"unknown scheme", func(c *Config) { c.Genome.WeightMutationScheme = "wild" }},
		{"unknown aggregation", func(c *Config) { c.Activation.Aggregation = "median" }},
		{"split weight out of range", func(c *Config) { c.Genome.SplitOutputWeight = 10 }},
	}
	require.NoError(t, DefaultConfig().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.modify(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestConfigValidateReportsFirstInvalidProbability(t *testing.T) {
	for i := 0; i < 20; i++ {
		c := DefaultConfig()
		c.Genome.AddNodeMutationProbability = 2
		c.Genome.DeleteConnectionMutationProbability = -1
		err := c.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "add_node_mutation_probability")
	}
}

func TestSplitOutputWeightDefaultsToRange(t *testing.T) {
	g := DefaultConfig().Genome
	assert.Equal(t, g.WeightRange, g.splitOutputWeight())
	g.SplitOutputWeight = 1.5
	assert.Equal(t, 1.5, g.splitOutputWeight())
}
