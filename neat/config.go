package neat

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// Config stores the configuration parameters for the genome engine.
type Config struct {
	Genome     GenomeConfig
	Factory    FactoryConfig
	Activation ActivationConfig
}

// GenomeConfig holds parameters for mutation and crossover of genomes.
type GenomeConfig struct {
	FeedForward bool    `ini:"feed_forward"` // If true, recurrent connections are disallowed
	WeightRange float64 `ini:"connection_weight_range"`

	InitialInterconnectionsProportion        float64 `ini:"initial_interconnections_proportion"`
	DisjointExcessGenesRecombinedProbability float64 `ini:"disjoint_excess_genes_recombined_probability"`

	ConnectionWeightMutationProbability float64 `ini:"connection_weight_mutation_probability"`
	AddNodeMutationProbability          float64 `ini:"add_node_mutation_probability"`
	AddConnectionMutationProbability    float64 `ini:"add_connection_mutation_probability"`
	NodeAuxStateMutationProbability     float64 `ini:"node_aux_state_mutation_probability"`
	DeleteConnectionMutationProbability float64 `ini:"delete_connection_mutation_probability"`

	AddConnectionAttempts int     `ini:"add_connection_attempts"`
	SplitOutputWeight     float64 `ini:"split_output_weight"` // weight of the second connection created by add-node; 0 means WeightRange
	WeightMutationScheme  string  `ini:"weight_mutation_scheme"`
	FitnessHistoryLength  int     `ini:"fitness_history_length"`
}

// FactoryConfig holds parameters of the population-wide genome factory.
type FactoryConfig struct {
	InputCount        int   `ini:"input_count"`
	OutputCount       int   `ini:"output_count"`
	HistoryBufferSize int   `ini:"history_buffer_size"`
	ModuleIDSlack     int   `ini:"module_id_slack"` // IDs left unused after each module block
	DebugChecks       bool  `ini:"debug_checks"`    // integrity check after every operation
	Seed              int64 `ini:"seed"`            // 0 seeds from the clock
}

// ActivationConfig lists the activation functions available to hidden neurons.
type ActivationConfig struct {
	Options       []string  `ini:"options" delim:" "`
	Probabilities []float64 `ini:"probabilities" delim:" "`
	Aggregation   string    `ini:"aggregation"` // how the decoder combines weighted inputs
}

// DefaultConfig returns the parameter set used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Genome: GenomeConfig{
			FeedForward:                              true,
			WeightRange:                              5.0,
			InitialInterconnectionsProportion:        0.05,
			DisjointExcessGenesRecombinedProbability: 0.1,
			ConnectionWeightMutationProbability:      0.988,
			AddNodeMutationProbability:               0.001,
			AddConnectionMutationProbability:         0.01,
			NodeAuxStateMutationProbability:          0.0,
			DeleteConnectionMutationProbability:      0.001,
			AddConnectionAttempts:                    5,
			WeightMutationScheme:                     "default",
			FitnessHistoryLength:                     16,
		},
		Factory: FactoryConfig{
			InputCount:        1,
			OutputCount:       1,
			HistoryBufferSize: 0x20000,
			ModuleIDSlack:     5,
		},
		Activation: ActivationConfig{
			Options:       []string{"sigmoid"},
			Probabilities: []float64{1.0},
			Aggregation:   "sum",
		},
	}
}

// LoadConfig loads configuration parameters from an INI file. Keys missing
// from the file keep their DefaultConfig value.
func LoadConfig(filePath string) (*Config, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	config := DefaultConfig()
	if err := cfg.Section("Genome").MapTo(&config.Genome); err != nil {
		return nil, fmt.Errorf("failed to map [Genome] section: %w", err)
	}
	if err := cfg.Section("Factory").MapTo(&config.Factory); err != nil {
		return nil, fmt.Errorf("failed to map [Factory] section: %w", err)
	}
	if err := cfg.Section("Activation").MapTo(&config.Activation); err != nil {
		return nil, fmt.Errorf("failed to map [Activation] section: %w", err)
	}

	config.Genome.WeightMutationScheme = cleanIniString(config.Genome.WeightMutationScheme)
	config.Activation.Aggregation = cleanIniString(config.Activation.Aggregation)
	for i, opt := range config.Activation.Options {
		config.Activation.Options[i] = strings.TrimSpace(opt)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks value ranges and cross-parameter constraints.
func (c *Config) Validate() error {
	g := &c.Genome
	if c.Factory.InputCount <= 0 {
		return fmt.Errorf("config error: input_count must be positive")
	}
	if c.Factory.OutputCount <= 0 {
		return fmt.Errorf("config error: output_count must be positive")
	}
	if c.Factory.HistoryBufferSize <= 0 {
		return fmt.Errorf("config error: history_buffer_size must be positive")
	}
	if c.Factory.ModuleIDSlack < 0 {
		return fmt.Errorf("config error: module_id_slack cannot be negative")
	}
	if g.WeightRange <= 0 {
		return fmt.Errorf("config error: connection_weight_range must be positive")
	}
	if g.SplitOutputWeight < 0 || g.SplitOutputWeight > g.WeightRange {
		return fmt.Errorf("config error: split_output_weight must be within [0, connection_weight_range]")
	}
	if g.AddConnectionAttempts <= 0 {
		return fmt.Errorf("config error: add_connection_attempts must be positive")
	}
	if g.FitnessHistoryLength <= 0 {
		return fmt.Errorf("config error: fitness_history_length must be positive")
	}
	probabilities := []struct {
		name  string
		value float64
	}{
		{"initial_interconnections_proportion", g.InitialInterconnectionsProportion},
		{"disjoint_excess_genes_recombined_probability", g.DisjointExcessGenesRecombinedProbability},
		{"connection_weight_mutation_probability", g.ConnectionWeightMutationProbability},
		{"add_node_mutation_probability", g.AddNodeMutationProbability},
		{"add_connection_mutation_probability", g.AddConnectionMutationProbability},
		{"node_aux_state_mutation_probability", g.NodeAuxStateMutationProbability},
		{"delete_connection_mutation_probability", g.DeleteConnectionMutationProbability},
	}
	for _, p := range probabilities {
		if p.value < 0 || p.value > 1 {
			return fmt.Errorf("config error: %s must be between 0 and 1", p.name)
		}
	}
	if g.ConnectionWeightMutationProbability+g.AddNodeMutationProbability+g.AddConnectionMutationProbability+
		g.NodeAuxStateMutationProbability+g.DeleteConnectionMutationProbability <= 0 {
		return fmt.Errorf("config error: mutation probabilities sum to zero")
	}
	if _, err := ConnectionMutationScheme(g.WeightMutationScheme); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if len(c.Activation.Options) == 0 {
		return fmt.Errorf("config error: activation options must be specified")
	}
	lib, err := NewActivationLibrary(c.Activation.Options, c.Activation.Probabilities)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if _, err := GetAggregation(c.Activation.Aggregation); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if g.NodeAuxStateMutationProbability > 0 && !lib.AcceptsAuxArgs() {
		return fmt.Errorf("config error: %w: node_aux_state_mutation_probability > 0 but no activation function accepts auxiliary arguments", ErrPreconditionFailed)
	}
	return nil
}

// splitOutputWeight resolves the weight given to the outgoing half of a split connection.
func (g *GenomeConfig) splitOutputWeight() float64 {
	if g.SplitOutputWeight == 0 {
		return g.WeightRange
	}
	return g.SplitOutputWeight
}

// cleanIniString removes inline comments and trims whitespace from a string read from INI.
func cleanIniString(s string) string {
	if idx := strings.IndexAny(s, "#;"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
