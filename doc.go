// Package neat provides a Go implementation of modular NEAT (NeuroEvolution of
// Augmenting Topologies) genomes.
//
// A genome is a flat list of neuron genes and a flat list of connection genes.
// Neurons are grouped into modules: the bias, input and output neurons form the
// base, and each module added later carries a regulatory neuron, local input
// and output neurons and its own hidden neurons. Only the newest (active)
// module is changed by mutation and crossover; older modules are frozen and
// identical across the population.
//
// The engine lives in the neat subpackage and covers genes, innovation
// history, mutation operators, crossover and module lifecycle. neat/nn decodes
// genomes into runnable networks and neat/store persists them. The
// generational loop (evaluation, selection, speciation) stays with the caller.
//
// Basic usage:
//
//	config, err := neat.LoadConfig("path/to/config.ini")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//	factory, err := neat.NewGenomeFactory(config)
//	if err != nil {
//		log.Fatalf("Error creating factory: %v", err)
//	}
//	population, _ := factory.CreateGenomeList(150, 0)
//	_, err = factory.AddModule(population, neat.ModuleSpec{
//		RegulatoryInputs: []neat.Link{{NeuronID: 0, Weight: 1}},
//		LocalInputs:      [][]neat.Link{{{NeuronID: 1, Weight: 1}}},
//		LocalOutputs:     []neat.Link{{NeuronID: 2, Weight: 1}},
//	})
//
//	// evaluate with nn.Decode, then breed
//	child, err := population[0].CreateOffspring(1)
//
// See examples/modules for a complete run.
package neat
