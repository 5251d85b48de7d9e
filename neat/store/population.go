package store

import (
	"context"
	"fmt"

	"github.com/pablogps/EspNeat-sub001/neat"
)

// SavePopulation stores the factory state and every genome under the factory's run ID.
func SavePopulation(ctx context.Context, st Store, f *neat.GenomeFactory, population []*neat.Genome) error {
	state := f.State()
	if err := st.SaveFactoryState(ctx, state); err != nil {
		return fmt.Errorf("save factory state: %w", err)
	}
	for _, g := range population {
		if err := st.SaveGenome(ctx, state.RunID, g.Snapshot()); err != nil {
			return fmt.Errorf("save genome %d: %w", g.ID(), err)
		}
	}
	return nil
}

// LoadPopulation rebuilds a factory and its genomes from a stored run.
// Adjacency and derived counts are recomputed by the factory on restore.
func LoadPopulation(ctx context.Context, st Store, config *neat.Config, runID string) (*neat.GenomeFactory, []*neat.Genome, error) {
	state, ok, err := st.LoadFactoryState(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, fmt.Errorf("no factory state stored for run %s", runID)
	}

	f, err := neat.NewGenomeFactory(config)
	if err != nil {
		return nil, nil, err
	}
	if err := f.RestoreState(state); err != nil {
		return nil, nil, err
	}

	ids, err := st.ListGenomes(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	population := make([]*neat.Genome, 0, len(ids))
	for _, id := range ids {
		snapshot, ok, err := st.LoadGenome(ctx, runID, id)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, fmt.Errorf("genome %d of run %s disappeared during load", id, runID)
		}
		g, err := f.RestoreGenome(snapshot)
		if err != nil {
			return nil, nil, err
		}
		population = append(population, g)
	}
	return f, population, nil
}
