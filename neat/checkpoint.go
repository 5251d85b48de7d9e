package neat

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
)

// checkpointData is everything needed to resume a run: the factory state and
// the genomes it created. The config itself is not saved; it is reloaded
// from the original file.
type checkpointData struct {
	Factory FactoryState
	Genomes []GenomeSnapshot
}

// SaveCheckpoint writes the factory state and population to a gzip-compressed gob file.
func (f *GenomeFactory) SaveCheckpoint(filePath string, population []*Genome) error {
	data := checkpointData{Factory: f.State()}
	for _, g := range population {
		if g.factory != f {
			return preconditionf("genome %d belongs to a different factory", g.id)
		}
		data.Genomes = append(data.Genomes, g.Snapshot())
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file '%s': %w", filePath, err)
	}
	defer file.Close()

	gzWriter := gzip.NewWriter(file)
	if err := gob.NewEncoder(gzWriter).Encode(data); err != nil {
		gzWriter.Close()
		return fmt.Errorf("failed to encode checkpoint data: %w", err)
	}
	if err := gzWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush checkpoint file '%s': %w", filePath, err)
	}

	f.Logger.Printf("checkpoint saved to %s (%d genomes)", filePath, len(population))
	return nil
}

// LoadCheckpoint rebuilds a factory and its population from a checkpoint
// file. config must match the one the checkpoint was written with.
func LoadCheckpoint(checkpointPath string, config *Config) (*GenomeFactory, []*Genome, error) {
	file, err := os.Open(checkpointPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open checkpoint file '%s': %w", checkpointPath, err)
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create gzip reader for checkpoint: %w", err)
	}
	defer gzReader.Close()

	var data checkpointData
	if err := gob.NewDecoder(gzReader).Decode(&data); err != nil {
		return nil, nil, fmt.Errorf("failed to decode checkpoint data: %w", err)
	}

	f, err := NewGenomeFactory(config)
	if err != nil {
		return nil, nil, err
	}
	if err := f.RestoreState(data.Factory); err != nil {
		return nil, nil, err
	}
	population := make([]*Genome, 0, len(data.Genomes))
	for _, s := range data.Genomes {
		g, err := f.RestoreGenome(s)
		if err != nil {
			return nil, nil, err
		}
		population = append(population, g)
	}

	f.Logger.Printf("checkpoint loaded from %s (%d genomes)", checkpointPath, len(population))
	return f, population, nil
}
