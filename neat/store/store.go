// Package store persists genome and factory snapshots.
package store

import (
	"context"

	"github.com/pablogps/EspNeat-sub001/neat"
)

// Store defines persistence operations for genomes and factory state. Records
// are scoped by the factory's run ID.
type Store interface {
	Init(ctx context.Context) error
	SaveGenome(ctx context.Context, runID string, genome neat.GenomeSnapshot) error
	LoadGenome(ctx context.Context, runID string, id uint32) (neat.GenomeSnapshot, bool, error)
	ListGenomes(ctx context.Context, runID string) ([]uint32, error)
	SaveFactoryState(ctx context.Context, state neat.FactoryState) error
	LoadFactoryState(ctx context.Context, runID string) (neat.FactoryState, bool, error)
}
