package store

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/pablogps/EspNeat-sub001/neat"
)

type genomeKey struct {
	runID string
	id    uint32
}

// MemoryStore keeps encoded records in maps. Records go through the codec so
// that a load never aliases a saved snapshot.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	genomes     map[genomeKey][]byte
	factories   map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.genomes = make(map[genomeKey][]byte)
	s.factories = make(map[string][]byte)
	return nil
}

func (s *MemoryStore) SaveGenome(_ context.Context, runID string, genome neat.GenomeSnapshot) error {
	payload, err := EncodeGenome(genome)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.genomes[genomeKey{runID: runID, id: genome.ID}] = payload
	return nil
}

func (s *MemoryStore) LoadGenome(_ context.Context, runID string, id uint32) (neat.GenomeSnapshot, bool, error) {
	s.mu.RLock()
	payload, ok := s.genomes[genomeKey{runID: runID, id: id}]
	s.mu.RUnlock()
	if !ok {
		return neat.GenomeSnapshot{}, false, nil
	}

	genome, err := DecodeGenome(payload)
	if err != nil {
		return neat.GenomeSnapshot{}, false, err
	}
	return genome, true, nil
}

func (s *MemoryStore) ListGenomes(_ context.Context, runID string) ([]uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []uint32
	for k := range s.genomes {
		if k.runID == runID {
			ids = append(ids, k.id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *MemoryStore) SaveFactoryState(_ context.Context, state neat.FactoryState) error {
	payload, err := EncodeFactoryState(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.factories[state.RunID] = payload
	return nil
}

func (s *MemoryStore) LoadFactoryState(_ context.Context, runID string) (neat.FactoryState, bool, error) {
	s.mu.RLock()
	payload, ok := s.factories[runID]
	s.mu.RUnlock()
	if !ok {
		return neat.FactoryState{}, false, nil
	}

	state, err := DecodeFactoryState(payload)
	if err != nil {
		return neat.FactoryState{}, false, err
	}
	return state, true, nil
}
