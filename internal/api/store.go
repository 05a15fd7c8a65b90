package api

import (
	"sync"

	"github.com/lavilleavelo/carte-velo-lyon/internal/pipeline"
	"github.com/lavilleavelo/carte-velo-lyon/internal/spatial"
)

// DatasetStore holds the dataset being served. A refresh swaps it whole.
type DatasetStore struct {
	mu    sync.RWMutex
	ds    *pipeline.Dataset
	index *spatial.Index
}

// NewDatasetStore creates an empty store
func NewDatasetStore() *DatasetStore {
	return &DatasetStore{}
}

// Set replaces the current dataset and rebuilds its spatial index
func (s *DatasetStore) Set(ds *pipeline.Dataset) {
	index := spatial.NewIndex(ds.Result.Features)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ds = ds
	s.index = index
}

// Get returns the current dataset and its index, nil before the first run
func (s *DatasetStore) Get() (*pipeline.Dataset, *spatial.Index) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ds, s.index
}
