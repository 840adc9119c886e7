package store

import (
	"context"
	"sync"

	"github.com/jmylchreest/apiforge/internal/models"
)

// MemoryStore is an in-process, non-persistent Store backed by maps
// guarded by a single mutex. Used for DATASTORE_TYPE=memory and in
// tests.
type MemoryStore struct {
	mu sync.Mutex

	apiConfigs       map[string]*models.ApiConfig
	extractConfigs   map[string]*models.ExtractConfig
	transformConfigs map[string]*models.TransformConfig
	runs             []*models.RunResult
}

// NewMemoryStore builds an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		apiConfigs:       make(map[string]*models.ApiConfig),
		extractConfigs:   make(map[string]*models.ExtractConfig),
		transformConfigs: make(map[string]*models.TransformConfig),
	}
}

func (s *MemoryStore) GetApiConfig(ctx context.Context, id string) (*models.ApiConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.apiConfigs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cfg, nil
}

func (s *MemoryStore) UpsertApiConfig(ctx context.Context, cfg *models.ApiConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiConfigs[cfg.ID] = cfg
	return nil
}

func (s *MemoryStore) DeleteApiConfig(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.apiConfigs, id)
	return nil
}

func (s *MemoryStore) ListApiConfigs(ctx context.Context) ([]*models.ApiConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.ApiConfig, 0, len(s.apiConfigs))
	for _, cfg := range s.apiConfigs {
		out = append(out, cfg)
	}
	return out, nil
}

func (s *MemoryStore) GetExtractConfig(ctx context.Context, id string) (*models.ExtractConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.extractConfigs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cfg, nil
}

func (s *MemoryStore) UpsertExtractConfig(ctx context.Context, cfg *models.ExtractConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extractConfigs[cfg.ID] = cfg
	return nil
}

func (s *MemoryStore) DeleteExtractConfig(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.extractConfigs, id)
	return nil
}

func (s *MemoryStore) ListExtractConfigs(ctx context.Context) ([]*models.ExtractConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.ExtractConfig, 0, len(s.extractConfigs))
	for _, cfg := range s.extractConfigs {
		out = append(out, cfg)
	}
	return out, nil
}

func (s *MemoryStore) GetTransformConfig(ctx context.Context, id string) (*models.TransformConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.transformConfigs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cfg, nil
}

func (s *MemoryStore) UpsertTransformConfig(ctx context.Context, cfg *models.TransformConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transformConfigs[cfg.ID] = cfg
	return nil
}

func (s *MemoryStore) DeleteTransformConfig(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.transformConfigs, id)
	return nil
}

func (s *MemoryStore) AppendRun(ctx context.Context, run *models.RunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return nil
}

func (s *MemoryStore) ListRuns(ctx context.Context, limit int) ([]*models.RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.runs) {
		limit = len(s.runs)
	}
	start := len(s.runs) - limit
	out := make([]*models.RunResult, limit)
	copy(out, s.runs[start:])
	return out, nil
}

func (s *MemoryStore) GetRun(ctx context.Context, id string) (*models.RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, ErrNotFound
}
