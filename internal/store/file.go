package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jmylchreest/apiforge/internal/models"
)

// FileStore persists each entity as one JSON document per ID, grouped
// by kind under baseDir (api-configs/, extract-configs/,
// transform-configs/, runs/). Runs are append-only, one file per run
// keyed by its ID, matching the spec's persisted-state layout.
type FileStore struct {
	mu      sync.Mutex
	baseDir string
}

// NewFileStore builds a FileStore rooted at baseDir, creating the
// kind subdirectories if they don't exist.
func NewFileStore(baseDir string) (*FileStore, error) {
	for _, sub := range []string{"api-configs", "extract-configs", "transform-configs", "runs"} {
		if err := os.MkdirAll(filepath.Join(baseDir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("store: creating %s: %w", sub, err)
		}
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) path(kind, id string) string {
	return filepath.Join(s.baseDir, kind, id+".json")
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	return json.Unmarshal(b, v)
}

func (s *FileStore) GetApiConfig(ctx context.Context, id string) (*models.ApiConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var cfg models.ApiConfig
	if err := readJSON(s.path("api-configs", id), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *FileStore) UpsertApiConfig(ctx context.Context, cfg *models.ApiConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.path("api-configs", cfg.ID), cfg)
}

func (s *FileStore) DeleteApiConfig(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path("api-configs", id))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *FileStore) ListApiConfigs(ctx context.Context) ([]*models.ApiConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := os.ReadDir(filepath.Join(s.baseDir, "api-configs"))
	if err != nil {
		return nil, err
	}
	out := make([]*models.ApiConfig, 0, len(entries))
	for _, e := range entries {
		var cfg models.ApiConfig
		if err := readJSON(filepath.Join(s.baseDir, "api-configs", e.Name()), &cfg); err != nil {
			continue
		}
		out = append(out, &cfg)
	}
	return out, nil
}

func (s *FileStore) GetExtractConfig(ctx context.Context, id string) (*models.ExtractConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var cfg models.ExtractConfig
	if err := readJSON(s.path("extract-configs", id), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *FileStore) UpsertExtractConfig(ctx context.Context, cfg *models.ExtractConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.path("extract-configs", cfg.ID), cfg)
}

func (s *FileStore) DeleteExtractConfig(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path("extract-configs", id))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *FileStore) ListExtractConfigs(ctx context.Context) ([]*models.ExtractConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := os.ReadDir(filepath.Join(s.baseDir, "extract-configs"))
	if err != nil {
		return nil, err
	}
	out := make([]*models.ExtractConfig, 0, len(entries))
	for _, e := range entries {
		var cfg models.ExtractConfig
		if err := readJSON(filepath.Join(s.baseDir, "extract-configs", e.Name()), &cfg); err != nil {
			continue
		}
		out = append(out, &cfg)
	}
	return out, nil
}

func (s *FileStore) GetTransformConfig(ctx context.Context, id string) (*models.TransformConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var cfg models.TransformConfig
	if err := readJSON(s.path("transform-configs", id), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *FileStore) UpsertTransformConfig(ctx context.Context, cfg *models.TransformConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.path("transform-configs", cfg.ID), cfg)
}

func (s *FileStore) DeleteTransformConfig(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path("transform-configs", id))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *FileStore) AppendRun(ctx context.Context, run *models.RunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.path("runs", run.ID), run)
}

func (s *FileStore) ListRuns(ctx context.Context, limit int) ([]*models.RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := os.ReadDir(filepath.Join(s.baseDir, "runs"))
	if err != nil {
		return nil, err
	}
	out := make([]*models.RunResult, 0, len(entries))
	for _, e := range entries {
		var run models.RunResult
		if err := readJSON(filepath.Join(s.baseDir, "runs", e.Name()), &run); err != nil {
			continue
		}
		out = append(out, &run)
	}
	if limit > 0 && limit < len(out) {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *FileStore) GetRun(ctx context.Context, id string) (*models.RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var run models.RunResult
	if err := readJSON(s.path("runs", id), &run); err != nil {
		return nil, err
	}
	return &run, nil
}
