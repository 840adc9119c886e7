// Package store implements the minimal KV+list datastore the spec
// leaves to an external collaborator: persisted ApiConfig/ExtractConfig/
// TransformConfig records (keyed by their canonical ID, for cache reuse)
// and an append-only log of RunResults.
package store

import (
	"context"
	"errors"

	"github.com/jmylchreest/apiforge/internal/models"
)

// ErrNotFound is returned by Get* methods when no record exists for the
// given ID.
var ErrNotFound = errors.New("store: not found")

// Store is the persistence interface the synthesis/execution pipeline
// depends on. CacheMode (spec's ENABLED/READONLY/WRITEONLY/DISABLED)
// governs whether callers read/write through it at all; Store itself
// is a plain KV+list.
type Store interface {
	GetApiConfig(ctx context.Context, id string) (*models.ApiConfig, error)
	UpsertApiConfig(ctx context.Context, cfg *models.ApiConfig) error
	DeleteApiConfig(ctx context.Context, id string) error
	ListApiConfigs(ctx context.Context) ([]*models.ApiConfig, error)

	GetExtractConfig(ctx context.Context, id string) (*models.ExtractConfig, error)
	UpsertExtractConfig(ctx context.Context, cfg *models.ExtractConfig) error
	DeleteExtractConfig(ctx context.Context, id string) error
	ListExtractConfigs(ctx context.Context) ([]*models.ExtractConfig, error)

	GetTransformConfig(ctx context.Context, id string) (*models.TransformConfig, error)
	UpsertTransformConfig(ctx context.Context, cfg *models.TransformConfig) error
	DeleteTransformConfig(ctx context.Context, id string) error

	AppendRun(ctx context.Context, run *models.RunResult) error
	ListRuns(ctx context.Context, limit int) ([]*models.RunResult, error)
	GetRun(ctx context.Context, id string) (*models.RunResult, error)
}
