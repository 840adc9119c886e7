// Package main is the entry point for the apiforge REST boundary
// server: a thin chi/huma front door over the synthesis/execution core,
// standing in for the product's GraphQL surface (spec §6).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/jmylchreest/apiforge/internal/api/handlers"
	"github.com/jmylchreest/apiforge/internal/config"
	"github.com/jmylchreest/apiforge/internal/docfetch"
	"github.com/jmylchreest/apiforge/internal/executor"
	"github.com/jmylchreest/apiforge/internal/fileextract"
	"github.com/jmylchreest/apiforge/internal/httpcaller"
	"github.com/jmylchreest/apiforge/internal/llm"
	"github.com/jmylchreest/apiforge/internal/logging"
	"github.com/jmylchreest/apiforge/internal/models"
	"github.com/jmylchreest/apiforge/internal/queue"
	"github.com/jmylchreest/apiforge/internal/store"
	"github.com/jmylchreest/apiforge/internal/synth"
	"github.com/jmylchreest/apiforge/internal/version"
)

func main() {
	logger := logging.New()
	logging.SetDefault(logger)

	v := version.Get()
	logger.Info("starting apiforge-server",
		"version", v.Version,
		"commit", v.Commit,
		"built", v.Date,
		"go_version", v.GoVersion,
	)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	datastore, err := newDatastore(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize datastore", "error", err)
		os.Exit(1)
	}

	registry, err := llm.NewRegistry(cfg.ActiveProvider,
		llm.ProviderConfig(cfg.ProviderA), llm.ProviderConfig(cfg.ProviderB), cfg.SchemaGenModel())
	if err != nil {
		logger.Error("failed to initialize LLM provider registry", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runQueue := queue.New(ctx, queue.Config{}, logger)
	defer runQueue.Stop()

	// Persisting a run to the Store happens off the request path: the
	// queue's single-flight FIFO, keyed by run ID, decouples store I/O
	// latency (especially FileStore) from the caller's response time.
	datastore = &asyncRunStore{Store: datastore, queue: runQueue}

	// Typed as the interface (not *docfetch.Fetcher) so a disabled
	// fetcher is a true nil DocFetcher, not a non-nil interface wrapping
	// a nil pointer — Synthesizers gate on Docs != nil.
	var docs synth.DocFetcher
	if cfg.DocsFetchEnabled {
		docs = docfetch.New()
	}
	caller := httpcaller.New()

	callHandler := &handlers.CallHandler{
		Store: datastore,
		Executor: &executor.Executor{
			Caller: caller,
			Synth:  &synth.EndpointSynthesizer{LLM: registry, Docs: docs},
		},
	}
	extractHandler := &handlers.ExtractHandler{
		Store: datastore,
		Extractor: &fileextract.FileExtractor{
			Caller: caller,
			Synth:  &synth.ExtractSynthesizer{LLM: registry, Docs: docs},
		},
	}
	transformHandler := &handlers.TransformHandler{
		Store: datastore,
		Synth: &synth.TransformSynthesizer{LLM: registry},
	}
	schemaHandler := &handlers.SchemaHandler{
		Generator: &synth.SchemaGenerator{LLM: registry},
	}
	versionHandler := &handlers.VersionHandler{}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(httprate.LimitByIP(100, time.Minute))

	// Plain health check, matching spec §6's "200 OK, body OK" literally
	// rather than wrapping it in a Huma JSON envelope.
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	humaConfig := huma.DefaultConfig("apiforge", v.Version)
	humaConfig.Info.Description = "Self-healing API integration proxy: synthesizes, executes, and repairs HTTP request configs and JSONata transforms from natural-language instructions."
	api := humachi.New(router, humaConfig)

	huma.Register(api, huma.Operation{
		OperationID: "getVersion",
		Method:      http.MethodGet,
		Path:        "/v1/version",
		Summary:     "Build version",
		Tags:        []string{"Meta"},
	}, func(ctx context.Context, input *struct{}) (*handlers.VersionOutput, error) {
		return versionHandler.Handle(ctx), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "call",
		Method:      http.MethodPost,
		Path:        "/v1/call",
		Summary:     "Synthesize and execute an API call",
		Description: "Runs the full self-healing Call pipeline: synthesize an ApiConfig from the instruction, execute it (paginating as configured), repairing on failure by re-invoking the Synthesizer with error feedback.",
		Tags:        []string{"Call"},
	}, func(ctx context.Context, input *handlers.CallInput) (*handlers.CallOutput, error) {
		result := callHandler.Handle(ctx, input.Body)
		return &handlers.CallOutput{Body: *result}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "extract",
		Method:      http.MethodPost,
		Path:        "/v1/extract",
		Summary:     "Synthesize and execute a file extraction",
		Description: "Runs the File Extractor pipeline: sample the source, synthesize an ExtractConfig, fetch/decompress/parse/navigate, repairing on failure.",
		Tags:        []string{"Extract"},
	}, func(ctx context.Context, input *handlers.ExtractInput) (*handlers.ExtractOutput, error) {
		result := extractHandler.Handle(ctx, input.Body)
		return &handlers.ExtractOutput{Body: *result}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "transform",
		Method:      http.MethodPost,
		Path:        "/v1/transform",
		Summary:     "Synthesize a JSONata response mapping",
		Description: "Runs the Transform Synthesizer directly against supplied data and a response schema, bypassing the Executor.",
		Tags:        []string{"Transform"},
	}, func(ctx context.Context, input *handlers.TransformInput) (*handlers.TransformOutput, error) {
		resp, err := transformHandler.Handle(ctx, input.Body)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		return &handlers.TransformOutput{Body: *resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "generateSchema",
		Method:      http.MethodPost,
		Path:        "/v1/schema",
		Summary:     "Generate a JSON Schema from an instruction",
		Description: "Runs the Schema Generator against an instruction and an optional sample response.",
		Tags:        []string{"Schema"},
	}, func(ctx context.Context, input *handlers.SchemaInput) (*handlers.SchemaOutput, error) {
		resp, err := schemaHandler.Handle(ctx, input.Body)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		return &handlers.SchemaOutput{Body: *resp}, nil
	})

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.DefaultTimeout + 60*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	logger.Info("server stopped")
}

// newDatastore constructs the configured Store implementation.
// DATASTORE_TYPE=redis falls back to memory with a warning: the spec
// treats the production backend as an external collaborator (§6), and
// no Redis client belongs in this demo boundary (see DESIGN.md).
func newDatastore(cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.Datastore {
	case config.DatastoreFile:
		return store.NewFileStore(cfg.StorageDir)
	case config.DatastoreRedis:
		logger.Warn("DATASTORE_TYPE=redis is not implemented by this demo boundary, falling back to memory")
		return store.NewMemoryStore(), nil
	default:
		return store.NewMemoryStore(), nil
	}
}

// asyncRunStore offloads AppendRun to the Job Queue so a FileStore
// write never adds latency to the request path; every other Store
// method is served synchronously via the embedded Store.
type asyncRunStore struct {
	store.Store
	queue *queue.Queue
}

func (s *asyncRunStore) AppendRun(ctx context.Context, run *models.RunResult) error {
	s.queue.Enqueue(run.ID, func(bgCtx context.Context) {
		if err := s.Store.AppendRun(bgCtx, run); err != nil {
			// Best-effort: the run's own result has already been
			// returned to the caller by the time this executes.
		}
	})
	return nil
}
