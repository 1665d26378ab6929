// Package cli implements the ndavault command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ndavault/internal/adapters/driven/ai"
	"github.com/custodia-labs/ndavault/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ndavault/internal/adapters/driven/storage/filesystem"
	"github.com/custodia-labs/ndavault/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ndavault/internal/core/domain"
	"github.com/custodia-labs/ndavault/internal/core/ports/driven"
	"github.com/custodia-labs/ndavault/internal/core/ports/driving"
	"github.com/custodia-labs/ndavault/internal/core/services"
	"github.com/custodia-labs/ndavault/internal/logger"
	"github.com/custodia-labs/ndavault/internal/normalisers"
	"github.com/custodia-labs/ndavault/internal/postprocessors/chunker"
)

// version is set at build time via -ldflags.
var version = "dev"

// Environment variables read at startup. A .env file in the working
// directory is loaded first.
const (
	envDataDir   = "NDAVAULT_DATA_DIR"
	envOllamaURL = "NDAVAULT_OLLAMA_URL"
)

// skipWiring marks commands that run without the application services.
const skipWiring = "skip-wiring"

// Services used by the commands. They are wired in PersistentPreRunE, or
// replaced directly by tests.
var (
	documentService driving.DocumentService
	searchService   driving.SearchService
	settingsService driving.SettingsService
	workflowService driving.WorkflowService
	schedulerStore  driven.SchedulerStore
)

// Global flags.
var (
	verbose   bool
	logFormat string
	logFile   string
	dataDir   string
	noAI      bool
)

// wire builds the services. Execute installs it; tests leave it nil and set
// the service variables themselves.
var wire func(ctx context.Context) (func(), error)

// cleanup releases whatever wire opened.
var cleanup func()

var rootCmd = &cobra.Command{
	Use:   "ndavault",
	Short: "Hybrid search and lifecycle tracking for NDAs",
	Long: `ndavault stores NDA contracts (PDF or DOCX), extracts their text and key
facts, and answers queries by fusing keyword matching with vector similarity.

Contracts are classified by expiration date (active, near expiration,
expired) and carry an explicit review and signature workflow status.`,
	SilenceUsage:      true,
	PersistentPreRunE: runPersistentPreRun,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVar(&logFormat, "log-format", "console", "log encoding (console or json)")
	flags.StringVar(&logFile, "log-file", "", "also write logs to this file (rotated)")
	flags.StringVar(&dataDir, "data-dir", "", "data directory (default ~/.ndavault, env "+envDataDir+")")
	flags.BoolVar(&noAI, "no-ai", false, "skip the embedding and LLM services")
}

// Execute runs the root command with production wiring. Interrupts cancel
// the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wire = wireServices
	defer func() {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
		logger.Sync()
	}()
	return rootCmd.ExecuteContext(ctx)
}

func runPersistentPreRun(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if err := logger.SetEncoding(logFormat); err != nil {
		return err
	}
	logger.SetLogFile(logFile)

	if wire == nil || cmd.Annotations[skipWiring] == "true" {
		return nil
	}
	release, err := wire(cmd.Context())
	if err != nil {
		return err
	}
	cleanup = release
	return nil
}

// resolveDataDir picks the data directory: flag, then environment, then
// ~/.ndavault.
func resolveDataDir() (string, error) {
	if dataDir != "" {
		return dataDir, nil
	}
	if dir := os.Getenv(envDataDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".ndavault"), nil
}

// wireServices opens the stores and builds the application services.
func wireServices(ctx context.Context) (func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Loading .env: %v", err)
	}

	dir, err := resolveDataDir()
	if err != nil {
		return nil, err
	}

	configStore, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	prompts, err := file.NewPromptStore(filepath.Join(dir, "prompts"))
	if err != nil {
		return nil, fmt.Errorf("open prompts: %w", err)
	}

	settingsSvc := services.NewSettingsService(configStore)
	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	applyEnvOverrides(settings)

	store, err := sqlite.NewStore(dir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	blobs, err := filesystem.NewBlobStore(filepath.Join(dir, "files"))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open file store: %w", err)
	}

	if noAI {
		settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderNone}
		settings.LLM = domain.LLMSettings{Provider: domain.AIProviderNone}
	}
	aiResult := ai.Initialise(ctx, *settings, prompts, true)

	extractor := normalisers.NewDefaultRegistry(chunker.New(
		chunker.WithChunkSize(settings.Processing.ChunkSize),
		chunker.WithOverlap(settings.Processing.ChunkOverlap),
	))

	docs := services.NewDocumentService(
		store.RecordStore(),
		store.FragmentStore(),
		blobs,
		extractor,
		aiResult.FactExtractor,
		*settings,
	)

	var search *services.SearchService
	if aiResult.EmbeddingService != nil {
		docs.SetEmbedding(aiResult.EmbeddingService, store.VectorIndex())
		search = services.NewSearchService(
			store.FragmentStore(), store.VectorIndex(), aiResult.EmbeddingService, settings.Search,
		)
	} else {
		search = services.NewSearchService(store.FragmentStore(), nil, nil, settings.Search)
	}

	workflow := services.NewWorkflowService(store.RecordStore())
	if _, err := workflow.MigrateLegacyDefaults(ctx); err != nil {
		logger.Warn("Workflow migration: %v", err)
	}

	documentService = docs
	searchService = search
	settingsService = settingsSvc
	workflowService = workflow
	schedulerStore = store.SchedulerStore()

	return func() {
		docs.Wait()
		aiResult.Close()
		if err := store.Close(); err != nil {
			logger.Warn("Closing database: %v", err)
		}
	}, nil
}

// applyEnvOverrides points Ollama providers at NDAVAULT_OLLAMA_URL when set.
func applyEnvOverrides(settings *domain.AppSettings) {
	url := strings.TrimSpace(os.Getenv(envOllamaURL))
	if url == "" {
		return
	}
	if settings.Embedding.Provider == domain.AIProviderOllama {
		settings.Embedding.BaseURL = url
	}
	if settings.LLM.Provider == domain.AIProviderOllama {
		settings.LLM.BaseURL = url
	}
}

// recoverer is implemented by document services that can resume work left
// behind by a previous run.
type recoverer interface {
	Recover(ctx context.Context) (int, error)
}

// commandContext returns the command's context, or Background outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
