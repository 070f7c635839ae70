package cli

import (
	"context"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/kioku-ai/kioku/pkg/adapter"
	"github.com/kioku-ai/kioku/pkg/model"
	"github.com/kioku-ai/kioku/pkg/repository"
	"github.com/kioku-ai/kioku/pkg/service/embedding"
	"github.com/kioku-ai/kioku/pkg/service/extract"
	"github.com/kioku-ai/kioku/pkg/usecase/ingest"
	"github.com/kioku-ai/kioku/pkg/usecase/query"
	"github.com/kioku-ai/kioku/pkg/utils/logging"
)

// config holds configuration values bound to CLI flags
type config struct {
	// Store
	dbPath     string
	configPath string

	// Adapters
	geminiProject   string
	geminiLocation  string
	embeddingModel  string
	multimodalModel string
	generativeModel string

	// Pipeline
	limit          int64
	limitSet       bool
	extractTimeout time.Duration
	logLevel       string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "db",
			Aliases:     []string{"d"},
			Usage:       "Path to the memory store database file",
			Value:       "kioku.db",
			Sources:     cli.EnvVars("KIOKU_DB"),
			Destination: &cfg.dbPath,
		},
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to optional YAML config file",
			Sources:     cli.EnvVars("KIOKU_CONFIG"),
			Destination: &cfg.configPath,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("KIOKU_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
	}
}

// geminiFlags returns flags for model backend configuration with destination config
func geminiFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("KIOKU_GEMINI_PROJECT"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("KIOKU_GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Model for the document text embedding space",
			Sources:     cli.EnvVars("KIOKU_EMBEDDING_MODEL"),
			Destination: &cfg.embeddingModel,
		},
		&cli.StringFlag{
			Name:        "multimodal-model",
			Usage:       "Model for the joint text/image embedding space",
			Sources:     cli.EnvVars("KIOKU_MULTIMODAL_MODEL"),
			Destination: &cfg.multimodalModel,
		},
		&cli.StringFlag{
			Name:        "generative-model",
			Usage:       "Model for creative generation",
			Sources:     cli.EnvVars("KIOKU_GENERATIVE_MODEL"),
			Destination: &cfg.generativeModel,
		},
	}
}

// retrievalFlags returns flags shared by query-side commands
func retrievalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"k"},
			Usage:       "Number of memories to retrieve per query",
			Value:       5,
			Sources:     cli.EnvVars("KIOKU_LIMIT"),
			Destination: &cfg.limit,
		},
	}
}

// setupLogger installs the process-wide logger from the log-level flag
func (cfg *config) setupLogger() {
	logging.SetDefault(logging.New(cfg.logLevel, os.Stderr))
}

// fileConfig is the optional YAML config file. Flags win over file values.
type fileConfig struct {
	Extensions   map[string]string `yaml:"extensions"`
	DefaultLimit int               `yaml:"default_limit"`
	Models       struct {
		Embedding  string `yaml:"embedding"`
		Multimodal string `yaml:"multimodal"`
		Generative string `yaml:"generative"`
	} `yaml:"models"`
}

// loadFile reads the config file when one is given. A missing default file
// is not an error; an explicitly configured path must exist.
func (cfg *config) loadFile() (*fileConfig, error) {
	if cfg.configPath == "" {
		return &fileConfig{}, nil
	}

	data, err := os.ReadFile(cfg.configPath)
	if err != nil {
		return nil, goerr.Wrap(model.ErrConfiguration, "failed to read config file",
			goerr.V("path", cfg.configPath), goerr.V("cause", err.Error()))
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, goerr.Wrap(model.ErrConfiguration, "failed to parse config file",
			goerr.V("path", cfg.configPath), goerr.V("cause", err.Error()))
	}

	// An explicit --limit (or KIOKU_LIMIT) wins over the file even when it
	// equals the flag default value.
	if fc.DefaultLimit > 0 && !cfg.limitSet {
		cfg.limit = int64(fc.DefaultLimit)
	}
	if fc.Models.Embedding != "" && cfg.embeddingModel == "" {
		cfg.embeddingModel = fc.Models.Embedding
	}
	if fc.Models.Multimodal != "" && cfg.multimodalModel == "" {
		cfg.multimodalModel = fc.Models.Multimodal
	}
	if fc.Models.Generative != "" && cfg.generativeModel == "" {
		cfg.generativeModel = fc.Models.Generative
	}

	return &fc, nil
}

// extensions builds the extension map: defaults plus file overrides
func (cfg *config) extensions(fc *fileConfig) (extract.ExtensionMap, error) {
	exts := extract.DefaultExtensions()
	for ext, name := range fc.Extensions {
		modality := model.Modality(name)
		if err := modality.Validate(); err != nil {
			return nil, goerr.Wrap(model.ErrConfiguration, "invalid modality in config file",
				goerr.V("ext", ext), goerr.V("modality", name))
		}
		exts[ext] = modality
	}
	return exts, nil
}

// newRepository creates a new repository instance
func (cfg *config) newRepository() (repository.Repository, error) {
	if cfg.dbPath == "" {
		return nil, goerr.Wrap(model.ErrConfiguration, "db path is required")
	}

	repo, err := repository.NewSQLite(cfg.dbPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open repository")
	}
	return repo, nil
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.Wrap(model.ErrConfiguration, "gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.Wrap(model.ErrConfiguration, "gemini-location is required")
	}

	var opts []adapter.GeminiOption
	if cfg.embeddingModel != "" {
		opts = append(opts, adapter.WithEmbeddingModel(cfg.embeddingModel))
	}
	if cfg.multimodalModel != "" {
		opts = append(opts, adapter.WithMultimodalModel(cfg.multimodalModel))
	}
	if cfg.generativeModel != "" {
		opts = append(opts, adapter.WithGenerativeModel(cfg.generativeModel))
	}

	return adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation, opts...)
}

// newIngest wires the full ingestion pipeline
func (cfg *config) newIngest(ctx context.Context, repo repository.Repository) (*ingest.UseCase, error) {
	fc, err := cfg.loadFile()
	if err != nil {
		return nil, err
	}
	exts, err := cfg.extensions(fc)
	if err != nil {
		return nil, err
	}

	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}

	provider := embedding.New(gemini)
	media := extract.NewGeminiMedia(gemini)

	// The same map drives modality resolution and the extractor, so a
	// configured extension works end to end.
	extractOpts := []extract.Option{extract.WithExtensions(exts)}
	if cfg.extractTimeout > 0 {
		extractOpts = append(extractOpts, extract.WithTimeout(cfg.extractTimeout))
	}

	extractor := extract.New(provider, media, extractOpts...)
	return ingest.New(repo, extractor, ingest.WithExtensions(exts)), nil
}

// newQuery wires the retrieval and generation pipeline
func (cfg *config) newQuery(ctx context.Context, repo repository.Repository) (*query.UseCase, error) {
	if _, err := cfg.loadFile(); err != nil {
		return nil, err
	}

	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}

	provider := embedding.New(gemini)
	return query.New(repo, provider, gemini, query.WithLimit(int(cfg.limit))), nil
}
