package infrastructure

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"jan-server/services/assistant-api/internal/config"
	"jan-server/services/assistant-api/internal/domain/bucket"
	"jan-server/services/assistant-api/internal/domain/file"
	"jan-server/services/assistant-api/internal/domain/retrieval"
	"jan-server/services/assistant-api/internal/infrastructure/auth"
	"jan-server/services/assistant-api/internal/infrastructure/crontab"
	"jan-server/services/assistant-api/internal/infrastructure/database"
	"jan-server/services/assistant-api/internal/infrastructure/database/repository"
	"jan-server/services/assistant-api/internal/infrastructure/database/transaction"
	"jan-server/services/assistant-api/internal/infrastructure/extensions"
	"jan-server/services/assistant-api/internal/infrastructure/filesapi"
	"jan-server/services/assistant-api/internal/infrastructure/i18n"
	"jan-server/services/assistant-api/internal/infrastructure/logger"
	"jan-server/services/assistant-api/internal/infrastructure/storage"
	"jan-server/services/assistant-api/internal/utils/httpclients"
	"jan-server/services/assistant-api/pkg/observability"
	"jan-server/services/assistant-api/pkg/observability/worker"
	"jan-server/services/assistant-api/pkg/telemetry"
)

// ProvideConfig loads and provides the application configuration
func ProvideConfig() (*config.Config, error) {
	return config.Load()
}

// ProvideLogger builds the service logger and installs it globally.
func ProvideLogger(cfg *config.Config) zerolog.Logger {
	return logger.New(cfg)
}

// ProvideDatabase connects and applies the schema migrations.
func ProvideDatabase(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(database.ConfigFromEnv(cfg))
	if err != nil {
		return nil, err
	}

	log.Info().Str("driver", cfg.DBDriver).Msg("running database migrations")
	if err := database.Migrate(context.Background(), db, cfg.DBDriver, log); err != nil {
		log.Error().Err(err).Msg("failed to run database migrations")
		return nil, err
	}
	return db, nil
}

// ProvideTransactionDatabase provides a transaction database wrapper
func ProvideTransactionDatabase(db *gorm.DB) *transaction.Database {
	return transaction.NewDatabase(db)
}

// ProvideBlobStorage returns nil when payloads stay in the database.
func ProvideBlobStorage(cfg *config.Config, log zerolog.Logger) (file.BlobStorage, error) {
	return storage.NewBlobStorage(context.Background(), cfg, log)
}

// ProvideFilesAPIClients shares one HTTP client and one file type cache
// across every bucket endpoint.
func ProvideFilesAPIClients(cfg *config.Config) (*filesapi.ClientFactory, error) {
	cache, err := filesapi.NewFileTypeCache(cfg.FileTypesCacheSize, cfg.FileTypesCacheTTL)
	if err != nil {
		return nil, err
	}
	return filesapi.NewClientFactory(httpclients.NewClient("files-api", cfg.FilesAPITimeout), cache), nil
}

func ProvideSanitizer(cfg *config.Config) *telemetry.Sanitizer {
	return telemetry.NewSanitizer(telemetry.ParsePIILevel(cfg.LogPIILevel), cfg.ServiceName)
}

// ProvideValidator fetches the JWKS when authentication is enabled.
func ProvideValidator(cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(context.Background(), cfg, log)
}

// ProvideTelemetry initializes the OTEL tracer and meter providers.
func ProvideTelemetry(cfg *config.Config) (*observability.Provider, error) {
	otelCfg := observability.DefaultConfig(cfg.ServiceName)
	otelCfg.ServiceVersion = cfg.ServiceVersion
	otelCfg.Environment = cfg.Environment
	otelCfg.TracingEnabled = cfg.EnableTracing
	otelCfg.MetricsEnabled = cfg.EnableMetrics
	otelCfg.OTLPEndpoint = cfg.OTLPEndpoint
	otelCfg.OTLPHeaders = observability.ParseHeaders(cfg.OTLPHeaders)
	otelCfg.SamplingRate = cfg.SamplingRate
	otelCfg.ResourceAttrs = []attribute.KeyValue{
		attribute.String("assistant.db_driver", cfg.DBDriver),
		attribute.String("assistant.blob_storage", cfg.BlobStorage),
	}
	return observability.Init(context.Background(), otelCfg)
}

func ProvideJobInstrumenter(cfg *config.Config, otel *observability.Provider) (*worker.JobInstrumenter, error) {
	return worker.NewJobInstrumenter(otel.Tracer, otel.Meter, cfg.ServiceName)
}

// InfrastructureProvider provides all infrastructure dependencies
var InfrastructureProvider = wire.NewSet(
	// Config and logging
	ProvideConfig,
	ProvideLogger,
	ProvideSanitizer,
	ProvideTelemetry,

	// Database
	ProvideDatabase,
	ProvideTransactionDatabase,
	repository.RepositoryProvider,

	// Blob storage
	ProvideBlobStorage,

	// Files API
	ProvideFilesAPIClients,
	wire.Bind(new(retrieval.ClientFactory), new(*filesapi.ClientFactory)),

	// Extension kinds
	extensions.ExtensionProvider,
	wire.Bind(new(extensions.BucketFinder), new(*bucket.BucketService)),

	// Translations
	i18n.New,
	wire.Bind(new(file.Translator), new(*i18n.Translator)),

	// Authentication
	ProvideValidator,

	// Crontab for stale upload cleanup
	ProvideJobInstrumenter,
	crontab.NewCrontab,
	wire.Bind(new(crontab.StaleUploadCleaner), new(*file.FileService)),
)
