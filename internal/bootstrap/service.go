// Package bootstrap wires every adapter and service package into a
// runnable process: configuration, connection pools, the sweeper
// goroutines, and the thin fiber HTTP boundary (spec.md §6).
package bootstrap

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/sremani/artifortress/internal/adapters/mongodb/searchdocument"
	"github.com/sremani/artifortress/internal/adapters/objectstore"
	"github.com/sremani/artifortress/internal/adapters/postgres/artifactentry"
	"github.com/sremani/artifortress/internal/adapters/postgres/auditlog"
	"github.com/sremani/artifortress/internal/adapters/postgres/blob"
	"github.com/sremani/artifortress/internal/adapters/postgres/gcrun"
	"github.com/sremani/artifortress/internal/adapters/postgres/manifest"
	"github.com/sremani/artifortress/internal/adapters/postgres/outbox"
	"github.com/sremani/artifortress/internal/adapters/postgres/pkgmeta"
	"github.com/sremani/artifortress/internal/adapters/postgres/policyeval"
	"github.com/sremani/artifortress/internal/adapters/postgres/quarantine"
	"github.com/sremani/artifortress/internal/adapters/postgres/repository"
	"github.com/sremani/artifortress/internal/adapters/postgres/searchjob"
	"github.com/sremani/artifortress/internal/adapters/postgres/tenant"
	"github.com/sremani/artifortress/internal/adapters/postgres/tombstone"
	"github.com/sremani/artifortress/internal/adapters/postgres/uploadsession"
	"github.com/sremani/artifortress/internal/adapters/postgres/version"
	"github.com/sremani/artifortress/internal/adapters/rabbitmq"
	redisadapter "github.com/sremani/artifortress/internal/adapters/redis"
	"github.com/sremani/artifortress/internal/platform/mlog"
	"github.com/sremani/artifortress/internal/platform/mmongo"
	"github.com/sremani/artifortress/internal/platform/mpostgres"
	"github.com/sremani/artifortress/internal/platform/mrabbitmq"
	"github.com/sremani/artifortress/internal/platform/mredis"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
	"github.com/sremani/artifortress/internal/services/catalog"
	"github.com/sremani/artifortress/internal/services/lifecycle"
	"github.com/sremani/artifortress/internal/services/outbox"
	"github.com/sremani/artifortress/internal/services/policy"
	"github.com/sremani/artifortress/internal/services/publish"
	"github.com/sremani/artifortress/internal/services/quarantine"
	"github.com/sremani/artifortress/internal/services/reconciler"
	"github.com/sremani/artifortress/internal/services/search"
	"github.com/sremani/artifortress/internal/services/upload"
)

// Options carries dependencies a caller may inject instead of letting
// Init construct them, chiefly for tests.
type Options struct {
	Logger mlog.Logger
}

// Service is the fully wired application: its HTTP server plus the
// background sweepers that drive the outbox, search index, and upload
// session expiry.
type Service struct {
	Server   *Server
	Sweepers *Sweepers
	Logger   mlog.Logger

	telemetry *mtelemetry.Telemetry
}

// Init builds every adapter/service and returns a ready-to-run Service.
func Init(ctx context.Context, cfg *Config, opts *Options) (*Service, error) {
	var logger mlog.Logger

	if opts != nil && opts.Logger != nil {
		logger = opts.Logger
	} else {
		level, err := mlog.ParseLevel(cfg.LogLevel)
		if err != nil {
			logger = mlog.None()
		} else if logger, err = mlog.NewZapLogger(level); err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	telemetry := &mtelemetry.Telemetry{
		ServiceName:    cfg.OtelServiceName,
		ServiceVersion: cfg.OtelServiceVersion,
		DeploymentEnv:  cfg.OtelDeploymentEnv,
		Endpoint:       cfg.OtelExporterOTLP,
	}

	if cfg.EnableTelemetry {
		if _, err := telemetry.Initialize(ctx); err != nil {
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
	}

	pg := &mpostgres.Connection{ConnectionStringPrimary: cfg.PostgresDSN, ConnectionStringReplica: cfg.PostgresDSN}
	if err := pg.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	mongoConn := &mmongo.Connection{ConnectionStringSource: cfg.MongoURI, Database: cfg.MongoDBName}
	if err := mongoConn.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	redisConn := &mredis.Connection{ConnectionStringSource: cfg.RedisAddr, Logger: logger}
	if err := redisConn.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	rabbitConn := &mrabbitmq.Connection{ConnectionStringSource: cfg.RabbitMQURL, Logger: logger}
	if err := rabbitConn.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = &cfg.S3Endpoint
			o.UsePathStyle = true
		}
	})

	objectBackend := objectstore.NewS3Backend(s3Client, cfg.S3Bucket)

	tenantRepo := tenant.NewPostgreSQLRepository(pg)
	repoStore := repository.NewPostgreSQLRepository(pg)
	packageRepo := pkgmeta.NewPostgreSQLRepository(pg)
	versionRepo := version.NewPostgreSQLRepository(pg)
	blobRepo := blob.NewPostgreSQLRepository(pg)
	entryRepo := artifactentry.NewPostgreSQLRepository(pg)
	manifestRepo := manifest.NewPostgreSQLRepository(pg)
	sessionRepo := uploadsession.NewPostgreSQLRepository(pg)
	auditRepo := auditlog.NewPostgreSQLRepository(pg)
	outboxRepo := outbox.NewPostgreSQLRepository(pg)
	searchJobRepo := searchjob.NewPostgreSQLRepository(pg)
	quarantineRepo := quarantine.NewPostgreSQLRepository(pg)
	policyRepo := policyeval.NewPostgreSQLRepository(pg)
	tombstoneRepo := tombstone.NewPostgreSQLRepository(pg)
	gcRepo := gcrun.NewPostgreSQLRepository(pg)

	dedupeCache := redisadapter.NewRedisCache(redisConn, logger)
	notifier := rabbitmq.NewAMQPProducer(rabbitConn, logger)
	documentRepo := searchdocument.NewMongoDBRepository(mongoConn, cfg.MongoDBName)

	uploadUC := &upload.UseCase{
		SessionRepo:   sessionRepo,
		BlobRepo:      blobRepo,
		OutboxRepo:    outboxRepo,
		AuditRepo:     auditRepo,
		ObjectBackend: objectBackend,
		DedupeCache:   dedupeCache,
		Connection:    pg,
		Logger:        logger,
		PresignTTL:    cfg.UploadPresignTTL,
		SessionTTL:    cfg.UploadSessionTTL,
	}

	publishUC := &publish.UseCase{
		VersionRepo:    versionRepo,
		EntryRepo:      entryRepo,
		ManifestRepo:   manifestRepo,
		BlobRepo:       blobRepo,
		QuarantineRepo: quarantineRepo,
		PolicyRepo:     policyRepo,
		AuditRepo:      auditRepo,
		OutboxRepo:     outboxRepo,
		Notifier:       notifier,
		Policy:         nil,
		Connection:     pg,
		Logger:         logger,
		PolicyTimeout:  cfg.PolicyEvalTimeout,
	}

	lifecycleUC := &lifecycle.UseCase{
		VersionRepo:   versionRepo,
		TombstoneRepo: tombstoneRepo,
		GcRepo:        gcRepo,
		BlobRepo:      blobRepo,
		EntryRepo:     entryRepo,
		ManifestRepo:  manifestRepo,
		ObjectBackend: objectBackend,
		AuditRepo:     auditRepo,
		Connection:    pg,
		Logger:        logger,
		MarkPageSize:  cfg.GcBatchSize,
	}

	outboxUC := &outbox.UseCase{
		OutboxRepo:    outboxRepo,
		SearchJobRepo: searchJobRepo,
		Connection:    pg,
		Logger:        logger,
		BatchSize:     cfg.WorkerBatchSize,
	}

	searchUC := &search.UseCase{
		JobRepo:      searchJobRepo,
		VersionRepo:  versionRepo,
		RepoStore:    repoStore,
		PackageRepo:  packageRepo,
		ManifestRepo: manifestRepo,
		DocumentRepo: documentRepo,
		Logger:       logger,
		BatchSize:    cfg.WorkerBatchSize,
		MaxAttempts:  cfg.SearchJobMaxAttempts,
	}

	reconcilerUC := &reconciler.UseCase{
		EntryRepo:    entryRepo,
		ManifestRepo: manifestRepo,
		BlobRepo:     blobRepo,
		AuditRepo:    auditRepo,
		Logger:       logger,
	}

	catalogUC := &catalog.UseCase{
		TenantRepo:     tenantRepo,
		RepoStore:      repoStore,
		PackageRepo:    packageRepo,
		VersionRepo:    versionRepo,
		EntryRepo:      entryRepo,
		ManifestRepo:   manifestRepo,
		BlobRepo:       blobRepo,
		QuarantineRepo: quarantineRepo,
		ObjectBackend:  objectBackend,
		AuditRepo:      auditRepo,
		Connection:     pg,
		Logger:         logger,
	}

	quarantineUC := &quarantine.UseCase{
		QuarantineRepo: quarantineRepo,
		AuditRepo:      auditRepo,
		Logger:         logger,
	}

	policyUC := &policy.UseCase{
		Evaluator:      nil,
		PolicyRepo:     policyRepo,
		QuarantineRepo: quarantineRepo,
		AuditRepo:      auditRepo,
		Connection:     pg,
		Logger:         logger,
		Timeout:        cfg.PolicyEvalTimeout,
	}

	handlers := &handlers{
		upload:     uploadUC,
		publish:    publishUC,
		lifecycle:  lifecycleUC,
		catalog:    catalogUC,
		quarantine: quarantineUC,
		policy:     policyUC,
		reconciler: reconcilerUC,
		cfg:        cfg,
		logger:     logger,
	}

	app := newRouter(handlers)
	server := NewServer(cfg, app, logger)

	sweepers := &Sweepers{
		uploadUC:       uploadUC,
		outboxUC:       outboxUC,
		searchUC:       searchUC,
		pollInterval:   cfg.WorkerPollInterval,
		sweepBatchSize: cfg.WorkerBatchSize,
		logger:         logger,
	}

	return &Service{Server: server, Sweepers: sweepers, Logger: logger, telemetry: telemetry}, nil
}

// Run starts the HTTP server and every sweeper, blocking until ctx is
// canceled or Server.Run catches SIGINT/SIGTERM.
func (s *Service) Run(ctx context.Context) error {
	s.Sweepers.Start(ctx)

	defer s.telemetry.Shutdown(context.Background())

	return s.Server.Run(ctx)
}
