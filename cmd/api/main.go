package main

import (
	"context"
	"io"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/printeasy-orderflow/internal/admin"
	"github.com/imrishuroy/printeasy-orderflow/internal/aws"
	"github.com/imrishuroy/printeasy-orderflow/internal/config"
	"github.com/imrishuroy/printeasy-orderflow/internal/document"
	"github.com/imrishuroy/printeasy-orderflow/internal/handlers"
	"github.com/imrishuroy/printeasy-orderflow/internal/idempotency"
	"github.com/imrishuroy/printeasy-orderflow/internal/intake"
	"github.com/imrishuroy/printeasy-orderflow/internal/logger"
	"github.com/imrishuroy/printeasy-orderflow/internal/metrics"
	"github.com/imrishuroy/printeasy-orderflow/internal/orders"
	"github.com/imrishuroy/printeasy-orderflow/internal/pricing"
	"github.com/imrishuroy/printeasy-orderflow/internal/session"
	"github.com/imrishuroy/printeasy-orderflow/internal/storage"
	"github.com/imrishuroy/printeasy-orderflow/internal/validation"
)

const (
	idempotencyTTL = 48 * time.Hour
	// documents accepted in one multipart request before the body cap kicks in
	maxDocumentsPerRequest = 10
)

func main() {
	if err := logger.Initialize("info"); err != nil {
		panic(err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal("failed to load config", zap.Error(err))
	}
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		logger.Log.Fatal("failed to init logger", zap.Error(err))
	}
	defer logger.Log.Sync() //nolint:errcheck

	if err := cfg.Validate(); err != nil {
		logger.Log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx := context.Background()

	var clients *aws.AWSClients
	if needsAWS(cfg) {
		clients, err = aws.NewAWSClients(ctx)
		if err != nil {
			logger.Log.Fatal("failed to init aws clients", zap.Error(err))
		}
	}

	store, closer, err := openStore(ctx, cfg, clients)
	if err != nil {
		logger.Log.Fatal("failed to open order store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	if closer != nil {
		defer closer.Close()
	}

	r := setupRouter(cfg, clients, store)

	if cfg.RunLocal {
		logger.Log.Info("running local server", zap.String("addr", cfg.Address))
		if err := r.Run(cfg.Address); err != nil {
			logger.Log.Fatal("failed to run local server", zap.Error(err))
		}
		return
	}

	adapter := ginadapter.New(r)
	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}

func needsAWS(cfg *config.Config) bool {
	return cfg.StoreBackend == config.StoreDynamoDB ||
		cfg.StorageBackend == config.StorageS3 ||
		cfg.IdempotencyTable != "" ||
		cfg.CloudWatchNamespace != ""
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func openStore(ctx context.Context, cfg *config.Config, clients *aws.AWSClients) (orders.Store, io.Closer, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		if err := orders.Migrate(cfg.DatabaseURI); err != nil {
			return nil, nil, err
		}
		s, err := orders.NewPostgresStore(ctx, cfg.DatabaseURI)
		if err != nil {
			return nil, nil, err
		}
		return s, closerFunc(func() error { s.Close(); return nil }), nil
	case config.StorePebble:
		s, err := orders.NewPebbleStore(cfg.PebbleDir)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case config.StoreMemory:
		logger.Log.Warn("using in-memory order store; orders are lost on restart")
		return orders.NewMemoryStore(), nil, nil
	default:
		return orders.NewDynamoStore(clients.DynamoDB, cfg.OrdersTable), nil, nil
	}
}

func setupRouter(cfg *config.Config, clients *aws.AWSClients, store orders.Store) *gin.Engine {
	reg := metrics.NewRegistry()
	v := validation.New(cfg.MaxCopies)

	var (
		uploader storage.Uploader
		filesDir string
	)
	if cfg.StorageBackend == config.StorageLocal {
		uploader = storage.NewLocalUploader(cfg.LocalStorageDir, cfg.PublicBaseURL)
		filesDir = cfg.LocalStorageDir
	} else {
		uploader = storage.NewS3Uploader(clients.S3, clients.Region, cfg.PublicBaseURL, cfg.ObjectACL())
	}

	var guard intake.Guard
	if cfg.IdempotencyTable != "" {
		guard = idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, idempotencyTTL)
	}

	var reporter admin.SweepReporter
	if cfg.CloudWatchNamespace != "" {
		reporter = metrics.NewCloudWatchReporter(clients.CloudWatch, cfg.CloudWatchNamespace)
	}

	intakeSvc := intake.NewService(intake.Options{
		Store:    store,
		Uploader: uploader,
		Inspector: document.Inspector{
			Counter:       document.PDFCounter{},
			MaxDocBytes:   cfg.MaxDocBytes(),
			MaxImageBytes: cfg.MaxImageBytes(),
		},
		Calculator:  pricing.Calculator{ColorPerSide: cfg.ColorPricePerSide, BWPerSide: cfg.BWPricePerSide},
		Guard:       guard,
		Metrics:     reg,
		Logger:      logger.Log.Named("intake"),
		ShopNumber:  cfg.ShopNumber,
		Destination: cfg.StorageDestination,
		Prefix:      cfg.StoragePrefix,
		MaxCopies:   cfg.MaxCopies,
	})

	adminSvc := admin.NewService(admin.Options{
		Store:     store,
		Password:  cfg.AdminPassword,
		Retention: cfg.RetentionWindow,
		Metrics:   reg,
		Reporter:  reporter,
		Logger:    logger.Log.Named("admin"),
	})

	return handlers.NewRouter(handlers.RouterConfig{
		Sessions:      session.NewManager(cfg.SessionIdleTimeout),
		SecureCookies: !cfg.RunLocal,
		Intake: handlers.IntakeConfig{
			Service:      intakeSvc,
			Validator:    v,
			MaxBodyBytes: maxDocumentsPerRequest*cfg.MaxDocBytes() + cfg.MaxImageBytes() + 1<<20,
		},
		Admin: handlers.AdminConfig{
			Service:      adminSvc,
			Signer:       session.NewSigner(cfg.TokenSecret(), cfg.AdminTokenTTL),
			Validator:    v,
			PollInterval: cfg.PollInterval,
		},
		Metrics:  reg,
		FilesDir: filesDir,
	})
}
