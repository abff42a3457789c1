package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/repack-io/backbreaker-api/internal/auth"
	"github.com/repack-io/backbreaker-api/internal/bedrock"
	"github.com/repack-io/backbreaker-api/internal/extraction"
	"github.com/repack-io/backbreaker-api/internal/geometry"
	"github.com/repack-io/backbreaker-api/internal/handlers"
	"github.com/repack-io/backbreaker-api/internal/logging"
	"github.com/repack-io/backbreaker-api/internal/pipeline"
	"github.com/repack-io/backbreaker-api/internal/repository"
	"github.com/repack-io/backbreaker-api/internal/series"
	"github.com/repack-io/backbreaker-api/internal/storage"
	"github.com/repack-io/backbreaker-api/internal/vision"
	"github.com/repack-io/backbreaker-api/internal/worker"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger, err := logging.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	db := initDatabase(ctx, logger)
	seriesRepo := repository.NewSeriesRepository(db)
	if err := seriesRepo.AutoMigrate(ctx); err != nil {
		logger.Fatal("auto migrate failed", zap.Error(err))
	}
	catalogRepo := repository.NewCatalogRepository(db)
	promptRepo := repository.NewPromptRepository(db)
	statusRepo := repository.NewStatusRepository(db)

	redisCtx, redisCancel := context.WithTimeout(ctx, 5*time.Second)
	defer redisCancel()
	redisClient := initRedis(redisCtx, logger)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(getEnv("AWS_REGION", "us-east-2")))
	if err != nil {
		logger.Fatal("failed to load AWS configuration", zap.Error(err))
	}

	imageStore := storage.NewS3ImageStore(s3.NewFromConfig(awsCfg), logger)
	uploadsBucket := getEnv("S3_UPLOADS_BUCKET", "repack-uploads")
	processedBucket := getEnv("S3_PROCESSED_BUCKET", "repack-processed")

	modelConfig := buildModelConfig()
	invoker := vision.NewBedrockInvoker(bedrockruntime.NewFromConfig(awsCfg),
		getEnvDuration("BEDROCK_TIMEOUT", 60*time.Second))
	visionClient := vision.NewClient(invoker, modelConfig,
		vision.NewDBPromptStore(promptRepo), logger)

	corrector := geometry.NewCorrector(geometry.NewVisionAnalyzer(visionClient), logger,
		geometry.WithConfidenceThreshold(getEnvFloat("CROP_CONFIDENCE_THRESHOLD", 70)),
		geometry.WithPaddingPercent(getEnvInt("CROP_PADDING_PERCENT", 5)))

	extractionService := extraction.NewService(seriesRepo, catalogRepo, imageStore,
		visionClient, uploadsBucket, getEnvInt("DEFAULT_CARD_CATEGORY_ID", 6), logger)

	steps := []pipeline.Handler{
		&pipeline.MarkProcessingStep{Statuses: statusRepo},
		&pipeline.DownloadStep{Store: imageStore, UploadsBucket: uploadsBucket},
		&pipeline.CropStep{Corrector: corrector},
		&pipeline.UploadStep{Store: imageStore, ProcessedBucket: processedBucket},
		&pipeline.ExtractDetailsStep{Extractor: extractionService},
		&pipeline.MarkCompleteStep{Statuses: statusRepo},
	}
	runner := pipeline.NewRunner(seriesRepo, steps, getEnvInt("PIPELINE_WORKERS", 4), logger)

	cache := series.NewRedisCache(redisClient)
	seriesService := series.NewService(seriesRepo, runner, cache,
		getEnvInt("ASYNC_SERIES_WORKERS", 2), logger)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if getEnv("SQS_ENABLED", "false") == "true" {
		sqsWorker := worker.NewSQSWorker(sqs.NewFromConfig(awsCfg), seriesRepo, runner,
			getEnv("SQS_QUEUE_URL", ""), getEnvDuration("SQS_POLL_DELAY", 2*time.Second), logger)
		go sqsWorker.Run(workerCtx)
	}

	r := gin.Default()

	jwtSecret := getEnv("JWT_SECRET", "dev-secret")
	jwtAudience := os.Getenv("JWT_AUDIENCE")
	authMiddleware := auth.JWTMiddleware(jwtSecret, jwtAudience)

	handlers.RegisterRoutes(r, seriesService, extractionService, authMiddleware)

	server := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	logger.Info("backbreaker API listening", zap.String("addr", ":8080"))
	if err := serveHTTPServer(server, 15*time.Second, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func buildModelConfig() *bedrock.Config {
	cfg := bedrock.NewConfig()
	cfg.DefaultModelID = getEnv("BEDROCK_MODEL_ID", bedrock.DefaultModelID)
	cfg.DefaultMaxTokens = getEnvInt("BEDROCK_MAX_TOKENS", 1024)
	cfg.DefaultTemperature = getEnvFloat("BEDROCK_TEMPERATURE", 0.1)
	cfg.Presets = map[string]string{
		"claude-sonnet": "us.anthropic.claude-3-5-sonnet-20241022-v2:0",
		"llama3":        "us.meta.llama3-2-90b-instruct-v1:0",
		"titan":         "amazon.titan-text-premier-v1:0",
	}
	if id := os.Getenv("BEDROCK_CARD_ANALYSIS_MODEL_ID"); id != "" {
		cfg.Models["card-analysis"] = bedrock.ModelSettings{ModelID: cfg.ResolveModelID(id)}
	}
	if id := os.Getenv("BEDROCK_CARD_DETAILS_MODEL_ID"); id != "" {
		cfg.Models["card-details-extraction"] = bedrock.ModelSettings{ModelID: cfg.ResolveModelID(id)}
	}
	return cfg
}

func initDatabase(ctx context.Context, zapLogger *zap.Logger) *gorm.DB {
	dsn := getEnv("DATABASE_DSN", "host=postgres user=postgres password=postgres dbname=backbreaker port=5432 sslmode=disable")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		zapLogger.Fatal("failed to access db handle", zap.Error(err))
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		zapLogger.Fatal("database ping failed", zap.Error(err))
	}

	return db
}

func initRedis(ctx context.Context, zapLogger *zap.Logger) *redis.Client {
	addr := getEnv("REDIS_ADDR", "redis:6379")
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	return client
}

func serveHTTPServer(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) error {
	return serveHTTPServerWithOptions(server, shutdownTimeout, logger, nil, nil)
}

func serveHTTPServerWithOptions(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener, signalCh <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	var (
		sigCh       <-chan os.Signal
		stopSignals func()
	)

	if signalCh != nil {
		sigCh = signalCh
		stopSignals = func() {}
	} else {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		sigCh = ch
		stopSignals = func() {
			signal.Stop(ch)
		}
	}
	defer stopSignals()

	select {
	case err := <-errCh:
		return err
	case sig, ok := <-sigCh:
		if !ok {
			return <-errCh
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
