package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"predict-api/internal/buckets"
	"predict-api/internal/cache"
	"predict-api/internal/config"
	"predict-api/internal/database"
	"predict-api/internal/handlers/predict"
	"predict-api/internal/middleware"
	"predict-api/internal/model"
	"predict-api/internal/routers"
	"predict-api/internal/shared"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	emw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/manifold-inc/manifold-sdk/lib/eflag"
)

func main() {
	// Flags / ENV Variables
	configPath := flag.String("config", "config.yaml", "Service config file")
	modelPattern := flag.String("model", "models/*.model.json", "Model artifact path or glob")
	port := flag.Int("port", shared.DefaultPort, "Listen port")
	debug := flag.Bool("debug", false, "Debug enabled")
	redisAddr := flag.String("redis-addr", "", "Redis host:port, empty disables the prediction cache")
	writeDSN := flag.String("dsn", "", "Write DSN, empty disables prediction logging")
	metricsAPIKey := flag.String("metrics-api-key", "", "Metrics api key")
	cacheTTL := flag.Duration("cache-ttl", shared.PredictionCacheTTL, "Prediction cache TTL")

	err := eflag.SetFlagsFromEnvironment()
	if err != nil {
		panic(err)
	}
	flag.Parse()

	var logger *zap.Logger
	if !*debug {
		logger, err = zap.NewProduction()
		if err != nil {
			panic("Failed init logger")
		}
	}
	if *debug {
		logger, err = zap.NewDevelopment()
		if err != nil {
			panic("Failed init logger")
		}
	}
	log := logger.Sugar()
	defer func() {
		_ = log.Sync()
	}()

	if *metricsAPIKey != "" && len(*metricsAPIKey) != shared.APIKeyLength {
		log.Fatalw("Metrics api key has the wrong length", "want", shared.APIKeyLength)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalw("Failed loading config", "path", *configPath, "error", err)
	}
	pipeline, err := model.Load(*modelPattern)
	if err != nil {
		log.Fatalw("Failed loading model", "pattern", *modelPattern, "error", err)
	}
	info := pipeline.Info()
	log.Infow("Model loaded", "name", info.Name, "version", info.Version, "classifier", info.Classifier, "digest", info.Digest)

	var opts []predict.Option

	// Load Redis connection
	var redisClient *redis.Client
	if *redisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err = cache.Connect(ctx, *redisAddr)
		cancel()
		if err != nil {
			log.Fatalw("Failed connecting to redis", "error", err)
		}
		opts = append(opts, predict.WithCache(cache.NewRedis(redisClient, *cacheTTL)))
	}

	// Write DB init
	var writeDB *sql.DB
	var buffer *buckets.PredictionBuffer
	if *writeDSN != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		writeDB, err = database.Open(ctx, *writeDSN)
		cancel()
		if err != nil {
			log.Fatalw("Failed connecting to database", "error", err)
		}
		buffer = buckets.NewPredictionBuffer(database.NewStore(writeDB, log), log, buckets.DefaultOptions())
		opts = append(opts, predict.WithRecorder(buffer))
	}

	defer func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
		if writeDB != nil {
			_ = writeDB.Close()
		}
	}()

	ph := predict.NewPredictHandler(pipeline, log, opts...)

	e := echo.New()
	e.HideBanner = true
	routers.RegisterOpsRoutes(e, *metricsAPIKey)

	base := e.Group("")
	base.Use(emw.CORS())
	base.Use(middleware.NewRecoverMiddleware(log))
	base.Use(middleware.NewTrackMiddleware(log))

	// Register routes
	err = routers.RegisterPredictRoutes(base, ph, cfg)
	if err != nil {
		panic(err)
	}
	log.Infow("Predict routes registered", "path", cfg.PredictPath(), "alias", routers.AliasPredictPath)

	go func() {
		if err := e.Start(fmt.Sprintf("0.0.0.0:%d", *port)); err != nil && err != http.ErrServerClosed {
			log.Fatalw("shutting down the server", "error", err)
		}
	}()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), shared.DefaultShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Errorw("Failed graceful shutdown", "error", err)
	}
	if buffer != nil {
		buffer.Shutdown()
	}
}
