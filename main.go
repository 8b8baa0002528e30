package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"api_transactions/api"
	"api_transactions/internal/config"
	"api_transactions/internal/transactions"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("error building logger: %v", err))
	}
	defer logger.Sync()

	storage, closeStorage, err := openStorage(cfg, logger)
	if err != nil {
		logger.Fatal("failed to open record store", zap.String("backend", cfg.StorageBackend), zap.Error(err))
	}
	defer closeStorage()

	fetcher := transactions.NewHTTPFetcher(cfg.SeedURL, cfg.FetchTimeout)
	defer fetcher.Close()

	service := transactions.NewService(storage, fetcher, logger)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	api.InitRoutes(r, service, logger, cfg.CORSOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("backend", cfg.StorageBackend))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("error trying to start server", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("shutdown signal received", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level = lvl
	return cfg.Build()
}

// openStorage builds the configured record store and returns a func that releases it.
func openStorage(cfg *config.Config, logger *zap.Logger) (transactions.Storage, func(), error) {
	if cfg.StorageBackend == config.BackendMemory {
		logger.Info("using in-memory record store")
		return transactions.NewLocalStorage(), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoConnectLimit)
	defer cancel()

	client, err := transactions.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("connected to mongo", zap.String("database", cfg.MongoDatabase), zap.String("collection", cfg.MongoCollection))

	coll := client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection)
	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			logger.Warn("mongo disconnect failed", zap.Error(err))
		}
	}
	return transactions.NewMongoStorage(coll), closeFn, nil
}
