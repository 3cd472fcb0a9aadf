package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"secondhand/internal/cache"
	"secondhand/internal/config"
	"secondhand/internal/http/handlers"
	applog "secondhand/internal/log"
	"secondhand/internal/repos"
	"secondhand/internal/storage"
)

func main() {
	cfg := config.Load()

	logger, err := applog.Init(cfg.Env, cfg.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		logger.Fatal("db.open", zap.Error(err))
	}
	defer db.Close()

	// ---------- Products ----------
	var products repos.ProductStore = repos.NewProductRepo(db)
	if cfg.ProductStore == "mongo" {
		client, err := repos.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			logger.Fatal("mongo.connect", zap.Error(err))
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		products = repos.NewMongoProductRepo(client.Database(cfg.MongoDB).Collection(cfg.Collection))
		logger.Info("products.mongo", zap.String("db", cfg.MongoDB), zap.String("collection", cfg.Collection))
	}
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("cache.disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			products = cache.NewProducts(products, rdb, cfg.CacheTTL)
			logger.Info("cache.redis", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.CacheTTL))
		}
	}

	// ---------- Media ----------
	var media storage.Store = storage.NewLocal(cfg.MediaDir)
	if cfg.Storage == "s3" {
		s3store, err := storage.NewS3(ctx, storage.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.S3PublicURL,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			logger.Fatal("storage.s3", zap.Error(err))
		}
		media = s3store
	}
	logger.Info("storage", zap.String("backend", cfg.Storage), zap.String("media_dir", cfg.MediaDir))

	deps := handlers.NewDeps(cfg, handlers.Backends{
		Products: products,
		Charges:  repos.NewChargeRepo(db),
		Media:    media,
	})
	app := handlers.NewApp(cfg, deps)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Fatal("server.listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("server.shutdown")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("server.shutdown", zap.Error(err))
	}
}
