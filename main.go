package main

import (
	"context"
	"time"

	"github.com/cppla/docqa/answer"
	"github.com/cppla/docqa/config"
	"github.com/cppla/docqa/extract"
	"github.com/cppla/docqa/middleware"
	"github.com/cppla/docqa/routes"
	"github.com/cppla/docqa/services"
	"github.com/cppla/docqa/storage"
	"github.com/cppla/docqa/store"
	"github.com/cppla/docqa/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	db := config.InitDatabase(store.Models()...)
	st := store.New(db)

	ctx := context.Background()
	objects, err := storage.New(ctx, cfg)
	if err != nil {
		utils.Sugar.Fatalf("object storage: %v", err)
	}

	answerer, err := answer.New(ctx, cfg)
	if err != nil {
		utils.Sugar.Fatalf("answer provider: %v", err)
	}
	if nc, ok := answerer.(*answer.NotConfigured); ok {
		utils.Sugar.Warnf("answer provider %s not configured, /ask will fail: %s", nc.Provider, nc.Detail)
	}
	if closer, ok := answerer.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	rdb, err := utils.NewRedisClient(cfg)
	if err != nil {
		utils.Sugar.Fatalf("redis: %v", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	tokens := utils.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.TokenExpireMinutes)*time.Minute)
	r := routes.SetupRouter(cfg, routes.Deps{
		Auth:      services.NewAuthService(st.Users, tokens),
		Documents: services.NewDocumentService(st.Documents, objects, extract.New(), int64(cfg.MaxUploadMB)<<20),
		QA:        services.NewQAService(st.Documents, st.History, answerer, cfg.AskContextChars, time.Duration(cfg.AskTimeoutSec)*time.Second),
		Limiter:   middleware.NewLimiter(rdb, cfg.RateLimitPerMinute),
	})

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	err = utils.GraceServer(":"+cfg.AppPort, r,
		time.Duration(cfg.ServerReadTimeoutSec)*time.Second,
		time.Duration(cfg.ServerWriteTimeoutSec)*time.Second,
	)
	if err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
