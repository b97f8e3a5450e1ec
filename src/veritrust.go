package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	aicore "github.com/stake-plus/veritrust/src/ai/core"
	_ "github.com/stake-plus/veritrust/src/ai/providers"
	"github.com/stake-plus/veritrust/src/config"
	"github.com/stake-plus/veritrust/src/dashboard"
	"github.com/stake-plus/veritrust/src/data"
	"github.com/stake-plus/veritrust/src/logging"
	"github.com/stake-plus/veritrust/src/session"
	"github.com/stake-plus/veritrust/src/verify"
	"github.com/stake-plus/veritrust/src/webserver"
)

func main() {
	// Env-only logging until the settings table has been read.
	logging.InitFromEnv(nil)
	logger := logging.New("main")

	// Settings table first so it can override the environment.
	if dsn := os.Getenv("MYSQL_DSN"); dsn != "" {
		db, err := data.ConnectMySQL(dsn)
		if err != nil {
			logger.Error("db", "error", err)
			os.Exit(1)
		}
		if err := data.MigrateSettings(db); err != nil {
			logger.Error("migrate settings", "error", err)
			os.Exit(1)
		}
		if err := data.LoadSettings(db); err != nil {
			logger.Warn("settings load failed, using environment", "error", err)
		}
	}

	cfg := config.Load()
	logging.Init(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, nil)
	logger = logging.New("main")
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	gin.SetMode(cfg.GinMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ai, err := aicore.NewClient(aicore.FactoryConfig{
		Provider:            cfg.AI.Provider,
		SystemPrompt:        verify.SystemInstruction,
		Model:               aicore.ResolveModelName(cfg.AI.Provider, cfg.AI.Model),
		Temperature:         cfg.AI.Temperature,
		MaxCompletionTokens: cfg.AI.MaxTokens,
		Timeout:             cfg.AI.Timeout,
		OpenAIKey:           cfg.AI.OpenAIKey,
		GeminiKey:           cfg.AI.GeminiKey,
		BaseURL:             cfg.AI.BaseURL,
	})
	if err != nil {
		logger.Error("ai client", "provider", cfg.AI.Provider, "error", err)
		os.Exit(1)
	}

	var gate session.Gate = session.NewMemoryGate()
	if cfg.RedisURL != "" {
		rdb, err := data.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		gate = session.NewRedisGate(rdb, cfg.AI.Timeout+30*time.Second)
	}

	sessions := session.NewManager(cfg.SessionTTL, cfg.LedgerCap)
	go sessions.Run(ctx)

	svc := dashboard.NewService(dashboard.Dependencies{
		Analyzer: verify.NewClient(ai, verify.ClientConfig{
			Options: aicore.Options{RetryAttempts: cfg.AI.RetryAttempts},
			Timeout: cfg.AI.Timeout,
		}),
		Builder: verify.Builder{MaxTextBytes: cfg.MaxTextBytes, MaxMediaBytes: cfg.MaxMediaBytes},
		Gate:    gate,
	})

	router := webserver.New(webserver.Options{
		Sessions:       sessions,
		Issuer:         session.NewIssuer([]byte(cfg.JWTSecret), cfg.SessionTTL),
		Service:        svc,
		CORSOrigins:    cfg.CORSOrigins,
		RateLimit:      cfg.RateLimit,
		RateWindow:     cfg.RateWindow,
		TrendWindow:    cfg.TrendWindow,
		MaxUploadBytes: int64(cfg.MaxMediaBytes),
	})
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http", "error", err)
			os.Exit(1)
		}
	}()
	logger.Info("VeriTrust API listening",
		"port", cfg.Port, "provider", cfg.AI.Provider, "model", aicore.ResolveModelName(cfg.AI.Provider, cfg.AI.Model))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	cancel()

	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	_ = httpSrv.Shutdown(shutCtx)
}
