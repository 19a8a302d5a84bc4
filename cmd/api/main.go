package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"frontdesk/internal/agents"
	"frontdesk/internal/audit"
	"frontdesk/internal/calls"
	"frontdesk/internal/config"
	"frontdesk/internal/dialogue"
	"frontdesk/internal/leases"
	"frontdesk/internal/oracle"
	"frontdesk/pkg/logger"
	"frontdesk/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Best-effort env file for local runs; real deployments set env directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	agentRepo := agents.NewPGRepo(db)
	callRepo := calls.NewPGRepo(db)
	auditRepo := audit.NewPGRepo(db)
	for name, ensure := range map[string]func(context.Context) error{
		"agents": agentRepo.EnsureSchema,
		"calls":  callRepo.EnsureSchema,
		"audit":  auditRepo.EnsureSchema,
	} {
		if err := ensure(rootCtx); err != nil {
			log.Error("schema init failed", "table", name, "err", err)
			os.Exit(1)
		}
	}
	if err := agentRepo.Seed(rootCtx, agents.DefaultSeed(cfg.Agents.PhoneNumber)); err != nil {
		log.Error("agent seed failed", "err", err)
		os.Exit(1)
	}

	leaseStore := leases.NewRedisStore(rdb)
	janitor := leases.Janitor{Agents: agentRepo, Leases: leaseStore, Log: log}
	go janitor.Run(rootCtx)

	auditSvc := audit.NewService(auditRepo)

	aiClient := oracle.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.RequestTimeout)
	controller := &dialogue.Controller{
		Extractor: aiClient,
		Verifier:  aiClient,
		Agents:    agentRepo,
		Ledger:    callRepo,
		Leases:    leaseStore,
		Audit:     auditSvc,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, cfg, deps{
		Controller: controller,
		Agents:     agentRepo,
		Ledger:     callRepo,
		Audit:      auditSvc,
		DB:         db,
		Redis:      rdb,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
