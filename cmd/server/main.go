// Command server runs the CRM API: staff HTTP surface, client portal and the
// recurring-invoice scheduler.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agencyhub/crm-api/internal/api"
	"github.com/agencyhub/crm-api/internal/core/service"
	"github.com/agencyhub/crm-api/internal/infrastructure/config"
	mongodb "github.com/agencyhub/crm-api/internal/infrastructure/db/mongo"
	redisdb "github.com/agencyhub/crm-api/internal/infrastructure/db/redis"
	"github.com/agencyhub/crm-api/internal/infrastructure/scheduler"
	"github.com/agencyhub/crm-api/pkg/logger"
)

// @title        Agency CRM API
// @version      1.0
// @description  Multi-tenant agency CRM: clients, deals, proposals, recurring billing and the client portal.
// @BasePath     /
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	recurringService := service.NewRecurringInvoiceService(mongodb.NewRecurringInvoiceRepository(db), log)
	sched := scheduler.New(recurringService, log)
	if err := sched.Start(cfg.RecurringCron); err != nil {
		log.Fatal().Err(err).Msg("scheduler start failed")
	}
	defer sched.Stop()

	e := api.NewRouter(db, rdb, api.Options{
		JWTSecret:        cfg.JWTSecret,
		AuditLogDir:      cfg.AuditLogDir,
		PortalSessionTTL: cfg.PortalSessionTTL,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil {
			log.Info().Err(err).Msg("http server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
