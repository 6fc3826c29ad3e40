package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"ledgerdesk/internal/account"
	"ledgerdesk/internal/audit"
	"ledgerdesk/internal/invitation"
	invitationhandler "ledgerdesk/internal/invitation/handler"
	"ledgerdesk/internal/jwtauth"
	"ledgerdesk/internal/party"
	partyhandler "ledgerdesk/internal/party/handler"
	"ledgerdesk/internal/pending"
	pendinghandler "ledgerdesk/internal/pending/handler"
	"ledgerdesk/internal/platform/config"
	"ledgerdesk/internal/platform/httpserver"
	"ledgerdesk/internal/platform/logger"
	"ledgerdesk/internal/platform/metrics"
	platformredis "ledgerdesk/internal/platform/redis"
	"ledgerdesk/internal/privacy"
	"ledgerdesk/internal/profile"
	profilehandler "ledgerdesk/internal/profile/handler"
	httptransport "ledgerdesk/internal/transport/http"
	"ledgerdesk/pkg/platform/tx"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal service
// packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err.Error())
		os.Exit(1)
	}

	cipher := privacy.NewDisabledCipher(log)
	if cfg.CipherKey != "" {
		c, err := privacy.NewCipher([]byte(cfg.CipherKey), log)
		if err != nil {
			log.Error("invalid cipher key", "error", err.Error())
			os.Exit(1)
		}
		cipher = c
	}
	indexer := privacy.NewDisabledIndexer(log)
	if cfg.DigestKey != "" {
		indexer = privacy.NewIndexer([]byte(cfg.DigestKey), log)
	}

	// Stores default to in-memory; a DATABASE_URL switches everything to
	// postgres, including the transactional accept flow.
	var (
		accountStore     account.Store = account.NewInMemory()
		profileStore     profile.Store = profile.NewInMemory()
		partyStores                    = party.NewInMemoryStores()
		invitationStores               = invitation.NewInMemoryStores()
		runner           tx.Runner     = tx.NopRunner{}
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open database", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Error("database unreachable", "error", err.Error())
			os.Exit(1)
		}
		accountStore = account.NewPostgres(db)
		profileStore = profile.NewPostgres(db)
		partyStores = party.NewPostgresStores(db)
		invitationStores = invitation.NewPostgresStores(db)
		runner = tx.NewPostgresRunner(db)
	}

	m := metrics.New()
	auditor := audit.NewPublisher(audit.NewInMemory())
	jwtService := jwtauth.New(cfg.JWTSigningKey, "ledgerdesk", "ledgerdesk-api")

	invitationOpts := []invitation.Option{
		invitation.WithLogger(log),
		invitation.WithMetrics(m),
		invitation.WithAuditPublisher(auditor),
	}
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		invitationOpts = append(invitationOpts, invitation.WithThrottle(invitation.NewRedisThrottle(redisClient.Client)))
	}

	invitationService := invitation.New(invitationStores, partyStores, accountStore, runner, invitationOpts...)
	partyService := party.New(partyStores, accountStore, invitationService,
		party.WithLogger(log),
		party.WithMetrics(m),
		party.WithAuditPublisher(auditor),
	)
	profileService := profile.New(profileStore, accountStore, cipher, indexer,
		profile.WithLogger(log),
		profile.WithMetrics(m),
		profile.WithAuditPublisher(auditor),
	)
	pendingService := pending.New(partyStores, accountStore, pending.WithLogger(log))

	router := httptransport.NewRouter(log, m,
		profilehandler.New(profileService, log, jwtService),
		partyhandler.New(partyService, log, jwtService),
		invitationhandler.New(invitationService, log, jwtService),
		pendinghandler.New(pendingService, partyService, log, jwtService),
	)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting ledgerdesk", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
		os.Exit(1)
	}
}
