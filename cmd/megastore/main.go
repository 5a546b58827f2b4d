package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2/middleware/logger"

	"megastore/internal/auth"
	"megastore/internal/blob"
	"megastore/internal/config"
	"megastore/internal/http/handlers"
	"megastore/internal/notify"
	"megastore/internal/repos"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[config] %v", err)
	}

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repos.OpenDB(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := repos.SeedCatalog(ctx, db); err != nil {
		log.Fatalf("[seed] %v", err)
	}

	hasher := auth.NewBcryptHasher(auth.DefaultCost)
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		hash, err := hasher.Hash(cfg.AdminPassword)
		if err != nil {
			log.Fatalf("[seed] admin: %v", err)
		}
		if err := repos.SeedAdmin(ctx, repos.NewUserRepo(db), cfg.AdminEmail, cfg.AdminName, hash); err != nil {
			log.Fatalf("[seed] admin: %v", err)
		}
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		log.Fatalf("[blob] %v", err)
	}
	stager, err := blob.NewStager(cfg.StagingDir)
	if err != nil {
		log.Fatalf("[blob] staging: %v", err)
	}
	renderer, err := notify.NewRenderer()
	if err != nil {
		log.Fatalf("[notify] %v", err)
	}

	var notifier notify.Notifier
	switch cfg.Notifier {
	case config.NotifierLog:
		log.Printf("[notify] NOTIFIER=log, emails including their links are written to the log; do not use in production")
		notifier = &notify.LogNotifier{}
	default:
		notifier = notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	}

	tokens := auth.NewIssuer(auth.IssuerConfig{
		Access:     auth.KeyConfig{Secret: cfg.AccessSecret, TTL: cfg.AccessExpiry},
		Refresh:    auth.KeyConfig{Secret: cfg.RefreshSecret, TTL: cfg.RefreshExpiry},
		Activation: auth.KeyConfig{Secret: cfg.ActivationSecret, TTL: auth.ActivationTTL},
		ResetTTL:   auth.ResetTTL,
	})

	deps := handlers.NewDeps(db, cfg, handlers.Infra{
		Hasher:   hasher,
		Tokens:   tokens,
		Store:    store,
		Stager:   stager,
		Notifier: notifier,
		Renderer: renderer,
	})

	app := handlers.NewApp(deps, cfg, handlers.DefaultLimits, logger.New())

	go func() {
		<-ctx.Done()
		log.Printf("[server] shutting down")
		_ = app.Shutdown()
	}()

	log.Printf("[server] listening on :%s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}

func newStore(ctx context.Context, cfg config.Config) (blob.Store, error) {
	if cfg.BlobBackend == config.BlobS3 {
		s3, err := blob.NewS3Store(ctx, blob.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			return nil, err
		}
		return s3, nil
	}
	log.Printf("[static] /media -> %s", cfg.MediaDir)
	return blob.NewLocalStore(cfg.MediaDir, cfg.PublicBaseURL+"/media")
}
