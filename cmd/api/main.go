package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mocdesk.org/internal/config"
	"mocdesk.org/internal/geo"
	"mocdesk.org/internal/httpapi"
	"mocdesk.org/internal/notify"
	"mocdesk.org/internal/obs"
	"mocdesk.org/internal/service"
	"mocdesk.org/internal/session"
	"mocdesk.org/internal/store"
	"mocdesk.org/internal/store/pg"
)

var (
	version = "0.3.0"
	commit  = "none"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	// Postgres when a DSN is configured, seeded in-memory otherwise.
	var (
		st store.Store
		db *sql.DB
	)
	if cfg.DatabaseURL != "" {
		pgStore, err := pg.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer pgStore.Close()
		st = pgStore
		db = pgStore.DB()
	} else {
		mem := store.NewMemory()
		store.SeedDefaults(mem)
		st = mem
		log.Print("no database_url configured, using seeded in-memory store")
	}

	secret := cfg.AuthSecret
	if secret == "" {
		if cfg.DatabaseURL != "" {
			log.Fatal("auth_secret is required when running against a database")
		}
		secret = "dev-only-secret"
		log.Print("auth_secret not set, using the development default")
	}
	sessions, err := session.NewManager(st, secret,
		session.WithAccessTTL(cfg.AccessTokenTTL),
		session.WithRefreshTTL(cfg.RefreshTokenTTL),
	)
	if err != nil {
		log.Fatalf("sessions: %v", err)
	}

	hub := notify.NewHub(st.Notifications())
	svc := service.New(st,
		service.WithGeocoder(geo.NewClient(cfg.GeocoderURL, cfg.GeocoderTimeout)),
		service.WithNotifier(hub),
	)

	api := httpapi.New(svc, sessions, hub, httpapi.ReadyProbe{DB: db}, version, httpapi.Options{
		CORSOrigin:     cfg.CORSOrigin,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting mocdesk-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}
