package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/acme/autocert"

	"github.com/yusukeinoue-jpg/lime-tool/internal/auth"
	"github.com/yusukeinoue-jpg/lime-tool/internal/config"
	"github.com/yusukeinoue-jpg/lime-tool/internal/database"
	"github.com/yusukeinoue-jpg/lime-tool/internal/mapview"
	"github.com/yusukeinoue-jpg/lime-tool/internal/ports"
	"github.com/yusukeinoue-jpg/lime-tool/internal/retrieval"
	"github.com/yusukeinoue-jpg/lime-tool/internal/web"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (defaults are used when empty)")
	addr := flag.String("addr", "", "Listen address, overrides the config file (e.g. :8501)")
	portsPath := flag.String("ports", "", "Reference port table (.csv or .shp), overrides the config file")
	domain := flag.String("domain", "", "Serve HTTPS on :443 with Let's Encrypt certificates for this domain")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Loading configuration: %v", err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *portsPath != "" {
		cfg.PortsPath = *portsPath
	}
	if *domain != "" {
		cfg.Domain = *domain
	}
	cfg.ConfigureLogging()
	log.Infof("Starting with %s", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The reference table must load before we listen
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Opening database: %v", err)
	}
	defer db.Close()

	repo := ports.NewRepository(db)
	if _, err := ports.Provision(ctx, repo, cfg.PortsPath); err != nil {
		log.Fatalf("Reference port table unavailable: %v", err)
	}

	store, closeStore := sessionStore(ctx, cfg)
	defer closeStore()

	key := []byte(cfg.SessionKey)
	if len(key) == 0 {
		if key, err = auth.GenerateKey(); err != nil {
			log.Fatal(err)
		}
		log.Warn("No session_key configured; sessions will not survive a restart")
	}
	sessions := auth.NewManager(auth.NewGate(cfg.Secret), store, key, cfg.SessionTTL, repo.ListPorts)

	builder := mapview.NewBuilder(cfg.Links(), cfg.Center())
	builder.Zoom = cfg.Zoom

	srv, err := web.NewServer(web.Options{
		Sessions:  sessions,
		Pipeline:  retrieval.NewService(cfg.Sentinel, cfg.Location()),
		Builder:   builder,
		Language:  cfg.Language(),
		PortCount: repo.Count,
	})
	if err != nil {
		log.Fatal(err)
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		var err error
		if cfg.Domain != "" {
			err = serveWithDomain(ctx, server, cfg.Domain)
		} else {
			log.Infof("Starting HTTP server on %s", cfg.Addr)
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Shutdown: %v", err)
	}
	log.Info("Server gracefully stopped")
}

// sessionStore picks Redis when configured, otherwise an in-memory store
// with a background sweep that stops with ctx.
func sessionStore(ctx context.Context, cfg *config.Config) (auth.Store, func()) {
	if cfg.RedisEnabled() {
		rs, err := auth.NewRedisStore(ctx, auth.RedisSettings{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			Password: cfg.Redis.Password,
		}, cfg.SessionTTL)
		if err != nil {
			log.Fatalf("Session store: %v", err)
		}
		return rs, func() { rs.Close() }
	}

	ms := auth.NewMemoryStore(cfg.SessionTTL)
	go ms.RunSweeper(ctx, time.Minute)
	return ms, func() {}
}

// serveWithDomain answers ACME challenges and redirects on :80 and serves
// HTTPS on :443 with certificates from Let's Encrypt.
func serveWithDomain(ctx context.Context, server *http.Server, domain string) error {
	certMgr := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		Cache:      autocert.DirCache("certs"),
		HostPolicy: autocert.HostWhitelist(domain, "www."+domain),
	}

	redirect := &http.Server{
		Addr: ":80",
		Handler: certMgr.HTTPHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "https://"+domain+r.URL.RequestURI(), http.StatusMovedPermanently)
		})),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("HTTP server (ACME + redirect) on :80")
		if err := redirect.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("HTTP redirect server: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		redirect.Close()
	}()

	server.Addr = ":443"
	server.TLSConfig = certMgr.TLSConfig()
	log.Infof("HTTPS server for %s on :443", domain)
	return server.ListenAndServeTLS("", "")
}
