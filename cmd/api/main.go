package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"confportal.org/internal/article"
	"confportal.org/internal/auth"
	"confportal.org/internal/config"
	"confportal.org/internal/httpapi"
	"confportal.org/internal/obs"
	"confportal.org/internal/portal"
	"confportal.org/internal/render"
	"confportal.org/internal/store/memory"
	"confportal.org/internal/store/pg"
	"confportal.org/internal/stream"
)

var commit = "unknown"

type backend interface {
	portal.Store
	article.Store
	auth.CredentialStore
	Ping(ctx context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := obs.SetupLogger(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	obs.Init()
	obs.InitBuildInfo(config.Version, commit)

	var store backend
	if cfg.DatabaseDSN != "" {
		pgStore, err := pg.Open(cfg.DatabaseDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer pgStore.Close()
		store = pgStore
	} else {
		logger.Warn("PORTAL_PG_DSN is empty, using in-memory store")
		store = memory.New()
	}

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret:    []byte(cfg.AuthSecret),
		Algorithm: cfg.AuthAlgorithm,
		TTL:       cfg.TokenTTL,
		Issuer:    cfg.AuthIssuer,
	})
	if err != nil {
		log.Fatalf("token service: %v", err)
	}

	trusted, err := httpapi.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	hub := stream.New()
	renderer := render.New(render.Config{
		Compiler: cfg.RenderCompiler,
		Timeout:  cfg.RenderTimeout,
		Workers:  cfg.RenderWorkers,
		WorkDir:  cfg.RenderWorkDir,
	})
	ready := httpapi.ReadyProbe{Store: store}

	api := httpapi.New(httpapi.Deps{
		Gate:     auth.NewGate(store, tokens),
		Portal:   portal.NewService(store, portal.WithNotifier(hub)),
		Articles: article.NewService(store, renderer),
		Stream:   hub,
		Ready:    ready,
	}, config.Version,
		httpapi.WithUploadLimit(cfg.MaxUploadBytes),
		httpapi.WithLoginRateLimit(cfg.LoginRateBurst, cfg.LoginRatePerSecond),
		httpapi.WithCORSOrigins(cfg.CORSOrigins),
		httpapi.WithTrustedProxies(trusted),
	)

	// WriteTimeout stays zero: the notification stream is long-lived. Open
	// streams end when shutdown cancels the base context.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	srv.RegisterOnShutdown(cancelBase)

	var grpcSrv *grpc.Server
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.Fatalf("grpc listen: %v", err)
		}
		grpcSrv = grpc.NewServer()
		healthpb.RegisterHealthServer(grpcSrv, httpapi.NewHealthServer(ready))
		go func() {
			logger.Info("grpc_listening", "addr", cfg.GRPCAddr)
			if err := grpcSrv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				log.Fatalf("grpc serve: %v", err)
			}
		}()
	}

	go func() {
		logger.Info("http_listening", "addr", srv.Addr, "version", config.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http_shutdown", "error", err.Error())
	}
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	logger.Info("stopped")
}
