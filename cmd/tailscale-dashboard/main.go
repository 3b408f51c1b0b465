package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"tailscale-dashboard/internal/auth"
	"tailscale-dashboard/internal/collector"
	"tailscale-dashboard/internal/config"
	"tailscale-dashboard/internal/db"
	"tailscale-dashboard/internal/demo"
	"tailscale-dashboard/internal/history"
	httpapi "tailscale-dashboard/internal/http"
	"tailscale-dashboard/internal/i18n"
	"tailscale-dashboard/internal/info"
	"tailscale-dashboard/internal/monitor"
	"tailscale-dashboard/internal/tailscale"
)

var version = "dev"

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	var err error
	switch cmd {
	case "serve":
		err = run()
	case "token":
		err = mintToken(os.Args[2:])
	case "version":
		fmt.Println("tailscale-dashboard", version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (want serve, token or version)\n", cmd)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "tailscale-dashboard %s failed: %v\n", cmd, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	catalog, err := i18n.Load(cfg.DefaultLanguage)
	if err != nil {
		return fmt.Errorf("load translations: %w", err)
	}

	var source info.Source
	if cfg.DemoMode {
		logger.Info("TAILSCALE_DASHBOARD_DEMO is set; serving canned tailscaled state")
		source = demo.NewSource()
	} else {
		source = tailscale.NewClient(cfg.SocketPath, cfg.TSTimeout)
	}
	coll := collector.New(source, catalog, cfg.UnraidConfigDir, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts := httpapi.Options{
		PollInterval: cfg.PollInterval,
		WebRoot:      cfg.WebRoot,
		JWTSecret:    []byte(cfg.JWTSecret),
		Logger:       logger,
	}
	if !cfg.AuthEnabled() {
		opts.JWTSecret = nil
	}

	if cfg.HistoryEnabled() {
		conn, err := db.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open history db: %w", err)
		}
		defer conn.Close()

		store, err := history.New(conn)
		if err != nil {
			return fmt.Errorf("migrate history db: %w", err)
		}
		opts.History = store

		mon := monitor.New(coll, store, cfg.TSTimeout, logger)
		if err := mon.Start(ctx, cfg.MonitorSchedule); err != nil {
			return err
		}
		logger.Info("warning monitor scheduled", slog.String("schedule", cfg.MonitorSchedule), slog.String("db", cfg.DBPath))
	}

	server := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      httpapi.New(coll, opts),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		defer close(shutdownDone)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	}()

	logger.Info("read-only Tailscale dashboard listening",
		slog.String("addr", cfg.HTTPListenAddr),
		slog.String("version", version),
		slog.Bool("auth", cfg.AuthEnabled()),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-shutdownDone
	return nil
}

func mintToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	subject := fs.String("subject", "unraid", "token subject")
	ttl := fs.Duration("ttl", 0, "token lifetime (defaults to TAILSCALE_DASHBOARD_JWT_TTL)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.AuthEnabled() {
		return errors.New("TAILSCALE_DASHBOARD_JWT_SECRET is not set")
	}
	if *ttl <= 0 {
		*ttl = cfg.JWTTTL
	}

	token, err := auth.Sign([]byte(cfg.JWTSecret), *subject, *ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
