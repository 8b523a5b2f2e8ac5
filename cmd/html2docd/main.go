// Command html2docd serves the HTML-to-PDF/PPTX conversion API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/renderkit/html2doc"
	"github.com/renderkit/html2doc/internal/assets"
	"github.com/renderkit/html2doc/internal/config"
	"github.com/renderkit/html2doc/internal/yamlutil"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "html2docd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	var (
		configPath  = flag.StringP("config", "c", os.Getenv("HTML2DOC_CONFIG"), "path to YAML config file")
		addr        = flag.String("addr", "", "listen address (overrides config)")
		workers     = flag.Int("workers", 0, "browser pool size (overrides config)")
		logLevel    = flag.String("log-level", "", "log level: debug, info, warn, error")
		showVersion = flag.BoolP("version", "v", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("html2docd " + version)
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	// Flags win over environment and file.
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *workers > 0 {
		cfg.Render.Workers = *workers
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	logger, err := buildLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	config.WarnUnknownEnvVars(func(name string) {
		logger.Warn("unknown environment variable (typo?)", zap.String("name", name))
	})

	if ce := logger.Check(zap.DebugLevel, "effective config"); ce != nil {
		if dump, err := yamlutil.Marshal(cfg); err == nil {
			ce.Write(zap.ByteString("config", dump))
		}
	}

	svc, err := newService(cfg)
	if err != nil {
		return fmt.Errorf("building conversion service: %w", err)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("closing service", zap.Error(err))
		}
	}()

	styles, err := assets.NewResolver(cfg.Assets.BasePath)
	if err != nil {
		return fmt.Errorf("building style resolver: %w", err)
	}

	for _, note := range svc.Registry().ScanNotes() {
		logger.Warn("font scan", zap.String("note", note))
	}
	logger.Info("font inventory ready", zap.Int("families", len(svc.Registry().Families())))

	h := newHandler(svc, styles, logger, cfg)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           newRouter(h, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func newService(cfg *config.Config) (*html2doc.Service, error) {
	opts := []html2doc.Option{
		html2doc.WithPoolSize(cfg.Render.Workers),
	}
	if cfg.Render.GlobalLimit > 0 {
		opts = append(opts, html2doc.WithGlobalConcurrency(cfg.Render.GlobalLimit))
	}
	if cfg.Render.Timeout > 0 {
		opts = append(opts, html2doc.WithRenderTimeout(cfg.Render.Timeout))
	}
	if cfg.Render.QueueWait > 0 {
		opts = append(opts, html2doc.WithQueueWait(cfg.Render.QueueWait))
	}
	if cfg.Render.BrowserBin != "" {
		opts = append(opts, html2doc.WithBrowserBin(cfg.Render.BrowserBin))
	}
	if cfg.Render.DefaultBackend != "" {
		opts = append(opts, html2doc.WithDefaultBackend(html2doc.BackendKind(cfg.Render.DefaultBackend)))
	}
	if cfg.Fonts.Dirs != nil {
		opts = append(opts, html2doc.WithFontDirs(cfg.Fonts.Dirs...))
	}
	if cfg.Fonts.Default != "" {
		opts = append(opts, html2doc.WithDefaultFont(cfg.Fonts.Default))
	}
	if cfg.Fonts.CJK != "" {
		opts = append(opts, html2doc.WithCJKFont(cfg.Fonts.CJK))
	}
	if cfg.Fonts.Strict {
		opts = append(opts, html2doc.WithStrictFonts())
	}
	if cfg.Server.MaxBodyBytes > 0 {
		opts = append(opts, html2doc.WithMaxInputBytes(cfg.Server.MaxBodyBytes))
	}
	return html2doc.NewService(opts...)
}

func buildLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
