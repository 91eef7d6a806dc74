package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/a3tai/mcp-notice-extractor/internal/config"
	"github.com/a3tai/mcp-notice-extractor/internal/mcp"
	"github.com/a3tai/mcp-notice-extractor/internal/pdf"
	"github.com/a3tai/mcp-notice-extractor/internal/pdf/extraction"
	"github.com/a3tai/mcp-notice-extractor/internal/textract"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// newLogger builds the process logger for the configured mode. In stdio mode
// stdout belongs to the MCP protocol, so logs go to stderr and only in debug.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsStdioMode() && !cfg.IsDebug() {
		return zap.NewNop(), nil
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	if cfg.IsStdioMode() {
		zcfg.Encoding = "console"
		zcfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	return zcfg.Build()
}

// runServerMode handles server mode execution with signal handling
func runServerMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server, logger *zap.Logger) error {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signalCh)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	select {
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
		if err := <-serverErrCh; err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
	case err := <-serverErrCh:
		if err != nil {
			return err
		}
	}

	logger.Info("server stopped")
	return nil
}

func run() error {
	cfg, err := config.LoadFromFlags()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if version != "dev" {
		cfg.Version = version
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Debug("starting with configuration", zap.String("config", cfg.String()))

	vocabulary, err := config.LoadVocabulary(cfg.VocabularyFile)
	if err != nil {
		return fmt.Errorf("failed to load vocabulary: %w", err)
	}
	for _, c := range vocabulary.Conflicts() {
		logger.Warn("vocabulary variant shadowed by an earlier field",
			zap.String("variant", c.Variant),
			zap.String("kept", c.Kept),
			zap.String("rejected", c.Rejected))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := textract.NewClient(ctx, textract.Options{
		Region:   cfg.Region,
		Endpoint: cfg.Endpoint,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	pdfService, err := pdf.NewService(cfg.MaxFileSize, cfg.PDFDirectory,
		extraction.NewExtractor(client, logger), vocabulary,
		pdf.WithTimeout(cfg.Timeout),
		pdf.WithRegion(client.Region()),
		pdf.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create notice service: %w", err)
	}

	server, err := mcp.NewServer(cfg, pdfService, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	if cfg.IsServerMode() {
		return runServerMode(ctx, cancel, server, logger)
	}
	// the parent process owns the lifecycle in stdio mode
	return server.Run(ctx)
}

func main() {
	if hasVersionFlag(os.Args[1:]) {
		printVersion()
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func hasVersionFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("MCP Notice Extractor\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
