package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/cv-letter-agent/internal/analysis"
	"github.com/jonathan/cv-letter-agent/internal/artifacts"
	"github.com/jonathan/cv-letter-agent/internal/config"
	"github.com/jonathan/cv-letter-agent/internal/ingestion"
	"github.com/jonathan/cv-letter-agent/internal/letter"
	"github.com/jonathan/cv-letter-agent/internal/llm"
	"github.com/jonathan/cv-letter-agent/internal/logger"
	"github.com/jonathan/cv-letter-agent/internal/pipeline"
	"github.com/jonathan/cv-letter-agent/internal/research"
	"github.com/jonathan/cv-letter-agent/internal/server"
	"github.com/jonathan/cv-letter-agent/internal/session"
)

var (
	servePort    int
	serveJSONLog bool
	serveDebug   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for CV analysis sessions, per-section review, and motivation letter generation.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().BoolVar(&serveJSONLog, "json-log", false, "Emit JSON logs")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(serveJSONLog, serveDebug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	gateway, err := llm.NewGatewayClient(llm.Options{
		BaseURL:     cfg.GatewayURL,
		Model:       cfg.ModelName,
		Timeout:     cfg.RequestTimeout,
		MaxAttempts: cfg.MaxAttempts,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create gateway client: %w", err)
	}

	if err := gateway.Probe(context.Background()); err != nil {
		log.Warn("gateway probe failed, continuing anyway", zap.Error(err))
	} else {
		log.Info("connected to generation gateway", zap.String("url", cfg.GatewayURL), zap.String("model", cfg.ModelName))
	}

	researcher := research.NewResearcher(
		gateway,
		research.NewCache(cfg.CacheDir, cfg.CacheMaxAge),
		research.Options{
			ExtractionTemperature: cfg.ExtractionTemperature,
			ResearchTemperature:   cfg.ResearchTemperature,
			CacheEnabled:          cfg.CacheEnabled,
		},
		log,
	)

	analyzer := analysis.NewAnalyzer(gateway, analysis.Options{
		AnalysisTemperature: cfg.AnalysisTemperature,
		MaxTokens:           cfg.MaxTokens,
	})

	letters := letter.NewGenerator(gateway, letter.Options{
		Temperature:     cfg.LetterTemperature,
		MinWords:        cfg.LetterMinWords,
		MaxWords:        cfg.LetterMaxWords,
		MaxAdjustPasses: cfg.MaxAdjustPasses,
		MaxTokens:       cfg.MaxTokens,
	}, log)

	artifactStore := artifacts.NewStore(cfg.OutputDir)
	store := session.NewStore(analyzer, letters, artifactStore, log)
	parser := ingestion.NewExtractor()
	runner := pipeline.NewRunner(store, parser, researcher, analyzer, cfg.AnalysisConcurrency, log)

	srv, err := server.New(server.Options{
		Port:      servePort,
		App:       cfg,
		Store:     store,
		Runner:    runner,
		Parser:    parser,
		Artifacts: artifactStore,
		Logger:    log,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
