// Command extraction-server exposes the document-intelligence
// extraction engine over HTTP: one endpoint accepts a document and
// drives SizeDetector → Router → Orchestrator → ExtractionResult.
//
// Grounded on document-chunker/main.go's main() (gin.New() + Logger +
// Recovery + CORS middleware + versioned route group + health
// endpoint), generalized from the chunking-only service to the full
// extraction pipeline, with zap and tracing wired the way
// go-inference-service/main.go and internal/observability/tracing do.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go.uber.org/zap/zapcore"

	"legal-extraction-engine/internal/chunking"
	"legal-extraction-engine/internal/config"
	"legal-extraction-engine/internal/domain"
	"legal-extraction-engine/internal/gpumonitor"
	"legal-extraction-engine/internal/inference"
	"legal-extraction-engine/internal/loki"
	"legal-extraction-engine/internal/metrics"
	"legal-extraction-engine/internal/observability/tracing"
	"legal-extraction-engine/internal/orchestrator"
	"legal-extraction-engine/internal/prompt"
	"legal-extraction-engine/internal/resultsink"
	"legal-extraction-engine/internal/routing"
	"legal-extraction-engine/internal/sizing"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	rootCtx := context.Background()
	shutdownTracer, err := tracing.Init(rootCtx, "extraction-server")
	if err != nil {
		logger.Warn("tracing init failed, continuing without traces", zap.Error(err))
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	detector := sizing.New(cfg.SizeThresholdSmall, cfg.SizeThresholdMedium, cfg.CharsPerToken)
	chunker := chunking.New(chunking.Config{
		MaxChars: cfg.ChunkMaxChars, MinChars: cfg.ChunkMinChars,
		OverlapChars: cfg.ChunkOverlapChars, MaxChunksPerDocument: cfg.MaxChunksPerDocument,
	})

	var catalogClient *prompt.CatalogClient
	if cfg.PatternCatalogURL != "" {
		catalogClient = prompt.NewCatalogClient(cfg.PatternCatalogURL)
	}
	assembler := prompt.New(catalogClient, cfg.PatternsCacheTTL)

	gpuMonitor := gpumonitor.New(cfg.GPUID, cfg.GPUMemoryThreshold, logger)

	tokenEstimator := inference.NewTokenEstimator(cfg.CharsPerToken, 0, cfg.MaxModelContextTokens, 0)

	offline := os.Getenv("EXTRACTOR_OFFLINE") == "true"
	newClient := func(service inference.ServiceType) inference.Client {
		var baseURL, model string
		switch service {
		case inference.ServiceThinking:
			baseURL, model = cfg.ThinkingBaseURL, cfg.ThinkingModel
		case inference.ServiceEmbeddings:
			baseURL, model = cfg.EmbeddingsBaseURL, cfg.EmbeddingsModel
		default:
			baseURL, model = cfg.InstructBaseURL, cfg.InstructModel
		}
		return inference.NewClient(inference.Config{
			ServiceType:                    service,
			BaseURL:                        baseURL,
			Model:                          model,
			Seed:                           cfg.Seed,
			DefaultTemperature:             cfg.EntityTemperature,
			MaxRetries:                     cfg.MaxRetries,
			BackoffFactor:                  cfg.BackoffFactor,
			BackoffMaxSecs:                 cfg.BackoffMaxSecs,
			MaxConcurrentRequests:          cfg.MaxConcurrentRequests,
			RequestsPerMinute:              cfg.RequestsPerMinute,
			RequestTimeout:                 cfg.RequestTimeout,
			CircuitBreakerFailureThreshold: cfg.CircuitBreakerFailureThreshold,
			CircuitBreakerRecoveryTimeout:  cfg.CircuitBreakerRecoveryTimeout,
			TokenEstimator:                 tokenEstimator,
			EnableGPUMonitoring:            cfg.EnableGPUMonitoring,
			GPUMonitor:                     gpuMonitor,
			GPUMemoryThreshold:             cfg.GPUMemoryThreshold,
			Logger:                         logger,
		}, offline)
	}

	orch := orchestrator.New(orchestrator.Config{
		EntityTemperature:           cfg.EntityTemperature,
		RelationshipTemperature:     cfg.RelationshipTemperature,
		Seed:                        cfg.Seed,
		DedupSimilarityThreshold:    cfg.DedupSimilarityThreshold,
		RelationshipConfidenceFloor: cfg.RelationshipConfidenceFloor,
		MaxConcurrentChunks:         cfg.MaxConcurrentChunks,
		PerWaveTimeout:              cfg.RequestTimeout,
		ExtractionDeadline:          cfg.ExtractionDeadline,
	}, assembler, chunker, newClient, logger)

	var sink resultsink.Sink
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		pg, err := resultsink.New(rootCtx, dsn)
		if err != nil {
			logger.Warn("result sink unavailable, extractions will not be persisted", zap.Error(err))
		} else {
			sink = pg
			defer sink.Close()
		}
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	handler := &server{detector: detector, orch: orch, logger: logger, metrics: m, sink: sink}

	api := r.Group("/api/v1")
	{
		api.POST("/extract", handler.extractHandler)
		api.GET("/health", handler.healthHandler)
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := getenv("EXTRACTOR_HTTP_ADDR", ":8088")
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logger.Info("extraction-server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	if shutdownTracer != nil {
		_ = shutdownTracer(shutdownCtx)
	}
}

type server struct {
	detector *sizing.Detector
	orch     *orchestrator.Orchestrator
	logger   *zap.Logger
	metrics  *metrics.Metrics
	sink     resultsink.Sink
}

type extractRequest struct {
	DocumentID          string         `json:"document_id" binding:"required"`
	Text                string         `json:"text" binding:"required"`
	ExtractRelationships bool          `json:"extract_relationships"`
	Metadata            map[string]any `json:"metadata"`
}

func (s *server) extractHandler(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc := domain.NewDocument(req.DocumentID, req.Text, req.Metadata)
	size := s.detector.Detect(doc.Text)
	decision := routing.Route(size, req.ExtractRelationships)

	result, err := s.orch.Extract(c.Request.Context(), doc, decision, size, req.Metadata)
	if err != nil {
		s.metrics.ExtractionsTotal.WithLabelValues(string(decision.Strategy), "error").Inc()
		s.logger.Error("extraction failed", zap.String("document_id", req.DocumentID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.metrics.ExtractionsTotal.WithLabelValues(string(decision.Strategy), "success").Inc()
	for _, e := range result.Entities {
		s.metrics.EntitiesExtracted.WithLabelValues(e.EntityType).Inc()
	}
	s.metrics.RelationshipsKept.Add(float64(len(result.Relationships)))

	if s.sink != nil {
		if err := s.sink.Store(c.Request.Context(), req.DocumentID, result, nil); err != nil {
			s.logger.Error("result sink store failed", zap.String("document_id", req.DocumentID), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, result)
}

func (s *server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// newLogger builds the production zap logger, teeing error-and-above
// entries to Loki when LOKI_URL is set so they survive container
// restarts alongside the metrics in internal/metrics and the traces in
// internal/observability/tracing.
func newLogger() *zap.Logger {
	base, _ := zap.NewProduction()

	lokiURL := os.Getenv("LOKI_URL")
	if lokiURL == "" {
		return base
	}

	lokiClient := loki.New(lokiURL, map[string]string{"service": "extraction-server"})
	lokiCore := loki.NewCore(lokiClient, zapcore.ErrorLevel, nil)
	tee := zapcore.NewTee(base.Core(), lokiCore)
	return zap.New(tee)
}
