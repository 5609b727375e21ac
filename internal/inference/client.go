// Package inference implements the InferenceClient (spec.md §4.6): the
// abstraction over LLMBackend, covering reproducibility defaults, token
// budgeting, rate limiting, retries, circuit breaking, GPU awareness,
// multi-service routing and the connection state machine.
//
// Grounded on original_source/src/vllm_client/client.py's
// VLLMClientInterface / DirectVLLMClient / HTTPVLLMClient dual-variant
// shape (spec.md §9's "polymorphic client, factory returns appropriate
// variant"), with the HTTP variant additionally grounded on
// go-enhanced-rag-service/embedding_service.go's retry/backoff loop and
// callOllamaEmbed's http.NewRequestWithContext pattern.
package inference

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"legal-extraction-engine/internal/gpumonitor"
	"legal-extraction-engine/internal/xerrors"
	"legal-extraction-engine/internal/xjson"
)

// Client is the capability set spec.md §9 calls for: connect, generate
// (single and batch), readiness, stats, close.
type Client interface {
	Connect(ctx context.Context) error
	GenerateChatCompletion(ctx context.Context, req Request) (*Response, error)
	GenerateBatch(ctx context.Context, reqs []Request) ([]*Response, error)
	IsReady() bool
	Stats() Stats
	Close() error
}

// Config configures one HTTPInferenceClient instance — one per service
// endpoint, per spec.md §4.6 "multi-service routing".
type Config struct {
	ServiceType ServiceType
	BaseURL     string
	Model       string

	Seed               int
	DefaultTemperature float64

	MaxRetries     int
	BackoffFactor  float64
	BackoffMaxSecs float64

	MaxConcurrentRequests int
	RequestsPerMinute     int
	RequestTimeout        time.Duration

	CircuitBreakerFailureThreshold int
	CircuitBreakerRecoveryTimeout  time.Duration

	TokenEstimator *TokenEstimator

	EnableGPUMonitoring bool
	GPUMonitor          *gpumonitor.Monitor
	GPUMemoryThreshold  float64

	Logger *zap.Logger
}

// HTTPInferenceClient is the real network implementation, talking to an
// OpenAI-compatible /v1/chat/completions endpoint (spec.md §6).
type HTTPInferenceClient struct {
	cfg  Config
	http *http.Client

	breaker *CircuitBreaker
	limiter *Limiter

	mu    sync.Mutex
	state ConnectionState

	statsMu sync.Mutex
	stats   Stats
}

// NewHTTPInferenceClient builds an HTTP-backed client for one service
// endpoint.
func NewHTTPInferenceClient(cfg Config) *HTTPInferenceClient {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 1800 * time.Second
	}
	return &HTTPInferenceClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: timeout},
		breaker: NewCircuitBreaker(orDefault(cfg.CircuitBreakerFailureThreshold, 5), orDefaultDuration(cfg.CircuitBreakerRecoveryTimeout, 30*time.Second)),
		limiter: NewLimiter(orDefault(cfg.MaxConcurrentRequests, 10), orDefault(cfg.RequestsPerMinute, 120)),
		state:   StateNotReady,
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
func orDefaultDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

// Connect implements the double-checked, single-flight connection state
// machine from spec.md §4.6 / SPEC_FULL item 5: checked before AND
// after acquiring the lock.
func (c *HTTPInferenceClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateReady {
		c.mu.Unlock()
		return nil
	}
	if c.state == StateConnecting {
		c.mu.Unlock()
		return xerrors.NewModelNotLoadedError("connection already in progress", nil)
	}
	c.state = StateConnecting
	c.mu.Unlock()

	ready, err := c.healthCheck(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateReady {
		return nil
	}
	if err != nil || !ready {
		c.state = StateNotReady
		if err == nil {
			err = fmt.Errorf("health check failed")
		}
		return xerrors.NewModelNotLoadedError(err.Error(), nil)
	}
	c.state = StateReady
	return nil
}

func (c *HTTPInferenceClient) healthCheck(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/models", nil)
	if err != nil {
		return false, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}

// IsReady reports the current connection state.
func (c *HTTPInferenceClient) IsReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateReady
}

// Stats returns a snapshot of accumulated client statistics.
func (c *HTTPInferenceClient) Stats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

// Close transitions CLOSING → CLOSED.
func (c *HTTPInferenceClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateClosing
	c.state = StateClosed
	return nil
}

// GenerateChatCompletion enforces reproducibility defaults, token
// budgeting, rate limiting, retries and the circuit breaker, per
// spec.md §4.6.
func (c *HTTPInferenceClient) GenerateChatCompletion(ctx context.Context, req Request) (*Response, error) {
	if !c.IsReady() {
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
	}

	if req.Seed == 0 {
		req.Seed = c.cfg.Seed
	}
	req.Model = c.cfg.Model

	if c.cfg.TokenEstimator != nil {
		promptText := flattenMessages(req.Messages)
		_, allowed, err := c.cfg.TokenEstimator.EstimatePromptTokens(promptText, req.MaxTokens)
		if err != nil {
			c.statsMu.Lock()
			c.stats.ContextOverflows++
			c.statsMu.Unlock()
			return nil, err
		}
		req.MaxTokens = allowed
	}

	if c.cfg.EnableGPUMonitoring && c.cfg.GPUMonitor != nil {
		if err := c.cfg.GPUMonitor.ValidateOrRaise(ctx, 1.0); err != nil {
			if c.cfg.Logger != nil {
				c.cfg.Logger.Warn("proceeding despite GPU memory pressure", zap.Error(err))
			}
		}
	}

	release, err := c.limiter.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	return c.callWithRetries(ctx, req)
}

func (c *HTTPInferenceClient) callWithRetries(ctx context.Context, req Request) (*Response, error) {
	maxRetries := orDefault(c.cfg.MaxRetries, 3)
	backoffFactor := c.cfg.BackoffFactor
	if backoffFactor <= 0 {
		backoffFactor = 2.0
	}
	backoffMax := c.cfg.BackoffMaxSecs
	if backoffMax <= 0 {
		backoffMax = 30.0
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		allowed, berr := c.breaker.Allow()
		if !allowed {
			return nil, berr
		}

		resp, err := c.doRequest(ctx, req)
		if err == nil {
			c.breaker.RecordSuccess()
			c.statsMu.Lock()
			c.stats.RequestsProcessed++
			c.stats.SuccessfulGenerations++
			c.stats.TotalTokensGenerated += resp.Usage.TotalTokens
			c.statsMu.Unlock()
			return resp, nil
		}

		c.statsMu.Lock()
		c.stats.ErrorsEncountered++
		c.statsMu.Unlock()

		transient, ok := err.(*xerrors.TransientBackendError)
		if !ok {
			c.breaker.RecordFailure()
			return nil, err
		}
		c.breaker.RecordFailure()
		lastErr = transient

		if attempt == maxRetries {
			break
		}
		delaySecs := math.Min(math.Pow(backoffFactor, float64(attempt)), backoffMax)
		select {
		case <-ctx.Done():
			return nil, xerrors.NewCancelledError("cancelled during retry backoff")
		case <-time.After(time.Duration(delaySecs * float64(time.Second))):
		}
	}
	return nil, xerrors.NewFatalBackendError("retries exhausted: "+lastErr.Error(), 0)
}

func (c *HTTPInferenceClient) doRequest(ctx context.Context, req Request) (*Response, error) {
	body, err := xjson.Marshal(req)
	if err != nil {
		return nil, xerrors.NewFatalBackendError("failed to encode request: "+err.Error(), 0)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, xerrors.NewFatalBackendError("failed to build request: "+err.Error(), 0)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, xerrors.NewCancelledError("request cancelled")
		}
		return nil, xerrors.NewTransientBackendError("connection error: "+err.Error(), 1, orDefault(c.cfg.MaxRetries, 3), false, false)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode >= 500:
		return nil, xerrors.NewTransientBackendError(fmt.Sprintf("backend returned %d", resp.StatusCode), 1, orDefault(c.cfg.MaxRetries, 3), false, true)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, xerrors.NewTransientBackendError(fmt.Sprintf("backend returned %d", resp.StatusCode), 1, orDefault(c.cfg.MaxRetries, 3), false, false)
	case resp.StatusCode >= 400:
		return nil, xerrors.NewFatalBackendError(fmt.Sprintf("backend returned %d: %s", resp.StatusCode, string(data)), resp.StatusCode)
	}

	var out Response
	if err := xjson.Unmarshal(data, &out); err != nil {
		return nil, xerrors.NewFatalBackendError("invalid JSON from backend: "+err.Error(), resp.StatusCode)
	}
	if len(out.Choices) == 0 {
		return nil, xerrors.NewFatalBackendError("empty choices in backend response", resp.StatusCode)
	}
	out.APIType = "http"
	return &out, nil
}

// GenerateBatch is sequential (no native HTTP batching), mirroring
// HTTPVLLMClient.generate_batch in the Python original.
func (c *HTTPInferenceClient) GenerateBatch(ctx context.Context, reqs []Request) ([]*Response, error) {
	out := make([]*Response, 0, len(reqs))
	for _, req := range reqs {
		resp, err := c.GenerateChatCompletion(ctx, req)
		if err != nil {
			return out, err
		}
		out = append(out, resp)
	}
	return out, nil
}

func flattenMessages(msgs []Message) string {
	var buf bytes.Buffer
	for _, m := range msgs {
		buf.WriteString(m.Role)
		buf.WriteString(": ")
		buf.WriteString(m.Content)
		buf.WriteString("\n")
	}
	return buf.String()
}
