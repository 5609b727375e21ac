// Package loki ships structured log lines to a Grafana Loki push
// endpoint, for deployments where the extraction service's logs need to
// land alongside its Prometheus metrics (internal/metrics) and traces
// (internal/observability/tracing) rather than just stdout.
package loki

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Entry is a single log line destined for one Loki stream.
type Entry struct {
	Timestamp time.Time
	Line      string
	Labels    map[string]string
}

// Batch groups entries pushed in one request. Entries with differing
// label sets are grouped into separate Loki streams automatically.
type Batch struct {
	Entries []Entry
}

// Client is a minimal Loki push-API client.
type Client struct {
	Endpoint     string
	HTTP         *http.Client
	StaticLabels map[string]string
}

// New builds a Client. Static labels (e.g. {"service": "extraction-server"})
// are merged into every pushed entry.
func New(endpoint string, static map[string]string) *Client {
	return &Client{Endpoint: endpoint, HTTP: &http.Client{Timeout: 5 * time.Second}, StaticLabels: static}
}

// Push encodes and gzip-compresses batch into Loki's
// /loki/api/v1/push stream schema and sends it.
func (c *Client) Push(batch Batch) error {
	grouped := map[string][][2]string{}
	for _, e := range batch.Entries {
		labels := make(map[string]string, len(c.StaticLabels)+len(e.Labels))
		for k, v := range c.StaticLabels {
			labels[k] = v
		}
		for k, v := range e.Labels {
			labels[k] = v
		}
		key := labelString(labels)
		grouped[key] = append(grouped[key], [2]string{strconv.FormatInt(e.Timestamp.UTC().UnixNano(), 10), e.Line})
	}

	streams := make([]map[string]any, 0, len(grouped))
	for l, values := range grouped {
		streams = append(streams, map[string]any{"stream": l, "values": values})
	}

	buf := &bytes.Buffer{}
	gz := gzip.NewWriter(buf)
	if err := json.NewEncoder(gz).Encode(map[string]any{"streams": streams}); err != nil {
		return fmt.Errorf("loki: encode: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("loki: gzip: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.Endpoint+"/loki/api/v1/push", buf)
	if err != nil {
		return fmt.Errorf("loki: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("loki: push: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("loki: push returned status %d", resp.StatusCode)
	}
	return nil
}

// labelString renders a label set as Loki's {k="v",...} stream selector.
func labelString(labels map[string]string) string {
	s := "{"
	first := true
	for k, v := range labels {
		if !first {
			s += ","
		}
		first = false
		s += k + `="` + v + `"`
	}
	return s + "}"
}
