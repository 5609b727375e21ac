// Package gpumonitor implements the InferenceClient's GPU-awareness
// facility (spec.md §4.6): samples GPU memory via nvidia-smi, alerts
// (rate-limited) on pressure, and degrades cleanly when the tool is
// absent.
//
// Ported from original_source/src/vllm_client/gpu_monitor.py (exact CSV
// query and parsing contract), using the teacher's
// internal/cuda.RunExternalCudaWorker idiom (os/exec.CommandContext with
// a bounded timeout) as the Go vehicle for subprocess invocation.
package gpumonitor

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"legal-extraction-engine/internal/xerrors"
)

// Stats mirrors gpu_monitor.py's GPUStats dataclass.
type Stats struct {
	GPUID              int
	MemoryUsedMB       float64
	MemoryTotalMB      float64
	MemoryFreeMB       float64
	UtilizationPercent float64
	TemperatureC       *float64
	PowerDrawW         *float64
}

// MemoryUsedGB, MemoryTotalGB, MemoryFreeGB mirror the Python
// properties.
func (s Stats) MemoryUsedGB() float64  { return s.MemoryUsedMB / 1024.0 }
func (s Stats) MemoryTotalGB() float64 { return s.MemoryTotalMB / 1024.0 }
func (s Stats) MemoryFreeGB() float64  { return s.MemoryFreeMB / 1024.0 }

// MemoryUtilizationPercent mirrors the Python property of the same name.
func (s Stats) MemoryUtilizationPercent() float64 {
	if s.MemoryTotalMB == 0 {
		return 0
	}
	return (s.MemoryUsedMB / s.MemoryTotalMB) * 100.0
}

// Monitor samples nvidia-smi on demand. Best-effort: absence of the tool
// is not an error, per spec.md §4.6.
type Monitor struct {
	GPUID           int
	MemoryThreshold float64
	logger          *zap.Logger

	mu            sync.Mutex
	alertCount    int
	lastAlertTime time.Time
}

// New builds a Monitor for the given GPU id and alert threshold
// (fraction, default 0.90 per spec.md §6 gpu_memory_threshold).
func New(gpuID int, memoryThreshold float64, logger *zap.Logger) *Monitor {
	if memoryThreshold <= 0 {
		memoryThreshold = 0.90
	}
	return &Monitor{GPUID: gpuID, MemoryThreshold: memoryThreshold, logger: logger}
}

// GetStats queries nvidia-smi; returns (nil, nil) when the tool is
// unavailable or times out, matching the Python original's best-effort
// semantics.
func (m *Monitor) GetStats(ctx context.Context) (*Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "nvidia-smi",
		"--id="+strconv.Itoa(m.GPUID),
		"--query-gpu=memory.used,memory.total,memory.free,utilization.gpu,temperature.gpu,power.draw",
		"--format=csv,noheader,nounits",
	)
	out, err := cmd.Output()
	if err != nil {
		if m.logger != nil {
			m.logger.Warn("nvidia-smi unavailable, GPU monitoring disabled", zap.Error(err))
		}
		return nil, nil
	}

	stats, perr := parseCSVLine(m.GPUID, string(out))
	if perr != nil {
		if m.logger != nil {
			m.logger.Warn("unexpected nvidia-smi output", zap.String("output", string(out)))
		}
		return nil, nil
	}

	if stats.MemoryUtilizationPercent()/100.0 > m.MemoryThreshold {
		m.alertHighMemory(stats)
	}
	return stats, nil
}

func parseCSVLine(gpuID int, line string) (*Stats, error) {
	values := strings.Split(strings.TrimSpace(line), ", ")
	if len(values) < 4 {
		return nil, xerrors.NewResourceError("malformed nvidia-smi output")
	}
	used, _ := strconv.ParseFloat(strings.TrimSpace(values[0]), 64)
	total, _ := strconv.ParseFloat(strings.TrimSpace(values[1]), 64)
	free, _ := strconv.ParseFloat(strings.TrimSpace(values[2]), 64)
	util, _ := strconv.ParseFloat(strings.TrimSpace(values[3]), 64)

	s := &Stats{GPUID: gpuID, MemoryUsedMB: used, MemoryTotalMB: total, MemoryFreeMB: free, UtilizationPercent: util}
	if len(values) > 4 {
		if t, err := strconv.ParseFloat(strings.TrimSpace(values[4]), 64); err == nil {
			s.TemperatureC = &t
		}
	}
	if len(values) > 5 {
		if p, err := strconv.ParseFloat(strings.TrimSpace(values[5]), 64); err == nil {
			s.PowerDrawW = &p
		}
	}
	return s, nil
}

// alertHighMemory rate-limits to 1 alert per 60s, per gpu_monitor.py.
func (m *Monitor) alertHighMemory(s *Stats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if now.Sub(m.lastAlertTime) < 60*time.Second {
		return
	}
	m.alertCount++
	m.lastAlertTime = now
	if m.logger != nil {
		m.logger.Warn("GPU memory HIGH",
			zap.Int("gpu_id", s.GPUID),
			zap.Float64("utilization_percent", s.MemoryUtilizationPercent()),
			zap.Int("alert_count", m.alertCount),
		)
	}
}

// CheckMemoryAvailable mirrors check_memory_available: unable-to-check
// defaults to "assume available".
func (m *Monitor) CheckMemoryAvailable(ctx context.Context, requiredGB float64) bool {
	stats, _ := m.GetStats(ctx)
	if stats == nil {
		return true
	}
	return stats.MemoryFreeGB() >= requiredGB
}

// ValidateOrRaise mirrors validate_or_raise, raising GPUMemoryError only
// when stats were obtainable and insufficient.
func (m *Monitor) ValidateOrRaise(ctx context.Context, requiredGB float64) error {
	stats, _ := m.GetStats(ctx)
	if stats == nil {
		return nil
	}
	if stats.MemoryFreeGB() < requiredGB {
		return xerrors.NewGPUMemoryError("insufficient GPU memory", stats.MemoryUsedGB(), stats.MemoryTotalGB(), stats.MemoryUtilizationPercent())
	}
	return nil
}
