// Package health keeps in-memory tool call statistics for the /health
// endpoints.
package health

import (
	"sync"
	"time"

	"filmscout/internal/services"
)

const (
	maxErrors    = 100
	recentErrors = 10
)

// ErrorEntry is one recorded failure.
type ErrorEntry struct {
	Type      services.ErrorKind `json:"type"`
	Message   string             `json:"message"`
	Timestamp time.Time          `json:"timestamp"`
}

// ToolStats are the running counters kept per tool.
type ToolStats struct {
	Count        int64         `json:"count"`
	TotalLatency time.Duration `json:"total_latency_ns"`
	SuccessCount int64         `json:"success_count"`
	ErrorCount   int64         `json:"error_count"`
}

// ToolSummary is the /health view of one tool.
type ToolSummary struct {
	Count             int64   `json:"count"`
	AvgLatencySeconds float64 `json:"avg_latency"`
	SuccessRate       float64 `json:"success_rate"`
}

// Snapshot is the /health response body.
type Snapshot struct {
	Status        string                 `json:"status"`
	UptimeSeconds float64                `json:"uptime"`
	ToolCalls     map[string]ToolSummary `json:"tool_calls"`
	ErrorCount    int                    `json:"error_count"`
	RecentErrors  []ErrorEntry           `json:"recent_errors"`
}

// Raw is the /health/metrics response body.
type Raw struct {
	StartTime time.Time            `json:"start_time"`
	ToolCalls map[string]ToolStats `json:"tool_calls"`
	Errors    []ErrorEntry         `json:"errors"`
}

// Recorder is safe for concurrent use.
type Recorder struct {
	now   func() time.Time
	start time.Time

	mu     sync.Mutex
	tools  map[string]*ToolStats
	errors []ErrorEntry
}

// NewRecorder starts the uptime clock now.
func NewRecorder() *Recorder {
	return newRecorder(time.Now)
}

func newRecorder(now func() time.Time) *Recorder {
	return &Recorder{
		now:   now,
		start: now(),
		tools: make(map[string]*ToolStats),
	}
}

// RecordToolCall adds one call outcome to the tool's counters.
func (r *Recorder) RecordToolCall(tool string, latency time.Duration, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats, ok := r.tools[tool]
	if !ok {
		stats = &ToolStats{}
		r.tools[tool] = stats
	}
	stats.Count++
	stats.TotalLatency += latency
	if success {
		stats.SuccessCount++
	} else {
		stats.ErrorCount++
	}
}

// RecordError appends a failure, keeping only the most recent hundred.
func (r *Recorder) RecordError(kind services.ErrorKind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, ErrorEntry{Type: kind, Message: message, Timestamp: r.now().UTC()})
	if overflow := len(r.errors) - maxErrors; overflow > 0 {
		r.errors = append(r.errors[:0:0], r.errors[overflow:]...)
	}
}

// Snapshot summarizes the counters for /health.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	summaries := make(map[string]ToolSummary, len(r.tools))
	for name, stats := range r.tools {
		summary := ToolSummary{Count: stats.Count}
		if stats.Count > 0 {
			summary.AvgLatencySeconds = stats.TotalLatency.Seconds() / float64(stats.Count)
			summary.SuccessRate = float64(stats.SuccessCount) / float64(stats.Count)
		}
		summaries[name] = summary
	}

	tail := r.errors
	if len(tail) > recentErrors {
		tail = tail[len(tail)-recentErrors:]
	}
	return Snapshot{
		Status:        "healthy",
		UptimeSeconds: r.now().Sub(r.start).Seconds(),
		ToolCalls:     summaries,
		ErrorCount:    len(r.errors),
		RecentErrors:  append([]ErrorEntry{}, tail...),
	}
}

// Raw returns copies of every counter and retained error.
func (r *Recorder) Raw() Raw {
	r.mu.Lock()
	defer r.mu.Unlock()
	tools := make(map[string]ToolStats, len(r.tools))
	for name, stats := range r.tools {
		tools[name] = *stats
	}
	return Raw{
		StartTime: r.start.UTC(),
		ToolCalls: tools,
		Errors:    append([]ErrorEntry{}, r.errors...),
	}
}
