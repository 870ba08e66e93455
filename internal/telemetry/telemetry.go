package telemetry

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/projectflow-ai/projectflow/internal/stage"
	"github.com/projectflow-ai/projectflow/internal/state"
)

// Telemetry tracks generation volume, latency, token usage and estimated cost
// per stage. Counters are exported through prometheus; the aggregate snapshot
// is served on the stats endpoint.
type Telemetry struct {
	logger *log.Logger

	pricePer1K float64 // USD per 1000 tokens, prompt and completion alike

	requests *prometheus.CounterVec
	failures *prometheus.CounterVec
	tokens   *prometheus.CounterVec
	latency  *prometheus.HistogramVec

	mu    sync.RWMutex
	stats map[string]*StageStats
}

// StageStats is the aggregate view for one stage name.
type StageStats struct {
	Requests   int64         `json:"requests"`
	Failures   int64         `json:"failures"`
	Tokens     int64         `json:"tokens"`
	CostUSD    float64       `json:"cost_usd"`
	TotalTime  time.Duration `json:"-"`
	AvgLatency time.Duration `json:"avg_latency_ns"`
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// the server and a fresh registry in tests.
func New(reg prometheus.Registerer, pricePer1K float64) *Telemetry {
	t := &Telemetry{
		logger:     log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags),
		pricePer1K: pricePer1K,
		stats:      map[string]*StageStats{},
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "projectflow_generation_requests_total",
			Help: "Text generations attempted, by stage.",
		}, []string{"stage"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "projectflow_generation_failures_total",
			Help: "Text generations that returned an error, by stage.",
		}, []string{"stage"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "projectflow_generation_tokens_total",
			Help: "Estimated prompt plus completion tokens, by stage.",
		}, []string{"stage"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "projectflow_generation_seconds",
			Help:    "Generation latency, by stage.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
	}
	reg.MustRegister(t.requests, t.failures, t.tokens, t.latency)
	return t
}

// EstimateTokens approximates token count from text length. Good enough for
// cost accounting; exact counts would need the provider's tokenizer.
func EstimateTokens(text string) int64 {
	return int64(len(text)/4) + 1
}

// Record books one generation outcome.
func (t *Telemetry) Record(stageName string, prompt, output string, took time.Duration, err error) {
	t.requests.WithLabelValues(stageName).Inc()
	t.latency.WithLabelValues(stageName).Observe(took.Seconds())

	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.stats[stageName]
	if !ok {
		s = &StageStats{}
		t.stats[stageName] = s
	}
	s.Requests++
	s.TotalTime += took
	s.AvgLatency = time.Duration(int64(s.TotalTime) / s.Requests)

	if err != nil {
		t.failures.WithLabelValues(stageName).Inc()
		s.Failures++
		return
	}
	n := EstimateTokens(prompt) + EstimateTokens(output)
	t.tokens.WithLabelValues(stageName).Add(float64(n))
	s.Tokens += n
	s.CostUSD += float64(n) / 1000 * t.pricePer1K
}

// Snapshot returns a copy of the per-stage aggregates.
func (t *Telemetry) Snapshot() map[string]StageStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]StageStats, len(t.stats))
	for name, s := range t.stats {
		out[name] = *s
	}
	return out
}

// WrapGenerator instruments a generator under a stage name.
func (t *Telemetry) WrapGenerator(gen stage.Generator, stageName string) stage.Generator {
	return stage.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		start := time.Now()
		out, err := gen.Generate(ctx, prompt)
		t.Record(stageName, prompt, out, time.Since(start), err)
		return out, err
	})
}

// WrapStage instruments every generation a stage makes under its own name.
func (t *Telemetry) WrapStage(s stage.Stage) stage.Stage {
	return instrumentedStage{inner: s, tel: t}
}

type instrumentedStage struct {
	inner stage.Stage
	tel   *Telemetry
}

func (s instrumentedStage) Name() string { return s.inner.Name() }

func (s instrumentedStage) Run(ctx context.Context, rec *state.Record, gen stage.Generator) (state.Update, error) {
	return s.inner.Run(ctx, rec, s.tel.WrapGenerator(gen, s.inner.Name()))
}
