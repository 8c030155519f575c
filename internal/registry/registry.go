package registry

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/dshills/capmatch-mcp/internal/vectorindex"
	"github.com/dshills/capmatch-mcp/pkg/types"
)

// Metric names used for per-metric significance thresholds.
const (
	MetricAccuracy     = "accuracy"
	MetricLatencyMs    = "latency_ms"
	MetricEfficiency   = "efficiency"
	MetricSatisfaction = "satisfaction"
)

// Default merge and significance parameters.
const (
	DefaultEWMAAlpha         = 0.3
	DefaultSignificanceDelta = 0.15
	DefaultLatencyDeltaMs    = 250.0
)

// Invalidator receives change notifications for cached module ids.
// The result cache implements it.
type Invalidator interface {
	InvalidateModule(id string)
}

// Config tunes the metric merge policy and significance thresholds.
type Config struct {
	// EWMAAlpha is the exponential-moving-average weight applied to an
	// incoming sample when a prior value exists (default 0.3).
	EWMAAlpha float64

	// SignificanceDeltas maps metric name to the minimum absolute
	// difference between an incoming sample and the stored value that
	// counts as significant. Metrics without an entry use
	// DefaultSignificanceDelta (latency uses DefaultLatencyDeltaMs).
	SignificanceDeltas map[string]float64
}

func (c *Config) setDefaults() {
	if c.EWMAAlpha <= 0 || c.EWMAAlpha > 1 {
		c.EWMAAlpha = DefaultEWMAAlpha
	}
	if c.SignificanceDeltas == nil {
		c.SignificanceDeltas = map[string]float64{}
	}
	defaults := map[string]float64{
		MetricAccuracy:     DefaultSignificanceDelta,
		MetricLatencyMs:    DefaultLatencyDeltaMs,
		MetricEfficiency:   DefaultSignificanceDelta,
		MetricSatisfaction: DefaultSignificanceDelta,
	}
	for name, d := range defaults {
		if _, ok := c.SignificanceDeltas[name]; !ok {
			c.SignificanceDeltas[name] = d
		}
	}
}

// Registry owns the canonical module records and keeps the vector index
// as an always-consistent derived structure: every mutation pairs its
// record change with the matching index change under one mutex, so a
// reader can never observe an index entry without a record or vice
// versa.
//
// Metric merge policy: per-task-type exponential moving average with
// fixed alpha (new = old + alpha*(sample-old)); a task type measured
// for the first time takes the sample value directly. Significance
// compares the incoming sample against the stored value before
// merging, so a single large swing is significant even though the
// merged value moves by less.
type Registry struct {
	mu      sync.RWMutex
	cfg     Config
	index   vectorindex.Index
	modules map[string]*types.CapabilityModule

	subMu       sync.Mutex
	subscribers []Invalidator
}

// New creates a registry deriving into the given index.
func New(index vectorindex.Index, cfg Config) *Registry {
	cfg.setDefaults()
	return &Registry{
		cfg:     cfg,
		index:   index,
		modules: make(map[string]*types.CapabilityModule),
	}
}

// Subscribe registers an invalidator notified on removal and on
// significant performance updates.
func (r *Registry) Subscribe(inv Invalidator) {
	r.subMu.Lock()
	r.subscribers = append(r.subscribers, inv)
	r.subMu.Unlock()
}

// Add registers a new module. It fails with types.ErrAlreadyExists for
// a duplicate id and with types.ErrDimensionMismatch when the embedding
// does not fit the index. No partial state survives a failure.
func (r *Registry) Add(mod *types.CapabilityModule) error {
	if err := mod.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.modules[mod.ID]; ok {
		return fmt.Errorf("%w: %s", types.ErrAlreadyExists, mod.ID)
	}

	// Index first: it is the only mutation that can fail, so a failure
	// here leaves the registry untouched.
	if err := r.index.Insert(mod.ID, mod.Embedding); err != nil {
		return err
	}

	stored := mod.Clone()
	if stored.LastUpdated.IsZero() {
		stored.LastUpdated = time.Now()
	}
	r.modules[mod.ID] = stored
	return nil
}

// UpdatePerformance merges a metric sample into the module's history,
// bumps usage, and refreshes LastUpdated. It reports whether the sample
// was significant; significant updates notify subscribers so cached
// results naming the module are dropped.
func (r *Registry) UpdatePerformance(id string, sample types.MetricSample) (bool, error) {
	if sample.TaskType == "" {
		return false, fmt.Errorf("%w: sample task type is required", types.ErrValidation)
	}

	r.mu.Lock()
	mod, ok := r.modules[id]
	if !ok {
		r.mu.Unlock()
		return false, fmt.Errorf("%w: %s", types.ErrNotFound, id)
	}

	significant := r.mergeSample(mod, sample)

	mod.UsageCount++
	if sample.MeasuredAt.IsZero() {
		mod.LastUpdated = time.Now()
	} else {
		mod.LastUpdated = sample.MeasuredAt
	}
	mod.Performance.LastMeasurement = mod.LastUpdated
	r.mu.Unlock()

	if significant {
		r.notify(id)
	}
	return significant, nil
}

// Remove deletes the record and its index entry in the same critical
// section and notifies subscribers. Removing an unknown id reports
// false without error.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	_, ok := r.modules[id]
	if ok {
		delete(r.modules, id)
		r.index.Remove(id)
	}
	r.mu.Unlock()

	if ok {
		r.notify(id)
	}
	return ok
}

// Get returns a deep copy of the module record.
func (r *Registry) Get(id string) (*types.CapabilityModule, error) {
	r.mu.RLock()
	mod, ok := r.modules[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrNotFound, id)
	}
	return mod.Clone(), nil
}

// GetMany returns deep copies for the ids that exist, preserving input
// order and silently skipping unknown ids.
func (r *Registry) GetMany(ids []string) []*types.CapabilityModule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*types.CapabilityModule, 0, len(ids))
	for _, id := range ids {
		if mod, ok := r.modules[id]; ok {
			out = append(out, mod.Clone())
		}
	}
	return out
}

// List returns deep copies of every record, in no particular order.
func (r *Registry) List() []*types.CapabilityModule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*types.CapabilityModule, 0, len(r.modules))
	for _, mod := range r.modules {
		out = append(out, mod.Clone())
	}
	return out
}

// Len returns the record count.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.modules)
}

// mergeSample folds the sample into the module's metrics and reports
// significance. Caller holds the write lock.
func (r *Registry) mergeSample(mod *types.CapabilityModule, s types.MetricSample) bool {
	p := &mod.Performance
	if p.Accuracy == nil {
		p.Accuracy = map[string]float64{}
	}
	if p.LatencyMs == nil {
		p.LatencyMs = map[string]float64{}
	}
	if p.Efficiency == nil {
		p.Efficiency = map[string]float64{}
	}
	if p.Satisfaction == nil {
		p.Satisfaction = map[string]float64{}
	}

	significant := false
	significant = r.mergeMetric(p.Accuracy, s.TaskType, s.Accuracy, MetricAccuracy) || significant
	significant = r.mergeMetric(p.LatencyMs, s.TaskType, s.LatencyMs, MetricLatencyMs) || significant
	significant = r.mergeMetric(p.Efficiency, s.TaskType, s.Efficiency, MetricEfficiency) || significant
	significant = r.mergeMetric(p.Satisfaction, s.TaskType, s.Satisfaction, MetricSatisfaction) || significant

	if s.Won {
		p.WinCount++
	}
	if s.CollaborationScore != nil {
		p.CollaborationScore = types.Clamp01(*s.CollaborationScore)
	}
	if s.InnovationScore != nil {
		p.InnovationScore = types.Clamp01(*s.InnovationScore)
	}
	return significant
}

// mergeMetric applies the EWMA for one metric value and reports whether
// the raw sample moved further than the metric's delta threshold. A
// first measurement for a task type is compared against zero.
func (r *Registry) mergeMetric(values map[string]float64, taskType string, sample float64, metric string) bool {
	if sample == 0 {
		return false // nothing measured for this metric
	}

	old, existed := values[taskType]
	if existed {
		values[taskType] = old + r.cfg.EWMAAlpha*(sample-old)
	} else {
		values[taskType] = sample
	}

	return math.Abs(sample-old) > r.cfg.SignificanceDeltas[metric]
}

func (r *Registry) notify(id string) {
	r.subMu.Lock()
	subs := append([]Invalidator(nil), r.subscribers...)
	r.subMu.Unlock()

	for _, inv := range subs {
		inv.InvalidateModule(id)
	}
}
