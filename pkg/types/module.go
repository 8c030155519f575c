package types

import (
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
)

// CapabilityModule is a reusable, independently scoreable unit of skill.
// The ID is immutable after registration; the embedding is set once when
// the module enters the vector index.
type CapabilityModule struct {
	ID      string
	Name    string
	Version string // semver, validated on registration

	// Embedding is the module's capability vector. Its length must match
	// the index dimension for every indexed module.
	Embedding []float32

	Specialization  string
	Proficiency     float64 // [0, 1]
	Performance     PerformanceMetrics
	CommunityRating float64 // [1, 5]
	UsageCount      int
	LastUpdated     time.Time
	HostLocation    string

	CompatibilityTags []string
	Provenance        map[string]string
}

// PerformanceMetrics holds a module's measured performance history.
// The per-task-type maps are keyed by task type (e.g. "summarize").
type PerformanceMetrics struct {
	Accuracy     map[string]float64
	LatencyMs    map[string]float64
	Efficiency   map[string]float64
	Satisfaction map[string]float64

	WinCount           int
	CollaborationScore float64 // [0, 1]
	InnovationScore    float64 // [0, 1]
	LastMeasurement    time.Time
}

// MetricSample is one performance measurement for one task type, merged
// into a module's metrics via the registry.
type MetricSample struct {
	TaskType     string
	Accuracy     float64
	LatencyMs    float64
	Efficiency   float64
	Satisfaction float64
	Won          bool

	// Optional; nil leaves the current value untouched.
	CollaborationScore *float64
	InnovationScore    *float64

	MeasuredAt time.Time
}

// Validate checks module fields against their documented ranges.
func (m *CapabilityModule) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("%w: module id is required", ErrValidation)
	}
	if m.Name == "" {
		return fmt.Errorf("%w: module name is required", ErrValidation)
	}
	if m.Version != "" {
		if _, err := semver.NewVersion(m.Version); err != nil {
			return fmt.Errorf("%w: version %q is not valid semver", ErrValidation, m.Version)
		}
	}
	if m.Proficiency < 0 || m.Proficiency > 1 {
		return fmt.Errorf("%w: proficiency must be in [0,1]", ErrValidation)
	}
	if m.CommunityRating != 0 && (m.CommunityRating < 1 || m.CommunityRating > 5) {
		return fmt.Errorf("%w: community rating must be in [1,5]", ErrValidation)
	}
	if m.UsageCount < 0 {
		return fmt.Errorf("%w: usage count must be >= 0", ErrValidation)
	}
	return nil
}

// NewerThan reports whether m's version is strictly newer than other's.
// Modules without a version are treated as 0.0.0.
func (m *CapabilityModule) NewerThan(other *CapabilityModule) bool {
	mv := parseVersionOrZero(m.Version)
	ov := parseVersionOrZero(other.Version)
	return mv.GreaterThan(ov)
}

func parseVersionOrZero(raw string) *semver.Version {
	if raw == "" {
		return semver.New(0, 0, 0, "", "")
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return semver.New(0, 0, 0, "", "")
	}
	return v
}

// Clone returns a deep copy. The registry hands out clones so callers
// can never mutate canonical records in place.
func (m *CapabilityModule) Clone() *CapabilityModule {
	if m == nil {
		return nil
	}
	dst := *m
	dst.Embedding = append([]float32(nil), m.Embedding...)
	dst.CompatibilityTags = append([]string(nil), m.CompatibilityTags...)
	if m.Provenance != nil {
		dst.Provenance = make(map[string]string, len(m.Provenance))
		for k, v := range m.Provenance {
			dst.Provenance[k] = v
		}
	}
	dst.Performance = m.Performance.Clone()
	return &dst
}

// Clone returns a deep copy of the metrics.
func (p PerformanceMetrics) Clone() PerformanceMetrics {
	dst := p
	dst.Accuracy = cloneFloatMap(p.Accuracy)
	dst.LatencyMs = cloneFloatMap(p.LatencyMs)
	dst.Efficiency = cloneFloatMap(p.Efficiency)
	dst.Satisfaction = cloneFloatMap(p.Satisfaction)
	return dst
}

// MeanAccuracy returns the mean per-task-type accuracy, or 0 when no
// accuracy has been measured.
func (p PerformanceMetrics) MeanAccuracy() float64 {
	return meanOf(p.Accuracy)
}

// MeanLatencyMs returns the mean measured latency across task types, or
// 0 when no latency has been measured.
func (p PerformanceMetrics) MeanLatencyMs() float64 {
	return meanOf(p.LatencyMs)
}

func meanOf(values map[string]float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func cloneFloatMap(src map[string]float64) map[string]float64 {
	if src == nil {
		return nil
	}
	dst := make(map[string]float64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// Clamp01 clamps v to [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
