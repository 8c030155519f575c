package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validModule() *CapabilityModule {
	return &CapabilityModule{
		ID:              "mod-1",
		Name:            "Summarizer",
		Version:         "1.0.0",
		Embedding:       []float32{1, 0, 0},
		Specialization:  "nlp",
		Proficiency:     0.8,
		CommunityRating: 4.2,
		Performance: PerformanceMetrics{
			Accuracy:  map[string]float64{"summarize": 0.9, "extract": 0.7},
			LatencyMs: map[string]float64{"summarize": 120},
		},
		CompatibilityTags: []string{"text", "english"},
	}
}

func TestModuleValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CapabilityModule)
		wantErr bool
	}{
		{"valid", func(m *CapabilityModule) {}, false},
		{"missing id", func(m *CapabilityModule) { m.ID = "" }, true},
		{"missing name", func(m *CapabilityModule) { m.Name = "" }, true},
		{"bad semver", func(m *CapabilityModule) { m.Version = "not-a-version" }, true},
		{"no version ok", func(m *CapabilityModule) { m.Version = "" }, false},
		{"proficiency above range", func(m *CapabilityModule) { m.Proficiency = 1.5 }, true},
		{"rating below range", func(m *CapabilityModule) { m.CommunityRating = 0.5 }, true},
		{"unrated ok", func(m *CapabilityModule) { m.CommunityRating = 0 }, false},
		{"negative usage", func(m *CapabilityModule) { m.UsageCount = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validModule()
			tt.mutate(m)
			err := m.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrValidation)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestModuleCloneIsDeep(t *testing.T) {
	m := validModule()
	c := m.Clone()

	c.Embedding[0] = 99
	c.CompatibilityTags[0] = "changed"
	c.Performance.Accuracy["summarize"] = 0

	assert.Equal(t, float32(1), m.Embedding[0])
	assert.Equal(t, "text", m.CompatibilityTags[0])
	assert.Equal(t, 0.9, m.Performance.Accuracy["summarize"])
}

func TestNewerThan(t *testing.T) {
	a := &CapabilityModule{Version: "2.1.0"}
	b := &CapabilityModule{Version: "2.0.9"}
	unversioned := &CapabilityModule{}

	assert.True(t, a.NewerThan(b))
	assert.False(t, b.NewerThan(a))
	assert.True(t, a.NewerThan(unversioned))
	assert.False(t, unversioned.NewerThan(unversioned))
}

func TestMetricMeans(t *testing.T) {
	m := validModule()
	assert.InDelta(t, 0.8, m.Performance.MeanAccuracy(), 1e-9)
	assert.InDelta(t, 120, m.Performance.MeanLatencyMs(), 1e-9)

	empty := PerformanceMetrics{}
	assert.Zero(t, empty.MeanAccuracy())
	assert.Zero(t, empty.MeanLatencyMs())
}

func TestQueryValidate(t *testing.T) {
	base := func() SearchQuery {
		return SearchQuery{
			Requirements: Requirements{PrimarySkills: []string{"summarization"}},
			Constraints:  Constraints{MaxResults: 5},
		}
	}

	q := base()
	require.NoError(t, q.Validate())

	q = base()
	q.Constraints.MaxResults = 0
	require.ErrorIs(t, q.Validate(), ErrValidation)

	q = base()
	q.Requirements.PrimarySkills = nil
	require.ErrorIs(t, q.Validate(), ErrValidation)

	// A pre-computed vector satisfies the non-empty requirement.
	q = base()
	q.Requirements.PrimarySkills = nil
	q.Vector = []float32{1, 0}
	require.NoError(t, q.Validate())

	q = base()
	q.Weights.Recency = -0.1
	require.ErrorIs(t, q.Validate(), ErrValidation)

	q = base()
	q.Requirements.ProficiencyThreshold = 1.2
	require.ErrorIs(t, q.Validate(), ErrValidation)
}
