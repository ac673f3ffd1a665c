// Package report assembles analysis results into a self-contained HTML
// document. The assembler produces per-section payloads; the embedded client
// script renders them lazily, one section at a time.
package report

import (
	"time"

	"github.com/KaramelBytes/datasight/internal/dataset"
	"github.com/KaramelBytes/datasight/internal/decision"
	"github.com/KaramelBytes/datasight/internal/insight"
)

// Section identifiers, in display order.
const (
	SectionOverview        = "overview"
	SectionQuality         = "quality"
	SectionDistributions   = "distributions"
	SectionRelationships   = "relationships"
	SectionSegments        = "segments"
	SectionTrends          = "trends"
	SectionGeography       = "geography"
	SectionDrivers         = "drivers"
	SectionRecommendations = "recommendations"
)

// KPI is one headline figure displayed at the top of a section.
type KPI struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Hint  string `json:"hint,omitempty"`
}

// SectionPayload carries everything a section needs to render: ordered chart
// specs, KPIs, and the findings scoped to it. Immutable after assembly.
type SectionPayload struct {
	ID              string                    `json:"id"`
	Title           string                    `json:"title"`
	Charts          []ChartSpec               `json:"charts"`
	KPIs            []KPI                     `json:"kpis,omitempty"`
	Insights        []insight.Insight         `json:"insights,omitempty"`
	Recommendations []decision.Recommendation `json:"recommendations,omitempty"`
}

// StageSummary is the run ledger shown in the report footer.
type StageSummary struct {
	PluginID string `json:"plugin_id"`
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
}

// Document is the complete report payload embedded as JSON in the HTML page.
type Document struct {
	RunID       string              `json:"run_id"`
	GeneratedAt time.Time           `json:"generated_at"`
	Dataset     dataset.Meta        `json:"dataset"`
	Health      insight.HealthScore `json:"health"`
	Sections    []SectionPayload    `json:"sections"`
	Stages      []StageSummary      `json:"stages"`
}

// Section returns the payload with the given id, if present.
func (d *Document) Section(id string) (*SectionPayload, bool) {
	for i := range d.Sections {
		if d.Sections[i].ID == id {
			return &d.Sections[i], true
		}
	}
	return nil, false
}
