package pipeline

import (
	"github.com/cockroachdb/errors"

	"github.com/KaramelBytes/datasight/internal/dataset"
)

// AnalysisContext is the run-scoped store of stage results. Keys are written
// exactly once, in execution order, by the orchestrator; downstream consumers
// treat the context as read-only.
type AnalysisContext struct {
	meta    dataset.Meta
	results map[string]*StageResult
	order   []string
}

// NewContext creates an empty context for one run over the given dataset.
func NewContext(meta dataset.Meta) *AnalysisContext {
	return &AnalysisContext{
		meta:    meta,
		results: make(map[string]*StageResult),
	}
}

// Meta returns the dataset-level metadata captured at run start.
func (c *AnalysisContext) Meta() dataset.Meta { return c.meta }

// put records a stage result. Re-assigning a key is a programming error, not a
// recoverable condition: the append-only invariant is what lets later stages
// observe a stable view of earlier ones.
func (c *AnalysisContext) put(r *StageResult) error {
	if _, exists := c.results[r.PluginID]; exists {
		return errors.Wrapf(ErrDuplicateResult, "plugin %q", r.PluginID)
	}
	c.results[r.PluginID] = r
	c.order = append(c.order, r.PluginID)
	return nil
}

// Result returns the stage result for a plugin, if one has been recorded.
func (c *AnalysisContext) Result(pluginID string) (*StageResult, bool) {
	r, ok := c.results[pluginID]
	return r, ok
}

// Payload returns the payload for a plugin that completed Ok. Skipped and
// failed stages contribute no evidence.
func (c *AnalysisContext) Payload(pluginID string) (any, bool) {
	r, ok := c.results[pluginID]
	if !ok || r.Status != StatusOk {
		return nil, false
	}
	return r.Payload, true
}

// Results returns all stage results in execution order.
func (c *AnalysisContext) Results() []*StageResult {
	out := make([]*StageResult, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.results[id])
	}
	return out
}

// View restricts context reads to a plugin's declared dependencies. A plugin
// peeking at an undeclared key sees no evidence, the same as a missing stage.
type View struct {
	ctx     *AnalysisContext
	allowed map[string]bool
}

func (c *AnalysisContext) view(deps []string) *View {
	allowed := make(map[string]bool, len(deps))
	for _, d := range deps {
		allowed[d] = true
	}
	return &View{ctx: c, allowed: allowed}
}

// Meta returns the dataset-level metadata.
func (v *View) Meta() dataset.Meta { return v.ctx.meta }

// Payload returns the Ok payload of a declared dependency.
func (v *View) Payload(pluginID string) (any, bool) {
	if !v.allowed[pluginID] {
		return nil, false
	}
	return v.ctx.Payload(pluginID)
}

// Result returns the stage result of a declared dependency.
func (v *View) Result(pluginID string) (*StageResult, bool) {
	if !v.allowed[pluginID] {
		return nil, false
	}
	return v.ctx.Result(pluginID)
}
