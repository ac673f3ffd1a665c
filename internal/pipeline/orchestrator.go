package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/datasight/internal/dataset"
)

// ReasonUnmetDependency is recorded on stages skipped because a dependency did
// not complete Ok. It distinguishes "couldn't run" from "ran and erred".
const ReasonUnmetDependency = "unmet-dependency"

// Orchestrator resolves plugin dependencies into a valid execution order and
// drives a run, isolating per-plugin failures.
type Orchestrator struct {
	reg *Registry
	log *zap.Logger
}

// NewOrchestrator creates an orchestrator over the given registry.
func NewOrchestrator(reg *Registry, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{reg: reg, log: log}
}

// Run executes every registered plugin against the frame and returns the
// populated context. The only fatal conditions are an invalid dependency
// graph; any failure inside a plugin is recorded and the run continues.
func (o *Orchestrator) Run(ctx context.Context, frame *dataset.Frame) (*AnalysisContext, error) {
	plugins := o.reg.plugins
	if err := o.validate(plugins); err != nil {
		return nil, err
	}
	if _, err := topoOrder(plugins); err != nil {
		return nil, err
	}

	ac := NewContext(frame.Meta())
	for _, phase := range []Category{Core, Advanced, Intelligence} {
		if err := o.runPhase(ctx, ac, frame, plugins, phase); err != nil {
			return nil, err
		}
	}
	return ac, nil
}

// validate checks that every declared dependency exists and does not point
// forward across a phase barrier.
func (o *Orchestrator) validate(plugins []Plugin) error {
	for _, p := range plugins {
		for _, dep := range p.DependsOn() {
			d, ok := o.reg.byID[dep]
			if !ok {
				return errors.Wrapf(ErrUnknownDependency, "plugin %q depends on %q", p.ID(), dep)
			}
			if d.Category() > p.Category() {
				return errors.Wrapf(ErrCyclicDependency,
					"plugin %q (%s) depends on %q in later phase %s",
					p.ID(), p.Category(), dep, d.Category())
			}
		}
	}
	return nil
}

// topoOrder runs Kahn's algorithm over the declared edges. Among plugins with
// no remaining unmet dependency the declaration order is kept, so the result
// is deterministic. A cycle aborts the run before any plugin executes.
func topoOrder(plugins []Plugin) ([]Plugin, error) {
	indegree := make(map[string]int, len(plugins))
	dependents := make(map[string][]string, len(plugins))
	byID := make(map[string]Plugin, len(plugins))
	for _, p := range plugins {
		byID[p.ID()] = p
		indegree[p.ID()] = len(p.DependsOn())
		for _, dep := range p.DependsOn() {
			dependents[dep] = append(dependents[dep], p.ID())
		}
	}

	var order []Plugin
	done := make(map[string]bool, len(plugins))
	for len(order) < len(plugins) {
		progressed := false
		for _, p := range plugins {
			if done[p.ID()] || indegree[p.ID()] != 0 {
				continue
			}
			done[p.ID()] = true
			order = append(order, p)
			for _, dep := range dependents[p.ID()] {
				indegree[dep]--
			}
			progressed = true
		}
		if !progressed {
			var stuck []string
			for _, p := range plugins {
				if !done[p.ID()] {
					stuck = append(stuck, p.ID())
				}
			}
			return nil, errors.Wrapf(ErrCyclicDependency, "unresolvable plugins: %v", stuck)
		}
	}
	return order, nil
}

// runPhase executes one phase to completion. Within the phase, plugins whose
// remaining dependencies are all terminal run concurrently as a wave; waves
// repeat until every plugin in the phase has a stage result.
func (o *Orchestrator) runPhase(ctx context.Context, ac *AnalysisContext, frame *dataset.Frame, plugins []Plugin, phase Category) error {
	var remaining []Plugin
	for _, p := range plugins {
		if p.Category() == phase {
			remaining = append(remaining, p)
		}
	}

	for len(remaining) > 0 {
		var wave, next []Plugin
		for _, p := range remaining {
			if depsTerminal(ac, p) {
				wave = append(wave, p)
			} else {
				next = append(next, p)
			}
		}
		// validate() guarantees same-or-earlier-phase deps only and
		// topoOrder() guarantees acyclicity, so a wave is always found.
		if len(wave) == 0 {
			return errors.Wrapf(ErrCyclicDependency, "phase %s stalled", phase)
		}

		results := make([]*StageResult, len(wave))
		g, gctx := errgroup.WithContext(ctx)
		for i, p := range wave {
			i, p := i, p
			g.Go(func() error {
				results[i] = o.execute(gctx, ac, frame, p)
				return nil
			})
		}
		// Plugin errors never propagate through the group; each goroutine
		// records its own stage result.
		_ = g.Wait()

		// Writes stay single-threaded and in declaration order.
		for _, r := range results {
			if err := ac.put(r); err != nil {
				return err
			}
		}
		remaining = next
	}
	return nil
}

// depsTerminal reports whether every dependency of p has a recorded result.
func depsTerminal(ac *AnalysisContext, p Plugin) bool {
	for _, dep := range p.DependsOn() {
		if _, ok := ac.Result(dep); !ok {
			return false
		}
	}
	return true
}

// execute runs a single plugin with failure isolation. A dependency that did
// not complete Ok skips the plugin without invoking it; a panic or error
// inside the plugin is recorded as Failed and the run continues.
func (o *Orchestrator) execute(ctx context.Context, ac *AnalysisContext, frame *dataset.Frame, p Plugin) (result *StageResult) {
	log := o.log.With(zap.String("plugin", p.ID()), zap.Stringer("phase", p.Category()))

	for _, dep := range p.DependsOn() {
		r, _ := ac.Result(dep)
		if r.Status != StatusOk {
			log.Info("stage skipped", zap.String("reason", ReasonUnmetDependency), zap.String("dependency", dep))
			return &StageResult{
				PluginID: p.ID(),
				Status:   StatusSkipped,
				Reason:   fmt.Sprintf("%s: %s is %s", ReasonUnmetDependency, dep, r.Status),
			}
		}
	}

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("stage panicked", zap.Any("panic", rec))
			result = &StageResult{
				PluginID: p.ID(),
				Status:   StatusFailed,
				Reason:   fmt.Sprintf("panic: %v", rec),
			}
		}
	}()

	payload, err := p.Run(ctx, ac.view(p.DependsOn()), frame)
	elapsed := time.Since(start)
	switch {
	case IsSkip(err):
		log.Info("stage skipped", zap.String("reason", err.Error()), zap.Duration("elapsed", elapsed))
		return &StageResult{PluginID: p.ID(), Status: StatusSkipped, Reason: err.Error()}
	case err != nil:
		log.Warn("stage failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		return &StageResult{PluginID: p.ID(), Status: StatusFailed, Reason: err.Error()}
	default:
		log.Info("stage complete", zap.Duration("elapsed", elapsed))
		return &StageResult{PluginID: p.ID(), Status: StatusOk, Payload: payload}
	}
}
