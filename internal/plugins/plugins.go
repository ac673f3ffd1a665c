// Package plugins holds the built-in analysis stages. Each stage reads only
// its declared dependencies from the run context and returns a typed payload
// the synthesizer and report assembler consume.
package plugins

import (
	"github.com/KaramelBytes/datasight/internal/pipeline"
)

// stage carries the identity fields every plugin shares.
type stage struct {
	id   string
	deps []string
	cat  pipeline.Category
}

func (s stage) ID() string                  { return s.id }
func (s stage) DependsOn() []string         { return s.deps }
func (s stage) Category() pipeline.Category { return s.cat }

// Stage identifiers. Dependency declarations and the insight rules reference
// these, so they are constants rather than inline strings.
const (
	IDOverview     = "overview"
	IDUnivariate   = "univariate"
	IDQuality      = "quality"
	IDMissing      = "missing"
	IDCorrelations = "correlations"
	IDOutliers     = "outliers"
	IDHypothesis   = "hypothesis"
	IDInteractions = "interactions"
	IDPCA          = "pca"
	IDClustering   = "clustering"
	IDText         = "text"
	IDTimeseries   = "timeseries"
	IDGeospatial   = "geospatial"
	IDTarget       = "target"
)

// DefaultRegistry returns the full stage set in declaration order. Declaration
// order is the deterministic tie-break for plugins that become runnable at the
// same time, so the ordering here is part of the tool's observable behavior.
func DefaultRegistry(opts Options) *pipeline.Registry {
	reg := pipeline.NewRegistry()
	reg.MustRegister(&OverviewPlugin{stage: stage{id: IDOverview, cat: pipeline.Core}})
	reg.MustRegister(&UnivariatePlugin{stage: stage{id: IDUnivariate, deps: []string{IDOverview}, cat: pipeline.Core}})
	reg.MustRegister(&QualityPlugin{stage: stage{id: IDQuality, deps: []string{IDOverview}, cat: pipeline.Core}})
	reg.MustRegister(&MissingPlugin{stage: stage{id: IDMissing, deps: []string{IDOverview}, cat: pipeline.Core}})
	reg.MustRegister(&CorrelationsPlugin{stage: stage{id: IDCorrelations, deps: []string{IDOverview}, cat: pipeline.Core}})
	reg.MustRegister(&OutliersPlugin{stage: stage{id: IDOutliers, deps: []string{IDUnivariate}, cat: pipeline.Advanced}, Threshold: opts.OutlierThreshold})
	reg.MustRegister(&HypothesisPlugin{stage: stage{id: IDHypothesis, deps: []string{IDOverview}, cat: pipeline.Advanced}})
	reg.MustRegister(&InteractionsPlugin{stage: stage{id: IDInteractions, deps: []string{IDCorrelations}, cat: pipeline.Advanced}})
	reg.MustRegister(&PCAPlugin{stage: stage{id: IDPCA, deps: []string{IDOverview}, cat: pipeline.Advanced}})
	reg.MustRegister(&ClusteringPlugin{stage: stage{id: IDClustering, deps: []string{IDPCA}, cat: pipeline.Advanced}})
	reg.MustRegister(&TextPlugin{stage: stage{id: IDText, deps: []string{IDOverview}, cat: pipeline.Advanced}})
	reg.MustRegister(&TimeseriesPlugin{stage: stage{id: IDTimeseries, deps: []string{IDOverview}, cat: pipeline.Advanced}})
	reg.MustRegister(&GeospatialPlugin{stage: stage{id: IDGeospatial, deps: []string{IDOverview}, cat: pipeline.Advanced}})
	reg.MustRegister(&TargetPlugin{stage: stage{
		id:   IDTarget,
		deps: []string{IDOverview, IDUnivariate, IDCorrelations},
		cat:  pipeline.Intelligence,
	}})
	return reg
}

// Options tunes the built-in stages.
type Options struct {
	// OutlierThreshold is the robust |z| cutoff; 0 uses the 3.5 default.
	OutlierThreshold float64
}
