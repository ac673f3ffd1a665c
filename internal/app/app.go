// Package app wires the full analysis run: load, orchestrate, synthesize,
// decide, and write the report.
package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/KaramelBytes/datasight/internal/config"
	"github.com/KaramelBytes/datasight/internal/dataset"
	"github.com/KaramelBytes/datasight/internal/decision"
	"github.com/KaramelBytes/datasight/internal/insight"
	"github.com/KaramelBytes/datasight/internal/pipeline"
	"github.com/KaramelBytes/datasight/internal/plugins"
	"github.com/KaramelBytes/datasight/internal/report"
)

// Request names the input of one analysis run.
type Request struct {
	// Path is the CSV/TSV/XLSX file to analyze.
	Path string
	// Target optionally names the column feature importance ranks against.
	Target string
	// Sheet and SheetIndex select an XLSX worksheet; zero values mean the
	// first sheet. Ignored for CSV input.
	Sheet      string
	SheetIndex int
}

// Result summarizes one completed run.
type Result struct {
	ReportPath      string
	Health          insight.HealthScore
	Stages          []*pipeline.StageResult
	Insights        []insight.Insight
	Recommendations []decision.Recommendation
}

// Analyze runs the whole tool against one dataset file and returns the
// report location. The only hard failures are an unreadable or empty input
// and a broken plugin graph; everything downstream degrades per stage.
func Analyze(ctx context.Context, req Request, cfg *config.Global, log *zap.Logger) (*Result, error) {
	frame, err := dataset.Load(req.Path, dataset.Options{
		MaxRows:    cfg.MaxRows,
		Target:     req.Target,
		Sheet:      req.Sheet,
		SheetIndex: req.SheetIndex,
	})
	if err != nil {
		return nil, err
	}
	log.Info("dataset loaded",
		zap.String("file", req.Path),
		zap.Int("rows", frame.Rows),
		zap.Int("cols", len(frame.Columns)))

	reg := plugins.DefaultRegistry(plugins.Options{OutlierThreshold: cfg.OutlierThreshold})
	orch := pipeline.NewOrchestrator(reg, log)
	ac, err := orch.Run(ctx, frame)
	if err != nil {
		return nil, err
	}

	health := insight.ComputeHealth(ac, insight.HealthWeights{
		Missing:   cfg.HealthMissingWeight,
		Duplicate: cfg.HealthDuplicateWeight,
		Anomaly:   cfg.HealthAnomalyWeight,
	})

	synth := insight.NewSynthesizer(insight.Options{CorrelationCutoff: cfg.CorrelationCutoff})
	insights := synth.Synthesize(ac)

	engine := decision.NewEngine(decision.ConfidenceWeights{
		Significance:   cfg.ConfSignificanceWeight,
		SampleAdequacy: cfg.ConfAdequacyWeight,
		Completeness:   cfg.ConfCompletenessWeight,
	}, cfg.ConfSaturationRows)
	recs := engine.Decide(ac.Meta(), insights)

	doc := report.NewAssembler(log).Assemble(ac, health, insights, recs)
	reportPath, err := report.NewWriter(log).Write(doc, cfg.OutputDir)
	if err != nil {
		return nil, err
	}

	return &Result{
		ReportPath:      reportPath,
		Health:          health,
		Stages:          ac.Results(),
		Insights:        insights,
		Recommendations: recs,
	}, nil
}
