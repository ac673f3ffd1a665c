package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KaramelBytes/datasight/internal/config"
	"github.com/KaramelBytes/datasight/internal/dataset"
	"github.com/KaramelBytes/datasight/internal/insight"
	"github.com/KaramelBytes/datasight/internal/pipeline"
)

func testConfig(outDir string) *config.Global {
	return &config.Global{
		OutputDir:              outDir,
		MaxRows:                1000,
		OutlierThreshold:       3.5,
		CorrelationCutoff:      0.4,
		HealthMissingWeight:    0.5,
		HealthDuplicateWeight:  0.3,
		HealthAnomalyWeight:    0.2,
		ConfSignificanceWeight: 0.5,
		ConfAdequacyWeight:     0.3,
		ConfCompletenessWeight: 0.2,
		ConfSaturationRows:     1000,
	}
}

// writeFixture produces a small sales file with correlated numerics, a
// categorical split, and enough blank cells to cross the missingness gate.
func writeFixture(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("region,revenue,spend\n")
	rows := []string{
		"north,100,10", "north,110,11", "north,95,9.5", "north,120,12",
		"north,105,", "north,98,9.8", "north,130,13", "north,102,",
		"south,200,20", "south,210,21", "south,195,", "south,220,22",
		"south,205,20.5", "south,198,", "south,230,23", "south,202,20.2",
		"north,108,10.8", "south,215,21.5", "north,112,", "south,208,20.8",
		"north,99,9.9", "south,212,", "north,115,11.5", "south,225,22.5",
	}
	for _, r := range rows {
		b.WriteString(r + "\n")
	}
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestAnalyzeEndToEnd(t *testing.T) {
	path := writeFixture(t)
	outDir := filepath.Join(t.TempDir(), "reports")

	res, err := Analyze(context.Background(), Request{Path: path}, testConfig(outDir), zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "Report_1.html", filepath.Base(res.ReportPath))
	raw, err := os.ReadFile(res.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `id="report-data"`)

	require.Len(t, res.Stages, 14)
	for _, r := range res.Stages {
		assert.Contains(t, []pipeline.Status{
			pipeline.StatusOk, pipeline.StatusSkipped, pipeline.StatusFailed,
		}, r.Status, "stage %s must reach a terminal status", r.PluginID)
		assert.NotEqual(t, pipeline.StatusFailed, r.Status, "stage %s failed: %s", r.PluginID, r.Reason)
	}

	assert.Greater(t, res.Health.Value, 0.0)
	assert.LessOrEqual(t, res.Health.Value, 100.0)
	assert.NotEmpty(t, res.Health.Label)

	require.NotEmpty(t, res.Insights)
	var sawQuality bool
	for _, in := range res.Insights {
		if in.Category == insight.CategoryQuality {
			sawQuality = true
		}
	}
	assert.True(t, sawQuality, "blank spend cells must surface a quality insight")
	require.NotEmpty(t, res.Recommendations)
	top := res.Recommendations[0]
	assert.Greater(t, top.Confidence, 0.0)
	assert.LessOrEqual(t, top.Confidence, 1.0)
	assert.NotEmpty(t, top.Action)
}

func TestAnalyzeWithTarget(t *testing.T) {
	path := writeFixture(t)
	outDir := filepath.Join(t.TempDir(), "reports")

	res, err := Analyze(context.Background(), Request{Path: path, Target: "revenue"}, testConfig(outDir), zap.NewNop())
	require.NoError(t, err)

	var target *pipeline.StageResult
	for _, r := range res.Stages {
		if r.PluginID == "target" {
			target = r
		}
	}
	require.NotNil(t, target)
	assert.Equal(t, pipeline.StatusOk, target.Status)

	var sawPredictive bool
	for _, in := range res.Insights {
		if in.Category == insight.CategoryPredictive {
			sawPredictive = true
		}
	}
	assert.True(t, sawPredictive, "target run must yield a driver insight")
}

func TestAnalyzeUnknownTarget(t *testing.T) {
	path := writeFixture(t)
	_, err := Analyze(context.Background(), Request{Path: path, Target: "nope"}, testConfig(t.TempDir()), zap.NewNop())
	assert.Error(t, err)
}

func TestAnalyzeMissingFile(t *testing.T) {
	_, err := Analyze(context.Background(), Request{Path: "does-not-exist.csv"}, testConfig(t.TempDir()), zap.NewNop())
	assert.Error(t, err)
}

func TestAnalyzeHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0o644))

	_, err := Analyze(context.Background(), Request{Path: path}, testConfig(t.TempDir()), zap.NewNop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, dataset.ErrEmptyDataset))
}

func TestAnalyzeSequentialReports(t *testing.T) {
	path := writeFixture(t)
	outDir := filepath.Join(t.TempDir(), "reports")
	cfg := testConfig(outDir)

	first, err := Analyze(context.Background(), Request{Path: path}, cfg, zap.NewNop())
	require.NoError(t, err)
	second, err := Analyze(context.Background(), Request{Path: path}, cfg, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "Report_1.html", filepath.Base(first.ReportPath))
	assert.Equal(t, "Report_2.html", filepath.Base(second.ReportPath))
}
