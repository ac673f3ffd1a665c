package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datasight/internal/app"
	"github.com/KaramelBytes/datasight/internal/logging"
	"github.com/KaramelBytes/datasight/internal/pipeline"
)

var (
	anaTarget     string
	anaOutputDir  string
	anaMaxRows    int
	anaOutlierThr float64
	anaSheetName  string
	anaSheetIndex int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a CSV/TSV file and write an HTML report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		if anaOutputDir != "" {
			c.OutputDir = anaOutputDir
		}
		if anaMaxRows > 0 {
			c.MaxRows = anaMaxRows
		}
		if anaOutlierThr > 0 {
			c.OutlierThreshold = anaOutlierThr
		}

		log := logging.New(c.Debug)
		defer func() { _ = log.Sync() }()

		res, err := app.Analyze(cmd.Context(), app.Request{
			Path:       args[0],
			Target:     anaTarget,
			Sheet:      anaSheetName,
			SheetIndex: anaSheetIndex,
		}, c, log)
		if err != nil {
			return err
		}

		var ok, skipped, failed int
		for _, r := range res.Stages {
			switch r.Status {
			case pipeline.StatusOk:
				ok++
			case pipeline.StatusSkipped:
				skipped++
			case pipeline.StatusFailed:
				failed++
			}
		}
		fmt.Printf("✓ Analysis complete: %d stages ok, %d skipped, %d failed\n", ok, skipped, failed)
		fmt.Printf("  Health: %.0f/100 (%s)\n", res.Health.Value, res.Health.Label)
		fmt.Printf("  Insights: %d, Recommendations: %d\n", len(res.Insights), len(res.Recommendations))
		for i, rec := range res.Recommendations {
			if i >= 3 {
				break
			}
			if rec.Confidence < c.LowConfidenceLimit {
				continue
			}
			fmt.Printf("  [%s/%s] %s (confidence %.0f%%)\n", rec.Impact, rec.Domain, rec.Action, rec.Confidence*100)
		}
		// Report path goes last so the output pipes cleanly.
		fmt.Println(res.ReportPath)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&anaTarget, "target", "", "column to rank feature importance against")
	analyzeCmd.Flags().StringVar(&anaOutputDir, "out", "", "report output directory (overrides config)")
	analyzeCmd.Flags().IntVar(&anaMaxRows, "max-rows", 0, "cap on rows loaded (overrides config)")
	analyzeCmd.Flags().Float64Var(&anaOutlierThr, "outlier-threshold", 0, "robust |z| cutoff for outliers (overrides config)")
	analyzeCmd.Flags().StringVar(&anaSheetName, "sheet", "", "XLSX worksheet name (default: first sheet)")
	analyzeCmd.Flags().IntVar(&anaSheetIndex, "sheet-index", 0, "XLSX worksheet by 1-based position")
	rootCmd.AddCommand(analyzeCmd)
}
