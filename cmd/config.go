package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/datasight/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set DataSight configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		fmt.Printf("output_dir: %s\n", c.OutputDir)
		fmt.Printf("max_rows: %d\n", c.MaxRows)
		fmt.Printf("outlier_threshold: %.2f\n", c.OutlierThreshold)
		fmt.Printf("correlation_cutoff: %.2f\n", c.CorrelationCutoff)
		fmt.Printf("low_confidence_limit: %.2f\n", c.LowConfidenceLimit)
		fmt.Printf("health_missing_weight: %.2f\n", c.HealthMissingWeight)
		fmt.Printf("health_duplicate_weight: %.2f\n", c.HealthDuplicateWeight)
		fmt.Printf("health_anomaly_weight: %.2f\n", c.HealthAnomalyWeight)
		fmt.Printf("conf_significance_weight: %.2f\n", c.ConfSignificanceWeight)
		fmt.Printf("conf_adequacy_weight: %.2f\n", c.ConfAdequacyWeight)
		fmt.Printf("conf_completeness_weight: %.2f\n", c.ConfCompletenessWeight)
		fmt.Printf("conf_saturation_rows: %d\n", c.ConfSaturationRows)
		fmt.Printf("debug: %v\n", c.Debug)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		switch key {
		case "output_dir":
			c.OutputDir = val
		case "max_rows":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for max_rows: %v", val)
			}
			c.MaxRows = i
		case "outlier_threshold":
			f, err := parsePositiveFloat(val)
			if err != nil {
				return fmt.Errorf("invalid outlier_threshold: %w", err)
			}
			c.OutlierThreshold = f
		case "correlation_cutoff":
			f, err := parseUnitFloat(val)
			if err != nil {
				return fmt.Errorf("invalid correlation_cutoff: %w", err)
			}
			c.CorrelationCutoff = f
		case "low_confidence_limit":
			f, err := parseUnitFloat(val)
			if err != nil {
				return fmt.Errorf("invalid low_confidence_limit: %w", err)
			}
			c.LowConfidenceLimit = f
		case "health_missing_weight":
			return setWeight(&c.HealthMissingWeight, val)
		case "health_duplicate_weight":
			return setWeight(&c.HealthDuplicateWeight, val)
		case "health_anomaly_weight":
			return setWeight(&c.HealthAnomalyWeight, val)
		case "conf_significance_weight":
			return setWeight(&c.ConfSignificanceWeight, val)
		case "conf_adequacy_weight":
			return setWeight(&c.ConfAdequacyWeight, val)
		case "conf_completeness_weight":
			return setWeight(&c.ConfCompletenessWeight, val)
		case "conf_saturation_rows":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid int for conf_saturation_rows: %v", val)
			}
			c.ConfSaturationRows = i
		case "debug":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for debug: %v", val)
			}
			c.Debug = b
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Println("Saved config")
		return nil
	},
}

// setWeight writes a [0,1] float and saves. Weight keys share this path so the
// save happens exactly once per invocation.
func setWeight(dst *float64, val string) error {
	f, err := parseUnitFloat(val)
	if err != nil {
		return err
	}
	*dst = f
	if err := cfgpkg.Save(cfg, cfgFile); err != nil {
		return err
	}
	fmt.Println("Saved config")
	return nil
}

func parseUnitFloat(val string) (float64, error) {
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || f < 0 || f > 1 {
		return 0, fmt.Errorf("expected a value in [0,1], got %q", val)
	}
	return f, nil
}

func parsePositiveFloat(val string) (float64, error) {
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("expected a positive value, got %q", val)
	}
	return f, nil
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
