package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	MaxRows   int    `mapstructure:"max_rows" yaml:"max_rows"`

	// Analysis thresholds
	OutlierThreshold   float64 `mapstructure:"outlier_threshold" yaml:"outlier_threshold"`
	CorrelationCutoff  float64 `mapstructure:"correlation_cutoff" yaml:"correlation_cutoff"`
	LowConfidenceLimit float64 `mapstructure:"low_confidence_limit" yaml:"low_confidence_limit"`

	// Health score weights; they should sum to 1
	HealthMissingWeight   float64 `mapstructure:"health_missing_weight" yaml:"health_missing_weight"`
	HealthDuplicateWeight float64 `mapstructure:"health_duplicate_weight" yaml:"health_duplicate_weight"`
	HealthAnomalyWeight   float64 `mapstructure:"health_anomaly_weight" yaml:"health_anomaly_weight"`

	// Recommendation confidence weights
	ConfSignificanceWeight float64 `mapstructure:"conf_significance_weight" yaml:"conf_significance_weight"`
	ConfAdequacyWeight     float64 `mapstructure:"conf_adequacy_weight" yaml:"conf_adequacy_weight"`
	ConfCompletenessWeight float64 `mapstructure:"conf_completeness_weight" yaml:"conf_completeness_weight"`
	ConfSaturationRows     int     `mapstructure:"conf_saturation_rows" yaml:"conf_saturation_rows"`

	Debug bool `mapstructure:"debug" yaml:"debug"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.datasight/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".datasight")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DATASIGHT")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("output_dir", "")
	v.SetDefault("max_rows", 100000)
	v.SetDefault("outlier_threshold", 3.5)
	v.SetDefault("correlation_cutoff", 0.4)
	v.SetDefault("low_confidence_limit", 0.4)
	v.SetDefault("health_missing_weight", 0.5)
	v.SetDefault("health_duplicate_weight", 0.3)
	v.SetDefault("health_anomaly_weight", 0.2)
	v.SetDefault("conf_significance_weight", 0.5)
	v.SetDefault("conf_adequacy_weight", 0.3)
	v.SetDefault("conf_completeness_weight", 0.2)
	v.SetDefault("conf_saturation_rows", 1000)
	v.SetDefault("debug", false)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".datasight")
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Resolve output_dir default: ./datasight_reports
	if c.OutputDir == "" {
		c.OutputDir = "datasight_reports"
	}
	return &c, nil
}
