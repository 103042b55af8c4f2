package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "github.com/Mitchell-Turner/invoice-accrual-automation/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/invoice_processor.log"`
}

// PathsConfig contains file system paths configuration. Relative paths are
// resolved against the executable directory by ResolvePaths.
type PathsConfig struct {
	BaseDir       string `yaml:"base_dir" envconfig:"BASE_DIR"`
	RawDataDir    string `yaml:"raw_data_dir" envconfig:"RAW_DATA_DIR" default:"raw_data"`
	ProcessedDir  string `yaml:"processed_dir" envconfig:"PROCESSED_DIR" default:"processed_reports"`
	ReferenceFile string `yaml:"reference_file" envconfig:"REFERENCE_FILE" default:"MMP_Reclass_Ref/MMP_Reclass_Ref.xlsx"`
	LogsDir       string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// PipelineConfig contains the business rule configuration for the invoice
// pipeline. Defaults match the production rule set; tests may substitute
// alternate contract and description sets.
type PipelineConfig struct {
	RequiredContracts    []int    `yaml:"required_contracts" envconfig:"REQUIRED_CONTRACTS" default:"1111,2222" validate:"min=1"`
	ExcludedDescriptions []string `yaml:"excluded_descriptions" envconfig:"EXCLUDED_DESCRIPTIONS" default:"MSG Chart Expense,MSG Misc Chart Expense"`
	OutlierPercentile    float64  `yaml:"outlier_percentile" envconfig:"OUTLIER_PERCENTILE" default:"0.99" validate:"gt=0,lt=1"`
}

// ContractRequired reports whether a contract is part of the required set.
func (p PipelineConfig) ContractRequired(contract int) bool {
	for _, c := range p.RequiredContracts {
		if c == contract {
			return true
		}
	}
	return false
}

// DescriptionExcluded reports whether a line description is in the
// excluded set.
func (p PipelineConfig) DescriptionExcluded(descr string) bool {
	for _, d := range p.ExcludedDescriptions {
		if d == descr {
			return true
		}
	}
	return false
}

// Load loads configuration from .env, environment variables and config file
func Load() (*Config, error) {
	// Optional .env bootstrap; absence is not an error
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("INVREP", &cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from environment", err)
	}

	// Load from config file if exists
	configFile := getConfigFilePath()
	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, apperrors.NewConfigError("failed to load config file", err).
				WithContext("file", configFile)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, apperrors.NewConfigError("config validation failed", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config. envconfig fills every
// field from its default tag before the file is read, so a per-field env
// var check is the only way to tell an explicit env value from a default:
// the file value wins unless the matching env var is actually set.
func mergeConfigs(fileConfig, envConfig Config) Config {
	merge := func(envVar, fileValue string, target *string) {
		if fileValue != "" && os.Getenv(envVar) == "" {
			*target = fileValue
		}
	}

	merge("INVREP_LOGGING_LEVEL", fileConfig.Logging.Level, &envConfig.Logging.Level)
	merge("INVREP_LOGGING_FORMAT", fileConfig.Logging.Format, &envConfig.Logging.Format)
	merge("INVREP_LOGGING_OUTPUT", fileConfig.Logging.Output, &envConfig.Logging.Output)
	merge("INVREP_LOGGING_FILE_PATH", fileConfig.Logging.FilePath, &envConfig.Logging.FilePath)

	merge("INVREP_PATHS_BASE_DIR", fileConfig.Paths.BaseDir, &envConfig.Paths.BaseDir)
	merge("INVREP_PATHS_RAW_DATA_DIR", fileConfig.Paths.RawDataDir, &envConfig.Paths.RawDataDir)
	merge("INVREP_PATHS_PROCESSED_DIR", fileConfig.Paths.ProcessedDir, &envConfig.Paths.ProcessedDir)
	merge("INVREP_PATHS_REFERENCE_FILE", fileConfig.Paths.ReferenceFile, &envConfig.Paths.ReferenceFile)
	merge("INVREP_PATHS_LOGS_DIR", fileConfig.Paths.LogsDir, &envConfig.Paths.LogsDir)

	if len(fileConfig.Pipeline.RequiredContracts) > 0 && os.Getenv("INVREP_PIPELINE_REQUIRED_CONTRACTS") == "" {
		envConfig.Pipeline.RequiredContracts = fileConfig.Pipeline.RequiredContracts
	}
	if len(fileConfig.Pipeline.ExcludedDescriptions) > 0 && os.Getenv("INVREP_PIPELINE_EXCLUDED_DESCRIPTIONS") == "" {
		envConfig.Pipeline.ExcludedDescriptions = fileConfig.Pipeline.ExcludedDescriptions
	}
	if fileConfig.Pipeline.OutlierPercentile != 0 && os.Getenv("INVREP_PIPELINE_OUTLIER_PERCENTILE") == "" {
		envConfig.Pipeline.OutlierPercentile = fileConfig.Pipeline.OutlierPercentile
	}
	return envConfig
}

// validate validates the configuration
func (c *Config) validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return err
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	if c.Logging.Output != "both" && c.Logging.Output != "file" && c.Logging.Output != "console" {
		c.Logging.Output = "both"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/invoice_processor.log"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/invoice_processor.log",
		},
		Paths: PathsConfig{
			RawDataDir:    "raw_data",
			ProcessedDir:  "processed_reports",
			ReferenceFile: "MMP_Reclass_Ref/MMP_Reclass_Ref.xlsx",
			LogsDir:       "logs",
		},
		Pipeline: PipelineConfig{
			RequiredContracts:    DefaultRequiredContracts(),
			ExcludedDescriptions: DefaultExcludedDescriptions(),
			OutlierPercentile:    DefaultOutlierPercentile,
		},
	}
}
