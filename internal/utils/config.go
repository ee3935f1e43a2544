package utils

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultMmapThreshold is the file size from which inputs are mapped
	// instead of read.
	DefaultMmapThreshold = 1 << 20
	// DefaultMaxFileSize is the largest file analyze will load.
	DefaultMaxFileSize = 512 << 20
)

// Config represents the application configuration
type Config struct {
	LogLevel  string `yaml:"log_level" mapstructure:"log_level" env:"HEXDANCE_LOG_LEVEL"`
	LogFormat string `yaml:"log_format" mapstructure:"log_format" env:"HEXDANCE_LOG_FORMAT"`

	// Report rendering
	Output OutputConfig `yaml:"output" mapstructure:"output"`

	// File loading and the worker pool
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
}

// OutputConfig holds report rendering configuration
type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format" env:"HEXDANCE_OUTPUT_FORMAT"`
	// Color is one of auto, always or never.
	Color string `yaml:"color" mapstructure:"color" env:"HEXDANCE_COLOR"`
}

// AnalysisConfig holds batch analysis configuration
type AnalysisConfig struct {
	// Workers is the pool size; 0 means one per CPU.
	Workers       int   `yaml:"workers" mapstructure:"workers" env:"HEXDANCE_WORKERS"`
	MmapThreshold int64 `yaml:"mmap_threshold" mapstructure:"mmap_threshold" env:"HEXDANCE_MMAP_THRESHOLD"`
	MaxFileSize   int64 `yaml:"max_file_size" mapstructure:"max_file_size" env:"HEXDANCE_MAX_FILE_SIZE"`
	Recursive     bool  `yaml:"recursive" mapstructure:"recursive" env:"HEXDANCE_RECURSIVE"`
}

var (
	validLogLevels    = []string{"debug", "info", "warn", "error"}
	validLogFormats   = []string{"text", "json"}
	validOutputFormat = []string{"text", "json"}
	validColorModes   = []string{"auto", "always", "never"}
)

// ConfigManager handles configuration loading and management
type ConfigManager struct {
	config *Config
	viper  *viper.Viper
	logger *Logger

	// keys set explicitly by the caller; environment tags do not replace them
	overridden map[string]bool
}

// NewConfigManager creates a new configuration manager
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		config:     &Config{},
		viper:      viper.New(),
		logger:     NewDefaultLogger(),
		overridden: make(map[string]bool),
	}
}

// LoadConfig loads configuration from file and environment variables
func (c *ConfigManager) LoadConfig(configFile string) error {
	return c.LoadConfigWithOverrides(configFile, nil)
}

// LoadConfigWithOverrides loads configuration with precedence defaults <
// file < environment < overrides. Override keys use the dotted viper form,
// e.g. "analysis.workers".
func (c *ConfigManager) LoadConfigWithOverrides(configFile string, overrides map[string]interface{}) error {
	c.setDefaults()

	c.viper.SetConfigType("yaml")
	c.viper.SetEnvPrefix("HEXDANCE")
	c.viper.AutomaticEnv()
	c.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configFile != "" {
		c.viper.SetConfigFile(configFile)
		if err := c.viper.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("failed to read config file: %w", err)
			}
			c.logger.WithComponent(ComponentConfig).Warnf("Config file not found: %s", configFile)
		} else {
			c.logger.WithComponent(ComponentConfig).Debugf("Loaded config from: %s", c.viper.ConfigFileUsed())
		}
	} else {
		c.viper.SetConfigName("config")
		c.viper.AddConfigPath(".")
		c.viper.AddConfigPath("$HOME/.hexdance")
		c.viper.AddConfigPath("/etc/hexdance")

		if err := c.viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return fmt.Errorf("failed to read config file: %w", err)
			}
			c.logger.WithComponent(ComponentConfig).Debug("No config file found, using defaults and environment variables")
		} else {
			c.logger.WithComponent(ComponentConfig).Debugf("Loaded config from: %s", c.viper.ConfigFileUsed())
		}
	}

	for key, value := range overrides {
		c.viper.Set(key, value)
		c.overridden[key] = true
	}

	if err := c.viper.Unmarshal(c.config); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := c.loadFromEnv(); err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := c.validateConfig(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	c.logger.WithComponent(ComponentConfig).Debug("Configuration loaded successfully")
	return nil
}

// setDefaults sets default configuration values
func (c *ConfigManager) setDefaults() {
	c.viper.SetDefault("log_level", "info")
	c.viper.SetDefault("log_format", "text")

	c.viper.SetDefault("output.format", "text")
	c.viper.SetDefault("output.color", "auto")

	c.viper.SetDefault("analysis.workers", 0)
	c.viper.SetDefault("analysis.mmap_threshold", DefaultMmapThreshold)
	c.viper.SetDefault("analysis.max_file_size", DefaultMaxFileSize)
	c.viper.SetDefault("analysis.recursive", false)
}

// loadFromEnv loads configuration from environment variables using struct tags
func (c *ConfigManager) loadFromEnv() error {
	return c.loadEnvForStruct(reflect.ValueOf(c.config).Elem(), "")
}

// loadEnvForStruct recursively loads environment variables for a struct.
// prefix is the dotted mapstructure path of v.
func (c *ConfigManager) loadEnvForStruct(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		key := fieldType.Tag.Get("mapstructure")
		if prefix != "" {
			key = prefix + "." + key
		}

		if field.Kind() == reflect.Struct {
			if err := c.loadEnvForStruct(field, key); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || c.overridden[key] {
			continue
		}
		if envValue := os.Getenv(envTag); envValue != "" {
			if err := c.setFieldFromString(field, envValue); err != nil {
				return fmt.Errorf("failed to set field %s from env %s: %w", fieldType.Name, envTag, err)
			}
		}
	}

	return nil
}

// setFieldFromString sets a field value from a string
func (c *ConfigManager) setFieldFromString(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value: %s", value)
		}
		field.SetBool(boolVal)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value: %s", value)
		}
		field.SetInt(intVal)
	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}
	return nil
}

// validateConfig validates the loaded configuration
func (c *ConfigManager) validateConfig() error {
	cfg := c.config

	if !contains(validLogLevels, strings.ToLower(cfg.LogLevel)) {
		return fmt.Errorf("invalid log_level: %s (valid: %v)", cfg.LogLevel, validLogLevels)
	}
	if !contains(validLogFormats, strings.ToLower(cfg.LogFormat)) {
		return fmt.Errorf("invalid log_format: %s (valid: %v)", cfg.LogFormat, validLogFormats)
	}
	if !contains(validOutputFormat, strings.ToLower(cfg.Output.Format)) {
		return fmt.Errorf("invalid output.format: %s (valid: %v)", cfg.Output.Format, validOutputFormat)
	}
	if !contains(validColorModes, strings.ToLower(cfg.Output.Color)) {
		return fmt.Errorf("invalid output.color: %s (valid: %v)", cfg.Output.Color, validColorModes)
	}

	if cfg.Analysis.Workers < 0 {
		return fmt.Errorf("invalid analysis.workers: %d (must be >= 0)", cfg.Analysis.Workers)
	}
	if cfg.Analysis.MmapThreshold < 0 {
		return fmt.Errorf("invalid analysis.mmap_threshold: %d (must be >= 0)", cfg.Analysis.MmapThreshold)
	}
	if cfg.Analysis.MaxFileSize <= 0 {
		return fmt.Errorf("invalid analysis.max_file_size: %d (must be > 0)", cfg.Analysis.MaxFileSize)
	}

	return nil
}

// GetConfig returns the loaded configuration
func (c *ConfigManager) GetConfig() *Config {
	return c.config
}

// SetLogger sets the logger for the config manager
func (c *ConfigManager) SetLogger(logger *Logger) {
	c.logger = logger
}

// contains checks if a slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// LoadConfigFromFile loads configuration from filename, or from the search
// paths when filename is empty, applying overrides last. Loading itself is
// not logged.
func LoadConfigFromFile(filename string, overrides map[string]interface{}) (*Config, error) {
	manager := NewConfigManager()
	manager.SetLogger(NewNopLogger())
	if err := manager.LoadConfigWithOverrides(filename, overrides); err != nil {
		return nil, err
	}
	return manager.GetConfig(), nil
}
