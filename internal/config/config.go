package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Sink names accepted in Output.Sinks.
const (
	SinkSentinel = "sentinel"
	SinkStdout   = "stdout"
	SinkFile     = "file"
)

var knownSinks = []string{SinkSentinel, SinkStdout, SinkFile}

// dotenvPath is loaded before anything else when it exists. Values never
// override variables already present in the environment.
var dotenvPath = ".env"

// Config holds all octo2sent configuration.
type Config struct {
	Octopus   OctopusConfig   `yaml:"octopus"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	Output    OutputConfig    `yaml:"output"`
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
}

// OctopusConfig holds the upstream API settings.
type OctopusConfig struct {
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	SpaceID   string        `yaml:"space_id"`
	HoursBack int           `yaml:"hours_back"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Lookback returns HoursBack as a duration.
func (c OctopusConfig) Lookback() time.Duration {
	return time.Duration(c.HoursBack) * time.Hour
}

// IngestionConfig addresses the Azure Monitor DCE/DCR stream.
type IngestionConfig struct {
	Endpoint   string `yaml:"endpoint"`
	RuleID     string `yaml:"rule_id"`
	StreamName string `yaml:"stream_name"`
}

// OutputConfig selects where log entries go.
type OutputConfig struct {
	Sinks       []string `yaml:"sinks"`
	FilePath    string   `yaml:"file_path"`
	FileMaxSize int64    `yaml:"file_max_size"` // bytes, 0 disables rotation
	Pretty      bool     `yaml:"pretty"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// ServerConfig holds the custom handler listener settings.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Octopus: OctopusConfig{
			HoursBack: 1,
			Timeout:   30 * time.Second,
		},
		Output: OutputConfig{
			Sinks:    []string{SinkSentinel},
			FilePath: "octo2sent.jsonl",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Server: ServerConfig{
			Port: "8080",
		},
	}
}

// Load builds the configuration from, in increasing precedence: defaults,
// the YAML file named by OCTO2SENT_CONFIG, and environment variables
// (including those from an optional .env file).
func Load() (Config, error) {
	if _, err := os.Stat(dotenvPath); err == nil {
		if err := godotenv.Load(dotenvPath); err != nil {
			return Config{}, fmt.Errorf("config: load %s: %w", dotenvPath, err)
		}
	}

	cfg := Defaults()
	if path := os.Getenv("OCTO2SENT_CONFIG"); path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile decodes a YAML file over cfg. Keys absent from the file keep
// their current values.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Octopus.BaseURL, "OCTOPUS_BASE_URL")
	setString(&cfg.Octopus.APIKey, "OCTOPUS_API_KEY")
	setString(&cfg.Octopus.SpaceID, "OCTOPUS_SPACE_ID")
	setString(&cfg.Ingestion.Endpoint, "DATA_COLLECTION_ENDPOINT")
	setString(&cfg.Ingestion.RuleID, "LOGS_DCR_RULE_ID")
	setString(&cfg.Ingestion.StreamName, "LOGS_DCR_STREAM_NAME")
	setString(&cfg.Output.FilePath, "OCTO2SENT_OUTPUT_FILE")
	setString(&cfg.Log.Level, "OCTO2SENT_LOG_LEVEL")
	setString(&cfg.Log.Format, "OCTO2SENT_LOG_FORMAT")
	setString(&cfg.Server.Port, "FUNCTIONS_CUSTOMHANDLER_PORT")

	if v := os.Getenv("OCTO2SENT_OUTPUT"); v != "" {
		cfg.Output.Sinks = ParseList(v)
	}

	var errs []error
	if v := os.Getenv("EVENTS_HOURS_BACK"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("EVENTS_HOURS_BACK: %w", err))
		} else {
			cfg.Octopus.HoursBack = n
		}
	}
	if v := os.Getenv("OCTO2SENT_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("OCTO2SENT_HTTP_TIMEOUT: %w", err))
		} else {
			cfg.Octopus.Timeout = d
		}
	}
	if v := os.Getenv("OCTO2SENT_OUTPUT_FILE_MAX_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("OCTO2SENT_OUTPUT_FILE_MAX_SIZE: %w", err))
		} else {
			cfg.Output.FileMaxSize = n
		}
	}
	if v := os.Getenv("OCTO2SENT_OUTPUT_PRETTY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("OCTO2SENT_OUTPUT_PRETTY: %w", err))
		} else {
			cfg.Output.Pretty = b
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// ParseList splits a comma-separated list, trimming blanks and lowercasing.
func ParseList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// HasSink reports whether name is among the configured sinks.
func (c Config) HasSink(name string) bool {
	return slices.Contains(c.Output.Sinks, name)
}

// Validate reports every missing or invalid setting in one error.
func (c Config) Validate() error {
	var missing []string
	require := func(v, key string) {
		if v == "" {
			missing = append(missing, key)
		}
	}
	require(c.Octopus.BaseURL, "OCTOPUS_BASE_URL")
	require(c.Octopus.APIKey, "OCTOPUS_API_KEY")
	require(c.Octopus.SpaceID, "OCTOPUS_SPACE_ID")
	if c.HasSink(SinkSentinel) {
		require(c.Ingestion.Endpoint, "DATA_COLLECTION_ENDPOINT")
		require(c.Ingestion.RuleID, "LOGS_DCR_RULE_ID")
		require(c.Ingestion.StreamName, "LOGS_DCR_STREAM_NAME")
	}
	if c.HasSink(SinkFile) {
		require(c.Output.FilePath, "OCTO2SENT_OUTPUT_FILE")
	}

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("missing required settings: %s", strings.Join(missing, ", ")))
	}
	if c.Octopus.HoursBack <= 0 {
		errs = append(errs, fmt.Errorf("EVENTS_HOURS_BACK must be positive, got %d", c.Octopus.HoursBack))
	}
	if len(c.Output.Sinks) == 0 {
		errs = append(errs, errors.New("no output sinks configured"))
	}
	for _, s := range c.Output.Sinks {
		if !slices.Contains(knownSinks, s) {
			errs = append(errs, fmt.Errorf("unknown output sink %q (want one of %s)", s, strings.Join(knownSinks, ", ")))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
