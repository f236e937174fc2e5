package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/msm-weather-map/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// DefaultSourceBaseURL is the RISH mirror of the JMA GPV archive.
const DefaultSourceBaseURL = "http://database.rish.kyoto-u.ac.jp/arch/jmadata/data/gpv/original"

// Config holds all service settings, populated from environment variables.
type Config struct {
	WorkDir           string
	GridFile          string
	CSVFile           string
	OutputFile        string
	OutputCompression []string

	SourceBaseURL string
	SourceLag     time.Duration
	SourceCycle   time.Duration
	SourceTimeout time.Duration

	Wgrib2Cmd       string
	ParseMode       domain.ParseMode
	Cleanup         bool
	SkipAcquisition bool

	Schedule        string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Kafka publication of the finished payload.
	KafkaEnabled         bool
	KafkaBrokers         []string
	KafkaTopic           string
	KafkaMaxMessageBytes int

	TransformConfig string
	Transform       domain.Options
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	sourceLag, err := parseDuration("SOURCE_LAG", "4h", true)
	if err != nil {
		return nil, err
	}
	sourceCycle, err := parseDuration("SOURCE_CYCLE", "3h", false)
	if err != nil {
		return nil, err
	}
	sourceTimeout, err := parseDuration("SOURCE_TIMEOUT", "5m", false)
	if err != nil {
		return nil, err
	}

	cleanup, err := parseBool("CLEANUP", true)
	if err != nil {
		return nil, err
	}
	skipAcquisition, err := parseBool("SKIP_ACQUISITION", false)
	if err != nil {
		return nil, err
	}
	kafkaEnabled, err := parseBool("KAFKA_ENABLED", false)
	if err != nil {
		return nil, err
	}

	maxMessageBytes, err := parsePositiveInt("KAFKA_MAX_MESSAGE_BYTES", 10<<20)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		WorkDir:           sharedcfg.EnvOrDefault("WORK_DIR", "."),
		GridFile:          sharedcfg.EnvOrDefault("GRID_FILE", "latest_msm.bin"),
		CSVFile:           sharedcfg.EnvOrDefault("CSV_FILE", "latest_output.csv"),
		OutputFile:        sharedcfg.EnvOrDefault("OUTPUT_FILE", "weather_data.json"),
		OutputCompression: parseList(os.Getenv("OUTPUT_COMPRESSION")),

		SourceBaseURL: strings.TrimRight(sharedcfg.EnvOrDefault("SOURCE_BASE_URL", DefaultSourceBaseURL), "/"),
		SourceLag:     sourceLag,
		SourceCycle:   sourceCycle,
		SourceTimeout: sourceTimeout,

		Wgrib2Cmd:       sharedcfg.EnvOrDefault("WGRIB2_CMD", "wgrib2"),
		ParseMode:       domain.ParseMode(strings.ToLower(sharedcfg.EnvOrDefault("PARSE_MODE", string(domain.ParseStrict)))),
		Cleanup:         cleanup,
		SkipAcquisition: skipAcquisition,

		Schedule:        os.Getenv("SCHEDULE"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled:         kafkaEnabled,
		KafkaBrokers:         sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:           sharedcfg.EnvOrDefault("KAFKA_TOPIC", "weather-map-payloads"),
		KafkaMaxMessageBytes: maxMessageBytes,

		TransformConfig: os.Getenv("TRANSFORM_CONFIG"),
		Transform:       domain.DefaultOptions(),
	}

	if cfg.TransformConfig != "" {
		if err := applyTransformFile(cfg.TransformConfig, &cfg.Transform); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if !c.ParseMode.Valid() {
		return fmt.Errorf("invalid PARSE_MODE %q: want strict or lenient", c.ParseMode)
	}
	if h := c.SourceCycle / time.Hour; c.SourceCycle%time.Hour != 0 || h < 1 || 24%h != 0 {
		return errors.New("invalid SOURCE_CYCLE: must be a whole number of hours dividing 24")
	}
	if c.OutputFile == "" {
		return errors.New("OUTPUT_FILE is required")
	}
	if c.CSVFile == "" {
		return errors.New("CSV_FILE is required")
	}
	if !c.SkipAcquisition && c.GridFile == "" {
		return errors.New("GRID_FILE is required unless SKIP_ACQUISITION is set")
	}
	for _, name := range c.OutputCompression {
		if !knownCompressions[name] {
			return fmt.Errorf("invalid OUTPUT_COMPRESSION %q: want gzip, zstd or lz4", name)
		}
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if c.KafkaTopic == "" {
			return errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
		}
	}
	if err := c.Transform.Validate(); err != nil {
		return fmt.Errorf("invalid transform options: %w", err)
	}
	return nil
}

var knownCompressions = map[string]bool{"gzip": true, "zstd": true, "lz4": true}

// GridPath is the local path of the downloaded grid file.
func (c *Config) GridPath() string { return c.resolve(c.GridFile) }

// CSVPath is the local path of the converter output.
func (c *Config) CSVPath() string { return c.resolve(c.CSVFile) }

// OutputPath is the local path of the payload artifact.
func (c *Config) OutputPath() string { return c.resolve(c.OutputFile) }

func (c *Config) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.WorkDir, name)
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
