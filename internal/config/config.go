// Package config loads kfestival configuration from defaults, an optional
// YAML file and KFESTIVAL_* environment variables, in that order of
// precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/a01094554781-oss/kfestival/internal/dataset"
	"github.com/a01094554781-oss/kfestival/internal/geo"
	"github.com/a01094554781-oss/kfestival/internal/io"
	"github.com/a01094554781-oss/kfestival/internal/logging"
	"github.com/a01094554781-oss/kfestival/internal/query"
	"github.com/a01094554781-oss/kfestival/internal/reftable"
	"github.com/a01094554781-oss/kfestival/internal/validation"
)

// EnvPrefix prefixes every environment override, e.g. KFESTIVAL_SERVER_PORT.
const EnvPrefix = "KFESTIVAL_"

// ConfigPathEnvVar names the environment variable that points at a config file.
const ConfigPathEnvVar = EnvPrefix + "CONFIG"

// DefaultConfigPaths are searched in order when no path is given.
var DefaultConfigPaths = []string{
	"kfestival.yaml",
	"kfestival.yml",
	"/etc/kfestival/config.yaml",
}

// Default values
const (
	DefaultDataPath        = "festival.CSV"
	DefaultTopN            = 10
	DefaultPort            = 8080
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// Config is the complete application configuration.
type Config struct {
	Data    DataConfig    `koanf:"data"`
	Query   QueryConfig   `koanf:"query"`
	Links   LinksConfig   `koanf:"links"`
	Server  ServerConfig  `koanf:"server"`
	Logging LoggingConfig `koanf:"logging"`
	Export  ExportConfig  `koanf:"export"`
}

// DataConfig controls ingestion and enrichment.
type DataConfig struct {
	Path      string        `koanf:"path" validate:"required"`
	Delimiter string        `koanf:"delimiter" validate:"single_rune"`
	Tables    string        `koanf:"tables"` // optional reference table override
	Seed      uint64        `koanf:"seed"`
	Jitter    float64       `koanf:"jitter" validate:"lte=1"` // negative disables jitter
	Watch     bool          `koanf:"watch"`
	Debounce  time.Duration `koanf:"debounce" validate:"gte=0"`
}

// QueryConfig holds presentation defaults.
type QueryConfig struct {
	Language         string `koanf:"language" validate:"oneof=KO EN"`
	CardLimit        int    `koanf:"card_limit" validate:"min=1,max=1000"`
	TopN             int    `koanf:"top_n" validate:"min=1,max=100"`
	GeohashPrecision int    `koanf:"geohash_precision" validate:"min=1,max=12"`
}

// LinksConfig holds outbound URL templates.
type LinksConfig struct {
	Search string `koanf:"search" validate:"required"`
	Video  string `koanf:"video" validate:"required"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=console json"`
	Caller bool   `koanf:"caller"`
}

// ExportConfig configures downloads.
type ExportConfig struct {
	Compression string `koanf:"compression"`
	BatchSize   int    `koanf:"batch_size" validate:"gte=0"`
}

// NewConfig returns the default configuration.
func NewConfig() Config {
	return Config{
		Data: DataConfig{
			Path:      DefaultDataPath,
			Delimiter: ",",
			Seed:      dataset.DefaultSeed,
			Jitter:    dataset.DefaultJitter,
			Debounce:  500 * time.Millisecond,
		},
		Query: QueryConfig{
			Language:         string(query.KO),
			CardLimit:        query.DefaultCardLimit,
			TopN:             DefaultTopN,
			GeohashPrecision: geo.DefaultPrecision,
		},
		Links: LinksConfig{
			Search: dataset.DefaultSearchURLPattern,
			Video:  dataset.DefaultVideoURLPattern,
		},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            DefaultPort,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Export: ExportConfig{
			Compression: "snappy",
			BatchSize:   io.DefaultBatchSize,
		},
	}
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
// Boolean fields are left as they are.
func (c Config) WithDefaults() Config {
	d := NewConfig()

	if c.Data.Path == "" {
		c.Data.Path = d.Data.Path
	}
	if c.Data.Delimiter == "" {
		c.Data.Delimiter = d.Data.Delimiter
	}
	if c.Data.Seed == 0 {
		c.Data.Seed = d.Data.Seed
	}
	if c.Data.Jitter == 0 {
		c.Data.Jitter = d.Data.Jitter
	}
	if c.Data.Debounce == 0 {
		c.Data.Debounce = d.Data.Debounce
	}
	if c.Query.Language == "" {
		c.Query.Language = d.Query.Language
	}
	if c.Query.CardLimit == 0 {
		c.Query.CardLimit = d.Query.CardLimit
	}
	if c.Query.TopN == 0 {
		c.Query.TopN = d.Query.TopN
	}
	if c.Query.GeohashPrecision == 0 {
		c.Query.GeohashPrecision = d.Query.GeohashPrecision
	}
	if c.Links.Search == "" {
		c.Links.Search = d.Links.Search
	}
	if c.Links.Video == "" {
		c.Links.Video = d.Links.Video
	}
	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = d.Server.ReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = d.Server.WriteTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = d.Server.ShutdownTimeout
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
	if c.Export.Compression == "" {
		c.Export.Compression = d.Export.Compression
	}
	if c.Export.BatchSize == 0 {
		c.Export.BatchSize = d.Export.BatchSize
	}
	return c
}

// Validate checks field constraints and the cross-field rules that tags
// cannot express.
func (c Config) Validate() error {
	return validation.All(
		validation.Func(func() error {
			if verr := validation.ValidateStruct(c); verr != nil {
				return fmt.Errorf("invalid configuration: %w", verr)
			}
			return nil
		}),
		validation.Func(func() error {
			if !io.ValidCompression(c.Export.Compression) {
				return fmt.Errorf("invalid configuration: unknown parquet compression %q", c.Export.Compression)
			}
			return nil
		}),
		validation.Func(func() error {
			for _, p := range []string{c.Links.Search, c.Links.Video} {
				if !strings.Contains(p, "{name}") {
					return fmt.Errorf("invalid configuration: link template %q has no {name} placeholder", p)
				}
			}
			return nil
		}),
	)
}

// Load layers defaults, the YAML file at path (or the first file found on
// the search path when path is empty) and KFESTIVAL_* environment
// variables, then validates the result.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(NewConfig(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransformFunc maps KFESTIVAL_SERVER_READ_TIMEOUT to server.read_timeout:
// the first segment names the section, the rest is the key.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}
	return section + "." + rest
}

// CSVOptions returns the ingestion options.
func (c Config) CSVOptions() io.CSVOptions {
	opts := io.DefaultCSVOptions()
	if r, _ := utf8.DecodeRuneInString(c.Data.Delimiter); r != utf8.RuneError {
		opts.Delimiter = r
	}
	return opts
}

// ParquetOptions returns the export options.
func (c Config) ParquetOptions() io.ParquetOptions {
	return io.ParquetOptions{Compression: c.Export.Compression, BatchSize: c.Export.BatchSize}
}

// EnrichOptions returns the enrichment options for tables.
func (c Config) EnrichOptions(tables *reftable.Tables) dataset.Options {
	return dataset.Options{
		Translator:       dataset.NewRuleTranslator(tables.NameRules()),
		Seed:             c.Data.Seed,
		Jitter:           c.Data.Jitter,
		SearchURLPattern: c.Links.Search,
		VideoURLPattern:  c.Links.Video,
	}
}

// Tables returns the configured reference tables, or the embedded ones.
func (c Config) Tables() (*reftable.Tables, error) {
	if c.Data.Tables == "" {
		return reftable.Default(), nil
	}
	return reftable.LoadFile(c.Data.Tables)
}

// Language returns the default presentation language.
func (c Config) Language() query.Language {
	return query.Language(c.Query.Language)
}

// LoggerConfig returns the logger configuration.
func (c Config) LoggerConfig() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = c.Logging.Level
	lc.Format = c.Logging.Format
	lc.Caller = c.Logging.Caller
	return lc
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
