package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/adfharrison1/go-db-index/pkg/storage"
)

const (
	defaultServerPort         = 8080
	defaultServerTimeout      = 30 * time.Second
	defaultShutdownTimeout    = 30 * time.Second
	defaultCheckpointInterval = 5 * time.Minute
	defaultBulkConcurrency    = 8
	defaultMaxBulkDelete      = 1000
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Index   IndexConfig   `yaml:"index"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type StorageConfig struct {
	// DataDir is empty for a memory-only store
	DataDir            string        `yaml:"data_dir"`
	SnapshotFile       string        `yaml:"snapshot_file"`
	Durability         string        `yaml:"durability"`
	CheckpointInterval time.Duration `yaml:"checkpoint_interval"`
	// Databases are created at startup when missing
	Databases []string `yaml:"databases"`
}

type IndexConfig struct {
	BulkConcurrency int `yaml:"bulk_concurrency"`
	MaxBulkDelete   int `yaml:"max_bulk_delete"`
}

type LoggingConfig struct {
	Level       string   `yaml:"level"`
	Development bool     `yaml:"development"`
	OutputPaths []string `yaml:"output_paths"`
}

// Default returns the configuration used when nothing else is supplied
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            defaultServerPort,
			ReadTimeout:     defaultServerTimeout,
			WriteTimeout:    defaultServerTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Storage: StorageConfig{
			Durability:         "os",
			CheckpointInterval: defaultCheckpointInterval,
		},
		Index: IndexConfig{
			BulkConcurrency: defaultBulkConcurrency,
			MaxBulkDelete:   defaultMaxBulkDelete,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("server.shutdown_timeout must be positive")
	}
	if _, err := storage.ParseDurability(c.Storage.Durability); err != nil {
		return fmt.Errorf("storage.durability: %w", err)
	}
	if c.Storage.CheckpointInterval < 0 {
		return errors.New("storage.checkpoint_interval must not be negative")
	}
	if c.Index.BulkConcurrency <= 0 {
		return errors.New("index.bulk_concurrency must be positive")
	}
	if c.Index.MaxBulkDelete < 0 {
		return errors.New("index.max_bulk_delete must not be negative")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}

// StorageOptions translates the storage section into engine options
func (c *Config) StorageOptions() ([]storage.Option, error) {
	durability, err := storage.ParseDurability(c.Storage.Durability)
	if err != nil {
		return nil, err
	}
	opts := []storage.Option{
		storage.WithDataDir(c.Storage.DataDir),
		storage.WithDurability(durability),
		storage.WithCheckpointInterval(c.Storage.CheckpointInterval),
	}
	if c.Storage.SnapshotFile != "" {
		opts = append(opts, storage.WithSnapshotFile(c.Storage.SnapshotFile))
	}
	return opts, nil
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// LoadWithFlags builds the configuration from defaults, then the file named
// by -config, then any flag set explicitly on the command line.
func LoadWithFlags(name string, args []string, output io.Writer) (*Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	if output != nil {
		fs.SetOutput(output)
	}

	defaults := Default()
	var (
		configPath      = fs.String("config", "", "Path to a YAML configuration file")
		port            = fs.Int("port", defaults.Server.Port, "Server port")
		dataDir         = fs.String("data-dir", defaults.Storage.DataDir, "Data directory for persistence (empty keeps everything in memory)")
		durability      = fs.String("durability", defaults.Storage.Durability, "Journal durability: none, os or full")
		checkpoint      = fs.Duration("checkpoint-interval", defaults.Storage.CheckpointInterval, "Background checkpoint interval (e.g., 5m, 30s). Set to 0 to disable.")
		databases       = fs.String("databases", "", "Comma separated databases to create at startup")
		bulkConcurrency = fs.Int("bulk-concurrency", defaults.Index.BulkConcurrency, "Design documents removed in parallel by a bulk delete")
		maxBulkDelete   = fs.Int("max-bulk-delete", defaults.Index.MaxBulkDelete, "Maximum ids per bulk delete (0 for no limit)")
		logLevel        = fs.String("log-level", defaults.Logging.Level, "Log level: debug, info, warn or error")
		development     = fs.Bool("dev", defaults.Logging.Development, "Human readable development logging")
	)

	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "Usage of %s:\n", name)
		fmt.Fprintf(out, "\ngo-db-index manages query index definitions for a document database.\n\n")
		fmt.Fprintf(out, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nExamples:\n")
		fmt.Fprintf(out, "  %s                                      # In-memory, port 8080\n", name)
		fmt.Fprintf(out, "  %s -data-dir /var/lib/go-db-index       # Persistent store\n", name)
		fmt.Fprintf(out, "  %s -config go-db-index.yaml -port 9090  # File config, port override\n", name)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := Default()
	if *configPath != "" {
		if err := cfg.loadFile(*configPath); err != nil {
			return nil, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Server.Port = *port
		case "data-dir":
			cfg.Storage.DataDir = *dataDir
		case "durability":
			cfg.Storage.Durability = *durability
		case "checkpoint-interval":
			cfg.Storage.CheckpointInterval = *checkpoint
		case "databases":
			cfg.Storage.Databases = splitList(*databases)
		case "bulk-concurrency":
			cfg.Index.BulkConcurrency = *bulkConcurrency
		case "max-bulk-delete":
			cfg.Index.MaxBulkDelete = *maxBulkDelete
		case "log-level":
			cfg.Logging.Level = *logLevel
		case "dev":
			cfg.Logging.Development = *development
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
