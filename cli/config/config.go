package config

import (
	"fmt"
	"time"
)

// Defaults applied by Normalize when the config file leaves a value
// unset.
const (
	DefaultPython        = "python3"
	DefaultEditScript    = "vecset_edit.py"
	DefaultRepaintScript = "preserving_texture_baking.py"
	DefaultRunsRoot      = "runs"
	DefaultFetchTimeout  = 60 * time.Second
	DefaultQueueDepth    = 4
	DefaultListenAddr    = ":8080"
)

// Config represents a chisel.yaml configuration file.
// All values are optional and act as defaults for chisel commands.
// CLI flags always override config values.
type Config struct {
	// RunsRoot is the directory run workspaces are allocated under.
	RunsRoot string `yaml:"runs_root"`
	// Python is the interpreter binary for both stages.
	Python string `yaml:"python"`
	// EditScript is the geometry-edit stage script path.
	EditScript string `yaml:"edit_script"`
	// RepaintScript is the texture-repaint stage script path.
	RepaintScript string `yaml:"repaint_script"`
	// ScriptsWorkdir is the working directory stage processes run in.
	ScriptsWorkdir string `yaml:"scripts_workdir"`
	// FetchTimeout bounds remote input downloads.
	FetchTimeout Duration `yaml:"fetch_timeout"`
	// QueueDepth bounds queued requests in the interactive front-end.
	QueueDepth int `yaml:"queue_depth"`
	// ListenAddr is the serve command's bind address.
	ListenAddr string `yaml:"listen_addr"`
	// LogFile is the append-only process log (mirrored to stdout).
	LogFile string `yaml:"log_file"`
	// JournalFile is the persistent per-request journal.
	JournalFile string `yaml:"journal_file"`

	Storage StorageConfig `yaml:"storage"`
	Adapter AdapterConfig `yaml:"adapter"`
}

// StorageConfig selects an optional archive upload backend.
type StorageConfig struct {
	// Backend is "fs", "s3", or empty to disable uploads.
	Backend string `yaml:"backend"`
	// Path is the fs root, or "bucket[/prefix]" for s3.
	Path        string `yaml:"path"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// AdapterConfig selects an optional run-completed notification adapter.
type AdapterConfig struct {
	// Type is "webhook", "redis", or empty to disable notifications.
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Normalize fills unset values with their defaults and validates the
// cross-field constraints.
func (c *Config) Normalize() error {
	if c.RunsRoot == "" {
		c.RunsRoot = DefaultRunsRoot
	}
	if c.Python == "" {
		c.Python = DefaultPython
	}
	if c.EditScript == "" {
		c.EditScript = DefaultEditScript
	}
	if c.RepaintScript == "" {
		c.RepaintScript = DefaultRepaintScript
	}
	if c.FetchTimeout.Duration <= 0 {
		c.FetchTimeout.Duration = DefaultFetchTimeout
	}
	if c.QueueDepth <= 0 {
		c.QueueDepth = DefaultQueueDepth
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}

	switch c.Storage.Backend {
	case "", "fs", "s3":
	default:
		return fmt.Errorf("unknown storage backend %q (want fs or s3)", c.Storage.Backend)
	}
	if c.Storage.Backend != "" && c.Storage.Path == "" {
		return fmt.Errorf("storage backend %q requires a path", c.Storage.Backend)
	}

	switch c.Adapter.Type {
	case "", "webhook", "redis":
	default:
		return fmt.Errorf("unknown adapter type %q (want webhook or redis)", c.Adapter.Type)
	}
	if c.Adapter.Type != "" && c.Adapter.URL == "" {
		return fmt.Errorf("adapter type %q requires a url", c.Adapter.Type)
	}

	return nil
}

// Default returns a normalized config with no file applied.
func Default() *Config {
	cfg := &Config{}
	_ = cfg.Normalize()
	return cfg
}
