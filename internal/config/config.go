package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultUserAgent      = "agrofeed-harvester/1.0 (+https://github.com/agropulso-hq/agrofeed)"
	defaultTimeoutSeconds = 15
	defaultDelayMillis    = 1500
	defaultOutputPath     = "public/feed.json"
	defaultLogLevel       = "info"
)

// defaultFeedPaths are the common feed locations probed per source, in order.
var defaultFeedPaths = []string{"/rss", "/feed", "/rss.xml", "/atom.xml", "/feed.xml", "/index.xml"}

// defaultListingPaths are the likely article listing pages tried when no feed works.
var defaultListingPaths = []string{"/noticias", "/actualidad", "/news", "/blog", "/"}

// Config holds the full harvester configuration.
type Config struct {
	LogLevel       string         `mapstructure:"log_level"`
	UserAgent      string         `mapstructure:"user_agent"`
	TimeoutSeconds int            `mapstructure:"timeout_seconds"`
	DelayMillis    int            `mapstructure:"delay_millis"`
	FeedPaths      []string       `mapstructure:"feed_paths"`
	ListingPaths   []string       `mapstructure:"listing_paths"`
	Keywords       []string       `mapstructure:"keywords"`
	Sources        []SourceConfig `mapstructure:"sources"`
	Output         OutputConfig   `mapstructure:"output"`
	Enrich         bool           `mapstructure:"enrich_missing_metadata"`
	PublishersFile string         `mapstructure:"publishers_file"`
	LedgerPath     string         `mapstructure:"ledger_path"`
}

// SourceConfig declares one configured content provider.
type SourceConfig struct {
	ID          string            `mapstructure:"id"`
	Name        string            `mapstructure:"name"`
	BaseURL     string            `mapstructure:"base_url"`
	Headers     map[string]string `mapstructure:"headers"`
	DelayMillis int               `mapstructure:"delay_millis"`
}

// OutputConfig controls the generated feed document.
type OutputConfig struct {
	Path        string `mapstructure:"path"`
	PrettyPrint bool   `mapstructure:"pretty_print"`
}

// Timeout returns the per-request HTTP timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Delay returns the global politeness delay between network attempts.
func (c Config) Delay() time.Duration {
	return time.Duration(c.DelayMillis) * time.Millisecond
}

// Load reads the configuration file at path, applying AGROFEED_* env
// overrides. A local .env file is loaded first when present.
func Load(path string) (Config, error) {
	// Missing .env is fine; it only exists in local setups.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("AGROFEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("user_agent", defaultUserAgent)
	v.SetDefault("timeout_seconds", defaultTimeoutSeconds)
	v.SetDefault("delay_millis", defaultDelayMillis)
	v.SetDefault("feed_paths", defaultFeedPaths)
	v.SetDefault("listing_paths", defaultListingPaths)
	v.SetDefault("output.path", defaultOutputPath)
	v.SetDefault("output.pretty_print", true)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg = sanitize(cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// sanitize trims whitespace and applies per-source defaults.
func sanitize(cfg Config) Config {
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.UserAgent = strings.TrimSpace(cfg.UserAgent)
	cfg.Output.Path = strings.TrimSpace(cfg.Output.Path)
	cfg.PublishersFile = strings.TrimSpace(cfg.PublishersFile)
	cfg.LedgerPath = strings.TrimSpace(cfg.LedgerPath)

	cfg.Keywords = trimAll(cfg.Keywords)
	cfg.FeedPaths = trimAll(cfg.FeedPaths)
	cfg.ListingPaths = trimAll(cfg.ListingPaths)

	for i := range cfg.Sources {
		src := &cfg.Sources[i]
		src.ID = strings.ToLower(strings.TrimSpace(src.ID))
		src.Name = strings.TrimSpace(src.Name)
		src.BaseURL = strings.TrimRight(strings.TrimSpace(src.BaseURL), "/")
		if src.DelayMillis <= 0 {
			src.DelayMillis = cfg.DelayMillis
		}
	}
	return cfg
}

// trimAll trims every entry and drops the empty ones.
func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, val := range values {
		if trimmed := strings.TrimSpace(val); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// validate checks the invariants a run cannot start without.
func validate(cfg Config) error {
	if len(cfg.Sources) == 0 {
		return errors.New("at least one source is required")
	}
	if len(cfg.Keywords) == 0 {
		return errors.New("at least one keyword is required")
	}
	if cfg.Output.Path == "" {
		return errors.New("output.path is required")
	}
	if cfg.TimeoutSeconds <= 0 {
		return errors.New("timeout_seconds must be positive")
	}
	if cfg.DelayMillis < 0 {
		return errors.New("delay_millis must be non-negative")
	}

	seen := make(map[string]struct{}, len(cfg.Sources))
	for i, src := range cfg.Sources {
		if src.ID == "" {
			return fmt.Errorf("sources[%d]: id is required", i)
		}
		if src.Name == "" {
			return fmt.Errorf("source %q: name is required", src.ID)
		}
		if !strings.HasPrefix(src.BaseURL, "http://") && !strings.HasPrefix(src.BaseURL, "https://") {
			return fmt.Errorf("source %q: base_url must be an absolute http(s) URL", src.ID)
		}
		if _, dup := seen[src.ID]; dup {
			return fmt.Errorf("duplicate source id %q", src.ID)
		}
		seen[src.ID] = struct{}{}
	}
	return nil
}
