package startup

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"photo-gallery/internal/indexer"
	"photo-gallery/internal/logging"
	"photo-gallery/internal/memory"
)

// Config holds all application configuration
type Config struct {
	SourceDir          string
	OutputDir          string
	StaticDir          string
	ViewsDir           string
	ThumbnailURLPrefix string

	Port           string
	MetricsPort    string
	MetricsEnabled bool

	LogLevel        string
	LogFormat       string
	LogStaticFiles  bool
	LogHealthChecks bool

	ThumbnailSize       int
	ThumbnailQuality    int
	CaptureDateFallback indexer.DateFallback
	BuildWorkers        int
	WarmCache           bool

	// MemoryLimit is the container memory limit in bytes; 0 disables the
	// soft limit and thumbnail backpressure.
	MemoryLimit int64
	MemoryRatio float64

	CORSOrigins     []string
	SiteTitle       string
	ReloadTemplates bool

	// ConfigFile is the file that was read, or "" when none was found.
	ConfigFile string
}

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"source":    "SOURCE_DIR",
	"output":    "OUTPUT_DIR",
	"port":      "PORT",
	"log-level": "LOG_LEVEL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SOURCE_DIR", "./images")
	v.SetDefault("OUTPUT_DIR", "./static/images")
	v.SetDefault("STATIC_DIR", "./static")
	v.SetDefault("VIEWS_DIR", "./views")
	v.SetDefault("THUMBNAIL_URL_PREFIX", "/static/images")
	v.SetDefault("PORT", "8080")
	v.SetDefault("METRICS_PORT", "9090")
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("LOG_STATIC_FILES", false)
	v.SetDefault("LOG_HEALTH_CHECKS", true)
	v.SetDefault("THUMBNAIL_SIZE", 300)
	v.SetDefault("THUMBNAIL_QUALITY", 80)
	v.SetDefault("CAPTURE_DATE_FALLBACK", string(indexer.FallbackNone))
	v.SetDefault("BUILD_WORKERS", 0)
	v.SetDefault("WARM_CACHE", false)
	v.SetDefault("MEMORY_LIMIT", 0)
	v.SetDefault("MEMORY_RATIO", memory.DefaultMemoryRatio)
	v.SetDefault("CORS_ORIGINS", "")
	v.SetDefault("SITE_TITLE", "Gallery")
	v.SetDefault("RELOAD_TEMPLATES", false)
}

// LoadConfig resolves configuration from, lowest precedence first: built-in
// defaults, an optional YAML file (config.yaml in the working directory, or
// the --config flag), environment variables, then command-line flags.
// flags may be nil.
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")

	explicit := ""
	if flags != nil {
		if f := flags.Lookup("config"); f != nil {
			explicit = f.Value.String()
		}
	}
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag --%s: %w", name, err)
				}
			}
		}
	}

	fallback, err := indexer.ParseDateFallback(strings.ToLower(v.GetString("CAPTURE_DATE_FALLBACK")))
	if err != nil {
		return nil, err
	}

	config := &Config{
		SourceDir:           v.GetString("SOURCE_DIR"),
		OutputDir:           v.GetString("OUTPUT_DIR"),
		StaticDir:           v.GetString("STATIC_DIR"),
		ViewsDir:            v.GetString("VIEWS_DIR"),
		ThumbnailURLPrefix:  v.GetString("THUMBNAIL_URL_PREFIX"),
		Port:                v.GetString("PORT"),
		MetricsPort:         v.GetString("METRICS_PORT"),
		MetricsEnabled:      v.GetBool("METRICS_ENABLED"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		LogFormat:           v.GetString("LOG_FORMAT"),
		LogStaticFiles:      v.GetBool("LOG_STATIC_FILES"),
		LogHealthChecks:     v.GetBool("LOG_HEALTH_CHECKS"),
		ThumbnailSize:       v.GetInt("THUMBNAIL_SIZE"),
		ThumbnailQuality:    v.GetInt("THUMBNAIL_QUALITY"),
		CaptureDateFallback: fallback,
		BuildWorkers:        v.GetInt("BUILD_WORKERS"),
		WarmCache:           v.GetBool("WARM_CACHE"),
		MemoryLimit:         v.GetInt64("MEMORY_LIMIT"),
		MemoryRatio:         v.GetFloat64("MEMORY_RATIO"),
		CORSOrigins:         stringList(v, "CORS_ORIGINS"),
		SiteTitle:           v.GetString("SITE_TITLE"),
		ReloadTemplates:     v.GetBool("RELOAD_TEMPLATES"),
		ConfigFile:          v.ConfigFileUsed(),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// stringList accepts either a YAML list or a comma-separated string.
func stringList(v *viper.Viper, key string) []string {
	var raw []string
	if s, ok := v.Get(key).(string); ok {
		raw = strings.Split(s, ",")
	} else {
		raw = v.GetStringSlice(key)
	}

	var out []string
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.SourceDir == "" {
		return errors.New("SOURCE_DIR must not be empty")
	}
	if c.OutputDir == "" {
		return errors.New("OUTPUT_DIR must not be empty")
	}
	if filepath.Clean(c.SourceDir) == filepath.Clean(c.OutputDir) {
		return errors.New("OUTPUT_DIR must differ from SOURCE_DIR: the output directory is purged on every build")
	}
	if !strings.HasPrefix(c.ThumbnailURLPrefix, "/") {
		return fmt.Errorf("THUMBNAIL_URL_PREFIX must start with '/': %q", c.ThumbnailURLPrefix)
	}
	if err := validatePort("PORT", c.Port); err != nil {
		return err
	}
	if c.MetricsEnabled {
		if err := validatePort("METRICS_PORT", c.MetricsPort); err != nil {
			return err
		}
		if c.MetricsPort == c.Port {
			return fmt.Errorf("METRICS_PORT must differ from PORT (%s)", c.Port)
		}
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json: %q", c.LogFormat)
	}
	if c.ThumbnailSize <= 0 {
		return fmt.Errorf("THUMBNAIL_SIZE must be positive: %d", c.ThumbnailSize)
	}
	if c.ThumbnailQuality < 1 || c.ThumbnailQuality > 100 {
		return fmt.Errorf("THUMBNAIL_QUALITY must be between 1 and 100: %d", c.ThumbnailQuality)
	}
	if c.BuildWorkers < 0 {
		return fmt.Errorf("BUILD_WORKERS must not be negative: %d", c.BuildWorkers)
	}
	if c.MemoryLimit < 0 {
		return fmt.Errorf("MEMORY_LIMIT must not be negative: %d", c.MemoryLimit)
	}
	if c.MemoryRatio <= 0 || c.MemoryRatio > 1 {
		return fmt.Errorf("MEMORY_RATIO must be in (0, 1]: %v", c.MemoryRatio)
	}
	return nil
}

func validatePort(key, port string) error {
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("%s must be a port number: %q", key, port)
	}
	return nil
}
