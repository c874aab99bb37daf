package config

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv       = "ZIPMARKET_CONFIG"
	dataDirEnv          = "ZIPMARKET_DATA_DIR"
	homeValueURLEnv     = "ZIPMARKET_HOME_VALUE_URL"
	marketTrackerURLEnv = "ZIPMARKET_MARKET_TRACKER_URL"
	logLevelEnv         = "ZIPMARKET_LOG_LEVEL"
)

// Config holds high-level settings required across the pipeline. The
// compiled-in defaults reproduce the canonical feed endpoints and layout,
// so a bare run needs no config file at all.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Paths     PathsConfig     `yaml:"paths"`
	Feeds     FeedConfig      `yaml:"feeds"`
	HTTP      HTTPConfig      `yaml:"http"`
	Output    OutputConfig    `yaml:"output"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// LoggingConfig controls console verbosity and the per-run log file.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	RunLog string `yaml:"runLog"`
}

// PathsConfig locates the data directory and its inputs.
type PathsConfig struct {
	DataDir     string `yaml:"dataDir"`
	MappingFile string `yaml:"mappingFile"`
	GeoJSONFile string `yaml:"geojsonFile"`
}

// MappingPath resolves the ZCTA metadata file, defaulting into the data
// directory.
func (p PathsConfig) MappingPath() string {
	if p.MappingFile != "" {
		return p.MappingFile
	}
	return filepath.Join(p.DataDir, "zcta-meta.csv")
}

// GeoJSONPath resolves the boundary asset, defaulting into the data
// directory.
func (p PathsConfig) GeoJSONPath() string {
	if p.GeoJSONFile != "" {
		return p.GeoJSONFile
	}
	return filepath.Join(p.DataDir, "us-zip-codes.geojson.gz")
}

// FeedConfig names the two upstream feed endpoints.
type FeedConfig struct {
	HomeValueURL     string `yaml:"homeValueUrl"`
	MarketTrackerURL string `yaml:"marketTrackerUrl"`
}

// HTTPConfig bounds the download behavior.
type HTTPConfig struct {
	Attempts       int `yaml:"attempts"`
	TimeoutSeconds int `yaml:"timeoutSeconds"`
}

// Timeout resolves the per-request timeout.
func (h HTTPConfig) Timeout() time.Duration {
	if h.TimeoutSeconds <= 0 {
		return 300 * time.Second
	}
	return time.Duration(h.TimeoutSeconds) * time.Second
}

// OutputConfig controls how artifacts are written.
type OutputConfig struct {
	Compress bool `yaml:"compress"`
}

// SchedulerConfig enables the repeatable-run mode.
type SchedulerConfig struct {
	Enabled       bool `yaml:"enabled"`
	IntervalHours int  `yaml:"intervalHours"`
}

// Interval resolves the refresh interval.
func (s SchedulerConfig) Interval() time.Duration {
	if s.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(s.IntervalHours) * time.Hour
}

// Load reads YAML configuration (if present) and applies environment
// overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(dataDirEnv); v != "" {
		c.Paths.DataDir = v
	}

	if v := os.Getenv(homeValueURLEnv); v != "" {
		c.Feeds.HomeValueURL = v
	}

	if v := os.Getenv(marketTrackerURLEnv); v != "" {
		c.Feeds.MarketTrackerURL = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.RunLog != "" {
		base.Logging.RunLog = override.Logging.RunLog
	}

	if override.Paths.DataDir != "" {
		base.Paths.DataDir = override.Paths.DataDir
	}
	if override.Paths.MappingFile != "" {
		base.Paths.MappingFile = override.Paths.MappingFile
	}
	if override.Paths.GeoJSONFile != "" {
		base.Paths.GeoJSONFile = override.Paths.GeoJSONFile
	}

	if override.Feeds.HomeValueURL != "" {
		base.Feeds.HomeValueURL = override.Feeds.HomeValueURL
	}
	if override.Feeds.MarketTrackerURL != "" {
		base.Feeds.MarketTrackerURL = override.Feeds.MarketTrackerURL
	}

	if override.HTTP.Attempts > 0 {
		base.HTTP.Attempts = override.HTTP.Attempts
	}
	if override.HTTP.TimeoutSeconds > 0 {
		base.HTTP.TimeoutSeconds = override.HTTP.TimeoutSeconds
	}

	if override.Output.Compress {
		base.Output.Compress = true
	}

	if override.Scheduler.Enabled {
		base.Scheduler.Enabled = true
	}
	if override.Scheduler.IntervalHours > 0 {
		base.Scheduler.IntervalHours = override.Scheduler.IntervalHours
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Level:  "info",
			RunLog: "data_pipeline.log",
		},
		Paths: PathsConfig{
			DataDir: filepath.Join("public", "data"),
		},
		Feeds: FeedConfig{
			HomeValueURL:     "https://files.zillowstatic.com/research/public_csvs/zhvi/Zip_zhvi_uc_sfrcondo_tier_0.33_0.67_sm_sa_month.csv",
			MarketTrackerURL: "https://redfin-public-data.s3.us-west-2.amazonaws.com/redfin_market_tracker/zip_code_market_tracker.tsv000.gz",
		},
		HTTP: HTTPConfig{
			Attempts:       3,
			TimeoutSeconds: 300,
		},
		Output:    OutputConfig{Compress: false},
		Scheduler: SchedulerConfig{Enabled: false, IntervalHours: 24},
	}
}
