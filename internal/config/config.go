// Package config loads application configuration via viper and initializes
// the global zap logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gridsight/siterank/internal/scoring"
)

// Config holds the full application configuration.
type Config struct {
	Feed    FeedConfig     `yaml:"feed" mapstructure:"feed"`
	Catalog CatalogConfig  `yaml:"catalog" mapstructure:"catalog"`
	Scoring scoring.Params `yaml:"scoring" mapstructure:"scoring"`
	Engine  EngineConfig   `yaml:"engine" mapstructure:"engine"`
	Server  ServerConfig   `yaml:"server" mapstructure:"server"`
	Log     LogConfig      `yaml:"log" mapstructure:"log"`
}

// FeedConfig selects the feature data source.
type FeedConfig struct {
	// Driver is one of postgres, sqlite, shapefile.
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	ShapeDir    string `yaml:"shape_dir" mapstructure:"shape_dir"`
}

// CatalogConfig tunes the infrastructure catalog.
type CatalogConfig struct {
	TTL            time.Duration  `yaml:"ttl" mapstructure:"ttl"`
	LoadTimeout    time.Duration  `yaml:"load_timeout" mapstructure:"load_timeout"`
	LoadRatePerSec float64        `yaml:"load_rate_per_sec" mapstructure:"load_rate_per_sec"`
	TypeCaps       map[string]int `yaml:"type_caps" mapstructure:"type_caps"`
	MaxRadiusKm    float64        `yaml:"max_radius_km" mapstructure:"max_radius_km"`
}

// EngineConfig tunes batch execution.
type EngineConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
	ZoneTopN    int `yaml:"zone_top_n" mapstructure:"zone_top_n"`
	// ZonesPath points at a zone definitions YAML file; required before
	// any request may ask for zone enrichment.
	ZonesPath string `yaml:"zones_path" mapstructure:"zones_path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SITERANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key needs a default (even an empty one): viper only
	// surfaces SITERANK_* env values during Unmarshal for keys it knows.
	v.SetDefault("feed.driver", "postgres")
	v.SetDefault("feed.database_url", "")
	v.SetDefault("feed.sqlite_path", "siterank.db")
	v.SetDefault("feed.shape_dir", "")
	v.SetDefault("catalog.ttl", "6h")
	v.SetDefault("catalog.load_timeout", "30s")
	v.SetDefault("catalog.type_caps", map[string]int{
		"transmission_line": 5000,
		"fiber_route":       5000,
	})
	v.SetDefault("catalog.max_radius_km", 100)
	v.SetDefault("scoring.substation_half_km", 35)
	v.SetDefault("scoring.transmission_half_km", 50)
	v.SetDefault("scoring.fiber_half_km", 40)
	v.SetDefault("scoring.ixp_half_km", 70)
	v.SetDefault("scoring.water_half_km", 15)
	v.SetDefault("scoring.decay_cutoff_km", 200)
	v.SetDefault("scoring.tolerance_factor", 0.5)
	v.SetDefault("scoring.default_ideal_mw", 100)
	v.SetDefault("engine.concurrency", 8)
	v.SetDefault("engine.zone_top_n", 10)
	v.SetDefault("engine.zones_path", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
