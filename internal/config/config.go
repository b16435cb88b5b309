// Package config loads the tool's YAML configuration, applies environment
// overrides and validates the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/yusukeinoue-jpg/lime-tool/internal/database"
	"github.com/yusukeinoue-jpg/lime-tool/internal/fleet"
	"github.com/yusukeinoue-jpg/lime-tool/internal/geo"
	"github.com/yusukeinoue-jpg/lime-tool/internal/mapview"
)

// Environment variables that override file values
const (
	EnvSecret     = "LIME_SECRET"
	EnvAddr       = "LIME_ADDR"
	EnvPortsPath  = "LIME_PORTS_PATH"
	EnvRedisAddr  = "LIME_REDIS_ADDR"
	EnvSessionKey = "LIME_SESSION_KEY"
	EnvLogLevel   = "LIME_LOG_LEVEL"
)

// Center is the fallback map center
type Center struct {
	Lat float64 `yaml:"lat" validate:"latitude"`
	Lon float64 `yaml:"lon" validate:"longitude"`
}

// Redis enables the Redis session store when Addr is set
type Redis struct {
	Addr     string `yaml:"addr" validate:"omitempty,hostname_port"`
	DB       int    `yaml:"db" validate:"min=0"`
	Password string `yaml:"password"`
}

// Config holds every setting of both binaries
type Config struct {
	Addr          string        `yaml:"addr" validate:"required"`
	Domain        string        `yaml:"domain" validate:"omitempty,fqdn"`
	Secret        string        `yaml:"secret" validate:"required"`
	SessionKey    string        `yaml:"session_key" validate:"omitempty,min=32"`
	SessionTTL    time.Duration `yaml:"session_ttl" validate:"gt=0"`
	PortsPath     string        `yaml:"ports_path" validate:"required"`
	DBPath        string        `yaml:"db_path" validate:"required"`
	Sentinel      string        `yaml:"sentinel" validate:"required"`
	AdminBaseURL  string        `yaml:"admin_base_url" validate:"required,url"`
	Region        string        `yaml:"region" validate:"required"`
	RouteBaseURL  string        `yaml:"route_base_url" validate:"required,url"`
	Timezone      string        `yaml:"timezone" validate:"required"`
	DefaultLang   string        `yaml:"default_lang" validate:"oneof=ja en"`
	DefaultCenter Center        `yaml:"default_center"`
	Zoom          int           `yaml:"zoom" validate:"min=1,max=19"`
	Redis         Redis         `yaml:"redis"`
	LogLevel      string        `yaml:"log_level" validate:"oneof=trace debug info warn error"`
}

var validate = validator.New()

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Addr:          ":8501",
		SessionTTL:    12 * time.Hour,
		PortsPath:     "data/Tokyo.csv",
		DBPath:        database.DBPath(),
		Sentinel:      fleet.DefaultSentinel,
		AdminBaseURL:  mapview.DefaultAdminBaseURL,
		Region:        mapview.DefaultRegion,
		RouteBaseURL:  mapview.DefaultRouteBaseURL,
		Timezone:      "Asia/Tokyo",
		DefaultLang:   "ja",
		DefaultCenter: Center{Lat: 35.681236, Lon: 139.767125},
		Zoom:          mapview.DefaultZoom,
		LogLevel:      "info",
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides fields from the LIME_* variables found by lookup
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvSecret); ok {
		c.Secret = v
	}
	if v, ok := lookup(EnvAddr); ok {
		c.Addr = v
	}
	if v, ok := lookup(EnvPortsPath); ok {
		c.PortsPath = v
	}
	if v, ok := lookup(EnvRedisAddr); ok {
		c.Redis.Addr = v
	}
	if v, ok := lookup(EnvSessionKey); ok {
		c.SessionKey = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.LogLevel = strings.ToLower(v)
	}
}

// Validate checks field constraints and that the timezone exists
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid config: timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location resolves Timezone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Language is the default display language
func (c *Config) Language() language.Tag {
	if c.DefaultLang == "en" {
		return language.English
	}
	return language.Japanese
}

// Center returns the fallback map center
func (c *Config) Center() geo.Point {
	return geo.Point{Lat: c.DefaultCenter.Lat, Lon: c.DefaultCenter.Lon}
}

// Links returns the outbound link settings
func (c *Config) Links() mapview.Links {
	return mapview.Links{AdminBaseURL: c.AdminBaseURL, Region: c.Region, RouteBaseURL: c.RouteBaseURL}
}

// RedisEnabled reports whether sessions go to Redis
func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}

// ConfigureLogging sets the logrus level and formatter
func (c *Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}

// String hides secrets when the config is logged
func (c *Config) String() string {
	redis := "memory"
	if c.RedisEnabled() {
		redis = c.Redis.Addr + "/" + strconv.Itoa(c.Redis.DB)
	}
	return fmt.Sprintf("addr=%s domain=%q ports=%s db=%s sessions=%s tz=%s lang=%s",
		c.Addr, c.Domain, c.PortsPath, c.DBPath, redis, c.Timezone, c.DefaultLang)
}
