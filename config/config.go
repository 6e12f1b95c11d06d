package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"presenca_backend/models"
)

// Config holds everything the process needs, loaded once at startup from
// the environment (with .env support for local runs).
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort  string `envconfig:"PORT" default:"8080"`
	JWTSecret   string `envconfig:"JWT_SECRET" required:"true"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error

	// School geofence. Defaults match the prototype deployment in Belém.
	SchoolName           string  `envconfig:"SCHOOL_NAME" default:"Escola Exemplo"`
	SchoolLatitude       float64 `envconfig:"SCHOOL_LATITUDE" default:"-1.4558"`
	SchoolLongitude      float64 `envconfig:"SCHOOL_LONGITUDE" default:"-48.5044"`
	GeofenceRadiusMeters float64 `envconfig:"GEOFENCE_RADIUS_METERS" default:"200"`

	// Auto check-in loop. The 30s/30min pairing is a battery/precision
	// tradeoff inherited from the prototype, so it stays configurable.
	AutoCheckInterval time.Duration `envconfig:"AUTO_CHECK_INTERVAL" default:"30s"`
	AutoCheckCooldown time.Duration `envconfig:"AUTO_CHECK_COOLDOWN" default:"30m"`

	// How old a device position report may be and still count as a sample.
	LocationMaxAge time.Duration `envconfig:"LOCATION_MAX_AGE" default:"2m"`

	// Durable store. Driver is one of: file, sqlite, postgres, memory.
	StoreDriver string `envconfig:"STORE_DRIVER" default:"file"`
	StorePath   string `envconfig:"STORE_PATH" default:"./data"`
	DBHost      string `envconfig:"DB_HOST" default:"localhost"`
	DBPort      int    `envconfig:"DB_PORT" default:"5432"`
	DBUser      string `envconfig:"DB_USER" default:"postgres"`
	DBPassword  string `envconfig:"DB_PASSWORD" default:""`
	DBName      string `envconfig:"DB_NAME" default:"presenca"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if cfg.GeofenceRadiusMeters <= 0 {
		return nil, fmt.Errorf("GEOFENCE_RADIUS_METERS must be positive, got %v", cfg.GeofenceRadiusMeters)
	}
	if cfg.SchoolLatitude < -90 || cfg.SchoolLatitude > 90 {
		return nil, fmt.Errorf("SCHOOL_LATITUDE out of range: %v", cfg.SchoolLatitude)
	}
	if cfg.SchoolLongitude < -180 || cfg.SchoolLongitude > 180 {
		return nil, fmt.Errorf("SCHOOL_LONGITUDE out of range: %v", cfg.SchoolLongitude)
	}

	return &cfg, nil
}

// Fence builds the immutable geofence configuration.
func (c *Config) Fence() models.FenceConfig {
	return models.FenceConfig{
		Center: models.Coordinate{
			Latitude:  c.SchoolLatitude,
			Longitude: c.SchoolLongitude,
		},
		RadiusMeters: c.GeofenceRadiusMeters,
	}
}
