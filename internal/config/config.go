package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/salonkit/reserve-core/internal/models"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Database DatabaseConfig `env:",prefix=DB_"`
	Salon    SalonConfig    `env:",prefix=SALON_"`
	App      AppConfig      `env:",prefix=APP_"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string  `env:"PORT,default=8080"`
	Host         string  `env:"HOST,default=0.0.0.0"`
	ReadTimeout  int     `env:"READ_TIMEOUT,default=10"`  // seconds
	WriteTimeout int     `env:"WRITE_TIMEOUT,default=15"` // seconds
	ReadRPS      float64 `env:"READ_RPS,default=50"`      // availability rate limit
	ReadBurst    int     `env:"READ_BURST,default=100"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=5432"`
	User     string `env:"USER,default=postgres"`
	Password string `env:"PASSWORD,default=postgres"`
	Name     string `env:"NAME,default=reserve_core"`
	SSLMode  string `env:"SSL_MODE,default=disable"`
	MaxConns int    `env:"MAX_CONNS,default=20"`
	MinConns int    `env:"MIN_CONNS,default=5"`
}

// SalonConfig is the typed business policy the core functions receive
// instead of a key/value settings store.
type SalonConfig struct {
	ClosedWeekday      int    `env:"CLOSED_WEEKDAY,default=2"` // time.Weekday, Tuesday
	WeekdayOpen        string `env:"WEEKDAY_OPEN,default=10:00"`
	WeekdayClose       string `env:"WEEKDAY_CLOSE,default=20:00"`
	WeekdayLastBooking string `env:"WEEKDAY_LAST_BOOKING,default=19:00"`
	WeekendOpen        string `env:"WEEKEND_OPEN,default=09:00"`
	WeekendClose       string `env:"WEEKEND_CLOSE,default=19:00"`
	WeekendLastBooking string `env:"WEEKEND_LAST_BOOKING,default=18:00"`
	SlotGranularityMin int    `env:"SLOT_GRANULARITY_MIN,default=30"`
	TaxRatePercent     int    `env:"TAX_RATE_PERCENT,default=10"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Environment string `env:"ENVIRONMENT,default=development"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
}

// Load loads configuration from environment variables.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	return &cfg, nil
}

// GetDatabaseURL returns the PostgreSQL connection string.
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// GetServerAddr returns the listen address.
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// WeekdayHours parses the configured weekday hours.
func (c *SalonConfig) WeekdayHours() (models.BusinessHours, error) {
	return parseHours(c.WeekdayOpen, c.WeekdayClose, c.WeekdayLastBooking)
}

// WeekendHours parses the configured weekend/holiday hours.
func (c *SalonConfig) WeekendHours() (models.BusinessHours, error) {
	return parseHours(c.WeekendOpen, c.WeekendClose, c.WeekendLastBooking)
}

// Weekday returns the weekly closed weekday.
func (c *SalonConfig) Weekday() time.Weekday {
	return time.Weekday(c.ClosedWeekday)
}

func parseHours(open, close, last string) (models.BusinessHours, error) {
	o, err := models.NewTimeOfDay(open)
	if err != nil {
		return models.BusinessHours{}, fmt.Errorf("open time: %w", err)
	}
	c, err := models.NewTimeOfDay(close)
	if err != nil {
		return models.BusinessHours{}, fmt.Errorf("close time: %w", err)
	}
	l, err := models.NewTimeOfDay(last)
	if err != nil {
		return models.BusinessHours{}, fmt.Errorf("last booking time: %w", err)
	}
	if !o.Before(c) || c.Before(l) {
		return models.BusinessHours{}, fmt.Errorf("inconsistent hours %s-%s last %s", open, close, last)
	}
	return models.BusinessHours{Open: o, Close: c, LastBooking: l}, nil
}
