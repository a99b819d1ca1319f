package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the application configuration read from configs/config.yml.
type Config struct {
	Port     string
	LogLevel string
	DBPath   string

	ControlTick time.Duration

	Hardware HardwareConfig
	Store    StoreConfig
	Auth     AuthConfig

	ProfilesSeed string

	// EventRetention bounds the device event log; 0 keeps everything.
	EventRetention time.Duration
}

// HardwareConfig selects the I/O backend.
type HardwareConfig struct {
	Driver string // sim | serial
	Port   string
	Baud   int
}

// StoreConfig selects where the persisted settings blob lives.
type StoreConfig struct {
	Driver string // sqlite | file
	Path   string
}

// AuthConfig configures operator tokens.
type AuthConfig struct {
	SigningKey string
	TokenTTL   time.Duration
}

const (
	DriverSim    = "sim"
	DriverSerial = "serial"

	StoreSQLite = "sqlite"
	StoreFile   = "file"
)

var (
	errUnknownHardware = errors.New("hardware.driver must be sim or serial")
	errUnknownStore    = errors.New("store.driver must be sqlite or file")
	errBadTick         = errors.New("control.tick must be between 10ms and 1s")
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("db.path", "regulator.db")
	v.SetDefault("control.tick", 100*time.Millisecond)
	v.SetDefault("hardware.driver", DriverSim)
	v.SetDefault("hardware.port", "/dev/ttyACM0")
	v.SetDefault("hardware.baud", 115200)
	v.SetDefault("store.driver", StoreSQLite)
	v.SetDefault("store.path", "config.ini")
	v.SetDefault("profiles.seed", "")
	v.SetDefault("auth.signing_key", "change-me")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("events.retention", 30*24*time.Hour)
}

// Load reads config.yml from dir. A missing file yields the defaults;
// TEMPREG_* environment variables override both.
func Load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetEnvPrefix("TEMPREG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:        v.GetString("port"),
		LogLevel:    v.GetString("log.level"),
		DBPath:      v.GetString("db.path"),
		ControlTick: v.GetDuration("control.tick"),
		Hardware: HardwareConfig{
			Driver: strings.ToLower(v.GetString("hardware.driver")),
			Port:   v.GetString("hardware.port"),
			Baud:   v.GetInt("hardware.baud"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(v.GetString("store.driver")),
			Path:   v.GetString("store.path"),
		},
		Auth: AuthConfig{
			SigningKey: v.GetString("auth.signing_key"),
			TokenTTL:   v.GetDuration("auth.token_ttl"),
		},
		ProfilesSeed:   v.GetString("profiles.seed"),
		EventRetention: v.GetDuration("events.retention"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Hardware.Driver {
	case DriverSim, DriverSerial:
	default:
		return errUnknownHardware
	}
	switch c.Store.Driver {
	case StoreSQLite, StoreFile:
	default:
		return errUnknownStore
	}
	if c.ControlTick < 10*time.Millisecond || c.ControlTick > time.Second {
		return errBadTick
	}
	return nil
}
