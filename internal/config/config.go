package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "smartcharger/libs/config"
)

// HTTPConfig holds the listener settings.
type HTTPConfig struct {
	Port string `yaml:"port" env:"HTTP_PORT"`
}

// DatabaseConfig holds the Postgres settings.
type DatabaseConfig struct {
	DSN          string `yaml:"dsn" env:"POSTGRES_DSN"`
	MaxOpenConns int    `yaml:"maxOpenConns" env:"POSTGRES_MAX_OPEN_CONNS"`
	MaxIdleConns int    `yaml:"maxIdleConns" env:"POSTGRES_MAX_IDLE_CONNS"`
}

// RedisConfig holds the lock backend settings.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

// AuthConfig holds token verification settings.
type AuthConfig struct {
	JWTSecret string `yaml:"jwtSecret" env:"JWT_SECRET"`
}

// LockConfig bounds the per-pile lock acquisition and hold windows.
type LockConfig struct {
	WaitSeconds int `yaml:"waitSeconds" env:"LOCK_WAIT_SECONDS"`
	HoldSeconds int `yaml:"holdSeconds" env:"LOCK_HOLD_SECONDS"`
}

// ReservationConfig controls the reservation hold and expiry sweep.
type ReservationConfig struct {
	HoldMinutes    int    `yaml:"holdMinutes" env:"RESERVATION_HOLD_MINUTES"`
	GraceMinutes   int    `yaml:"graceMinutes" env:"RESERVATION_GRACE_MINUTES"`
	ExpirySchedule string `yaml:"expirySchedule" env:"RESERVATION_EXPIRY_SCHEDULE"`
}

// OvertimeConfig controls the overstay detection sweep.
type OvertimeConfig struct {
	DefaultThresholdMinutes int    `yaml:"defaultThresholdMinutes" env:"OVERTIME_DEFAULT_THRESHOLD_MINUTES"`
	Schedule                string `yaml:"schedule" env:"OVERTIME_SCHEDULE"`
}

// Config defines the smartcharger service configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Auth        AuthConfig        `yaml:"auth"`
	Lock        LockConfig        `yaml:"lock"`
	Reservation ReservationConfig `yaml:"reservation"`
	Overtime    OvertimeConfig    `yaml:"overtime"`
}

// Load reads configuration via the shared helper and applies defaults.
func Load() (*Config, error) {
	cfg := &Config{
		HTTP:  HTTPConfig{Port: "8080"},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Lock:  LockConfig{WaitSeconds: 5, HoldSeconds: 10},
		Reservation: ReservationConfig{
			HoldMinutes:    120,
			GraceMinutes:   30,
			ExpirySchedule: "@every 1m",
		},
		Overtime: OvertimeConfig{
			DefaultThresholdMinutes: 30,
			Schedule:                "@every 5m",
		},
	}

	if err := libconfig.Load(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	if strings.TrimSpace(cfg.Redis.Addr) == "" {
		return nil, errors.New("config: redis addr required")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("config: jwt secret required")
	}
	return cfg, nil
}

// HTTPAddress returns the :port form of the configured listener.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// LockWait returns the lock acquire timeout.
func (c *Config) LockWait() time.Duration {
	return time.Duration(c.Lock.WaitSeconds) * time.Second
}

// LockHold returns the lock auto-release window.
func (c *Config) LockHold() time.Duration {
	return time.Duration(c.Lock.HoldSeconds) * time.Second
}

// ReservationHold returns how long a reservation keeps the pile.
func (c *Config) ReservationHold() time.Duration {
	return time.Duration(c.Reservation.HoldMinutes) * time.Minute
}

// ReservationGrace returns how far ahead of its start a reservation can be consumed.
func (c *Config) ReservationGrace() time.Duration {
	return time.Duration(c.Reservation.GraceMinutes) * time.Minute
}
