// Package config reads the gate's settings from a YAML file with environment
// overrides.
package config

import (
	"io"
	"time"
)

// EnvPrefix namespaces environment overrides: jwt.secret is read from
// ADMINOTP_JWT_SECRET when set.
const EnvPrefix = "ADMINOTP"

// DurationConfig reads integer settings as durations of a fixed unit. Keys
// are named after the unit, like timeout_seconds or ttl_minutes.
type DurationConfig interface {
	GetMillisecond(key string) time.Duration
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
}

// Config is the read-only view of settings handed to every component.
// Missing keys read as the zero value; callers apply their own defaults.
type Config interface {
	io.Closer
	DurationConfig

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt32(key string) int32
	GetFloat64(key string) float64

	// GetArray accepts either a YAML list or a comma separated string.
	// Items are trimmed and blanks are dropped.
	GetArray(key string) []string
}
