package session

import (
	"context"
	"errors"
	"time"
)

// Keys written by the login gate.
const (
	KeyOTPAttempts   = "otp_attempts"
	KeyLoginState    = "login_state"
	KeyOTPCode       = "otp_code"
	KeyOTPExpiry     = "otp_exp"
	KeyAuthPrincipal = "auth_principal_id"
)

const (
	// DriverRedis selects the Redis-backed store.
	DriverRedis = "redis"
	// DriverMemory selects the process-local store.
	DriverMemory = "memory"
)

// DefaultTTL is used when a store is built with a non-positive ttl.
const DefaultTTL = 2 * time.Hour

var (
	// ErrIDRequired is returned when an operation is called without a session id.
	ErrIDRequired = errors.New("session: session id is required")
	// ErrUnknownDriver is reported when session.driver names no known store.
	ErrUnknownDriver = errors.New("session: unknown driver")
)

// Values is a snapshot of everything stored for one session.
type Values map[string]string

// Get returns the value for key and whether it is present and non-empty.
func (v Values) Get(key string) (string, bool) {
	val, ok := v[key]
	if !ok || val == "" {
		return "", false
	}
	return val, true
}

// Store is a per-client key-value store keyed by an opaque session id.
type Store interface {
	// Get returns all values of the session. A missing session yields empty Values.
	Get(ctx context.Context, sid string) (Values, error)
	// Set merges values into the session and refreshes its ttl.
	Set(ctx context.Context, sid string, values Values) error
	// IncrIf atomically increments an integer key while the guard field still
	// holds want, and returns the new value. When the guard does not match,
	// including a missing session, nothing is written and ok is false.
	IncrIf(ctx context.Context, sid, key, guard, want string) (n int64, ok bool, err error)
	// Flush removes every value of the session.
	Flush(ctx context.Context, sid string) error
}

type idContextKey struct{}

// SetID stores the session id in the context.
func SetID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, idContextKey{}, sid)
}

// GetID returns the session id stored in the context, or an empty string.
func GetID(ctx context.Context) string {
	sid, ok := ctx.Value(idContextKey{}).(string)
	if !ok {
		return ""
	}
	return sid
}
