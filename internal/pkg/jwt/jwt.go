package jwt

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shandysiswandi/adminotp/internal/pkg/clock"
	"github.com/shandysiswandi/adminotp/internal/pkg/uid"
)

var (
	// ErrInvalidSigningMethod is returned when the JWT signing method is not supported.
	ErrInvalidSigningMethod = errors.New("invalid JWT signing method")

	// ErrSigningKeyTooShort is returned when the HS512 signing key is less than 64 bytes.
	ErrSigningKeyTooShort = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")

	// ErrTokenExpired is returned when the JWT token has expired.
	ErrTokenExpired = errors.New("JWT token has expired")

	// ErrInvalidToken is returned when the token is malformed or fails validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrSecondFactorMissing is returned for tokens that were not minted after
	// a completed OTP challenge.
	ErrSecondFactorMissing = errors.New("token was not issued after a second factor")
)

// Authentication method references (RFC 8176) stamped on issued tokens.
const (
	MethodPassword = "pwd"
	MethodOTP      = "otp"
)

// JWT issues and checks the access token handed out after a completed login.
type JWT interface {
	// Generate creates a signed token for the principal.
	Generate(principalID int64, mobile string) (string, error)
	// Verify parses and validates the token and returns claims.
	Verify(tokenStr string) (Claims, error)
}

type jwtContextKey struct{}

// Config defines the inputs for building a JWT implementation.
type Config struct {
	// Secret is the HMAC signing key.
	Secret []byte
	// Issuer is the token issuer value.
	Issuer string
	// Audiences are the accepted token audiences.
	Audiences []string
	// TTLMinutes is the token time-to-live.
	TTLMinutes time.Duration
	// Clock provides the current time source.
	Clock clock.Clocker
	// UUID generates token IDs.
	UUID uid.StringID
}

// Claims wraps registered claims with the admin principal.
type Claims struct {
	jwt.RegisteredClaims
	// UserID is the principal identifier.
	UserID int64 `json:"user_id,string"`
	// Mobile is the principal's login identifier.
	Mobile string `json:"mobile,omitempty"`
	// AMR lists the authentication methods that were completed.
	AMR []string `json:"amr,omitempty"`
}

// PassedOTP reports whether the claims record a completed OTP challenge.
func (c Claims) PassedOTP() bool {
	return slices.Contains(c.AMR, MethodOTP)
}

// GetAuth returns the claims stored in the context, if any.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(jwtContextKey{}).(Claims)
	if !ok {
		return nil
	}

	return &clm
}

// SetAuth stores claims in the context.
func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, jwtContextKey{}, clm)
}
