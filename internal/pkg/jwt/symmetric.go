package jwt

import (
	"errors"
	"strconv"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
	"github.com/shandysiswandi/adminotp/internal/pkg/clock"
	"github.com/shandysiswandi/adminotp/internal/pkg/uid"
)

const (
	minHS512SecretLen = 64
	defaultTTL        = time.Hour
)

// Symmetric signs and verifies HS512 tokens with a shared secret.
type Symmetric struct {
	secret    []byte
	issuer    string
	audiences []string
	ttl       time.Duration
	clock     clock.Clocker
	uuid      uid.StringID
	parser    *libJWT.Parser
}

// NewHS512 builds a Symmetric signer. The secret must be at least 64 bytes;
// a non-positive ttl falls back to one hour.
func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < minHS512SecretLen {
		return nil, ErrSigningKeyTooShort
	}

	ttl := cfg.TTLMinutes
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &Symmetric{
		secret:    cfg.Secret,
		issuer:    cfg.Issuer,
		audiences: cfg.Audiences,
		ttl:       ttl,
		clock:     cfg.Clock,
		uuid:      cfg.UUID,
		parser: libJWT.NewParser(
			libJWT.WithIssuer(cfg.Issuer),
			libJWT.WithAudience(cfg.Audiences...),
			libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
			libJWT.WithIssuedAt(),
			libJWT.WithExpirationRequired(),
			libJWT.WithTimeFunc(cfg.Clock.Now),
		),
	}, nil
}

// Generate signs a token for a principal that passed both factors.
func (s *Symmetric) Generate(principalID int64, mobile string) (string, error) {
	now := s.clock.Now()
	clm := Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        s.uuid.Generate(),
			Subject:   strconv.FormatInt(principalID, 10),
			Issuer:    s.issuer,
			Audience:  s.audiences,
			IssuedAt:  libJWT.NewNumericDate(now),
			NotBefore: libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(now.Add(s.ttl)),
		},
		UserID: principalID,
		Mobile: mobile,
		AMR:    []string{MethodPassword, MethodOTP},
	}

	return libJWT.NewWithClaims(libJWT.SigningMethodHS512, clm).SignedString(s.secret)
}

func (s *Symmetric) key(t *libJWT.Token) (any, error) {
	if t.Method != libJWT.SigningMethodHS512 {
		return nil, ErrInvalidSigningMethod
	}
	return s.secret, nil
}

// Verify accepts a token only if it is valid now and was issued after an OTP
// challenge.
func (s *Symmetric) Verify(tokenStr string) (Claims, error) {
	var clm Claims

	token, err := s.parser.ParseWithClaims(tokenStr, &clm, s.key)
	switch {
	case errors.Is(err, libJWT.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil:
		return Claims{}, errors.Join(ErrInvalidToken, err)
	case !token.Valid:
		return Claims{}, ErrInvalidToken
	case !clm.PassedOTP():
		return Claims{}, ErrSecondFactorMissing
	}

	return clm, nil
}
