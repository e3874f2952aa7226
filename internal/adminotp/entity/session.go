package entity

import (
	"errors"
	"strconv"
	"time"

	"github.com/shandysiswandi/adminotp/internal/pkg/session"
)

// ErrCorruptOTPSession is returned when stored pending-login values cannot be decoded.
var ErrCorruptOTPSession = errors.New("adminotp: otp session state is missing or corrupt")

// OTPSession is the pending-login state kept between the password check and
// the OTP verification.
type OTPSession struct {
	PrincipalID int64
	Code        string // hmac of the issued code
	ExpiresAt   time.Time
	Attempts    int
}

// Expired reports whether at is strictly after the expiry.
func (o OTPSession) Expired(at time.Time) bool {
	return at.After(o.ExpiresAt)
}

// Values encodes the state into session store values.
func (o OTPSession) Values() session.Values {
	return session.Values{
		session.KeyLoginState:  strconv.FormatInt(o.PrincipalID, 10),
		session.KeyOTPCode:     o.Code,
		session.KeyOTPExpiry:   o.ExpiresAt.UTC().Format(time.RFC3339Nano),
		session.KeyOTPAttempts: strconv.Itoa(o.Attempts),
	}
}

// HasPendingLogin reports whether any pending-login key is present.
func HasPendingLogin(v session.Values) bool {
	for _, key := range []string{session.KeyLoginState, session.KeyOTPCode, session.KeyOTPExpiry, session.KeyOTPAttempts} {
		if _, ok := v.Get(key); ok {
			return true
		}
	}
	return false
}

// OTPSessionFromValues decodes the pending-login state. Every field must be present and well formed.
func OTPSessionFromValues(v session.Values) (*OTPSession, error) {
	rawID, okID := v.Get(session.KeyLoginState)
	code, okCode := v.Get(session.KeyOTPCode)
	rawExp, okExp := v.Get(session.KeyOTPExpiry)
	rawAttempts, okAttempts := v.Get(session.KeyOTPAttempts)
	if !okID || !okCode || !okExp || !okAttempts {
		return nil, ErrCorruptOTPSession
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return nil, ErrCorruptOTPSession
	}

	exp, err := time.Parse(time.RFC3339Nano, rawExp)
	if err != nil {
		return nil, ErrCorruptOTPSession
	}

	attempts, err := strconv.Atoi(rawAttempts)
	if err != nil || attempts < 0 {
		return nil, ErrCorruptOTPSession
	}

	return &OTPSession{
		PrincipalID: id,
		Code:        code,
		ExpiresAt:   exp,
		Attempts:    attempts,
	}, nil
}
