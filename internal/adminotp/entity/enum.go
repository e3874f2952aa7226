package entity

import (
	"strconv"

	"github.com/shandysiswandi/adminotp/internal/pkg/session"
)

// State is the position of a client session in the login gate.
type State int8

const (
	// StateAnonymous means nothing is pending and nobody is logged in.
	StateAnonymous State = iota
	// StateCredentialsOK is the transient state between the password check and OTP issuance.
	StateCredentialsOK
	// StateOTPPending means a code was issued and awaits verification.
	StateOTPPending
	// StateAuthenticated means the session resolved to a principal.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateCredentialsOK:
		return "CREDENTIALS_OK"
	case StateOTPPending:
		return "OTP_PENDING"
	case StateAuthenticated:
		return "AUTHENTICATED"
	default:
		return "ANONYMOUS"
	}
}

// StateFromValues derives the state from what the session store holds.
func StateFromValues(v session.Values) State {
	if raw, ok := v.Get(session.KeyAuthPrincipal); ok {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			return StateAuthenticated
		}
	}
	if HasPendingLogin(v) {
		return StateOTPPending
	}
	return StateAnonymous
}

// Outcome labels what happened to a login attempt; used for metrics and audit events.
type Outcome string

const (
	OutcomeOTPIssued         Outcome = "otp_issued"
	OutcomeBadCredentials    Outcome = "bad_credentials"
	OutcomeProviderFailed    Outcome = "provider_failed"
	OutcomeVerified          Outcome = "verified"
	OutcomeInvalidCode       Outcome = "invalid_code"
	OutcomeExpired           Outcome = "expired"
	OutcomeTooManyAttempts   Outcome = "too_many_attempts"
	OutcomeCorruptSession    Outcome = "corrupt_session"
	OutcomePrincipalVanished Outcome = "principal_vanished"
	OutcomeCancelled         Outcome = "cancelled"
	OutcomeLoggedOut         Outcome = "logged_out"
)

func (o Outcome) String() string {
	return string(o)
}
