package usecase

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/shandysiswandi/adminotp/internal/adminotp/entity"
	"github.com/shandysiswandi/adminotp/internal/pkg/goerror"
	"github.com/shandysiswandi/adminotp/internal/pkg/session"
)

type VerifyOTPInput struct {
	SessionID string `validate:"required,sessionid"`
	Code      string `validate:"required"`
	ClientIP  string
}

type VerifyOTPOutput struct {
	// SessionID replaces the caller's session id; the old one is gone.
	SessionID   string
	PrincipalID int64
	AccessToken string
}

// VerifyOTP checks the submitted code against the pending login. Every
// terminating failure clears the session; a plain mismatch only counts.
//
// An attempt is reserved with an atomic increment before the code is compared,
// so parallel submissions cannot get more comparisons than the ceiling allows.
// The increment only lands while the stored code is the one that was loaded;
// a login cleared or replaced in between is treated as expired.
func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*VerifyOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	vals, err := s.sessions.Get(ctx, in.SessionID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load client session", "error", err)
		return nil, goerror.NewServer(err)
	}

	if entity.StateFromValues(vals) == entity.StateAuthenticated {
		return nil, errAlreadyAuthenticated()
	}

	st, err := entity.OTPSessionFromValues(vals)
	if err != nil {
		slog.WarnContext(ctx, "otp session state missing or corrupt", "error", err)
		return nil, s.failVerify(ctx, in, 0, 0, entity.OutcomeCorruptSession)
	}

	n, ok, err := s.sessions.IncrIf(ctx, in.SessionID, session.KeyOTPAttempts, session.KeyOTPCode, st.Code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to reserve otp attempt", "principal_id", st.PrincipalID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !ok {
		// Whatever replaced the login owns the session now; leave it alone.
		slog.WarnContext(ctx, "otp session changed before attempt was reserved", "principal_id", st.PrincipalID)
		s.countOutcome(ctx, s.verifyOutcome, entity.OutcomeExpired)
		s.publish(ctx, LoginEvent{PrincipalID: st.PrincipalID, Outcome: entity.OutcomeExpired, Attempts: st.Attempts, ClientIP: in.ClientIP})
		return nil, errSessionExpired()
	}
	attempts := int(n)

	// The reserved attempt is the (attempts)th comparison; attempts-1 were
	// already counted before this call.
	if attempts-1 > s.maxOTPTries() {
		slog.WarnContext(ctx, "otp attempts exceeded", "principal_id", st.PrincipalID, "attempts", attempts-1)
		return nil, s.failVerify(ctx, in, st.PrincipalID, attempts-1, entity.OutcomeTooManyAttempts)
	}

	if st.Expired(s.clock.Now()) {
		slog.WarnContext(ctx, "otp code expired", "principal_id", st.PrincipalID, "expires_at", st.ExpiresAt)
		return nil, s.failVerify(ctx, in, st.PrincipalID, attempts, entity.OutcomeExpired)
	}

	if !s.hmac.Verify(st.Code, in.Code) {
		slog.WarnContext(ctx, "otp code not match", "principal_id", st.PrincipalID, "attempts", attempts)
		s.countOutcome(ctx, s.verifyOutcome, entity.OutcomeInvalidCode)
		s.publish(ctx, LoginEvent{PrincipalID: st.PrincipalID, Outcome: entity.OutcomeInvalidCode, Attempts: attempts, ClientIP: in.ClientIP})
		return nil, goerror.NewBusiness("invalid code", goerror.CodeUnauthorized)
	}

	p, err := s.repoDB.GetPrincipalByID(ctx, st.PrincipalID)
	if err != nil || !p.CanAuthenticate() {
		slog.WarnContext(ctx, "otp principal could not be resolved", "principal_id", st.PrincipalID, "error", err)
		return nil, s.failVerify(ctx, in, st.PrincipalID, attempts, entity.OutcomePrincipalVanished)
	}

	return s.establish(ctx, in, p)
}

func (s *Usecase) failVerify(ctx context.Context, in VerifyOTPInput, principalID int64, attempts int, o entity.Outcome) error {
	s.clearSession(ctx, in.SessionID)
	s.countOutcome(ctx, s.verifyOutcome, o)
	s.publish(ctx, LoginEvent{PrincipalID: principalID, Outcome: o, Attempts: attempts, ClientIP: in.ClientIP})

	return errSessionExpired()
}

// establish turns the pending login into an authenticated session under a
// fresh session id.
func (s *Usecase) establish(ctx context.Context, in VerifyOTPInput, p *entity.Principal) (*VerifyOTPOutput, error) {
	acToken, err := s.jwt.Generate(p.ID, p.Mobile)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access jwt token", "principal_id", p.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.clearSession(ctx, in.SessionID)

	sid := s.uuid.Generate()
	if err := s.sessions.Set(ctx, sid, session.Values{
		session.KeyAuthPrincipal: strconv.FormatInt(p.ID, 10),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to store authenticated session", "principal_id", p.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.countOutcome(ctx, s.verifyOutcome, entity.OutcomeVerified)
	s.publish(ctx, LoginEvent{PrincipalID: p.ID, Outcome: entity.OutcomeVerified, ClientIP: in.ClientIP})

	return &VerifyOTPOutput{
		SessionID:   sid,
		PrincipalID: p.ID,
		AccessToken: acToken,
	}, nil
}
