package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/adminotp/internal/adminotp/entity"
	"github.com/shandysiswandi/adminotp/internal/pkg/goerror"
)

type BeginLoginInput struct {
	SessionID string `validate:"required,sessionid"`
	Username  string
	Password  string
	ClientIP  string
}

type BeginLoginOutput struct {
	ExpiresAt time.Time
}

// BeginLogin checks the password and, when it matches, asks the provider for a
// code and stores the pending login in the client session.
func (s *Usecase) BeginLogin(ctx context.Context, in BeginLoginInput) (*BeginLoginOutput, error) {
	ctx, span := s.startSpan(ctx, "BeginLogin")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	p := s.verifyCredentials(ctx, in.Username, in.Password)
	if p == nil {
		s.countOutcome(ctx, s.loginOutcome, entity.OutcomeBadCredentials)
		s.publish(ctx, LoginEvent{Mobile: in.Username, Outcome: entity.OutcomeBadCredentials, ClientIP: in.ClientIP})
		return nil, goerror.NewBusiness("Please enter the correct mobile and password", goerror.CodeUnauthorized)
	}

	code, err := s.provider.RequestCode(ctx, p.Mobile)
	if err != nil {
		slog.ErrorContext(ctx, "failed to request otp code", "principal_id", p.ID, "error", err)
		s.countOutcome(ctx, s.loginOutcome, entity.OutcomeProviderFailed)
		s.publish(ctx, LoginEvent{PrincipalID: p.ID, Outcome: entity.OutcomeProviderFailed, ClientIP: in.ClientIP})
		return nil, goerror.NewServerMsg(err, "could not send the verification code, please report this problem")
	}

	codeHash, err := s.hmac.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash otp code", "principal_id", p.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	st := entity.OTPSession{
		PrincipalID: p.ID,
		Code:        string(codeHash),
		ExpiresAt:   s.clock.Now().Add(s.otpDuration()),
		Attempts:    0,
	}

	// A new login replaces whatever the session held before.
	if err := s.sessions.Flush(ctx, in.SessionID); err != nil {
		slog.ErrorContext(ctx, "failed to flush client session", "principal_id", p.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.sessions.Set(ctx, in.SessionID, st.Values()); err != nil {
		slog.ErrorContext(ctx, "failed to store otp session", "principal_id", p.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.countOutcome(ctx, s.loginOutcome, entity.OutcomeOTPIssued)
	s.publish(ctx, LoginEvent{PrincipalID: p.ID, Outcome: entity.OutcomeOTPIssued, ClientIP: in.ClientIP})

	return &BeginLoginOutput{ExpiresAt: st.ExpiresAt}, nil
}
