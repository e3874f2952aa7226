package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/adminotp/internal/adminotp/entity"
	"github.com/shandysiswandi/adminotp/internal/pkg/goerror"
)

type CancelOTPInput struct {
	SessionID string `validate:"required,sessionid"`
	ClientIP  string
}

// CancelOTP abandons a pending login. It always empties the session, so
// calling it again is harmless.
func (s *Usecase) CancelOTP(ctx context.Context, in CancelOTPInput) error {
	ctx, span := s.startSpan(ctx, "CancelOTP")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	vals, err := s.sessions.Get(ctx, in.SessionID)
	if err != nil {
		slog.WarnContext(ctx, "failed to load client session before cancel", "error", err)
	}

	if err := s.sessions.Flush(ctx, in.SessionID); err != nil {
		slog.ErrorContext(ctx, "failed to flush client session", "error", err)
		return goerror.NewServer(err)
	}

	if entity.HasPendingLogin(vals) {
		var principalID int64
		if st, err := entity.OTPSessionFromValues(vals); err == nil {
			principalID = st.PrincipalID
		}
		s.publish(ctx, LoginEvent{PrincipalID: principalID, Outcome: entity.OutcomeCancelled, ClientIP: in.ClientIP})
	}

	return nil
}
