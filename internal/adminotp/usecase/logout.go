package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/adminotp/internal/adminotp/entity"
	"github.com/shandysiswandi/adminotp/internal/pkg/goerror"
)

type LogoutInput struct {
	SessionID string `validate:"required,sessionid"`
	ClientIP  string
}

func (s *Usecase) Logout(ctx context.Context, in LogoutInput) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	state, err := s.State(ctx, StateInput{SessionID: in.SessionID})
	if err != nil {
		return err
	}

	if err := s.sessions.Flush(ctx, in.SessionID); err != nil {
		slog.ErrorContext(ctx, "failed to flush client session", "error", err)
		return goerror.NewServer(err)
	}

	if state.State == entity.StateAuthenticated {
		s.publish(ctx, LoginEvent{PrincipalID: state.PrincipalID, Outcome: entity.OutcomeLoggedOut, ClientIP: in.ClientIP})
	}

	return nil
}
