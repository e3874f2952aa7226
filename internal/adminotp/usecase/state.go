package usecase

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/shandysiswandi/adminotp/internal/adminotp/entity"
	"github.com/shandysiswandi/adminotp/internal/pkg/goerror"
	"github.com/shandysiswandi/adminotp/internal/pkg/session"
)

type StateInput struct {
	SessionID string `validate:"required,sessionid"`
}

type StateOutput struct {
	State       entity.State
	PrincipalID int64 // set only when authenticated
}

// State reports where the client session stands in the login gate.
func (s *Usecase) State(ctx context.Context, in StateInput) (*StateOutput, error) {
	ctx, span := s.startSpan(ctx, "State")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	vals, err := s.sessions.Get(ctx, in.SessionID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load client session", "error", err)
		return nil, goerror.NewServer(err)
	}

	out := &StateOutput{State: entity.StateFromValues(vals)}
	if out.State == entity.StateAuthenticated {
		raw, _ := vals.Get(session.KeyAuthPrincipal)
		out.PrincipalID, _ = strconv.ParseInt(raw, 10, 64)
	}

	return out, nil
}
