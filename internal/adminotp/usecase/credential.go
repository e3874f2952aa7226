package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/adminotp/internal/adminotp/entity"
	"github.com/shandysiswandi/adminotp/internal/pkg/goerror"
)

// Longer credentials cannot belong to any account and are rejected like a
// wrong password.
const (
	maxMobileLen   = 20
	maxPasswordLen = 128
)

// verifyCredentials returns the principal for a valid username/password pair,
// or nil. Store faults are reported as a failed check, never as an error.
func (s *Usecase) verifyCredentials(ctx context.Context, username, password string) *entity.Principal {
	ctx, span := s.startSpan(ctx, "verifyCredentials")
	defer span.End()

	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return nil
	}
	if len(username) > maxMobileLen || len(password) > maxPasswordLen {
		slog.WarnContext(ctx, "admin credentials exceed length limits", "mobile_len", len(username), "password_len", len(password))
		s.equalizeTiming("")
		return nil
	}

	p, err := s.repoDB.GetPrincipalByMobile(ctx, username)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "admin account not found", "mobile", username)
		s.equalizeTiming(password)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get principal by mobile", "mobile", username, "error", err)
		s.equalizeTiming(password)
		return nil
	}

	if !s.bcrypt.Verify(p.Password, password) {
		slog.WarnContext(ctx, "password admin account not match", "principal_id", p.ID)
		return nil
	}

	if !p.CanAuthenticate() {
		slog.WarnContext(ctx, "admin account not allowed to login", "principal_id", p.ID, "is_active", p.IsActive, "is_staff", p.IsStaff)
		return nil
	}

	return p
}

func (s *Usecase) equalizeTiming(password string) {
	if eq, ok := s.bcrypt.(interface{ Equalize(plaintext string) }); ok {
		eq.Equalize(password)
	}
}
