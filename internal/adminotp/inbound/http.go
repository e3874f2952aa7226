package inbound

import (
	"context"
	"net/http"

	"github.com/shandysiswandi/adminotp/internal/adminotp/entity"
	"github.com/shandysiswandi/adminotp/internal/adminotp/usecase"
	"github.com/shandysiswandi/adminotp/internal/pkg/jwt"
	"github.com/shandysiswandi/adminotp/internal/pkg/router"
)

const (
	PathLogin   = "/admin/login"
	PathVerify  = "/admin/2fa-otp"
	PathCancel  = "/admin/cancel-otp"
	PathLogout  = "/admin/logout"
	PathConsole = "/admin/"
)

type uc interface {
	BeginLogin(ctx context.Context, in usecase.BeginLoginInput) (*usecase.BeginLoginOutput, error)
	VerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error)
	CancelOTP(ctx context.Context, in usecase.CancelOTPInput) error
	Logout(ctx context.Context, in usecase.LogoutInput) error
	State(ctx context.Context, in usecase.StateInput) (*usecase.StateOutput, error)
}

// RegisterHTTPEndpoint wires the login gate ahead of the admin console. The
// gate's own routes win; every other path under PathConsole reaches console
// only for authenticated clients.
func RegisterHTTPEndpoint(r *router.Router, uc uc, verifier jwt.JWT, console http.Handler) {
	end := &HTTPEndpoint{uc: uc}
	pg := newPages(uc)

	auth := router.Authentication(router.AuthConfig{
		JWT:         verifier,
		Resolve:     end.resolveSession,
		LoginPath:   PathLogin,
		PendingPath: PathVerify,
	})

	r.GETRaw(PathLogin, http.HandlerFunc(pg.Login))
	r.POST(PathLogin, end.BeginLogin)

	r.GETRaw(PathVerify, http.HandlerFunc(pg.VerifyOTP))
	r.POST(PathVerify, end.VerifyOTP)

	r.GET(PathCancel, end.CancelOTP)
	r.POST(PathCancel, end.CancelOTP)

	r.POST(PathLogout, end.Logout, auth)

	r.Fallback(PathConsole, console, auth)
}

func (h *HTTPEndpoint) resolveSession(ctx context.Context, sid string) (router.SessionStatus, int64, error) {
	out, err := h.uc.State(ctx, usecase.StateInput{SessionID: sid})
	if err != nil {
		return router.SessionAnonymous, 0, err
	}

	switch out.State {
	case entity.StateAuthenticated:
		return router.SessionAuthenticated, out.PrincipalID, nil
	case entity.StateOTPPending:
		return router.SessionPending, 0, nil
	default:
		return router.SessionAnonymous, 0, nil
	}
}
