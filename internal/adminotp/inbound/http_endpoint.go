package inbound

import (
	"errors"
	"net/url"
	"path"
	"strings"

	"github.com/samber/lo"
	"github.com/shandysiswandi/adminotp/internal/adminotp/usecase"
	"github.com/shandysiswandi/adminotp/internal/pkg/goerror"
	"github.com/shandysiswandi/adminotp/internal/pkg/router"
)

// HTTPEndpoint exposes the login gate handlers.
type HTTPEndpoint struct {
	uc uc
}

// BeginLogin checks the password and sends a one-time code.
// @Summary Begin admin login
// @Description Verifies mobile and password, then requests a one-time code and redirects to the verification form.
// @Tags AdminOTP
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body BeginLoginRequest true "Login payload"
// @Success 303 {object} router.successResponse{data=BeginLoginResponse} "Code sent, continue at /admin/2fa-otp"
// @Failure 401 {object} router.errorResponse "Invalid credentials"
// @Failure 500 {object} router.errorResponse "Code could not be sent"
// @Router /admin/login [post]
func (h *HTTPEndpoint) BeginLogin(r *router.Request) (any, error) {
	var req BeginLoginRequest
	if r.IsForm() {
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
		req.Next = r.PostFormValue("next")
	} else if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}
	next := returnTo(lo.CoalesceOrEmpty(req.Next, r.GetQuery("next")))

	resp, err := h.uc.BeginLogin(r.Context(), usecase.BeginLoginInput{
		SessionID: r.SessionID(),
		Username:  req.Username,
		Password:  req.Password,
		ClientIP:  r.ClientIP(),
	})
	if err != nil {
		return formFailure(r, err, PathLogin, next)
	}

	return BeginLoginResponse{ExpiresAt: resp.ExpiresAt, next: next}, nil
}

// VerifyOTP completes the login with the one-time code.
// @Summary Verify one-time code
// @Description Checks the submitted code. Success rotates the session cookie and returns an access token.
// @Tags AdminOTP
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body VerifyOTPRequest true "Code payload"
// @Success 303 {object} router.successResponse{data=VerifyOTPResponse} "Authenticated, continue at /admin/"
// @Failure 401 {object} router.errorResponse "Invalid or expired code"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /admin/2fa-otp [post]
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if r.IsForm() {
		req.Code = r.PostFormValue("otp")
		req.Next = r.PostFormValue("next")
	} else if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}
	next := returnTo(lo.CoalesceOrEmpty(req.Next, r.GetQuery("next")))

	resp, err := h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{
		SessionID: r.SessionID(),
		Code:      req.Code,
		ClientIP:  r.ClientIP(),
	})
	if err != nil {
		back := PathVerify
		if goerror.IsCode(err, goerror.CodeSessionExpired) {
			back = PathLogin
		}
		return formFailure(r, err, back, next)
	}

	return VerifyOTPResponse{AccessToken: resp.AccessToken, sessionID: resp.SessionID, next: next}, nil
}

// CancelOTP abandons the pending login.
// @Summary Cancel pending login
// @Tags AdminOTP
// @Produce json
// @Success 303 {object} router.successResponse "Cancelled, continue at /admin/login"
// @Router /admin/cancel-otp [post]
func (h *HTTPEndpoint) CancelOTP(r *router.Request) (any, error) {
	if err := h.uc.CancelOTP(r.Context(), usecase.CancelOTPInput{
		SessionID: r.SessionID(),
		ClientIP:  r.ClientIP(),
	}); err != nil {
		return nil, err
	}

	return RedirectResponse{location: PathLogin, message: "login cancelled"}, nil
}

// Logout ends the authenticated session.
func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	if err := h.uc.Logout(r.Context(), usecase.LogoutInput{
		SessionID: r.SessionID(),
		ClientIP:  r.ClientIP(),
	}); err != nil {
		return nil, err
	}

	return RedirectResponse{location: PathLogin, message: "logged out"}, nil
}

// formFailure keeps browsers on the HTML flow: a failed form post is sent back
// to the form with the message. API clients get the error as is.
func formFailure(r *router.Request, err error, back, next string) (any, error) {
	var gerr *goerror.Error
	if !r.IsForm() || !errors.As(err, &gerr) {
		return nil, err
	}

	msg := gerr.Msg()
	return RedirectResponse{location: withQuery(back, msg, next), message: msg}, nil
}

// returnTo accepts raw as a post-login destination only when it is a local
// path inside the console. Anything else yields "".
func returnTo(raw string) string {
	if raw == "" || strings.HasPrefix(raw, "//") || strings.ContainsRune(raw, '\\') {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" {
		return ""
	}
	if !strings.HasPrefix(u.Path, PathConsole) || !strings.HasPrefix(path.Clean(u.Path)+"/", PathConsole) {
		return ""
	}
	return u.RequestURI()
}

func withQuery(to, errMsg, next string) string {
	q := url.Values{}
	if errMsg != "" {
		q.Set("error", errMsg)
	}
	if next != "" {
		q.Set("next", next)
	}
	if len(q) == 0 {
		return to
	}
	return to + "?" + q.Encode()
}
