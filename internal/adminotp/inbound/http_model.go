package inbound

import (
	"net/http"
	"time"
)

type BeginLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Next     string `json:"next,omitempty"`
}

type BeginLoginResponse struct {
	ExpiresAt time.Time `json:"expires_at"`

	next string
}

func (BeginLoginResponse) Message() string { return "verification code sent" }
func (BeginLoginResponse) StatusCode() int { return http.StatusSeeOther }
func (r BeginLoginResponse) Location() string { return withQuery(PathVerify, "", r.next) }

type VerifyOTPRequest struct {
	Code string `json:"otp"`
	Next string `json:"next,omitempty"`
}

type VerifyOTPResponse struct {
	AccessToken string `json:"access_token"`

	sessionID string
	next      string
}

func (VerifyOTPResponse) Message() string { return "login successful" }
func (VerifyOTPResponse) StatusCode() int { return http.StatusSeeOther }
func (r VerifyOTPResponse) Location() string {
	if r.next != "" {
		return r.next
	}
	return PathConsole
}
func (r VerifyOTPResponse) SessionID() string { return r.sessionID }

// RedirectResponse sends the client elsewhere with a short message.
type RedirectResponse struct {
	location string
	message  string
}

func (r RedirectResponse) Message() string { return r.message }
func (RedirectResponse) StatusCode() int { return http.StatusSeeOther }
func (r RedirectResponse) Location() string { return r.location }
