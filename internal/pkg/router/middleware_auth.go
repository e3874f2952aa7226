package router

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shandysiswandi/adminotp/internal/pkg/jwt"
	"github.com/shandysiswandi/adminotp/internal/pkg/session"
)

// SessionStatus is what a session id currently resolves to.
type SessionStatus int8

const (
	SessionAnonymous SessionStatus = iota
	SessionPending
	SessionAuthenticated
)

// SessionResolver reports the status of a session and, when authenticated, its principal id.
type SessionResolver func(ctx context.Context, sid string) (SessionStatus, int64, error)

// AuthConfig drives the Authentication middleware.
type AuthConfig struct {
	// JWT verifies bearer tokens. Optional.
	JWT jwt.JWT
	// Resolve maps the session cookie to a principal. Optional.
	Resolve SessionResolver
	// LoginPath receives anonymous browser clients.
	LoginPath string
	// PendingPath receives clients that still owe a one-time code.
	PendingPath string
}

// Authentication admits requests that carry a valid bearer token or an
// authenticated session. Claims are stored with jwt.SetAuth either way.
func Authentication(cfg AuthConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if header := r.Header.Get("Authorization"); header != "" && cfg.JWT != nil {
				p := strings.Fields(header)
				if len(p) != 2 || !strings.EqualFold(p[0], "Bearer") {
					writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
					return
				}

				claims, err := cfg.JWT.Verify(p[1])
				if err != nil {
					writeJSON(w, errorResponse{Message: "Invalid or expired token"}, http.StatusUnauthorized)
					return
				}

				next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), claims)))
				return
			}

			status := SessionAnonymous
			var principalID int64
			if sid := session.GetID(r.Context()); sid != "" && cfg.Resolve != nil {
				var err error
				status, principalID, err = cfg.Resolve(r.Context(), sid)
				if err != nil {
					slog.ErrorContext(r.Context(), "failed to resolve client session", "error", err)
					writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
					return
				}
			}

			switch status {
			case SessionAuthenticated:
				clm := jwt.Claims{UserID: principalID, AMR: []string{jwt.MethodPassword, jwt.MethodOTP}}
				clm.Subject = strconv.FormatInt(principalID, 10)
				next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), clm)))

			case SessionPending:
				http.Redirect(w, r, cfg.PendingPath, http.StatusSeeOther)

			default:
				if cfg.LoginPath != "" && wantsHTML(r) {
					http.Redirect(w, r, cfg.LoginPath+"?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
					return
				}
				writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
			}
		})
	}
}

func wantsHTML(r *http.Request) bool {
	return r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html")
}
