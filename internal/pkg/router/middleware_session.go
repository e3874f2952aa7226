package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/shandysiswandi/adminotp/internal/pkg/session"
	"github.com/shandysiswandi/adminotp/internal/pkg/uid"
)

// DefaultSessionCookie is used when session.cookie_name is not configured.
const DefaultSessionCookie = "adminotp_session"

type sessionCookie struct {
	name   string
	secure bool
	maxAge time.Duration
}

func (c sessionCookie) write(w http.ResponseWriter, sid string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(c.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func validSessionID(v string) bool {
	if v == "" || len(v) > 64 {
		return false
	}
	return !strings.ContainsFunc(v, func(r rune) bool {
		return !(r == '-' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'))
	})
}

// middlewareSession makes sure every request carries a session id, issuing a
// new cookie when the client has none.
func middlewareSession(cookie sessionCookie, gen uid.StringID) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sid string
			if c, err := r.Cookie(cookie.name); err == nil && validSessionID(c.Value) {
				sid = c.Value
			}

			if sid == "" {
				sid = gen.Generate()
				cookie.write(w, sid)
			}

			next.ServeHTTP(w, r.WithContext(session.SetID(r.Context(), sid)))
		})
	}
}
