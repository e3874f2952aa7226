package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/adminotp/internal/pkg/clock"
	"github.com/shandysiswandi/adminotp/internal/pkg/config"
	"github.com/shandysiswandi/adminotp/internal/pkg/goerror"
	"github.com/shandysiswandi/adminotp/internal/pkg/instrument"
	"github.com/shandysiswandi/adminotp/internal/pkg/jwt"
	"github.com/shandysiswandi/adminotp/internal/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seqID struct{ n int }

func (s *seqID) Generate() string {
	s.n++
	return "sid-" + strconv.Itoa(s.n)
}

type redirectResp struct{ sid string }

func (redirectResp) StatusCode() int { return http.StatusSeeOther }

func (redirectResp) Location() string { return "/admin/" }

func (r redirectResp) SessionID() string { return r.sid }

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("session:\n  cookie_name: test_session\n  ttl_minutes: 30\n"))
	require.NoError(t, err)

	return NewRouter(Config{
		Config:      cfg,
		UUID:        &seqID{},
		Instrument:  instrument.NewNoop(),
		RestartPath: "/admin/login",
	})
}

func TestRouter_SessionCookieIssuedOnce(t *testing.T) {
	ro := newTestRouter(t)
	var seen string
	ro.GET("/whoami", func(r *Request) (any, error) {
		seen = r.SessionID()
		return map[string]string{"sid": seen}, nil
	})

	rec := httptest.NewRecorder()
	ro.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "test_session", cookies[0].Name)
	assert.Equal(t, seen, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 1800, cookies[0].MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "test_session", Value: "existing-sid"})
	rec = httptest.NewRecorder()
	ro.ServeHTTP(rec, req)
	assert.Equal(t, "existing-sid", seen)
	assert.Empty(t, rec.Result().Cookies())
}

func TestRouter_SessionExpiredCarriesRestartLocation(t *testing.T) {
	ro := newTestRouter(t)
	ro.POST("/expired", func(*Request) (any, error) {
		return nil, goerror.NewBusiness("code expired, please try again", goerror.CodeSessionExpired)
	})
	ro.POST("/mismatch", func(*Request) (any, error) {
		return nil, goerror.NewBusiness("invalid code", goerror.CodeUnauthorized)
	})
	ro.POST("/boom", func(*Request) (any, error) {
		return nil, errors.New("boom")
	})

	rec := httptest.NewRecorder()
	ro.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/expired", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "/admin/login", rec.Header().Get("Location"))
	assert.JSONEq(t, `{"message":"code expired, please try again"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	ro.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mismatch", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	ro.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRouter_SuccessRedirectAndCookie(t *testing.T) {
	ro := newTestRouter(t)
	ro.POST("/done", func(*Request) (any, error) {
		return redirectResp{sid: "rotated"}, nil
	})

	req := httptest.NewRequest(http.MethodPost, "/done", nil)
	req.AddCookie(&http.Cookie{Name: "test_session", Value: "old"})
	rec := httptest.NewRecorder()
	ro.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "rotated", cookies[0].Value)
}

func TestRouter_FallbackPrecedence(t *testing.T) {
	ro := newTestRouter(t)
	ro.GET("/admin/login", func(*Request) (any, error) {
		return map[string]string{"page": "login"}, nil
	})
	ro.Fallback("/admin/", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	ro.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	ro.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/users/1", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	ro.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	ro.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/elsewhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthentication(t *testing.T) {
	j, err := jwt.NewHS512(jwt.Config{
		Secret:     []byte(strings.Repeat("s", 64)),
		Issuer:     "adminotp",
		Audiences:  []string{"admin"},
		TTLMinutes: time.Minute,
		Clock:      clock.New(),
		UUID:       &seqID{},
	})
	require.NoError(t, err)
	token, err := j.Generate(7, "0811")
	require.NoError(t, err)

	resolve := func(_ context.Context, sid string) (SessionStatus, int64, error) {
		switch sid {
		case "authed":
			return SessionAuthenticated, 9, nil
		case "pending":
			return SessionPending, 0, nil
		case "broken":
			return SessionAnonymous, 0, errors.New("redis down")
		default:
			return SessionAnonymous, 0, nil
		}
	}

	var gotUser int64
	h := Authentication(AuthConfig{
		JWT:         j,
		Resolve:     resolve,
		LoginPath:   "/admin/login",
		PendingPath: "/admin/2fa-otp",
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = jwt.GetAuth(r.Context()).UserID
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(sid, auth, accept string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
		if sid != "" {
			req = req.WithContext(session.SetID(req.Context(), sid))
		}
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		if accept != "" {
			req.Header.Set("Accept", accept)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := serve("", "Bearer "+token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), gotUser)

	rec = serve("", "Bearer nope", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve("authed", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(9), gotUser)

	rec = serve("pending", "", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/2fa-otp", rec.Header().Get("Location"))

	rec = serve("anon", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve("anon", "", "text/html")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/login?next=%2Fadmin%2Fusers", rec.Header().Get("Location"))

	rec = serve("broken", "", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
