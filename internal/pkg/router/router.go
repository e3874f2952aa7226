package router

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/adminotp/internal/pkg/config"
	"github.com/shandysiswandi/adminotp/internal/pkg/instrument"
	"github.com/shandysiswandi/adminotp/internal/pkg/session"
	"github.com/shandysiswandi/adminotp/internal/pkg/uid"
)

// Handler returns a result for the JSON success envelope or an error for
// writeError. Results may implement Message, StatusCode, Location or SessionID
// to shape the response.
type Handler func(r *Request) (any, error)

// Config holds dependencies required to build a Router.
type Config struct {
	// Config provides runtime configuration values.
	Config config.Config
	// UUID generates request correlation IDs and session ids.
	UUID uid.StringID
	// Instrument provides tracing and metrics helpers.
	Instrument instrument.Instrumentation
	// RestartPath is sent as Location when a handler fails with goerror.CodeSessionExpired.
	RestartPath string
}

// Router is an http.Handler that wraps httprouter and a middleware chain.
type Router struct {
	hr          *httprouter.Router
	mws         []Middleware
	cookie      sessionCookie
	restartPath string
}

// NewRouter builds the default application router with standard middleware.
func NewRouter(cfg Config) *Router {
	hr := &httprouter.Router{
		RedirectTrailingSlash:  true,
		RedirectFixedPath:      true,
		HandleMethodNotAllowed: true,
		HandleOPTIONS:          true,
		SaveMatchedRoutePath:   true,
		NotFound:               http.HandlerFunc(notFound),
		MethodNotAllowed: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, errorResponse{Message: "method not allowed"}, http.StatusMethodNotAllowed)
		}),
	}

	cookie := sessionCookie{name: DefaultSessionCookie, maxAge: session.DefaultTTL}
	if cfg.Config != nil {
		if name := strings.TrimSpace(cfg.Config.GetString("session.cookie_name")); name != "" {
			cookie.name = name
		}
		if ttl := cfg.Config.GetMinute("session.ttl_minutes"); ttl > 0 {
			cookie.maxAge = ttl
		}
		cookie.secure = cfg.Config.GetBool("session.cookie_secure")
	}

	ro := &Router{
		hr:          hr,
		cookie:      cookie,
		restartPath: cfg.RestartPath,
		mws: []Middleware{
			middlewareRecoverer,
			middlewareIP(trustedProxies(cfg.Config)),
			middlewareCorrelationID(cfg.UUID),
			middlewareSession(cookie, cfg.UUID),
			middlewareObservability(cfg.Config, cfg.Instrument),
			middlewareMaintenance(cfg.Config),
		},
	}

	ro.GETRaw("/health", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"message": "ok"}, http.StatusOK)
	}))

	return ro
}

// GET registers a GET endpoint using the application Handler signature.
func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodGet, path, h, mws...)
}

// GETRaw registers a GET endpoint that writes directly to the response writer.
func (r *Router) GETRaw(path string, h http.Handler, mws ...Middleware) {
	r.hr.Handler(http.MethodGet, path, Chain(h, append(r.mws, mws...)...))
}

// POST registers a POST endpoint using the application Handler signature.
func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPost, path, h, mws...)
}

// Fallback sends every request under prefix that matches no registered route
// to h. Registered routes always win; other paths keep the JSON 404.
func (r *Router) Fallback(prefix string, h http.Handler, mws ...Middleware) {
	fallback := Chain(h, append(r.mws, mws...)...)
	r.hr.HandleMethodNotAllowed = false
	r.hr.NotFound = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == strings.TrimSuffix(prefix, "/") || strings.HasPrefix(req.URL.Path, prefix) {
			fallback.ServeHTTP(w, req)
			return
		}
		notFound(w, req)
	})
}

func (r *Router) endpoint(method, path string, h Handler, mws ...Middleware) {
	r.hr.Handler(method, path, Chain(http.HandlerFunc(func(w http.ResponseWriter, re *http.Request) {
		resp, err := h(&Request{Request: re})
		if err != nil {
			if setter, ok := w.(interface{ SetError(error) }); ok {
				setter.SetError(err)
			}
			writeError(w, err, r.restartPath)
			return
		}
		writeSuccess(w, resp, r.cookie)
	}), append(r.mws, mws...)...))
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}
