package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/adminotp/internal/pkg/config"
)

const maintenanceMessage = "service is under maintenance"

// middlewareMaintenance blocks the routes listed in app.maintenance.endpoints.
// An entry ending in "/" blocks every path below it.
func middlewareMaintenance(cfg config.Config) Middleware {
	var exact, prefixes []string
	if cfg != nil {
		for _, endpoint := range cfg.GetArray("app.maintenance.endpoints") {
			if strings.HasSuffix(endpoint, "/") {
				prefixes = append(prefixes, endpoint)
				continue
			}
			exact = append(exact, endpoint)
		}
	}

	blocked := func(r *http.Request) bool {
		route := matchedRoutePath(r)
		for _, e := range exact {
			if route == e {
				return true
			}
		}
		for _, p := range prefixes {
			if strings.HasPrefix(r.URL.Path, p) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !blocked(r) {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Retry-After", "120")
			if wantsHTML(r) {
				http.Error(w, maintenanceMessage, http.StatusServiceUnavailable)
				return
			}
			writeJSON(w, errorResponse{Message: maintenanceMessage}, http.StatusServiceUnavailable)
		})
	}
}
