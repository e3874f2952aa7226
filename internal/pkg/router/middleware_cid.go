package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/adminotp/internal/pkg/instrument"
	"github.com/shandysiswandi/adminotp/internal/pkg/uid"
)

// Correlation id headers, in order of preference. The response always uses
// HeaderCorrelationID.
const (
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderRequestID     = "X-Request-ID"
)

const maxCIDLen = 128

var cidHeaders = []string{HeaderCorrelationID, HeaderRequestID}

// incomingCID returns the first acceptable id sent by the client. Ids are
// truncated to maxCIDLen and must be printable ASCII without spaces.
func incomingCID(h http.Header) string {
	for _, name := range cidHeaders {
		v := strings.TrimSpace(h.Get(name))
		if len(v) > maxCIDLen {
			v = v[:maxCIDLen]
		}
		if v != "" && strings.IndexFunc(v, func(c rune) bool { return c < '!' || c > '~' }) < 0 {
			return v
		}
	}
	return ""
}

func middlewareCorrelationID(gen uid.StringID) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := incomingCID(r.Header)
			if cid == "" && gen != nil {
				cid = gen.Generate()
			}

			if cid != "" {
				w.Header().Set(HeaderCorrelationID, cid)
				r = r.WithContext(instrument.SetCorrelationID(r.Context(), cid))
			}
			next.ServeHTTP(w, r)
		})
	}
}
