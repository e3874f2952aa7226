package router

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/shandysiswandi/adminotp/internal/pkg/stacktrace"
)

const internalErrorMessage = "Internal server error"

func middlewareRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			//nolint:err113,errorlint // sentinel must be compared directly
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			stack := debug.Stack()
			if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
				slog.ErrorContext(r.Context(), "panic on the server", "because", rvr, "stack", paths)
			} else {
				slog.ErrorContext(r.Context(), "panic on the server", "because", rvr, "stack", string(stack))
			}

			if wantsHTML(r) {
				http.Error(w, internalErrorMessage, http.StatusInternalServerError)
				return
			}
			writeJSON(w, errorResponse{Message: internalErrorMessage}, http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}
