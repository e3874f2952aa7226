package router

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/adminotp/internal/pkg/goerror"
	"github.com/shandysiswandi/adminotp/internal/pkg/validator"
)

const defaultSuccessMessage = "request has been successfully"

type errorResponse struct {
	Message string            `json:"message"`
	Error   map[string]string `json:"error,omitempty"`
}

type successResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// Optional hooks a handler result may implement to shape the response.
type (
	messager    interface{ Message() string }
	statusCoder interface{ StatusCode() int }
	locator     interface{ Location() string }
	sessionIDer interface{ SessionID() string }
)

// writeSuccess encodes resp in the success envelope. A nil result or a 204
// hook answers without a body.
func writeSuccess(w http.ResponseWriter, resp any, cookie sessionCookie) {
	code := http.StatusOK
	if sc, ok := resp.(statusCoder); ok {
		code = sc.StatusCode()
	}
	if s, ok := resp.(sessionIDer); ok && s.SessionID() != "" {
		cookie.write(w, s.SessionID())
	}
	if l, ok := resp.(locator); ok && l.Location() != "" {
		w.Header().Set("Location", l.Location())
	}

	if resp == nil || code == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	msg := defaultSuccessMessage
	if m, ok := resp.(messager); ok {
		msg = m.Message()
	}
	writeJSON(w, successResponse{Message: msg, Data: resp}, code)
}

// writeError maps err to its goerror status. Anything that is not a goerror
// is reported as an internal error without detail. Session-expired errors
// point the client at restartPath.
func writeError(w http.ResponseWriter, err error, restartPath string) {
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		return
	}

	resp := errorResponse{Message: gerr.Msg(), Error: gerr.Fields()}
	var verr validator.V10ValidationError
	if errors.As(err, &verr) {
		resp.Error = verr.Values()
	}
	if len(resp.Error) == 0 {
		resp.Error = nil
	}

	if gerr.Code() == goerror.CodeSessionExpired && restartPath != "" {
		w.Header().Set("Location", restartPath)
	}
	writeJSON(w, resp, gerr.StatusCode())
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, errorResponse{Message: "endpoint not found"}, http.StatusNotFound)
}

func writeJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("router: failed to encode response", "error", err)
	}
}
