// Package console is the stand-in for the admin console that sits behind the
// login gate. It only shows who is logged in and how to leave.
package console

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/adminotp/internal/pkg/jwt"
)

var page = template.Must(template.New("console").Parse(`<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>Admin console</title></head>
<body>
  <h1>Admin console</h1>
  <p>Signed in as principal {{.PrincipalID}}. You asked for {{.Path}}.</p>
  <form method="post" action="{{.LogoutPath}}"><button type="submit">Log out</button></form>
</body>
</html>
`))

// Handler serves every console path for authenticated clients.
type Handler struct {
	logoutPath string
}

func New(logoutPath string) *Handler {
	return &Handler{logoutPath: logoutPath}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clm := jwt.GetAuth(r.Context())
	if clm == nil {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := page.Execute(w, map[string]any{
		"PrincipalID": clm.UserID,
		"Path":        r.URL.Path,
		"LogoutPath":  h.logoutPath,
	}); err != nil {
		slog.ErrorContext(r.Context(), "failed to render console page", "error", err)
	}
}
