package inbound

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/adminotp/internal/adminotp/entity"
	"github.com/shandysiswandi/adminotp/internal/adminotp/usecase"
	"github.com/shandysiswandi/adminotp/internal/pkg/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type pageData struct {
	Action       string
	CancelAction string
	Error        string
	Next         string
}

// pages renders the HTML forms of the login gate.
type pages struct {
	uc uc
}

func newPages(uc uc) *pages {
	return &pages{uc: uc}
}

func (p *pages) Login(w http.ResponseWriter, r *http.Request) {
	p.render(w, r, "login.html", pageData{
		Action: PathLogin,
		Error:  r.URL.Query().Get("error"),
		Next:   returnTo(r.URL.Query().Get("next")),
	})
}

// VerifyOTP shows the code form, or sends the client back to the login form
// when nothing is pending.
func (p *pages) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	out, err := p.uc.State(r.Context(), usecase.StateInput{SessionID: session.GetID(r.Context())})
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to load login state", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if out.State != entity.StateOTPPending {
		http.Redirect(w, r, PathLogin, http.StatusSeeOther)
		return
	}

	p.render(w, r, "verify.html", pageData{
		Action:       PathVerify,
		CancelAction: PathCancel,
		Error:        r.URL.Query().Get("error"),
		Next:         returnTo(r.URL.Query().Get("next")),
	})
}

func (p *pages) render(w http.ResponseWriter, r *http.Request, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "failed to render page", "page", name, "error", err)
	}
}
