package app

import (
	"log/slog"

	"github.com/shandysiswandi/adminotp/internal/adminotp"
	"github.com/shandysiswandi/adminotp/internal/adminotp/inbound"
	"github.com/shandysiswandi/adminotp/internal/console"
)

func (a *App) initModules() {
	if !a.config.GetBool("modules.adminotp.enabled") {
		slog.Warn("adminotp module disabled, only /health is served")
		return
	}

	err := adminotp.New(adminotp.Dependency{
		DBConn:     a.dbConn,
		Sessions:   a.sessions,
		Messaging:  a.messaging,
		Goroutine:  a.goroutine,
		Router:     a.router,
		Console:    console.New(inbound.PathLogout),
		Config:     a.config,
		Instrument: a.ins,
		UUID:       a.uuid,
		HMAC:       a.hmac,
		Bcrypt:     a.bcrypt,
		Clock:      a.clock,
		Validator:  a.validator,
		JWT:        a.jwt,
	})
	if err != nil {
		fatal("failed to init module adminotp", err)
	}
}
