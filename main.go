package main

import (
	"context"
	"os"
	"time"

	"github.com/shandysiswandi/adminotp/internal/app"
)

// @title           Admin OTP Login API
// @version         1.0
// @description     Adminotp guards the admin console with a password step followed by a one-time code sent to the admin's mobile.
// @license.name    MIT
// @license.url     https://mit-license.org/
// @server          http://localhost:8080
// @securityDefinitions.apikey  BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT.
func main() {
	application := app.New()
	serveErr := <-application.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	application.Stop(ctx)
	cancel()

	if serveErr != nil {
		os.Exit(1)
	}
}
