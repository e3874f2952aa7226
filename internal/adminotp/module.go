package adminotp

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/adminotp/internal/adminotp/inbound"
	"github.com/shandysiswandi/adminotp/internal/adminotp/outbound/db"
	"github.com/shandysiswandi/adminotp/internal/adminotp/outbound/mq"
	"github.com/shandysiswandi/adminotp/internal/adminotp/outbound/provider"
	"github.com/shandysiswandi/adminotp/internal/adminotp/usecase"
	"github.com/shandysiswandi/adminotp/internal/pkg/clock"
	"github.com/shandysiswandi/adminotp/internal/pkg/config"
	"github.com/shandysiswandi/adminotp/internal/pkg/goroutine"
	"github.com/shandysiswandi/adminotp/internal/pkg/hash"
	"github.com/shandysiswandi/adminotp/internal/pkg/instrument"
	"github.com/shandysiswandi/adminotp/internal/pkg/jwt"
	"github.com/shandysiswandi/adminotp/internal/pkg/messaging"
	"github.com/shandysiswandi/adminotp/internal/pkg/router"
	"github.com/shandysiswandi/adminotp/internal/pkg/session"
	"github.com/shandysiswandi/adminotp/internal/pkg/uid"
	"github.com/shandysiswandi/adminotp/internal/pkg/validator"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	Sessions   session.Store              `validate:"required"`
	Messaging  messaging.Publisher        `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Console    http.Handler               `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Bcrypt     hash.Hash                  `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	otpClient, err := provider.New(provider.Config{
		URL:      dep.Config.GetString("modules.adminotp.provider.url"),
		MaxTries: usecase.MaxOTPTries(dep.Config),
		Backoff:  dep.Config.GetMillisecond("modules.adminotp.provider.retry_backoff_ms"),
		Timeout:  dep.Config.GetSecond("modules.adminotp.provider.timeout_seconds"),
	}, dep.Instrument)
	if err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:        db.NewDB(dep.DBConn, dep.Instrument),
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Provider:      otpClient,
		Sessions:      dep.Sessions,
		Validator:     dep.Validator,
		Config:        dep.Config,
		HMAC:          dep.HMAC,
		Bcrypt:        dep.Bcrypt,
		UUID:          dep.UUID,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, dep.JWT, dep.Console)

	return nil
}
