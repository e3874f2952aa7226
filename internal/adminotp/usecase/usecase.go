package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/adminotp/internal/adminotp/entity"
	"github.com/shandysiswandi/adminotp/internal/pkg/clock"
	"github.com/shandysiswandi/adminotp/internal/pkg/config"
	"github.com/shandysiswandi/adminotp/internal/pkg/goerror"
	"github.com/shandysiswandi/adminotp/internal/pkg/goroutine"
	"github.com/shandysiswandi/adminotp/internal/pkg/hash"
	"github.com/shandysiswandi/adminotp/internal/pkg/instrument"
	"github.com/shandysiswandi/adminotp/internal/pkg/jwt"
	"github.com/shandysiswandi/adminotp/internal/pkg/session"
	"github.com/shandysiswandi/adminotp/internal/pkg/uid"
	"github.com/shandysiswandi/adminotp/internal/pkg/validator"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultOTPDuration = 5 * time.Minute
	defaultMaxOTPTries = 3
)

type LoginEvent struct {
	PrincipalID int64
	Mobile      string
	Outcome     entity.Outcome
	Attempts    int
	ClientIP    string
	OccurredAt  time.Time
}

type repoMessaging interface {
	PublishLoginEvent(ctx context.Context, msg LoginEvent) error
}

type repoDB interface {
	GetPrincipalByMobile(ctx context.Context, mobile string) (*entity.Principal, error)
	GetPrincipalByID(ctx context.Context, id int64) (*entity.Principal, error)
}

type otpProvider interface {
	RequestCode(ctx context.Context, identifier string) (string, error)
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	provider      otpProvider
	sessions      session.Store
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	bcrypt        hash.Hash
	uuid          uid.StringID
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager

	loginOutcome  metric.Int64Counter
	verifyOutcome metric.Int64Counter
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Provider      otpProvider
	Sessions      session.Store
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	Bcrypt        hash.Hash
	UUID          uid.StringID
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	meter := dep.Instrument.Meter("adminotp.usecase")

	loginOutcome, err := meter.Int64Counter("adminotp.login.outcome", metric.WithDescription("Begin-login results by outcome"))
	if err != nil {
		slog.Error("failed to create login outcome counter", "error", err)
	}

	verifyOutcome, err := meter.Int64Counter("adminotp.verify.outcome", metric.WithDescription("OTP verification results by outcome"))
	if err != nil {
		slog.Error("failed to create verify outcome counter", "error", err)
	}

	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		provider:      dep.Provider,
		sessions:      dep.Sessions,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		bcrypt:        dep.Bcrypt,
		uuid:          dep.UUID,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
		loginOutcome:  loginOutcome,
		verifyOutcome: verifyOutcome,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("adminotp.usecase").Start(ctx, name)
}

func (s *Usecase) otpDuration() time.Duration {
	if d := s.cfg.GetMinute("modules.adminotp.otp_duration_minutes"); d > 0 {
		return d
	}
	return defaultOTPDuration
}

// MaxOTPTries reads modules.adminotp.max_otp_tries, the ceiling shared by the
// provider retries and the verifier. Zero is a valid ceiling; only negative
// values fall back to the default.
func MaxOTPTries(cfg config.Config) int {
	if n := cfg.GetInt("modules.adminotp.max_otp_tries"); n >= 0 {
		return n
	}
	return defaultMaxOTPTries
}

func (s *Usecase) maxOTPTries() int { return MaxOTPTries(s.cfg) }

func errSessionExpired() error {
	return goerror.NewBusiness("code expired, please try again", goerror.CodeSessionExpired)
}

func errAlreadyAuthenticated() error {
	return goerror.NewBusiness("already signed in", goerror.CodeUnauthorized)
}

// clearSession drops every key of the client session. Failures are logged only;
// the caller already decided the pending login is over.
func (s *Usecase) clearSession(ctx context.Context, sid string) {
	if err := s.sessions.Flush(ctx, sid); err != nil {
		slog.ErrorContext(ctx, "failed to flush client session", "error", err)
	}
}

func (s *Usecase) countOutcome(ctx context.Context, counter metric.Int64Counter, o entity.Outcome) {
	if counter == nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", o.String())))
}

// publish sends the audit event in the background so a slow broker never
// delays the login response.
func (s *Usecase) publish(ctx context.Context, ev LoginEvent) {
	if s.repoMessaging == nil {
		return
	}
	ev.OccurredAt = s.clock.Now()

	s.goroutine.Go(context.WithoutCancel(ctx), "login_event.publish", func(ctx context.Context) error {
		if err := s.repoMessaging.PublishLoginEvent(ctx, ev); err != nil {
			slog.WarnContext(ctx, "failed to publish login event", "outcome", ev.Outcome.String(), "error", err)
		}
		return nil
	})
}
