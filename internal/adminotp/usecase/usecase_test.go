package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
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
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testPassword = "correct-horse"
	testSID      = "sid-1"
)

type fakeDB struct {
	mu         sync.Mutex
	principals map[int64]*entity.Principal
	err        error
}

func (f *fakeDB) GetPrincipalByMobile(_ context.Context, mobile string) (*entity.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.principals {
		if p.Mobile == mobile {
			cp := *p
			return &cp, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeDB) GetPrincipalByID(_ context.Context, id int64) (*entity.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.principals[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeDB) remove(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.principals, id)
}

type fakeProvider struct {
	mu    sync.Mutex
	code  string
	err   error
	calls int
}

func (f *fakeProvider) RequestCode(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.code, f.err
}

type fakeMessaging struct {
	mu     sync.Mutex
	events []LoginEvent
}

func (f *fakeMessaging) PublishLoginEvent(_ context.Context, msg LoginEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, msg)
	return nil
}

func (f *fakeMessaging) outcomes() []entity.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.Outcome, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Outcome)
	}
	return out
}

type fixture struct {
	uc       *Usecase
	db       *fakeDB
	provider *fakeProvider
	mq       *fakeMessaging
	sessions *session.Memory
	clock    *clock.Manual
	jwt      *jwt.Symmetric
	hmac     *hash.HMACSHA256
	gm       *goroutine.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, nil)
}

// newFixtureWithStore lets wrap decorate the session store the usecase sees.
// f.sessions stays the underlying store.
func newFixtureWithStore(t *testing.T, wrap func(session.Store) session.Store) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(strings.Join([]string{
		"modules:",
		"  adminotp:",
		"    otp_duration_minutes: 5",
		"    max_otp_tries: 3",
	}, "\n")))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	bc := hash.NewBcrypt(bcrypt.MinCost, "")
	pw, err := bc.Hash(testPassword)
	require.NoError(t, err)

	clk := clock.NewManual(time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC))

	j, err := jwt.NewHS512(jwt.Config{
		Secret:     []byte(strings.Repeat("k", 64)),
		Issuer:     "adminotp",
		Audiences:  []string{"admin"},
		TTLMinutes: 15 * time.Minute,
		Clock:      clk,
		UUID:       uid.NewUUID(),
	})
	require.NoError(t, err)

	f := &fixture{
		db: &fakeDB{principals: map[int64]*entity.Principal{
			1: {ID: 1, Mobile: "0811111111", FirstName: "Ana", Password: string(pw), IsStaff: true, IsActive: true},
			2: {ID: 2, Mobile: "0822222222", FirstName: "Budi", Password: string(pw), IsStaff: false, IsActive: true},
			3: {ID: 3, Mobile: "0833333333", FirstName: "Citra", Password: string(pw), IsStaff: true, IsActive: false},
		}},
		provider: &fakeProvider{code: "123456"},
		mq:       &fakeMessaging{},
		sessions: session.NewMemory(time.Hour, clk),
		clock:    clk,
		jwt:      j,
		hmac:     hash.NewHMACSHA256("otp-secret"),
		gm:       goroutine.NewManager(10),
	}

	var store session.Store = f.sessions
	if wrap != nil {
		store = wrap(store)
	}

	f.uc = New(Dependency{
		RepoDB:        f.db,
		RepoMessaging: f.mq,
		Provider:      f.provider,
		Sessions:      store,
		Validator:     v,
		Config:        cfg,
		HMAC:          f.hmac,
		Bcrypt:        bc,
		UUID:          uid.NewUUID(),
		Clock:         clk,
		JWT:           j,
		Instrument:    instrument.NewNoop(),
		Goroutine:     f.gm,
	})

	return f
}

func (f *fixture) values(t *testing.T, sid string) session.Values {
	t.Helper()
	v, err := f.sessions.Get(context.Background(), sid)
	require.NoError(t, err)
	return v
}

func (f *fixture) state(t *testing.T, sid string) entity.State {
	t.Helper()
	out, err := f.uc.State(context.Background(), StateInput{SessionID: sid})
	require.NoError(t, err)
	return out.State
}

func (f *fixture) beginLogin(t *testing.T) {
	t.Helper()
	_, err := f.uc.BeginLogin(context.Background(), BeginLoginInput{
		SessionID: testSID,
		Username:  "0811111111",
		Password:  testPassword,
	})
	require.NoError(t, err)
}

func (f *fixture) verify(code string) (*VerifyOTPOutput, error) {
	return f.uc.VerifyOTP(context.Background(), VerifyOTPInput{SessionID: testSID, Code: code})
}

// drain waits for background audit publishing to finish.
func (f *fixture) drain(t *testing.T) {
	t.Helper()
	require.NoError(t, f.gm.Wait())
}

func errorCode(t *testing.T, err error) goerror.Code {
	t.Helper()
	var gerr *goerror.Error
	require.True(t, errors.As(err, &gerr), "expected *goerror.Error, got %T: %v", err, err)
	return gerr.Code()
}

func TestMaxOTPTries(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want int
	}{
		{name: "configured", yaml: "modules:\n  adminotp:\n    max_otp_tries: 5\n", want: 5},
		{name: "zero is kept", yaml: "modules:\n  adminotp:\n    max_otp_tries: 0\n", want: 0},
		{name: "negative falls back", yaml: "modules:\n  adminotp:\n    max_otp_tries: -1\n", want: defaultMaxOTPTries},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.NewViperFromBytes("yaml", []byte(tt.yaml))
			require.NoError(t, err)
			require.Equal(t, tt.want, MaxOTPTries(cfg))
		})
	}
}
