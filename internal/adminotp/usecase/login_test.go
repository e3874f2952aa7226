package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/adminotp/internal/adminotp/entity"
	"github.com/shandysiswandi/adminotp/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeginLogin_RejectedCredentialsLeaveSessionAnonymous(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		dbErr    error
	}{
		{name: "wrong password", username: "0811111111", password: "nope"},
		{name: "unknown mobile", username: "0899999999", password: testPassword},
		{name: "not staff", username: "0822222222", password: testPassword},
		{name: "inactive", username: "0833333333", password: testPassword},
		{name: "empty username", username: "   ", password: testPassword},
		{name: "empty password", username: "0811111111", password: ""},
		{name: "mobile too long", username: "081111111108111111110811", password: testPassword},
		{name: "password too long", username: "0811111111", password: strings.Repeat("p", 129)},
		{name: "store fault", username: "0811111111", password: testPassword, dbErr: errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.db.err = tt.dbErr

			out, err := f.uc.BeginLogin(context.Background(), BeginLoginInput{
				SessionID: testSID,
				Username:  tt.username,
				Password:  tt.password,
			})
			assert.Nil(t, out)
			require.Error(t, err)
			assert.Equal(t, goerror.CodeUnauthorized, errorCode(t, err))
			assert.EqualError(t, err, "Please enter the correct mobile and password")

			assert.Empty(t, f.values(t, testSID))
			assert.Equal(t, entity.StateAnonymous, f.state(t, testSID))
			assert.Zero(t, f.provider.calls)

			f.drain(t)
			assert.ElementsMatch(t, []entity.Outcome{entity.OutcomeBadCredentials}, f.mq.outcomes())
		})
	}
}

func TestBeginLogin_CreatesExactlyOneFreshOTPSession(t *testing.T) {
	f := newFixture(t)

	out, err := f.uc.BeginLogin(context.Background(), BeginLoginInput{
		SessionID: testSID,
		Username:  " 0811111111 ",
		Password:  testPassword,
	})
	require.NoError(t, err)
	assert.True(t, f.clock.Now().Add(5*time.Minute).Equal(out.ExpiresAt))
	assert.Equal(t, 1, f.provider.calls)

	st, err := entity.OTPSessionFromValues(f.values(t, testSID))
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.PrincipalID)
	assert.Equal(t, 0, st.Attempts)
	assert.True(t, out.ExpiresAt.Equal(st.ExpiresAt))
	assert.NotEqual(t, "123456", st.Code)
	assert.True(t, f.hmac.Verify(st.Code, "123456"))
	assert.Equal(t, entity.StateOTPPending, f.state(t, testSID))

	f.drain(t)
	assert.ElementsMatch(t, []entity.Outcome{entity.OutcomeOTPIssued}, f.mq.outcomes())
}

func TestBeginLogin_ReplacesPreviousPendingLogin(t *testing.T) {
	f := newFixture(t)
	f.beginLogin(t)

	_, err := f.verify("000000")
	require.Error(t, err)

	f.provider.code = "654321"
	f.beginLogin(t)

	st, err := entity.OTPSessionFromValues(f.values(t, testSID))
	require.NoError(t, err)
	assert.Equal(t, 0, st.Attempts)
	assert.True(t, f.hmac.Verify(st.Code, "654321"))
	assert.False(t, f.hmac.Verify(st.Code, "123456"))
}

func TestBeginLogin_ProviderExhaustedIsSystemicAndCreatesNoState(t *testing.T) {
	f := newFixture(t)
	f.provider.err = errors.New("otp provider: no code after 4 attempts")

	out, err := f.uc.BeginLogin(context.Background(), BeginLoginInput{
		SessionID: testSID,
		Username:  "0811111111",
		Password:  testPassword,
	})
	assert.Nil(t, out)
	require.Error(t, err)

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, goerror.TypeServer, gerr.Type())
	assert.Contains(t, gerr.Msg(), "report this problem")

	assert.Empty(t, f.values(t, testSID))
	assert.Equal(t, entity.StateAnonymous, f.state(t, testSID))

	f.drain(t)
	assert.ElementsMatch(t, []entity.Outcome{entity.OutcomeProviderFailed}, f.mq.outcomes())
}

func TestBeginLogin_InvalidInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.BeginLogin(context.Background(), BeginLoginInput{Username: "0811111111", Password: testPassword})
	require.Error(t, err)
	assert.Equal(t, goerror.CodeInvalidInput, errorCode(t, err))
	assert.Zero(t, f.provider.calls)
}
