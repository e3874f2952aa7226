package usecase

import (
	"context"
	"testing"

	"github.com/shandysiswandi/adminotp/internal/adminotp/entity"
	"github.com/shandysiswandi/adminotp/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCancelOTP_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.beginLogin(t)
	ctx := context.Background()

	require.NoError(t, f.uc.CancelOTP(ctx, CancelOTPInput{SessionID: testSID}))
	assert.Empty(t, f.values(t, testSID))
	assert.Equal(t, entity.StateAnonymous, f.state(t, testSID))

	require.NoError(t, f.uc.CancelOTP(ctx, CancelOTPInput{SessionID: testSID}))
	assert.Empty(t, f.values(t, testSID))
	assert.Equal(t, entity.StateAnonymous, f.state(t, testSID))

	// Only the cancel that ended a pending login is audited.
	f.drain(t)
	assert.ElementsMatch(t, []entity.Outcome{entity.OutcomeOTPIssued, entity.OutcomeCancelled}, f.mq.outcomes())
}

func TestCancelOTP_RequiresSession(t *testing.T) {
	f := newFixture(t)

	err := f.uc.CancelOTP(context.Background(), CancelOTPInput{})
	require.Error(t, err)
	assert.Equal(t, goerror.CodeInvalidInput, errorCode(t, err))
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	f.beginLogin(t)
	ctx := context.Background()

	out, err := f.verify("123456")
	require.NoError(t, err)

	require.NoError(t, f.uc.Logout(ctx, LogoutInput{SessionID: out.SessionID}))
	assert.Empty(t, f.values(t, out.SessionID))
	assert.Equal(t, entity.StateAnonymous, f.state(t, out.SessionID))

	require.NoError(t, f.uc.Logout(ctx, LogoutInput{SessionID: out.SessionID}))

	f.drain(t)
	assert.ElementsMatch(t, []entity.Outcome{
		entity.OutcomeOTPIssued,
		entity.OutcomeVerified,
		entity.OutcomeLoggedOut,
	}, f.mq.outcomes())
}
