package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type otpForm struct {
	SessionID string `validate:"required"`
	Code      string `validate:"required"`
}

func TestV10Validator_Validate(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	assert.NoError(t, v.Validate(otpForm{SessionID: "s", Code: "123456"}))
	assert.NoError(t, v.Validate(otpForm{SessionID: "s", Code: "12 34"}))

	err = v.Validate(otpForm{})
	var verr V10ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Values(), "session_id")
	assert.Contains(t, verr.Values(), "code")
}

type sessionInput struct {
	SessionID string `validate:"required,sessionid"`
}

func TestV10Validator_SessionID(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	assert.NoError(t, v.Validate(sessionInput{SessionID: "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b"}))

	err = v.Validate(sessionInput{SessionID: "bad sid;"})
	var verr V10ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "SessionID is not a valid session id", verr.Values()["session_id"])
	assert.JSONEq(t, `{"session_id":"SessionID is not a valid session id"}`, verr.Error())
}
