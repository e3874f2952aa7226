package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcrypt(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost, "pepper")

	hashed, err := h.Hash("hunter2")
	require.NoError(t, err)

	assert.True(t, h.Verify(string(hashed), "hunter2"))
	assert.False(t, h.Verify(string(hashed), "hunter3"))
	assert.False(t, NewBcrypt(bcrypt.MinCost, "other").Verify(string(hashed), "hunter2"))
	assert.False(t, h.Verify("", "hunter2"))

	assert.NotPanics(t, func() { h.Equalize("anything") })
}

func TestNewBcrypt_CostFallback(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcrypt(0, "").cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcrypt(bcrypt.MaxCost+1, "").cost)
	assert.Equal(t, bcrypt.MinCost, NewBcrypt(bcrypt.MinCost, "").cost)
}

func TestHMACSHA256(t *testing.T) {
	h := NewHMACSHA256("secret")

	hashed, err := h.Hash("123456")
	require.NoError(t, err)
	assert.Len(t, hashed, 64)

	assert.True(t, h.Verify(string(hashed), "123456"))
	assert.False(t, h.Verify(string(hashed), "123457"))
	assert.False(t, h.Verify("", ""))
	assert.False(t, NewHMACSHA256("other").Verify(string(hashed), "123456"))
}
