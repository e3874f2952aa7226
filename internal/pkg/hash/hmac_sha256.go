package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256 keys short-lived secrets, such as issued OTP codes, so they are
// never kept in the session store in plain form.
type HMACSHA256 struct {
	secret []byte
}

// NewHMACSHA256 creates a new hasher with a secret.
func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{secret: []byte(secret)}
}

// Hash returns the hex-encoded HMAC of str.
func (s *HMACSHA256) Hash(str string) ([]byte, error) {
	return s.gen(str), nil
}

// Verify checks in constant time whether str produces hashed.
func (s *HMACSHA256) Verify(hashed, str string) bool {
	if hashed == "" {
		return false
	}
	return hmac.Equal([]byte(hashed), s.gen(str))
}

func (s *HMACSHA256) gen(str string) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(str))
	return []byte(hex.EncodeToString(h.Sum(nil)))
}
