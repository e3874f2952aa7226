package hash

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Bcrypt hashes admin passwords. Pepper is appended to the plaintext before
// hashing and verifying and lives in configuration only.
type Bcrypt struct {
	cost   int
	pepper string

	dummyOnce sync.Once
	dummy     []byte
}

// NewBcrypt returns a bcrypt-based hasher. Costs outside bcrypt's accepted
// range fall back to bcrypt.DefaultCost.
func NewBcrypt(cost int, pepper string) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost, pepper: pepper}
}

// Hash hashes plaintext using bcrypt.
func (h *Bcrypt) Hash(plaintext string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plaintext+h.pepper), h.cost)
}

// Verify returns true when plaintext matches the hashed value.
func (h *Bcrypt) Verify(hashed, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext+h.pepper)) == nil
}

// Equalize spends the same work as a failed Verify. Call it when there is no
// stored hash to compare against so unknown accounts are not faster to reject.
func (h *Bcrypt) Equalize(plaintext string) {
	h.dummyOnce.Do(func() {
		//nolint:errcheck // fixed input cannot exceed bcrypt's length limit
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("adminotp-dummy"), h.cost)
	})
	//nolint:errcheck // result is irrelevant
	bcrypt.CompareHashAndPassword(h.dummy, []byte(plaintext+h.pepper))
}
