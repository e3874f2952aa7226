package hash

// Hash hashes a secret and verifies plaintext against a stored hash.
type Hash interface {
	Hash(str string) ([]byte, error)
	Verify(hashed, str string) bool
}
