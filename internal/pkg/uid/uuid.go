package uid

import "github.com/google/uuid"

// UUID generates time-ordered UUIDv7 strings used for session ids, token ids
// and correlation ids.
type UUID struct{}

// NewUUID returns a UUID generator.
func NewUUID() *UUID {
	return &UUID{}
}

// Generate returns a new UUID string, falling back to v4 if v7 fails.
func (*UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
