package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeClocker_IsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, New().Now().Location())
}

func TestManual(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewManual(start)

	assert.Equal(t, start, m.Now())

	m.Advance(5 * time.Minute)
	assert.Equal(t, start.Add(5*time.Minute), m.Now())

	m.Set(start)
	assert.Equal(t, start, m.Now())
}
