package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reset-corp/reset-backend/internal/models"
)

func fieldKeys(t *testing.T, prevAttempts int) map[string]int {
	t.Helper()

	counts := make(map[string]int)
	for _, e := range failedLoginFields(prevAttempts, time.Now()) {
		counts[e.Key]++
	}
	return counts
}

func TestFailedLoginFieldsIncrementsCounter(t *testing.T) {
	fields := failedLoginFields(2, time.Now())
	require.Len(t, fields, 1)
	assert.Equal(t, "login_attempts", fields[0].Key)
	assert.Equal(t, 3, fields[0].Value)
}

func TestFailedLoginFieldsLocksAtLimit(t *testing.T) {
	now := time.Now()
	fields := failedLoginFields(models.MaxLoginAttempts-1, now)
	require.Len(t, fields, 2)
	assert.Equal(t, "login_attempts", fields[0].Key)
	assert.Equal(t, 0, fields[0].Value)
	assert.Equal(t, "lock_until", fields[1].Key)
	assert.Equal(t, now.Add(models.LockoutDuration), fields[1].Value)
}

func TestFailedLoginFieldsNoDuplicatePaths(t *testing.T) {
	// A $set document that repeats a path is rejected by MongoDB, so every
	// key must appear exactly once no matter the attempt count.
	for prev := 0; prev <= models.MaxLoginAttempts+2; prev++ {
		for key, n := range fieldKeys(t, prev) {
			assert.Equal(t, 1, n, "attempt %d repeats %s", prev, key)
		}
	}
}
