package db

import (
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateULID(t *testing.T) {
	seen := make(map[string]struct{})

	for i := 0; i < 100; i++ {
		id := GenerateULID()
		require.Len(t, id, 26)

		parsed, err := ulid.Parse(id)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now(), ulid.Time(parsed.Time()), time.Minute)

		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestNewRejectsBadIdleTime(t *testing.T) {
	_, err := New(Config{DSN: "postgres://localhost/none?sslmode=disable", MaxIdleTime: "forever"})
	require.Error(t, err)
}
