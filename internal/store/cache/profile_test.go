package cache

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/devphaseX/assoc-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedProfileKeepsAvatarKey(t *testing.T) {
	profile := store.Profile{
		ID:        "01JABCDEF",
		FirstName: "Ada",
		Email:     "ada@example.edu",
		AvatarURL: "https://utfs.io/f/key1",
		AvatarKey: "key1",
		Version:   2,
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	data, err := json.Marshal(cachedProfile{Profile: profile, AvatarKey: profile.AvatarKey})
	require.NoError(t, err)

	var decoded cachedProfile
	require.NoError(t, json.Unmarshal(data, &decoded))

	got := decoded.Profile
	got.AvatarKey = decoded.AvatarKey
	assert.Equal(t, profile.ID, got.ID)
	assert.Equal(t, "key1", got.AvatarKey)
	assert.Equal(t, profile.AvatarURL, got.AvatarURL)
	assert.True(t, profile.CreatedAt.Equal(got.CreatedAt))

	public, err := json.Marshal(profile)
	require.NoError(t, err)
	assert.NotContains(t, string(public), "avatar_key")
	assert.Equal(t, "profile-01JABCDEF", createProfileCacheKey(profile.ID))
}
