package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/devphaseX/assoc-api/internal/store"
	"github.com/redis/go-redis/v9"
)

type RedisProfileModel struct {
	client *redis.Client
}

func NewRedisProfileModel(client *redis.Client) ProfileStore {
	return &RedisProfileModel{client}
}

func createProfileCacheKey(profileID string) string {
	return fmt.Sprintf("profile-%v", profileID)
}

// cachedProfile keeps the avatar key, which the API representation hides.
type cachedProfile struct {
	store.Profile
	AvatarKey string `json:"avatar_key"`
}

func (s *RedisProfileModel) Get(ctx context.Context, profileID string) (*store.Profile, error) {
	data, err := s.client.Get(ctx, createProfileCacheKey(profileID)).Result()

	if err == redis.Nil {
		return nil, store.ErrRecordNotFound
	}

	if err != nil {
		return nil, err
	}

	var cached cachedProfile
	if err := json.Unmarshal([]byte(data), &cached); err != nil {
		return nil, err
	}

	profile := cached.Profile
	profile.AvatarKey = cached.AvatarKey

	return &profile, nil
}

func (s *RedisProfileModel) Set(ctx context.Context, profile *store.Profile) error {
	data, err := json.Marshal(cachedProfile{Profile: *profile, AvatarKey: profile.AvatarKey})
	if err != nil {
		return err
	}

	return s.client.SetEx(ctx, createProfileCacheKey(profile.ID), data, ProfileExpTime).Err()
}

func (s *RedisProfileModel) Delete(ctx context.Context, profileID string) error {
	if err := s.client.Del(ctx, createProfileCacheKey(profileID)).Err(); err != nil {
		return fmt.Errorf("failed to evict profile from cache: %w", err)
	}
	return nil
}
