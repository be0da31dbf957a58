package cache

import (
	"context"
	"time"

	"github.com/devphaseX/assoc-api/internal/store"
	"github.com/redis/go-redis/v9"
)

const ProfileExpTime = time.Minute * 10

type ProfileStore interface {
	Get(ctx context.Context, profileID string) (*store.Profile, error)
	Set(ctx context.Context, profile *store.Profile) error
	Delete(ctx context.Context, profileID string) error
}

type Storage struct {
	Profiles ProfileStore
}

func NewRedisStorage(rdb *redis.Client) *Storage {
	return &Storage{
		Profiles: NewRedisProfileModel(rdb),
	}
}
