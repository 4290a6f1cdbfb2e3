package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/playperu/minigames/internal/room"
)

const redisKeyPrefix = "room:"

// Redis stores each room as a JSON string under room:{id} with a TTL that is
// refreshed on every save. Saves run inside WATCH so a concurrent writer
// turns into room.ErrConflict instead of a lost update.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func redisKey(id string) string { return redisKeyPrefix + id }

func (s *Redis) Load(ctx context.Context, id string) (*room.Room, error) {
	data, err := s.rdb.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, room.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var r room.Room
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Redis) Save(ctx context.Context, r *room.Room) error {
	next := *r
	next.Version++
	data, err := json.Marshal(&next)
	if err != nil {
		return err
	}
	key := redisKey(r.RoomID)

	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			if r.Version != 0 {
				return room.ErrNotFound
			}
		case err != nil:
			return fmt.Errorf("redis get: %w", err)
		default:
			var stored struct {
				Version int64 `json:"version"`
			}
			if err := json.Unmarshal(cur, &stored); err != nil {
				return err
			}
			if stored.Version != r.Version {
				return room.ErrConflict
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return room.ErrConflict
	}
	if err != nil {
		return err
	}

	r.Version = next.Version
	return nil
}

func (s *Redis) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, redisKey(id)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Check pings the server for the health endpoint.
func (s *Redis) Check(ctx context.Context) error { return s.rdb.Ping(ctx).Err() }
