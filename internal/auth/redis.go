package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goRedis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	redisKeyPrefix = "lime-tool:session:"
	redisPoolSize  = 10
)

// RedisSettings locates the session database
type RedisSettings struct {
	Addr     string
	DB       int
	Password string
}

// RedisStore keeps sessions in Redis as JSON with a TTL
type RedisStore struct {
	client *goRedis.Client
	ttl    time.Duration
}

// NewRedisStore connects and pings the server before returning
func NewRedisStore(ctx context.Context, settings RedisSettings, ttl time.Duration) (*RedisStore, error) {
	client := goRedis.NewClient(&goRedis.Options{
		Addr:     settings.Addr,
		DB:       settings.DB,
		Password: settings.Password,
		PoolSize: redisPoolSize,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", settings.Addr, err)
	}
	log.WithField("addr", settings.Addr).Info("Connected to Redis session store")
	return &RedisStore{client: client, ttl: ttl}, nil
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

// Get loads and decodes a session
func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := r.client.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, goRedis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading session %s: %w", id, err)
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return &s, nil
}

// Save encodes the session and resets its TTL
func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", s.ID, err)
	}
	if err := r.client.Set(ctx, redisKey(s.ID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("writing session %s: %w", s.ID, err)
	}
	return nil
}

// Delete removes the session key
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, redisKey(id)).Err(); err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	return nil
}

// Close releases the connection pool
func (r *RedisStore) Close() error {
	return r.client.Close()
}
