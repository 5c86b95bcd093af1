package store

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces every key written by this process.
	Prefix string
}

// RedisStore implements Store on Redis hashes holding value and created_at.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedis creates a RedisStore. The connection is checked by Migrate.
func NewRedis(cfg RedisConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return NewRedisWithClient(client, cfg.Prefix)
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "company-analyzer:"
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

// Migrate has no schema to create; it verifies connectivity.
func (s *RedisStore) Migrate(ctx context.Context) error {
	return eris.Wrap(s.client.Ping(ctx).Err(), "redis: ping")
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {
	fields, err := s.client.HGetAll(ctx, s.prefix+key).Result()
	if err != nil {
		return nil, eris.Wrapf(err, "redis: get %s", key)
	}
	value, ok := fields["value"]
	if !ok {
		return nil, nil
	}
	nanos, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "redis: parse created_at for %s", key)
	}
	return &Entry{Key: key, Value: []byte(value), CreatedAt: time.Unix(0, nanos).UTC()}, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	err := s.client.HSet(ctx, s.prefix+key,
		"value", value,
		"created_at", strconv.FormatInt(s.now().UTC().UnixNano(), 10),
	).Err()
	return eris.Wrapf(err, "redis: put %s", key)
}

func (s *RedisStore) Delete(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Del(ctx, s.prefix+key).Result()
	if err != nil {
		return false, eris.Wrapf(err, "redis: delete %s", key)
	}
	return n > 0, nil
}
