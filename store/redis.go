package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	backend "github.com/redis/go-redis/v9"
)

// Redis stores each record as a JSON string and keeps a ZSET index of ids
// scored by creation time.
type Redis struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type RedisOption func(*Redis)

// WithTTL expires records after ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *Redis) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for records.
func WithPrefix(prefix string) RedisOption {
	return func(s *Redis) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

const defaultRedisPrefix = "deepmap:map:"

func NewRedis(address, password string, db int, opts ...RedisOption) *Redis {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewRedisFromClient(rdb, opts...)
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *backend.Client, opts ...RedisOption) *Redis {
	s := &Redis{client: client, prefix: defaultRedisPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Redis) key(id string) string {
	return s.prefix + id
}

func (s *Redis) indexKey() string {
	return s.prefix + "index"
}

func (s *Redis) Save(ctx context.Context, rec *Record) error {
	if err := checkRecord(rec); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "failed to marshal record")
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(rec.ID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  float64(rec.CreatedAt.UnixNano()),
		Member: rec.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "failed to save to redis")
	}
	return nil
}

func (s *Redis) Load(ctx context.Context, id string) (*Record, error) {
	val, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get from redis")
	}
	return decodeRecord(id, val)
}

// List drops index entries whose record has expired.
func (s *Redis) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read index")
	}
	if len(ids) == 0 {
		return ids, nil
	}

	pipe := s.client.Pipeline()
	exists := make([]*backend.IntCmd, len(ids))
	for i, id := range ids {
		exists[i] = pipe.Exists(ctx, s.key(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to check records")
	}

	live := make([]string, 0, len(ids))
	var stale []any
	for i, id := range ids {
		if exists[i].Val() > 0 {
			live = append(live, id)
		} else {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		if err := s.client.ZRem(ctx, s.indexKey(), stale...).Err(); err != nil {
			slog.WarnContext(ctx, "failed to prune redis index", "stale", len(stale), "error", err)
		}
	}
	return live, nil
}

func (s *Redis) Delete(ctx context.Context, id string) error {
	pipe := s.client.Pipeline()
	del := pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.indexKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "failed to delete from redis")
	}
	if del.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Redis) Close() error {
	return s.client.Close()
}
