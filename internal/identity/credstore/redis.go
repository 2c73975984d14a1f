package credstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/identity/pkg/retry"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// OpTimeout bounds every single round trip, retries excluded.
	OpTimeout time.Duration
	Retry     retry.Policy
}

// RedisStore is the production Store. Connection-level failures are retried
// per the configured policy; a missing key is never retried.
type RedisStore struct {
	client    *redis.Client
	opTimeout time.Duration
	policy    retry.Policy
}

func NewRedis(cfg RedisConfig) *RedisStore {
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 2 * time.Second
	}
	if cfg.Retry.Attempts <= 0 {
		cfg.Retry = retry.Store
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		// retries are driven by pkg/retry so they follow the same policy
		// as every other outbound call
		MaxRetries: -1,
	})

	return &RedisStore{client: client, opTimeout: cfg.OpTimeout, policy: cfg.Retry}
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.do(ctx, func(ctx context.Context) error {
		return s.client.Set(ctx, key, value, ttl).Err()
	})
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	var out string
	err := s.do(ctx, func(ctx context.Context) error {
		v, err := s.client.Get(ctx, key).Result()
		out = v
		return err
	})
	return out, err
}

func (s *RedisStore) GetDel(ctx context.Context, key string) (string, error) {
	var out string
	err := s.do(ctx, func(ctx context.Context) error {
		v, err := s.client.GetDel(ctx, key).Result()
		out = v
		return err
	})
	return out, err
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.do(ctx, func(ctx context.Context) error {
		return s.client.Del(ctx, key).Err()
	})
}

func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error { return s.client.Close() }

// do runs op under the retry policy with a per-attempt timeout. redis.Nil
// becomes ErrNotFound and stops the loop, as does any other server reply
// error; only connection-level failures are retried.
func (s *RedisStore) do(ctx context.Context, op func(context.Context) error) error {
	err := retry.Do(ctx, s.policy, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
		defer cancel()

		err := op(ctx)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, redis.Nil):
			return ErrNotFound
		}
		var reply redis.Error
		if errors.As(err, &reply) {
			return err
		}
		return retry.Transient(err)
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("credstore: %w", err)
	}
	return err
}
