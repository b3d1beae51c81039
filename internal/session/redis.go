package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one key per session holding the user id, with the
// session TTL on the key, plus a set per user listing its session ids.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "visioneer:"
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (r *RedisStore) sessionKey(id string) string {
	return r.prefix + "session:" + id
}

func (r *RedisStore) userKey(userID int) string {
	return r.prefix + "user:" + strconv.Itoa(userID) + ":sessions"
}

func (r *RedisStore) Get(ctx context.Context, id string) (Session, error) {
	key := r.sessionKey(id)
	var (
		val *redis.StringCmd
		ttl *redis.DurationCmd
	)
	_, err := r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		val = p.Get(ctx, key)
		ttl = p.PTTL(ctx, key)
		return nil
	})
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("redis get session: %w", err)
	}

	userID, err := strconv.Atoi(val.Val())
	if err != nil {
		return Session{}, fmt.Errorf("corrupt session %s: %w", id, err)
	}
	s := Session{ID: id, UserID: userID}
	if d := ttl.Val(); d > 0 {
		s.ExpiresAt = r.now().Add(d)
	}
	return s, nil
}

func (r *RedisStore) Put(ctx context.Context, s Session, ttl time.Duration) error {
	userKey := r.userKey(s.UserID)
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.sessionKey(s.ID), strconv.Itoa(s.UserID), ttl)
		p.SAdd(ctx, userKey, s.ID)
		// the index lives at least as long as its newest session
		p.ExpireGT(ctx, userKey, ttl)
		p.ExpireNX(ctx, userKey, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis put session: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	s, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, r.sessionKey(id))
		p.SRem(ctx, r.userKey(s.UserID), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

func (r *RedisStore) Expire(ctx context.Context, id string, ttl time.Duration) error {
	ok, err := r.client.PExpire(ctx, r.sessionKey(id), ttl).Result()
	if err != nil {
		return fmt.Errorf("redis expire session: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (r *RedisStore) DeleteByUser(ctx context.Context, userID int) (int, error) {
	userKey := r.userKey(userID)
	ids, err := r.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis list user sessions: %w", err)
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.sessionKey(id)
	}
	var removed *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if len(keys) > 0 {
			removed = p.Del(ctx, keys...)
		}
		p.Del(ctx, userKey)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis delete user sessions: %w", err)
	}
	if removed == nil {
		return 0, nil
	}
	return int(removed.Val()), nil
}

// Ping checks connectivity; used at startup.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
