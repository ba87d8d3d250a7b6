package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
)

const sidValue = "sid"

// redisCmds is the subset of the go-redis client the store uses
type redisCmds interface {
	GetEx(ctx context.Context, key string, expiration time.Duration) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore keeps checkout slots in Redis under checkout:<sid>:<key>.
// Every read or write pushes the slot's expiry out by ttl.
type RedisStore struct {
	client redisCmds
	sid    string
	ttl    time.Duration
	commit func() error
}

// NewRedisStore binds a store to one session id
func NewRedisStore(client redisCmds, sid string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, sid: sid, ttl: ttl}
}

// SessionID returns the id the slots are keyed under
func (s *RedisStore) SessionID() string {
	return s.sid
}

func (s *RedisStore) redisKey(key Key) string {
	return fmt.Sprintf("checkout:%s:%s", s.sid, key)
}

func (s *RedisStore) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	value, err := s.client.GetEx(ctx, s.redisKey(key), s.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key Key, value []byte) error {
	if err := s.client.Set(ctx, s.redisKey(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, key Key) error {
	if err := s.client.Del(ctx, s.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to clear %s: %w", key, err)
	}
	return nil
}

// Commit refreshes the cookie carrying the session id
func (s *RedisStore) Commit() error {
	if s.commit == nil {
		return nil
	}
	return s.commit()
}

// RedisOpener issues session ids through a gorilla cookie and stores state in Redis
type RedisOpener struct {
	client  redisCmds
	cookies sessions.Store
	name    string
	ttl     time.Duration
}

// NewRedisOpener creates an opener; ttl is the sliding expiry of each slot
func NewRedisOpener(client redisCmds, cookies sessions.Store, name string, ttl time.Duration) *RedisOpener {
	return &RedisOpener{client: client, cookies: cookies, name: name, ttl: ttl}
}

func (o *RedisOpener) Open(w http.ResponseWriter, r *http.Request) (RequestStore, error) {
	cookie, err := o.cookies.Get(r, o.name)
	if cookie == nil {
		return nil, fmt.Errorf("failed to open session cookie: %w", err)
	}

	sid, ok := cookie.Values[sidValue].(string)
	if !ok || sid == "" {
		sid = uuid.NewString()
		cookie.Values[sidValue] = sid
	}

	store := NewRedisStore(o.client, sid, o.ttl)
	store.commit = func() error {
		if err := cookie.Save(r, w); err != nil {
			return fmt.Errorf("failed to save session cookie: %w", err)
		}
		return nil
	}
	return store, nil
}
