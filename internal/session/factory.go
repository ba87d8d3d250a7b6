package session

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ticket-checkout/internal/config"
)

// NewOpener builds the opener selected by cfg.Backend. client is only used
// by the redis backend and may be nil otherwise.
func NewOpener(cfg config.SessionConfig, client *redis.Client) (Opener, error) {
	switch cfg.Backend {
	case "", "cookie":
		store, err := NewCookieStore(cfg)
		if err != nil {
			return nil, err
		}
		return NewGorillaOpener(store, cfg.Name), nil

	case "filesystem":
		store, err := NewFilesystemStore(cfg)
		if err != nil {
			return nil, err
		}
		return NewGorillaOpener(store, cfg.Name), nil

	case "redis":
		if client == nil {
			return nil, fmt.Errorf("redis backend requires a redis client")
		}
		cookies, err := NewCookieStore(cfg)
		if err != nil {
			return nil, err
		}
		return NewRedisOpener(client, cookies, cfg.Name, time.Duration(cfg.MaxAge)*time.Second), nil

	case "memory":
		return NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
