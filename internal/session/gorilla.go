package session

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/sessions"

	"ticket-checkout/internal/config"
)

// GorillaStore keeps checkout slots as JSON strings in a gorilla session
type GorillaStore struct {
	session *sessions.Session
	w       http.ResponseWriter
	r       *http.Request
}

func (s *GorillaStore) Get(_ context.Context, key Key) ([]byte, bool, error) {
	raw, ok := s.session.Values[string(key)].(string)
	if !ok || raw == "" {
		return nil, false, nil
	}
	return []byte(raw), true, nil
}

func (s *GorillaStore) Set(_ context.Context, key Key, value []byte) error {
	s.session.Values[string(key)] = string(value)
	return nil
}

func (s *GorillaStore) Clear(_ context.Context, key Key) error {
	delete(s.session.Values, string(key))
	return nil
}

// Commit writes the session back through the underlying gorilla store
func (s *GorillaStore) Commit() error {
	if err := s.session.Save(s.r, s.w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// GorillaOpener opens a GorillaStore per request
type GorillaOpener struct {
	store sessions.Store
	name  string
}

// NewGorillaOpener wraps any gorilla sessions.Store
func NewGorillaOpener(store sessions.Store, name string) *GorillaOpener {
	return &GorillaOpener{store: store, name: name}
}

// Open loads the caller's session. A cookie that fails to decode yields a
// fresh session so tampered or stale state reads as absent.
func (o *GorillaOpener) Open(w http.ResponseWriter, r *http.Request) (RequestStore, error) {
	session, err := o.store.Get(r, o.name)
	if session == nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	return &GorillaStore{session: session, w: w, r: r}, nil
}

// NewCookieStore creates an encrypted cookie store keyed from the session secret
func NewCookieStore(cfg config.SessionConfig) (*sessions.CookieStore, error) {
	hashKey, blockKey, err := DeriveKeys(cfg.Secret)
	if err != nil {
		return nil, err
	}

	store := sessions.NewCookieStore(hashKey, blockKey)
	store.Options = cookieOptions(cfg)
	return store, nil
}

// NewFilesystemStore keeps session payloads on disk and only the id in the cookie
func NewFilesystemStore(cfg config.SessionConfig) (*sessions.FilesystemStore, error) {
	hashKey, blockKey, err := DeriveKeys(cfg.Secret)
	if err != nil {
		return nil, err
	}

	dir := cfg.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	store := sessions.NewFilesystemStore(dir, hashKey, blockKey)
	store.MaxLength(0)
	store.Options = cookieOptions(cfg)
	return store, nil
}

func cookieOptions(cfg config.SessionConfig) *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
