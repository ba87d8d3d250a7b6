package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ticket-checkout/internal/session"
)

func TestSessionMiddleware_PersistsAcrossRequests(t *testing.T) {
	hashKey, blockKey, err := session.DeriveKeys("a-test-secret-that-is-long-enough")
	require.NoError(t, err)
	opener := session.NewGorillaOpener(sessions.NewCookieStore(hashKey, blockKey), "checkout")

	write := SessionMiddleware(opener, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store := SessionStore(r.Context())
		require.NotNil(t, store)
		require.NoError(t, store.Set(r.Context(), session.KeySelectedTickets, []byte(`{"event":{"id":"e1"}}`)))
		w.WriteHeader(http.StatusSeeOther)
	}))

	rr := httptest.NewRecorder()
	write.ServeHTTP(rr, httptest.NewRequest("POST", "/checkout/tickets", nil))
	assert.Equal(t, http.StatusSeeOther, rr.Code)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)

	var got []byte
	read := SessionMiddleware(opener, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _, _ = SessionStore(r.Context()).Get(r.Context(), session.KeySelectedTickets)
	}))

	req := httptest.NewRequest("GET", "/checkout/details", nil)
	req.AddCookie(cookies[0])
	read.ServeHTTP(httptest.NewRecorder(), req)
	assert.JSONEq(t, `{"event":{"id":"e1"}}`, string(got))
}

func TestSessionMiddleware_CommitsWithoutBody(t *testing.T) {
	store := &countingStore{MemoryStore: session.NewMemoryStore()}

	handler := SessionMiddleware(store, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, 1, store.commits)

	handler = SessionMiddleware(store, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("a"))
		w.Write([]byte("b"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, 2, store.commits)
}

type countingStore struct {
	*session.MemoryStore
	commits int
}

func (c *countingStore) Commit() error {
	c.commits++
	return nil
}

func (c *countingStore) Open(http.ResponseWriter, *http.Request) (session.RequestStore, error) {
	return c, nil
}

type brokenOpener struct{}

func (brokenOpener) Open(http.ResponseWriter, *http.Request) (session.RequestStore, error) {
	return nil, errors.New("redis down")
}

func TestSessionMiddleware_OpenFailure(t *testing.T) {
	called := false
	handler := SessionMiddleware(brokenOpener{}, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	assert.False(t, called)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestSessionStore_Missing(t *testing.T) {
	assert.Nil(t, SessionStore(context.Background()))
}
