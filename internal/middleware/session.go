package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"ticket-checkout/internal/session"
)

const sessionStoreKey contextKey = "checkout_session"

// SessionMiddleware opens the caller's checkout store for each request and
// commits it just before the response headers go out.
func SessionMiddleware(opener session.Opener, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store, err := opener.Open(w, r)
			if err != nil {
				logger.Error("failed to open checkout session", zap.Error(err))
				WriteError(w, r, http.StatusInternalServerError, "session unavailable")
				return
			}

			sw := &sessionWriter{ResponseWriter: w, store: store, logger: logger}
			ctx := context.WithValue(r.Context(), sessionStoreKey, store)
			next.ServeHTTP(sw, r.WithContext(ctx))

			// handlers that wrote nothing still persist their changes
			sw.commit()
		})
	}
}

// SessionStore returns the store opened by SessionMiddleware
func SessionStore(ctx context.Context) session.Store {
	store, _ := ctx.Value(sessionStoreKey).(session.Store)
	return store
}

type sessionWriter struct {
	http.ResponseWriter
	store     session.RequestStore
	logger    *zap.Logger
	committed bool
}

func (sw *sessionWriter) commit() {
	if sw.committed {
		return
	}
	sw.committed = true
	if err := sw.store.Commit(); err != nil {
		sw.logger.Error("failed to commit checkout session", zap.Error(err))
	}
}

func (sw *sessionWriter) WriteHeader(code int) {
	sw.commit()
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *sessionWriter) Write(b []byte) (int, error) {
	sw.commit()
	return sw.ResponseWriter.Write(b)
}
