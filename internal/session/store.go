package session

import (
	"context"
	"errors"
	"net/http"
)

// Key names one slot of checkout state
type Key string

const (
	KeySelectedTickets Key = "selectedTickets"
	KeyCustomerInfo    Key = "customerInfo"
	KeyCompletedOrder  Key = "completedOrder"
)

// Keys lists every slot a checkout writes
var Keys = []Key{KeySelectedTickets, KeyCustomerInfo, KeyCompletedOrder}

// ErrUnknownBackend is returned by NewOpener for an unsupported backend name
var ErrUnknownBackend = errors.New("unknown session backend")

// Store is the keyed checkout state a wizard page reads and writes.
// Values are opaque JSON documents; Get reports ok=false for an empty slot.
type Store interface {
	Get(ctx context.Context, key Key) ([]byte, bool, error)
	Set(ctx context.Context, key Key, value []byte) error
	Clear(ctx context.Context, key Key) error
}

// RequestStore is a Store bound to one HTTP request. Commit must run before
// the response headers are written.
type RequestStore interface {
	Store
	Commit() error
}

// Opener binds a Store to the caller of a request
type Opener interface {
	Open(w http.ResponseWriter, r *http.Request) (RequestStore, error)
}

// ClearAll empties every checkout slot
func ClearAll(ctx context.Context, s Store) error {
	for _, key := range Keys {
		if err := s.Clear(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
