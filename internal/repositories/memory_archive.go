package repositories

import (
	"context"
	"sort"
	"sync"

	"ticket-checkout/internal/models"
)

// MemoryArchive keeps finalized orders in process memory
type MemoryArchive struct {
	mu     sync.RWMutex
	orders map[string]*models.Order
}

// NewMemoryArchive creates an empty archive
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{orders: make(map[string]*models.Order)}
}

func (a *MemoryArchive) Exists(ctx context.Context, orderNumber string) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.orders[orderNumber]
	return ok, nil
}

func (a *MemoryArchive) Save(ctx context.Context, order *models.Order) error {
	if err := order.Validate(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.orders[order.OrderNumber]; ok {
		return models.ErrDuplicateEntry
	}
	cp := *order
	a.orders[order.OrderNumber] = &cp
	return nil
}

func (a *MemoryArchive) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	o, ok := a.orders[orderNumber]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

// List returns orders newest first
func (a *MemoryArchive) List(ctx context.Context, limit, offset int) ([]*models.Order, error) {
	a.mu.RLock()
	all := make([]*models.Order, 0, len(a.orders))
	for _, o := range a.orders {
		cp := *o
		all = append(all, &cp)
	}
	a.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].PurchaseDate.Equal(all[j].PurchaseDate) {
			return all[i].OrderNumber < all[j].OrderNumber
		}
		return all[i].PurchaseDate.After(all[j].PurchaseDate)
	})

	if offset >= len(all) {
		return []*models.Order{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}
