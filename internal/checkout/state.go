package checkout

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"ticket-checkout/internal/models"
	"ticket-checkout/internal/session"
)

// loadJSON reads one slot. Missing or undecodable values report ok=false;
// only store failures are errors.
func loadJSON(ctx context.Context, store session.Store, key session.Key, dst interface{}, logger *zap.Logger) (bool, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		logger.Warn("discarding malformed session value",
			zap.String("key", string(key)),
			zap.Error(err),
		)
		return false, nil
	}
	return true, nil
}

func saveJSON(ctx context.Context, store session.Store, key session.Key, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := store.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func loadSelection(ctx context.Context, store session.Store, logger *zap.Logger) (*models.SelectedTickets, error) {
	var sel models.SelectedTickets
	ok, err := loadJSON(ctx, store, session.KeySelectedTickets, &sel, logger)
	if err != nil || !ok {
		return nil, err
	}
	if err := sel.Validate(); err != nil {
		logger.Warn("discarding invalid selection", zap.Error(err))
		return nil, nil
	}
	return &sel, nil
}

func loadCustomer(ctx context.Context, store session.Store, logger *zap.Logger) (*models.CustomerInfo, error) {
	var customer models.CustomerInfo
	ok, err := loadJSON(ctx, store, session.KeyCustomerInfo, &customer, logger)
	if err != nil || !ok {
		return nil, err
	}
	if err := customer.Validate(); err != nil {
		logger.Warn("discarding invalid customer info", zap.Error(err))
		return nil, nil
	}
	return &customer, nil
}

func loadOrder(ctx context.Context, store session.Store, logger *zap.Logger) (*models.Order, error) {
	var order models.Order
	ok, err := loadJSON(ctx, store, session.KeyCompletedOrder, &order, logger)
	if err != nil || !ok {
		return nil, err
	}
	if err := order.Validate(); err != nil {
		logger.Warn("discarding invalid completed order", zap.Error(err))
		return nil, nil
	}
	return &order, nil
}

// LoadSnapshot reads everything the wizard guards look at
func LoadSnapshot(ctx context.Context, store session.Store, logger *zap.Logger) (Snapshot, error) {
	var snap Snapshot
	var err error

	if snap.Selection, err = loadSelection(ctx, store, logger); err != nil {
		return Snapshot{}, err
	}
	if snap.Customer, err = loadCustomer(ctx, store, logger); err != nil {
		return Snapshot{}, err
	}
	if snap.Order, err = loadOrder(ctx, store, logger); err != nil {
		return Snapshot{}, err
	}

	return snap, nil
}
