package repositories

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"ticket-checkout/internal/models"
)

//go:embed data/demo_catalog.json
var demoCatalogJSON []byte

// StaticCatalog serves catalogs held in memory, typically loaded from a JSON file
type StaticCatalog struct {
	mu       sync.RWMutex
	catalogs map[string]*models.Catalog
}

// NewStaticCatalog validates and indexes the given catalogs by event id
func NewStaticCatalog(catalogs ...*models.Catalog) (*StaticCatalog, error) {
	s := &StaticCatalog{catalogs: make(map[string]*models.Catalog, len(catalogs))}
	for _, c := range catalogs {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("invalid catalog: %w", err)
		}
		if _, dup := s.catalogs[c.Event.ID]; dup {
			return nil, fmt.Errorf("duplicate event id %q", c.Event.ID)
		}
		s.catalogs[c.Event.ID] = c
	}
	return s, nil
}

type catalogFile struct {
	Catalogs []*models.Catalog `json:"catalogs"`
}

// LoadStaticCatalog reads either a single catalog object or {"catalogs": [...]}
func LoadStaticCatalog(r io.Reader) (*StaticCatalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(file.Catalogs) > 0 {
		return NewStaticCatalog(file.Catalogs...)
	}

	var single models.Catalog
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return NewStaticCatalog(&single)
}

// LoadStaticCatalogFile opens path and loads it with LoadStaticCatalog
func LoadStaticCatalogFile(path string) (*StaticCatalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer f.Close()
	return LoadStaticCatalog(f)
}

// DemoCatalog returns the bundled demo events
func DemoCatalog() *StaticCatalog {
	s, err := LoadStaticCatalog(bytes.NewReader(demoCatalogJSON))
	if err != nil {
		panic(fmt.Sprintf("bundled demo catalog is invalid: %v", err))
	}
	return s
}

// GetCatalog returns a copy of the event catalog
func (s *StaticCatalog) GetCatalog(ctx context.Context, eventID string) (*models.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.catalogs[eventID]
	if !ok {
		return nil, models.ErrEventNotFound
	}

	cp := *c
	cp.Tickets = append([]models.TicketType(nil), c.Tickets...)
	cp.AddOns = append([]models.AddOn(nil), c.AddOns...)
	return &cp, nil
}

// ListEvents returns the events ordered by start time
func (s *StaticCatalog) ListEvents(ctx context.Context) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]models.Event, 0, len(s.catalogs))
	for _, c := range s.catalogs {
		events = append(events, c.Event)
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].StartsAt.Equal(events[j].StartsAt) {
			return events[i].ID < events[j].ID
		}
		return events[i].StartsAt.Before(events[j].StartsAt)
	})
	return events, nil
}

// Catalogs returns every catalog, ordered like ListEvents
func (s *StaticCatalog) Catalogs(ctx context.Context) []*models.Catalog {
	events, _ := s.ListEvents(ctx)
	out := make([]*models.Catalog, 0, len(events))
	for _, e := range events {
		c, _ := s.GetCatalog(ctx, e.ID)
		out = append(out, c)
	}
	return out
}
