package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	apperrors "licport/internal/errors"
	"licport/internal/license"
)

// memoryStore is a mutex-guarded in-memory Store used by development mode
// and the test suite. Decide holds the write lock across its
// read-check-write sequence, giving the same exactly-one-winner guarantee
// the SQL driver gets from its conditional update.
type memoryStore struct {
	mu   sync.RWMutex
	apps map[uuid.UUID]license.Application
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() Store {
	return &memoryStore{
		apps: make(map[uuid.UUID]license.Application),
	}
}

func (s *memoryStore) Create(ctx context.Context, app *license.Application) (*license.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *app
	stored.ID = uuid.New()
	s.apps[stored.ID] = stored

	out := stored
	return &out, nil
}

func (s *memoryStore) Get(ctx context.Context, id uuid.UUID) (*license.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.apps[id]
	if !ok {
		return nil, apperrors.NewNotFound(id.String())
	}
	out := app
	return &out, nil
}

func (s *memoryStore) ListByOwner(ctx context.Context, ownerID string) ([]license.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []license.Application
	for _, app := range s.apps {
		if app.OwnerID == ownerID {
			out = append(out, app)
		}
	}
	sortByCreation(out, false)
	return out, nil
}

func (s *memoryStore) List(ctx context.Context, filter ListFilter) ([]license.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []license.Application
	for _, app := range s.apps {
		if filter.Status != nil && app.Status != *filter.Status {
			continue
		}
		matched = append(matched, app)
	}
	sortByCreation(matched, filter.OldestFirst)

	limit := ClampLimit(filter.Limit)
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (s *memoryStore) Decide(ctx context.Context, id uuid.UUID, d Decision) (*license.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[id]
	if !ok {
		return nil, apperrors.NewNotFound(id.String())
	}
	if app.Status != license.StatusPending {
		return nil, apperrors.NewConflict(string(app.Status))
	}

	app.Status = d.Status
	app.ReviewedBy = d.ReviewedBy
	app.ReviewComments = d.ReviewComments
	reviewDate := d.ReviewDate
	app.ReviewDate = &reviewDate
	app.LicenseKey = d.LicenseKey
	if d.ExpiryDate != nil {
		expiry := *d.ExpiryDate
		app.ExpiryDate = &expiry
	}

	s.apps[id] = app
	out := app
	return &out, nil
}

func (s *memoryStore) FindByKeyAndFingerprint(ctx context.Context, key, fingerprint string) (*license.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, app := range s.apps {
		if app.LicenseKey == key && app.Fingerprint == fingerprint && key != "" {
			out := app
			return &out, nil
		}
	}
	return nil, apperrors.NewNotFound(key)
}

func (s *memoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *memoryStore) Close() error {
	return nil
}

func sortByCreation(apps []license.Application, oldestFirst bool) {
	sort.SliceStable(apps, func(i, j int) bool {
		if oldestFirst {
			return apps[i].CreatedAt.Before(apps[j].CreatedAt)
		}
		return apps[i].CreatedAt.After(apps[j].CreatedAt)
	})
}
