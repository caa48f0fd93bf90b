package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "licport/internal/errors"
	"licport/internal/license"
)

func newPendingApplication(owner string, created time.Time) *license.Application {
	expiry := created.Add(license.TrialValidity)
	return &license.Application{
		OwnerID: owner,
		Applicant: license.Applicant{
			Name:  "Dana",
			Email: "dana@example.com",
		},
		Type:        license.TypeTrial,
		Fingerprint: "00:1B:44:11:3A:B7",
		Status:      license.StatusPending,
		ExpiryDate:  &expiry,
		CreatedAt:   created,
	}
}

func TestMemoryStore_CreateAssignsID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	created, err := s.Create(ctx, newPendingApplication("user-1", time.Now()))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, license.StatusPending, got.Status)
}

func TestMemoryStore_GetUnknownID(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestMemoryStore_ListByOwnerNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 3; i++ {
		_, err := s.Create(ctx, newPendingApplication("user-1", base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}
	_, err := s.Create(ctx, newPendingApplication("user-2", base))
	require.NoError(t, err)

	apps, err := s.ListByOwner(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, apps, 3)
	assert.True(t, apps[0].CreatedAt.After(apps[1].CreatedAt))
	assert.True(t, apps[1].CreatedAt.After(apps[2].CreatedAt))
}

func TestMemoryStore_ListFilterAndPagination(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Now()

	var first *license.Application
	for i := 0; i < 5; i++ {
		app, err := s.Create(ctx, newPendingApplication("user-1", base.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
		if i == 0 {
			first = app
		}
	}
	_, err := s.Decide(ctx, first.ID, Decision{
		Status:         license.StatusRejected,
		ReviewedBy:     "admin-1",
		ReviewComments: "not eligible",
		ReviewDate:     base.Add(time.Hour),
	})
	require.NoError(t, err)

	pending := license.StatusPending
	apps, err := s.List(ctx, ListFilter{Status: &pending, OldestFirst: true})
	require.NoError(t, err)
	require.Len(t, apps, 4)
	assert.True(t, apps[0].CreatedAt.Before(apps[1].CreatedAt))

	page, err := s.List(ctx, ListFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	empty, err := s.List(ctx, ListFilter{Offset: 50})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryStore_DecideTransitions(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	created, err := s.Create(ctx, newPendingApplication("user-1", now))
	require.NoError(t, err)

	expiry := now.Add(license.OfficialValidity)
	decided, err := s.Decide(ctx, created.ID, Decision{
		Status:         license.StatusApproved,
		ReviewedBy:     "admin-1",
		ReviewComments: "approved for production",
		ReviewDate:     now,
		LicenseKey:     "a2V5",
		ExpiryDate:     &expiry,
	})
	require.NoError(t, err)
	assert.Equal(t, license.StatusApproved, decided.Status)
	assert.Equal(t, "a2V5", decided.LicenseKey)
	assert.Equal(t, "admin-1", decided.ReviewedBy)
	require.NotNil(t, decided.ExpiryDate)
	assert.True(t, decided.ExpiryDate.Equal(expiry))

	// A second decision on the same record observes the terminal status.
	_, err = s.Decide(ctx, created.ID, Decision{
		Status:         license.StatusRejected,
		ReviewedBy:     "admin-2",
		ReviewComments: "duplicate",
		ReviewDate:     now,
	})
	require.True(t, apperrors.IsConflict(err))

	var de *apperrors.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "approved", de.Context["current_status"])

	// The loser did not mutate the record.
	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", got.ReviewedBy)
	assert.Equal(t, license.StatusApproved, got.Status)
}

func TestMemoryStore_DecideKeepsExpiryWhenNil(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	created, err := s.Create(ctx, newPendingApplication("user-1", now))
	require.NoError(t, err)
	require.NotNil(t, created.ExpiryDate)
	originalExpiry := *created.ExpiryDate

	decided, err := s.Decide(ctx, created.ID, Decision{
		Status:         license.StatusApproved,
		ReviewedBy:     "admin-1",
		ReviewComments: "ok",
		ReviewDate:     now,
		LicenseKey:     "a2V5",
	})
	require.NoError(t, err)
	require.NotNil(t, decided.ExpiryDate)
	assert.True(t, decided.ExpiryDate.Equal(originalExpiry))
}

func TestMemoryStore_DecideUnknownID(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Decide(context.Background(), uuid.New(), Decision{
		Status:     license.StatusRejected,
		ReviewedBy: "admin-1",
		ReviewDate: time.Now(),
	})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestMemoryStore_DecideConcurrentSingleWinner(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	created, err := s.Create(ctx, newPendingApplication("user-1", now))
	require.NoError(t, err)

	const racers = 16
	var (
		wg        sync.WaitGroup
		successes int
		conflicts int
		mu        sync.Mutex
	)

	start := make(chan struct{})
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			<-start

			d := Decision{
				ReviewedBy:     fmt.Sprintf("admin-%d", n),
				ReviewComments: "race",
				ReviewDate:     now,
			}
			if n%2 == 0 {
				d.Status = license.StatusApproved
				d.LicenseKey = "a2V5"
			} else {
				d.Status = license.StatusRejected
			}

			_, err := s.Decide(ctx, created.ID, d)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case apperrors.IsConflict(err):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes, "exactly one reviewer must win")
	assert.Equal(t, racers-1, conflicts)

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.Status.Terminal())
	// No mixed fields: an approved record carries a key, a rejected one
	// does not.
	assert.Equal(t, got.Status == license.StatusApproved, got.LicenseKey != "")
	assert.NoError(t, got.Validate())
}

func TestMemoryStore_FindByKeyAndFingerprint(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	created, err := s.Create(ctx, newPendingApplication("user-1", now))
	require.NoError(t, err)
	_, err = s.Decide(ctx, created.ID, Decision{
		Status:         license.StatusApproved,
		ReviewedBy:     "admin-1",
		ReviewComments: "ok",
		ReviewDate:     now,
		LicenseKey:     "a2V5",
	})
	require.NoError(t, err)

	found, err := s.FindByKeyAndFingerprint(ctx, "a2V5", "00:1B:44:11:3A:B7")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = s.FindByKeyAndFingerprint(ctx, "a2V5", "FF:FF:FF:FF:FF:FF")
	assert.True(t, apperrors.IsNotFound(err))

	// Pending records have no key; an empty key never matches them.
	_, err = s.FindByKeyAndFingerprint(ctx, "", "00:1B:44:11:3A:B7")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultListLimit, ClampLimit(0))
	assert.Equal(t, DefaultListLimit, ClampLimit(-5))
	assert.Equal(t, 10, ClampLimit(10))
	assert.Equal(t, MaxListLimit, ClampLimit(1000))
}
