package license

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTypeValidity(t *testing.T) {
	assert.Equal(t, 15*24*time.Hour, TypeTrial.Validity())
	assert.Equal(t, 365*24*time.Hour, TypeOfficial.Validity())
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusApproved.Terminal())
	assert.True(t, StatusRejected.Terminal())
}

func TestDecisionStatus(t *testing.T) {
	assert.Equal(t, StatusApproved, DecisionApprove.Status())
	assert.Equal(t, StatusRejected, DecisionReject.Status())
	assert.False(t, Decision("cancel").Valid())
}

func TestApplicationValidate(t *testing.T) {
	now := time.Now()
	expiry := now.Add(TrialValidity)

	pendingTrial := func() Application {
		return Application{
			ID:          uuid.New(),
			OwnerID:     "user-1",
			Applicant:   Applicant{Name: "Dana", Email: "dana@example.com"},
			Type:        TypeTrial,
			Fingerprint: "00:1B:44:11:3A:B7",
			Status:      StatusPending,
			ExpiryDate:  &expiry,
			CreatedAt:   now,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Application)
		wantErr string
	}{
		{
			name:   "valid pending trial",
			mutate: func(a *Application) {},
		},
		{
			name: "valid approved trial",
			mutate: func(a *Application) {
				a.Status = StatusApproved
				a.LicenseKey = "a2V5"
				a.ReviewedBy = "admin-1"
				a.ReviewComments = "ok"
				a.ReviewDate = &now
			},
		},
		{
			name: "key on pending record",
			mutate: func(a *Application) {
				a.LicenseKey = "a2V5"
			},
			wantErr: "license_key",
		},
		{
			name: "approved without key",
			mutate: func(a *Application) {
				a.Status = StatusApproved
				a.ReviewDate = &now
			},
			wantErr: "license_key",
		},
		{
			name: "decided without review instant",
			mutate: func(a *Application) {
				a.Status = StatusRejected
			},
			wantErr: "review_date",
		},
		{
			name: "trial without expiry",
			mutate: func(a *Application) {
				a.ExpiryDate = nil
			},
			wantErr: "expiry_date",
		},
		{
			name: "unknown status",
			mutate: func(a *Application) {
				a.Status = Status("expired")
			},
			wantErr: "status",
		},
		{
			name: "unknown type",
			mutate: func(a *Application) {
				a.Type = Type("perpetual")
			},
			wantErr: "license_type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := pendingTrial()
			tt.mutate(&app)

			err := app.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var inv *InvariantError
			assert.ErrorAs(t, err, &inv)
			assert.Equal(t, tt.wantErr, inv.Field)
		})
	}
}

func TestApplicationExpiredAt(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.True(t, (&Application{ExpiryDate: &past}).ExpiredAt(now))
	assert.False(t, (&Application{ExpiryDate: &future}).ExpiredAt(now))
	assert.False(t, (&Application{}).ExpiredAt(now))
}
