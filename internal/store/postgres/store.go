package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "licport/internal/errors"
	"licport/internal/license"
	"licport/internal/store"
)

// licenseStore implements store.Store on a GORM Postgres connection.
type licenseStore struct {
	db *gorm.DB
}

// NewStore wraps an open GORM connection as a license store.
func NewStore(db *gorm.DB) store.Store {
	return &licenseStore{db: db}
}

func (s *licenseStore) Create(ctx context.Context, app *license.Application) (*license.Application, error) {
	rec := toModel(app)
	rec.ID = uuid.New()

	// Expiry (for trials) is part of the same INSERT: no observable
	// window where a trial record exists without its expiry.
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, apperrors.NewPersistence("create", err)
	}
	out := toDomain(rec)
	return &out, nil
}

func (s *licenseStore) Get(ctx context.Context, id uuid.UUID) (*license.Application, error) {
	var rec licenseModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound(id.String())
		}
		return nil, apperrors.NewPersistence("get", err)
	}
	out := toDomain(rec)
	return &out, nil
}

func (s *licenseStore) ListByOwner(ctx context.Context, ownerID string) ([]license.Application, error) {
	var recs []licenseModel
	err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, apperrors.NewPersistence("list_by_owner", err)
	}
	return toDomainList(recs), nil
}

func (s *licenseStore) List(ctx context.Context, filter store.ListFilter) ([]license.Application, error) {
	q := s.db.WithContext(ctx).Model(&licenseModel{})
	if filter.Status != nil {
		q = q.Where("status = ?", string(*filter.Status))
	}
	order := "created_at DESC"
	if filter.OldestFirst {
		order = "created_at ASC"
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var recs []licenseModel
	err := q.Order(order).
		Limit(store.ClampLimit(filter.Limit)).
		Offset(offset).
		Find(&recs).Error
	if err != nil {
		return nil, apperrors.NewPersistence("list", err)
	}
	return toDomainList(recs), nil
}

// Decide performs the review transition as a conditional update inside a
// transaction: UPDATE ... WHERE id = ? AND status = 'pending'. The
// affected-row count arbitrates races; the loser re-reads the row to
// report the winner's status.
func (s *licenseStore) Decide(ctx context.Context, id uuid.UUID, d store.Decision) (*license.Application, error) {
	var out license.Application

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"status":          string(d.Status),
			"reviewed_by":     d.ReviewedBy,
			"review_comments": d.ReviewComments,
			"review_date":     d.ReviewDate,
		}
		if d.Status == license.StatusApproved {
			updates["license_key"] = d.LicenseKey
		}
		if d.ExpiryDate != nil {
			updates["expiry_date"] = *d.ExpiryDate
		}

		res := tx.Model(&licenseModel{}).
			Where("id = ? AND status = ?", id, string(license.StatusPending)).
			Updates(updates)
		if res.Error != nil {
			return apperrors.NewPersistence("decide", res.Error)
		}
		if res.RowsAffected == 0 {
			var current licenseModel
			if err := tx.Where("id = ?", id).Take(&current).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.NewNotFound(id.String())
				}
				return apperrors.NewPersistence("decide", err)
			}
			return apperrors.NewConflict(current.Status)
		}

		var updated licenseModel
		if err := tx.Where("id = ?", id).Take(&updated).Error; err != nil {
			return apperrors.NewPersistence("decide", err)
		}
		out = toDomain(updated)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *licenseStore) FindByKeyAndFingerprint(ctx context.Context, key, fingerprint string) (*license.Application, error) {
	var rec licenseModel
	err := s.db.WithContext(ctx).
		Where("license_key = ? AND mac_address = ?", key, fingerprint).
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound(key)
		}
		return nil, apperrors.NewPersistence("find_by_key", err)
	}
	out := toDomain(rec)
	return &out, nil
}

func (s *licenseStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return apperrors.NewPersistence("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return apperrors.NewPersistence("ping", err)
	}
	return nil
}

func (s *licenseStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
