package relationships

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type privacyRepository struct {
	db *sqlx.DB
}

// NewPrivacyRepository creates a privacy lookup over user_privacy_settings
func NewPrivacyRepository(db *sqlx.DB) PrivacyLookup {
	return &privacyRepository{db: db}
}

// IsPrivate reports whether follows of userID need approval.
// Users without a settings row are public.
func (r *privacyRepository) IsPrivate(ctx context.Context, userID uuid.UUID) (bool, error) {
	var private bool
	err := r.db.GetContext(ctx, &private, `SELECT is_private FROM user_privacy_settings WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, mapStoreError(err)
	}
	return private, nil
}
