package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edupath/placement-api/internal/models"
)

const settingsID = "default"

// SettingsRepository persists the SystemSettings singleton row.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs a SettingsRepository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get fetches the settings row.
func (r *SettingsRepository) Get(ctx context.Context) (*models.SystemSettings, error) {
	const query = `SELECT id, commission_amount, deposit_threshold, fixed_credit, contract_expiry_days,
        passport_expiry_min_months, pricing_version, updated_at FROM system_settings WHERE id = $1`
	var settings models.SystemSettings
	if err := r.db.GetContext(ctx, &settings, query, settingsID); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Upsert writes the settings row, creating it on first boot.
func (r *SettingsRepository) Upsert(ctx context.Context, settings *models.SystemSettings) error {
	settings.ID = settingsID
	settings.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO system_settings (id, commission_amount, deposit_threshold, fixed_credit, contract_expiry_days,
        passport_expiry_min_months, pricing_version, updated_at)
        VALUES (:id, :commission_amount, :deposit_threshold, :fixed_credit, :contract_expiry_days,
        :passport_expiry_min_months, :pricing_version, :updated_at)
        ON CONFLICT (id) DO UPDATE SET commission_amount = EXCLUDED.commission_amount,
        deposit_threshold = EXCLUDED.deposit_threshold, fixed_credit = EXCLUDED.fixed_credit,
        contract_expiry_days = EXCLUDED.contract_expiry_days, passport_expiry_min_months = EXCLUDED.passport_expiry_min_months,
        pricing_version = EXCLUDED.pricing_version, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return err
	}
	return nil
}
