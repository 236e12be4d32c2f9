package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edupath/placement-api/internal/models"
	"github.com/edupath/placement-api/pkg/config"
	appErrors "github.com/edupath/placement-api/pkg/errors"
)

const settingsCacheKey = "placement:settings"

type settingsRepository interface {
	Get(ctx context.Context) (*models.SystemSettings, error)
	Upsert(ctx context.Context, settings *models.SystemSettings) error
}

// UpdateSettingsRequest carries an admin's settings change.
type UpdateSettingsRequest struct {
	CommissionAmount        float64 `json:"commission_amount" validate:"required,gt=0"`
	DepositThreshold        float64 `json:"deposit_threshold" validate:"required,gt=0"`
	FixedCredit             float64 `json:"fixed_credit" validate:"gte=0"`
	ContractExpiryDays      int     `json:"contract_expiry_days" validate:"required,gt=0"`
	PassportExpiryMinMonths int     `json:"passport_expiry_min_months" validate:"required,gt=0"`
	PricingVersion          string  `json:"pricing_version" validate:"required"`
}

// SettingsService owns the SystemSettings singleton. Engine operations read
// one Snapshot at their start and work from that copy for their whole
// duration; mid-operation settings changes only affect later operations.
type SettingsService struct {
	repo      settingsRepository
	cache     *CacheService
	seed      config.EngineConfig
	audit     *auditTrail
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(repo settingsRepository, cache *CacheService, seed config.EngineConfig, auditRepo auditLogger, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{
		repo:      repo,
		cache:     cache,
		seed:      seed,
		audit:     newAuditTrail(auditRepo, logger),
		validator: validator.New(),
		logger:    logger,
	}
}

// Snapshot returns the current settings, serving from cache when possible and
// seeding the singleton row from engine configuration on first boot.
func (s *SettingsService) Snapshot(ctx context.Context) (*models.SystemSettings, error) {
	if cached, err := s.cache.Get(ctx, settingsCacheKey); err == nil && cached != "" {
		var settings models.SystemSettings
		if err := json.Unmarshal([]byte(cached), &settings); err == nil {
			return &settings, nil
		}
	}

	settings, err := s.repo.Get(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		settings = &models.SystemSettings{
			CommissionAmount:        s.seed.CommissionAmount,
			DepositThreshold:        s.seed.DepositThreshold,
			FixedCredit:             s.seed.FixedCredit,
			ContractExpiryDays:      s.seed.ContractExpiryDays,
			PassportExpiryMinMonths: s.seed.PassportExpiryMinMonth,
			PricingVersion:          s.seed.PricingVersion,
		}
		if err := s.repo.Upsert(ctx, settings); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed system settings")
		}
	} else if err != nil {
		return nil, err
	}

	s.cacheSnapshot(ctx, settings)
	return settings, nil
}

// Update applies an admin settings change and invalidates the cached
// snapshot so the next operation sees the new values.
func (s *SettingsService) Update(ctx context.Context, req UpdateSettingsRequest, actorID string) (*models.SystemSettings, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings")
	}

	settings := &models.SystemSettings{
		CommissionAmount:        req.CommissionAmount,
		DepositThreshold:        req.DepositThreshold,
		FixedCredit:             req.FixedCredit,
		ContractExpiryDays:      req.ContractExpiryDays,
		PassportExpiryMinMonths: req.PassportExpiryMinMonths,
		PricingVersion:          req.PricingVersion,
	}
	if err := s.repo.Upsert(ctx, settings); err != nil {
		return nil, err
	}

	if err := s.cache.Delete(ctx, settingsCacheKey); err != nil {
		s.logger.Warn("failed to invalidate settings cache", zap.Error(err))
	}

	s.audit.Emit(ctx, actorID, models.AuditActionSettingsUpdate, "system_settings", settings.ID, req)
	return settings, nil
}

func (s *SettingsService) cacheSnapshot(ctx context.Context, settings *models.SystemSettings) {
	payload, err := json.Marshal(settings)
	if err != nil {
		return
	}
	ttl := s.seed.SettingsCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if err := s.cache.Set(ctx, settingsCacheKey, string(payload), ttl); err != nil {
		s.logger.Warn("failed to cache settings snapshot", zap.Error(err))
	}
}
