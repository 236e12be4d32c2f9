package models

import "time"

// SystemSettings is the process-wide configuration singleton read by the
// engine. Operations take one snapshot at their start and never re-read
// mid-operation.
type SystemSettings struct {
	ID                      string    `db:"id" json:"id"`
	CommissionAmount        float64   `db:"commission_amount" json:"commission_amount"`
	DepositThreshold        float64   `db:"deposit_threshold" json:"deposit_threshold"`
	FixedCredit             float64   `db:"fixed_credit" json:"fixed_credit"`
	ContractExpiryDays      int       `db:"contract_expiry_days" json:"contract_expiry_days"`
	PassportExpiryMinMonths int       `db:"passport_expiry_min_months" json:"passport_expiry_min_months"`
	PricingVersion          string    `db:"pricing_version" json:"pricing_version"`
	UpdatedAt               time.Time `db:"updated_at" json:"updated_at"`
}
