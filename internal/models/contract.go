package models

import "time"

// ContractStatus enumerates contract lifecycle states.
type ContractStatus string

const (
	ContractStatusDraft            ContractStatus = "draft"
	ContractStatusPendingSignature ContractStatus = "pending_signature"
	ContractStatusSigned           ContractStatus = "signed"
	ContractStatusExpired          ContractStatus = "expired"
)

// Contract is created once per student enrollment event. Once signed it is
// immutable apart from SignedAt/SignatureData, which are set exactly once.
type Contract struct {
	ID            string         `db:"id" json:"id"`
	StudentID     string         `db:"student_id" json:"student_id"`
	Status        ContractStatus `db:"status" json:"status"`
	SignedAt      *time.Time     `db:"signed_at" json:"signed_at,omitempty"`
	SignatureData *string        `db:"signature_data" json:"signature_data,omitempty"`
	ExpiresAt     time.Time      `db:"expires_at" json:"expires_at"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// IsActiveSigned reports whether the contract qualifies as the active signed
// contract required for commission triggering.
func (c *Contract) IsActiveSigned() bool {
	return c != nil && c.Status == ContractStatusSigned
}
