package models

import "time"

// StaffRole enumerates staff access levels.
type StaffRole string

const (
	RoleAdmin      StaffRole = "ADMIN"
	RoleCounselor  StaffRole = "COUNSELOR"
	RoleAccountant StaffRole = "ACCOUNTANT"
)

// Staff represents an agency employee. Commission buckets are maintained by
// the commission engine and never written directly by handlers.
type Staff struct {
	ID                string    `db:"id" json:"id"`
	FullName          string    `db:"full_name" json:"full_name"`
	Email             string    `db:"email" json:"email"`
	PasswordHash      string    `db:"password_hash" json:"-"`
	Role              StaffRole `db:"role" json:"role"`
	Active            bool      `db:"active" json:"active"`
	PendingCommission float64   `db:"pending_commission" json:"pending_commission"`
	PaidCommission    float64   `db:"paid_commission" json:"paid_commission"`
	TotalCommission   float64   `db:"total_commission" json:"total_commission"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}
