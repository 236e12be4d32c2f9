package models

import "time"

// CommissionStatus enumerates commission lifecycle states. pending moves to
// paid or voided; paid can only be clawed back, which spawns a new
// negative-amount pending record for the next payroll cycle.
type CommissionStatus string

const (
	CommissionStatusPending  CommissionStatus = "pending"
	CommissionStatusPaid     CommissionStatus = "paid"
	CommissionStatusVoided   CommissionStatus = "voided"
	CommissionStatusClawback CommissionStatus = "clawback"
)

// Commission belongs to a staff member and references the triggering
// student and contract. Amount is negative on clawback adjustment records.
type Commission struct {
	ID         string           `db:"id" json:"id"`
	StaffID    string           `db:"staff_id" json:"staff_id"`
	StudentID  string           `db:"student_id" json:"student_id"`
	ContractID string           `db:"contract_id" json:"contract_id"`
	Amount     float64          `db:"amount" json:"amount"`
	Status     CommissionStatus `db:"status" json:"status"`
	Reason     *string          `db:"reason" json:"reason,omitempty"`
	PaidAt     *time.Time       `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updated_at"`
}
