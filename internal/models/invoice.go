package models

import "time"

// InvoiceType enumerates billing categories.
type InvoiceType string

const (
	InvoiceTypeOpeningBook InvoiceType = "opening_book"
	InvoiceTypeDeposit     InvoiceType = "deposit"
	InvoiceTypeBalance     InvoiceType = "balance"
	InvoiceTypeOther       InvoiceType = "other"
)

// InvoiceStatus enumerates invoice settlement states.
type InvoiceStatus string

const (
	InvoiceStatusPending  InvoiceStatus = "pending"
	InvoiceStatusPaid     InvoiceStatus = "paid"
	InvoiceStatusOverdue  InvoiceStatus = "overdue"
	InvoiceStatusRefunded InvoiceStatus = "refunded"
)

// Invoice belongs to a student. Paying an invoice is the only trigger for
// ledger credits and, for deposit invoices, potential commission triggering.
type Invoice struct {
	ID        string        `db:"id" json:"id"`
	StudentID string        `db:"student_id" json:"student_id"`
	Type      InvoiceType   `db:"type" json:"type"`
	Status    InvoiceStatus `db:"status" json:"status"`
	Amount    float64       `db:"amount" json:"amount"`
	PaidAt    *time.Time    `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}
