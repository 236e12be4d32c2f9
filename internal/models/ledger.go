package models

import "time"

// LedgerEntryType distinguishes credits from debits.
type LedgerEntryType string

const (
	LedgerEntryCredit LedgerEntryType = "credit"
	LedgerEntryDebit  LedgerEntryType = "debit"
)

// LedgerCategory classifies the business event behind an entry.
type LedgerCategory string

const (
	LedgerCategoryPayment    LedgerCategory = "payment"
	LedgerCategoryRefund     LedgerCategory = "refund"
	LedgerCategoryAdjustment LedgerCategory = "adjustment"
)

// LedgerEntry is append-only: entries are never mutated or deleted once
// created. The ledger is the source of truth for student balances.
type LedgerEntry struct {
	ID         string          `db:"id" json:"id"`
	StudentID  string          `db:"student_id" json:"student_id"`
	InvoiceID  *string         `db:"invoice_id" json:"invoice_id,omitempty"`
	Type       LedgerEntryType `db:"type" json:"type"`
	Category   LedgerCategory  `db:"category" json:"category"`
	Amount     float64         `db:"amount" json:"amount"`
	IsReversal bool            `db:"is_reversal" json:"is_reversal"`
	Note       *string         `db:"note" json:"note,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
