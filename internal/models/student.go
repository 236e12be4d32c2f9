package models

import (
	"time"

	"github.com/lib/pq"
)

// StudentStatus enumerates placement lifecycle states for a student.
type StudentStatus string

const (
	StudentStatusPendingContract  StudentStatus = "pending_contract"
	StudentStatusContractSigned   StudentStatus = "contract_signed"
	StudentStatusActiveProfile    StudentStatus = "active_profile"
	StudentStatusSubmittedToAdmin StudentStatus = "submitted_to_admin"
	StudentStatusReturnedByAdmin  StudentStatus = "returned_by_admin"
	StudentStatusSubmittedToUni   StudentStatus = "submitted_to_uni"
	StudentStatusReturnedBySchool StudentStatus = "returned_by_school"
	StudentStatusOfferReceived    StudentStatus = "offer_received"
	StudentStatusOfferReleased    StudentStatus = "offer_released"
	StudentStatusCompleted        StudentStatus = "completed"
	StudentStatusCancelled        StudentStatus = "cancelled"
)

// ScholarshipType selects a row of the pricing table.
type ScholarshipType string

const (
	ScholarshipFull       ScholarshipType = "full"
	ScholarshipPartialA   ScholarshipType = "partial_a"
	ScholarshipPartialB   ScholarshipType = "partial_b"
	ScholarshipSelfFunded ScholarshipType = "self_funded"
)

// Student represents a converted lead under active service.
//
// When IsProfileLocked is set, updates are filtered down to UnlockedFields
// plus the always-editable status/offers flags; everything else is dropped.
type Student struct {
	ID              string           `db:"id" json:"id"`
	FullName        string           `db:"full_name" json:"full_name"`
	Phone           string           `db:"phone" json:"phone"`
	Email           string           `db:"email" json:"email"`
	PassportNumber  string           `db:"passport_number" json:"passport_number"`
	FatherName      string           `db:"father_name" json:"father_name"`
	MotherName      string           `db:"mother_name" json:"mother_name"`
	Status          StudentStatus    `db:"status" json:"status"`
	CurrentStep     int              `db:"current_step" json:"current_step"`
	AssignedStaffID *string          `db:"assigned_staff_id" json:"assigned_staff_id,omitempty"`
	ScholarshipType *ScholarshipType `db:"scholarship_type" json:"scholarship_type,omitempty"`
	DepositPaid     float64          `db:"deposit_paid" json:"deposit_paid"`
	BalancePaid     float64          `db:"balance_paid" json:"balance_paid"`
	TotalOwed       float64          `db:"total_owed" json:"total_owed"`
	IsProfileLocked bool             `db:"is_profile_locked" json:"is_profile_locked"`
	LockedAt        *time.Time       `db:"locked_at" json:"locked_at,omitempty"`
	LockedBy        *string          `db:"locked_by" json:"locked_by,omitempty"`
	UnlockedFields  pq.StringArray   `db:"unlocked_fields" json:"unlocked_fields"`
	OffersUnlocked  bool             `db:"offers_unlocked" json:"offers_unlocked"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
}

// StudentFilter constrains student listing queries.
type StudentFilter struct {
	Status          StudentStatus
	AssignedStaffID string
	Search          string
	Page            int
	PageSize        int
}
