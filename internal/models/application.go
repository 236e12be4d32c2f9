package models

import "time"

// ApplicationStatus enumerates university-application states.
type ApplicationStatus string

const (
	ApplicationStatusDraft            ApplicationStatus = "draft"
	ApplicationStatusPendingAdmin     ApplicationStatus = "pending_admin"
	ApplicationStatusSubmittedToUni   ApplicationStatus = "submitted_to_uni"
	ApplicationStatusReturnedBySchool ApplicationStatus = "returned_by_school"
	ApplicationStatusAccepted         ApplicationStatus = "accepted"
	ApplicationStatusRejected         ApplicationStatus = "rejected"
)

// Batch sizes for the 2+3 submission strategy: at most two universities in
// batch 1 and three in batch 2, mutually exclusive per university.
const (
	BatchFirst     = 1
	BatchSecond    = 2
	BatchFirstMax  = 2
	BatchSecondMax = 3
)

// UniversityApplication links a student to a university within a batch.
type UniversityApplication struct {
	ID                 string            `db:"id" json:"id"`
	StudentID          string            `db:"student_id" json:"student_id"`
	UniversityName     string            `db:"university_name" json:"university_name"`
	Program            string            `db:"program" json:"program"`
	Batch              int               `db:"batch" json:"batch"`
	Status             ApplicationStatus `db:"status" json:"status"`
	SubmittedToAdminAt *time.Time        `db:"submitted_to_admin_at" json:"submitted_to_admin_at,omitempty"`
	SubmittedToUniAt   *time.Time        `db:"submitted_to_uni_at" json:"submitted_to_uni_at,omitempty"`
	DecisionAt         *time.Time        `db:"decision_at" json:"decision_at,omitempty"`
	ReturnReason       *string           `db:"return_reason" json:"return_reason,omitempty"`
	CreatedAt          time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time         `db:"updated_at" json:"updated_at"`
}
