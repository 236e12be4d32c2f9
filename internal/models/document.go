package models

import "time"

// DocumentStatus enumerates verification states for an uploaded document.
type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "pending"
	DocumentStatusVerified DocumentStatus = "verified"
	DocumentStatusError    DocumentStatus = "error"
	DocumentStatusLocked   DocumentStatus = "locked"
)

// DocumentType enumerates the document categories the agency tracks.
type DocumentType string

const (
	DocumentTypePassport        DocumentType = "passport"
	DocumentTypeTranscript      DocumentType = "transcript"
	DocumentTypeDiploma         DocumentType = "diploma"
	DocumentTypePhoto           DocumentType = "photo"
	DocumentTypeAdmissionLetter DocumentType = "admission_letter"
	DocumentTypeJW202           DocumentType = "jw202"
)

// Document belongs to exactly one student. Unlike the student profile's
// field-level lock, a locked document rejects updates wholesale unless the
// update explicitly clears the lock.
type Document struct {
	ID        string         `db:"id" json:"id"`
	StudentID string         `db:"student_id" json:"student_id"`
	Type      DocumentType   `db:"type" json:"type"`
	FileName  string         `db:"file_name" json:"file_name"`
	Status    DocumentStatus `db:"status" json:"status"`
	IsLocked  bool           `db:"is_locked" json:"is_locked"`
	IsHidden  bool           `db:"is_hidden" json:"is_hidden"`
	Note      *string        `db:"note" json:"note,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}
