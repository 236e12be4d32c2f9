package models

import "time"

// LeadStatus enumerates lifecycle states for a prospective client.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusHot       LeadStatus = "hot"
	LeadStatusCold      LeadStatus = "cold"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusLost      LeadStatus = "lost"
)

// IsTerminal reports whether the status has no outgoing transitions.
func (s LeadStatus) IsTerminal() bool {
	return s == LeadStatusConverted || s == LeadStatusLost
}

// Lead represents a prospective client prior to contract signature.
type Lead struct {
	ID                   string     `db:"id" json:"id"`
	FullName             string     `db:"full_name" json:"full_name"`
	Phone                string     `db:"phone" json:"phone"`
	Email                string     `db:"email" json:"email"`
	Status               LeadStatus `db:"status" json:"status"`
	Source               string     `db:"source" json:"source"`
	AssignedTo           *string    `db:"assigned_to" json:"assigned_to,omitempty"`
	ConvertedToStudentID *string    `db:"converted_to_student_id" json:"converted_to_student_id,omitempty"`
	LastContactAt        *time.Time `db:"last_contact_at" json:"last_contact_at,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// LeadFilter constrains lead listing queries.
type LeadFilter struct {
	Status     LeadStatus
	AssignedTo string
	Search     string
	Page       int
	PageSize   int
}
