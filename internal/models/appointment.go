package models

import "time"

// AppointmentStatus enumerates scheduling states.
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Appointment links a staff member with a lead or student at a point in time.
type Appointment struct {
	ID          string            `db:"id" json:"id"`
	StaffID     string            `db:"staff_id" json:"staff_id"`
	LeadID      *string           `db:"lead_id" json:"lead_id,omitempty"`
	StudentID   *string           `db:"student_id" json:"student_id,omitempty"`
	ScheduledAt time.Time         `db:"scheduled_at" json:"scheduled_at"`
	Status      AppointmentStatus `db:"status" json:"status"`
	Note        *string           `db:"note" json:"note,omitempty"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
}
