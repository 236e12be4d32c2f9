package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edupath/placement-api/internal/models"
)

// AppointmentRepository manages persistence for appointments.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository constructs an AppointmentRepository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// Create inserts a new appointment.
func (r *AppointmentRepository) Create(ctx context.Context, appt *models.Appointment) error {
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO appointments (id, staff_id, lead_id, student_id, scheduled_at, status, note, created_at)
        VALUES (:id, :staff_id, :lead_id, :student_id, :scheduled_at, :status, :note, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, appt); err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

// ListByStaff returns a staff member's appointments in schedule order.
func (r *AppointmentRepository) ListByStaff(ctx context.Context, staffID string) ([]models.Appointment, error) {
	const query = `SELECT id, staff_id, lead_id, student_id, scheduled_at, status, note, created_at
        FROM appointments WHERE staff_id = $1 ORDER BY scheduled_at`
	var appts []models.Appointment
	if err := r.db.SelectContext(ctx, &appts, query, staffID); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

// UpdateStatus moves an appointment between scheduling states.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) error {
	const query = `UPDATE appointments SET status = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
