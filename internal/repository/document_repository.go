package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edupath/placement-api/internal/models"
)

const documentColumns = `id, student_id, type, file_name, status, is_locked, is_hidden, note, created_at, updated_at`

// DocumentRepository manages persistence for student documents.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs a DocumentRepository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// FindByID fetches a document by ID.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf("SELECT %s FROM documents WHERE id = $1", documentColumns)
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListByStudent returns a student's documents, optionally including hidden
// ones.
func (r *DocumentRepository) ListByStudent(ctx context.Context, studentID string, includeHidden bool) ([]models.Document, error) {
	query := fmt.Sprintf("SELECT %s FROM documents WHERE student_id = $1", documentColumns)
	if !includeHidden {
		query += " AND is_hidden = false"
	}
	query += " ORDER BY created_at"
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, studentID); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Create inserts a new document record.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	const query = `INSERT INTO documents (id, student_id, type, file_name, status, is_locked, is_hidden, note, created_at, updated_at)
        VALUES (:id, :student_id, :type, :file_name, :status, :is_locked, :is_hidden, :note, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// Update persists the full document row.
func (r *DocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	doc.UpdatedAt = time.Now().UTC()
	const query = `UPDATE documents SET type = :type, file_name = :file_name, status = :status, is_locked = :is_locked,
        is_hidden = :is_hidden, note = :note, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return nil
}
