package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gatortutors/gator-tutors-api/internal/models"
)

// SubjectRepository provides read access to the subject catalog.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new instance of SubjectRepository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// ListAll returns the full catalog ordered by name.
func (r *SubjectRepository) ListAll(ctx context.Context) ([]models.Subject, error) {
	const query = `SELECT id, name FROM subjects ORDER BY name ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// ListActive returns subjects taught by at least one approved listing, each
// with its tutor count, ordered by name.
func (r *SubjectRepository) ListActive(ctx context.Context) ([]models.ActiveSubject, error) {
	const query = `SELECT s.id, s.name, COUNT(DISTINCT tp.id) AS tutor_count
		FROM subjects s
		JOIN tutor_subjects ts ON ts.subject_id = s.id
		JOIN tutor_posts tp ON tp.id = ts.tutor_post_id AND tp.approved = TRUE
		GROUP BY s.id, s.name
		HAVING COUNT(DISTINCT tp.id) > 0
		ORDER BY s.name ASC`
	var subjects []models.ActiveSubject
	if err := r.db.SelectContext(ctx, &subjects, query); err != nil {
		return nil, fmt.Errorf("list active subjects: %w", err)
	}
	return subjects, nil
}

// FindByName returns a subject by its exact name.
func (r *SubjectRepository) FindByName(ctx context.Context, name string) (*models.Subject, error) {
	const query = `SELECT id, name FROM subjects WHERE name = $1 LIMIT 1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find subject by name: %w", err)
	}
	return &subject, nil
}

// FindByIDs returns the subjects matching the given identifiers.
func (r *SubjectRepository) FindByIDs(ctx context.Context, ids []int) ([]models.Subject, error) {
	if len(ids) == 0 {
		return []models.Subject{}, nil
	}
	query, args, err := sqlx.In(`SELECT id, name FROM subjects WHERE id IN (?) ORDER BY name ASC`, ids)
	if err != nil {
		return nil, fmt.Errorf("build subject lookup: %w", err)
	}
	query = r.db.Rebind(query)
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, fmt.Errorf("find subjects by ids: %w", err)
	}
	return subjects, nil
}
