// Package jobs provides the PostgreSQL-backed job repository.
package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/jobtracker/internal/common"
	"github.com/dmitrijs2005/jobtracker/internal/dbx"
	"github.com/dmitrijs2005/jobtracker/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository implements job storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `SELECT id, owner_id, company, position, status, created_at, updated_at FROM jobs`

// Create inserts job, assigning a fresh id when it has none.
// Constraint violations are returned wrapped so callers can translate them.
func (r *PostgresRepository) Create(ctx context.Context, job *models.Job) (*models.Job, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO jobs (id, owner_id, company, position, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, job.ID, job.OwnerID, job.Company, job.Position, string(job.Status)).
		Scan(&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return job, nil
}

// GetByID returns the job with the given id regardless of its owner.
// Ids that are not UUIDs can never exist and yield common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Job, error) {
	return r.get(ctx, selectColumns+` WHERE id = $1`, id)
}

// GetByIDForUpdate is GetByID that also locks the row. Only meaningful
// inside a transaction.
func (r *PostgresRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Job, error) {
	return r.get(ctx, selectColumns+` WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) get(ctx context.Context, query, id string) (*models.Job, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	job, err := scanJob(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return job, nil
}

// ListByOwner returns the jobs of ownerID, newest first.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Job, error) {
	query := selectColumns + ` WHERE owner_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select jobs: %w", err)
	}
	defer rows.Close()

	result := []*models.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update writes the editable fields of job. The statement only matches a row
// owned by job.OwnerID.
func (r *PostgresRepository) Update(ctx context.Context, job *models.Job) error {
	if _, err := uuid.Parse(job.ID); err != nil {
		return common.ErrorNotFound
	}

	query :=
		`UPDATE jobs SET company = $3, position = $4, status = $5, updated_at = now()
		 WHERE id = $1 AND owner_id = $2
		 RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, job.ID, job.OwnerID, job.Company, job.Position, string(job.Status)).
		Scan(&job.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Delete removes the job id owned by ownerID.
func (r *PostgresRepository) Delete(ctx context.Context, id, ownerID string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(s scanner) (*models.Job, error) {
	var (
		job    models.Job
		status string
	)
	if err := s.Scan(&job.ID, &job.OwnerID, &job.Company, &job.Position, &status, &job.CreatedAt, &job.UpdatedAt); err != nil {
		return nil, err
	}
	job.Status = models.JobStatus(status)
	return &job, nil
}
