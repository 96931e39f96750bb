package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/jobtracker/internal/common"
	"github.com/dmitrijs2005/jobtracker/internal/dbx"
	"github.com/dmitrijs2005/jobtracker/internal/server/models"
	"github.com/dmitrijs2005/jobtracker/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/jobtracker/internal/server/validation"
)

// JobService reads and changes jobs on behalf of a user. Every operation on
// a single job re-reads it and refuses to touch it unless the caller owns it:
// a missing job is common.ErrorNotFound, someone else's is
// common.ErrorUnauthorized.
type JobService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewJobService(db *sql.DB, m repomanager.RepositoryManager) *JobService {
	return &JobService{db: db, repomanager: m}
}

func owned(job *models.Job, userID string) error {
	if userID == "" || job.OwnerID != userID {
		return common.ErrorUnauthorized
	}
	return nil
}

func normalize(in models.JobInput) models.JobInput {
	in.Company = strings.TrimSpace(in.Company)
	in.Position = strings.TrimSpace(in.Position)
	in.Status = strings.TrimSpace(in.Status)
	return in
}

// translate turns constraint violations the database caught into
// validation.Errors.
func translate(err error) error {
	if fields, ok := validation.Translate(err); ok {
		return validation.Errors(fields)
	}
	return err
}

// List returns the jobs of userID only.
func (s *JobService) List(ctx context.Context, userID string) ([]*models.Job, error) {
	return s.repomanager.Jobs(s.db).ListByOwner(ctx, userID)
}

// Get returns job jobID if userID owns it.
func (s *JobService) Get(ctx context.Context, jobID, userID string) (*models.Job, error) {
	job, err := s.repomanager.Jobs(s.db).GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := owned(job, userID); err != nil {
		return nil, err
	}
	return job, nil
}

// Create stores a new job owned by userID.
func (s *JobService) Create(ctx context.Context, userID string, in models.JobInput) (*models.Job, error) {
	if userID == "" {
		return nil, common.ErrUnauthenticated
	}
	in = normalize(in)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	job, err := s.repomanager.Jobs(s.db).Create(ctx, &models.Job{
		OwnerID:  userID,
		Company:  in.Company,
		Position: in.Position,
		Status:   in.StatusOrDefault(),
	})
	if err != nil {
		return nil, fmt.Errorf("error creating job: %w", translate(err))
	}
	return job, nil
}

// Update applies patch to job jobID. The row is locked, ownership checked,
// and the merged fields validated before anything is written; any failure
// leaves the row as it was.
func (s *JobService) Update(ctx context.Context, jobID, userID string, patch models.JobPatch) (*models.Job, error) {
	var updated *models.Job
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Jobs(tx)

		job, err := repo.GetByIDForUpdate(ctx, jobID)
		if err != nil {
			return err
		}
		if err := owned(job, userID); err != nil {
			return err
		}

		in := normalize(patch.Apply(job.Input()))
		if err := validation.Struct(in); err != nil {
			return err
		}

		job.Company = in.Company
		job.Position = in.Position
		job.Status = in.StatusOrDefault()
		if err := repo.Update(ctx, job); err != nil {
			return translate(err)
		}
		updated = job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes job jobID if userID owns it. Deleting it again yields
// common.ErrorNotFound.
func (s *JobService) Delete(ctx context.Context, jobID, userID string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Jobs(tx)

		job, err := repo.GetByIDForUpdate(ctx, jobID)
		if err != nil {
			return err
		}
		if err := owned(job, userID); err != nil {
			return err
		}
		return repo.Delete(ctx, jobID, userID)
	})
}
