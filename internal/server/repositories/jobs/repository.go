package jobs

import (
	"context"

	"github.com/dmitrijs2005/jobtracker/internal/server/models"
)

// Repository persists jobs. Update and Delete are scoped to the owner; a row
// belonging to someone else is reported as common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, job *models.Job) (*models.Job, error)
	GetByID(ctx context.Context, id string) (*models.Job, error)
	GetByIDForUpdate(ctx context.Context, id string) (*models.Job, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Job, error)
	Update(ctx context.Context, job *models.Job) error
	Delete(ctx context.Context, id, ownerID string) error
}
