package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/jobtracker/internal/common"
	"github.com/dmitrijs2005/jobtracker/internal/dbx"
	"github.com/dmitrijs2005/jobtracker/internal/server/models"
	jobsrepo "github.com/dmitrijs2005/jobtracker/internal/server/repositories/jobs"
	usersrepo "github.com/dmitrijs2005/jobtracker/internal/server/repositories/users"
	"github.com/google/uuid"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// fakeUsersRepo keeps users in memory, keyed by name.
type fakeUsersRepo struct {
	byName map[string]*models.User
	err    error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byName: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := f.byName[u.UserName]; ok {
		return nil, common.ErrorAlreadyExists
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	f.byName[u.UserName] = u
	return u, nil
}

func (f *fakeUsersRepo) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byName[userName]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

// fakeJobsRepo mirrors the owner scoping of the SQL statements.
type fakeJobsRepo struct {
	jobs      map[string]models.Job
	createErr error
	updateErr error
	writes    int
}

func newFakeJobsRepo() *fakeJobsRepo {
	return &fakeJobsRepo{jobs: map[string]models.Job{}}
}

func (f *fakeJobsRepo) Create(ctx context.Context, job *models.Job) (*models.Job, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.writes++
	job.ID = uuid.NewString()
	job.CreatedAt = time.Now()
	job.UpdatedAt = job.CreatedAt
	f.jobs[job.ID] = *job
	return job, nil
}

func (f *fakeJobsRepo) GetByID(ctx context.Context, id string) (*models.Job, error) {
	j, ok := f.jobs[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &j, nil
}

func (f *fakeJobsRepo) GetByIDForUpdate(ctx context.Context, id string) (*models.Job, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeJobsRepo) ListByOwner(ctx context.Context, ownerID string) ([]*models.Job, error) {
	out := []*models.Job{}
	for _, j := range f.jobs {
		if j.OwnerID == ownerID {
			j := j
			out = append(out, &j)
		}
	}
	return out, nil
}

func (f *fakeJobsRepo) Update(ctx context.Context, job *models.Job) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	cur, ok := f.jobs[job.ID]
	if !ok || cur.OwnerID != job.OwnerID {
		return common.ErrorNotFound
	}
	f.writes++
	job.UpdatedAt = time.Now()
	f.jobs[job.ID] = *job
	return nil
}

func (f *fakeJobsRepo) Delete(ctx context.Context, id, ownerID string) error {
	cur, ok := f.jobs[id]
	if !ok || cur.OwnerID != ownerID {
		return common.ErrorNotFound
	}
	f.writes++
	delete(f.jobs, id)
	return nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	j *fakeJobsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newFakeUsersRepo(), j: newFakeJobsRepo()}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }
func (m *fakeRepoManager) Jobs(db dbx.DBTX) jobsrepo.Repository         { return m.j }
