package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/jobtracker/internal/server/models"
	"github.com/go-chi/chi/v5"
)

type jobForm struct {
	Job      *models.Job
	Statuses []models.JobStatus
	Current  models.JobStatus
}

func jobInputFromForm(r *http.Request) models.JobInput {
	return models.JobInput{
		Company:  r.PostFormValue("company"),
		Position: r.PostFormValue("position"),
		Status:   r.PostFormValue("status"),
	}
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())

	jobs, err := s.jobs.List(r.Context(), id.UserID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, "jobs", "Jobs", jobs)
}

func (s *Server) newJobForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "job", "Add a job", jobForm{Statuses: models.JobStatuses, Current: models.StatusPending})
}

func (s *Server) editJobForm(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())

	job, err := s.jobs.Get(r.Context(), chi.URLParam(r, "id"), id.UserID)
	if err != nil {
		s.jobFailure(w, r, err, "/jobs")
		return
	}
	s.render(w, r, "job", "Edit job", jobForm{Job: job, Statuses: models.JobStatuses, Current: job.Status})
}

func (s *Server) createJob(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())

	job, err := s.jobs.Create(r.Context(), id.UserID, jobInputFromForm(r))
	if err != nil {
		s.jobFailure(w, r, err, "/jobs/new")
		return
	}
	s.logger.Info(r.Context(), "job created", "job_id", job.ID, "user_id", id.UserID)
	redirectWithFlash(w, r, flashInfo, "Job listing added successfully", "/jobs")
}

func (s *Server) updateJob(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())
	jobID := chi.URLParam(r, "id")

	_, err := s.jobs.Update(r.Context(), jobID, id.UserID, models.PatchFromInput(jobInputFromForm(r)))
	if err != nil {
		s.jobFailure(w, r, err, "/jobs/edit/"+jobID)
		return
	}
	redirectWithFlash(w, r, flashInfo, "Job listing updated successfully", "/jobs")
}

func (s *Server) deleteJob(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())
	jobID := chi.URLParam(r, "id")

	if err := s.jobs.Delete(r.Context(), jobID, id.UserID); err != nil {
		s.jobFailure(w, r, err, "/jobs")
		return
	}
	s.logger.Info(r.Context(), "job deleted", "job_id", jobID, "user_id", id.UserID)
	redirectWithFlash(w, r, flashInfo, "Job listing deleted successfully", "/jobs")
}
