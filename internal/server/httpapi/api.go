package httpapi

import (
	"encoding/json"
	"mime"
	"net/http"
	"time"

	"github.com/dmitrijs2005/jobtracker/internal/server/models"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

type jobResponse struct {
	ID        string    `json:"id"`
	Company   string    `json:"company"`
	Position  string    `json:"position"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toJobResponse(j *models.Job) jobResponse {
	return jobResponse{
		ID:        j.ID,
		Company:   j.Company,
		Position:  j.Position,
		Status:    string(j.Status),
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// decodeJSON reads an application/json body into v. Any other content type
// gets 415.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mt != "application/json" {
		writeError(w, http.StatusUnsupportedMediaType, "content type must be application/json")
		return false
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return false
	}
	return true
}

func (s *Server) apiListJobs(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())

	jobs, err := s.jobs.List(r.Context(), id.UserID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	out := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobResponse(j))
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": out, "count": len(out)})
}

func (s *Server) apiGetJob(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())

	job, err := s.jobs.Get(r.Context(), chi.URLParam(r, "id"), id.UserID)
	if err != nil {
		s.apiJobFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(job))
}

func (s *Server) apiCreateJob(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())

	var in models.JobInput
	if !decodeJSON(w, r, &in) {
		return
	}
	job, err := s.jobs.Create(r.Context(), id.UserID, in)
	if err != nil {
		s.apiJobFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toJobResponse(job))
}

// apiReplaceJob is PUT: every editable field is replaced.
func (s *Server) apiReplaceJob(w http.ResponseWriter, r *http.Request) {
	var in models.JobInput
	if !decodeJSON(w, r, &in) {
		return
	}
	s.apiUpdate(w, r, models.PatchFromInput(in))
}

// apiPatchJob is PATCH: absent fields are kept.
func (s *Server) apiPatchJob(w http.ResponseWriter, r *http.Request) {
	var patch models.JobPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	s.apiUpdate(w, r, patch)
}

func (s *Server) apiUpdate(w http.ResponseWriter, r *http.Request, patch models.JobPatch) {
	id, _ := identityFromContext(r.Context())

	job, err := s.jobs.Update(r.Context(), chi.URLParam(r, "id"), id.UserID, patch)
	if err != nil {
		s.apiJobFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(job))
}

func (s *Server) apiDeleteJob(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())

	if err := s.jobs.Delete(r.Context(), chi.URLParam(r, "id"), id.UserID); err != nil {
		s.apiJobFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
