package models

import "time"

type JobStatus string

const (
	StatusApplied   JobStatus = "applied"
	StatusInterview JobStatus = "interview"
	StatusDeclined  JobStatus = "declined"
	StatusPending   JobStatus = "pending"
)

// JobStatuses lists the valid statuses in display order.
var JobStatuses = []JobStatus{StatusApplied, StatusInterview, StatusDeclined, StatusPending}

// Job is one tracked application. OwnerID is set at creation and never
// changes afterwards.
type Job struct {
	ID        string
	OwnerID   string
	Company   string
	Position  string
	Status    JobStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// JobInput carries the user-editable fields of a Job. The validate tags are
// the persistence schema enforced before anything is written.
type JobInput struct {
	Company  string `json:"company" validate:"required,max=50"`
	Position string `json:"position" validate:"required,max=100"`
	Status   string `json:"status" validate:"omitempty,oneof=applied interview declined pending"`
}

// JobPatch is a partial update; nil fields are left as they are.
type JobPatch struct {
	Company  *string `json:"company"`
	Position *string `json:"position"`
	Status   *string `json:"status"`
}

// Input returns the editable fields of j.
func (j *Job) Input() JobInput {
	return JobInput{Company: j.Company, Position: j.Position, Status: string(j.Status)}
}

// Apply returns the result of applying p on top of in.
func (p JobPatch) Apply(in JobInput) JobInput {
	if p.Company != nil {
		in.Company = *p.Company
	}
	if p.Position != nil {
		in.Position = *p.Position
	}
	if p.Status != nil {
		in.Status = *p.Status
	}
	return in
}

// PatchFromInput turns a full form submission into a patch touching every field.
func PatchFromInput(in JobInput) JobPatch {
	return JobPatch{Company: &in.Company, Position: &in.Position, Status: &in.Status}
}

// StatusOrDefault returns the status of in, or pending when none was given.
func (in JobInput) StatusOrDefault() JobStatus {
	if in.Status == "" {
		return StatusPending
	}
	return JobStatus(in.Status)
}
