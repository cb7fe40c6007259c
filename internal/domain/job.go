package domain

import "time"

const (
	SourceGreenhouse = "greenhouse"
	SourceLever      = "lever"
	SourceManual     = "manual"
)

// Job is a normalized posting. (Source, SourceJobID) is unique.
type Job struct {
	ID          int64      `json:"id"`
	Source      string     `json:"source" validate:"required"`
	SourceJobID string     `json:"source_job_id" validate:"required"`
	Title       string     `json:"title" validate:"required"`
	Company     string     `json:"company" validate:"required"`
	Location    string     `json:"location" validate:"required"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=4000"`
	ApplyURL    *string    `json:"apply_url,omitempty"`
	PostedAt    *time.Time `json:"posted_at,omitempty"`
	FetchedAt   time.Time  `json:"fetched_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Key struct {
	Source      string
	SourceJobID string
}

func (j Job) Key() Key { return Key{Source: j.Source, SourceJobID: j.SourceJobID} }

func (k Key) String() string { return k.Source + ":" + k.SourceJobID }

// ActiveAt is the timestamp listings are ordered by.
func (j Job) ActiveAt() time.Time {
	switch {
	case j.PostedAt != nil:
		return *j.PostedAt
	case !j.FetchedAt.IsZero():
		return j.FetchedAt
	default:
		return j.CreatedAt
	}
}
