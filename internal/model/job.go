package model

import (
	"context"
	"fmt"
	"time"
)

// JobState is the lifecycle state of a discovered posting.
type JobState string

const (
	StateDiscovered JobState = "discovered"
	StateScored     JobState = "scored"
	StateQueued     JobState = "queued"
	StateApplying   JobState = "applying"
	StateApplied    JobState = "applied"
	StateFailed     JobState = "failed"
	StateExcluded   JobState = "excluded"
)

// ParseJobState converts a raw string to a JobState, returning an error for
// unknown values.
func ParseJobState(s string) (JobState, error) {
	st := JobState(s)
	switch st {
	case StateDiscovered, StateScored, StateQueued, StateApplying, StateApplied, StateFailed, StateExcluded:
		return st, nil
	}
	return "", fmt.Errorf("unknown job state %q", s)
}

// IsTerminal reports whether the state on its own ends automation for the job.
// Failed is not terminal: the attempt budget, not the state, decides when a
// failed job stops being retried.
func (s JobState) IsTerminal() bool {
	return s == StateApplied || s == StateExcluded
}

// MaxApplicationAttempts is the attempt budget per job. Once a record reaches
// it the store permanently excludes the job from automation queries.
const MaxApplicationAttempts = 3

// JobRecord is one discovered posting and its application lifecycle.
// Link is the stable identity: discovery upserts are idempotent on it.
type JobRecord struct {
	ID          int64
	Link        string
	Title       string
	Description string
	Location    string
	Experience  string // free-text required-experience as stated by the posting
	PublishDate time.Time

	State     JobState
	AddedAt   time.Time
	IsNew     bool // age < 3 days at discovery, computed once at insert
	IsOld     bool // age > 15 days at discovery, computed once at insert
	IsClicked bool // user-acknowledged

	ApplicationAttempts int
	LastApplicationAt   *time.Time
	ApplicationSuccess  *bool // nil until an attempt resolves the outcome
}

// Applied reports whether the record reached a successful application. Once
// true the record is immutable with respect to further attempts.
func (j JobRecord) Applied() bool {
	return j.ApplicationSuccess != nil && *j.ApplicationSuccess
}

// ApplicationAttempt is one append-only history entry for a job.
type ApplicationAttempt struct {
	ID           int64
	JobID        int64
	AttemptedAt  time.Time
	Success      bool
	SiteType     string
	ErrorMessage string // empty on success
}

// Candidate is a normalized posting as fetched from a listing site, before
// scoring and persistence.
type Candidate struct {
	Title       string
	Link        string
	PublishDate time.Time
	Location    string
	Experience  string
	Description string
}

// ScoredCandidate pairs a candidate with its relevance score. It is ephemeral:
// the score is consumed by the acquisition pipeline and never persisted.
type ScoredCandidate struct {
	Candidate
	Score int
}

// KnownLinkFunc reports whether a link is already persisted. Source fetchers
// use it to skip detail-page fetches for postings the store has seen.
type KnownLinkFunc func(link string) bool

// SourceFetcher fetches candidates for one keyword from a single listing site.
type SourceFetcher interface {
	Name() string
	Fetch(ctx context.Context, keyword string, known KnownLinkFunc) ([]Candidate, error)
}

// CandidateStore is the store surface the acquisition pipeline writes through.
type CandidateStore interface {
	HasLink(link string) (bool, error)
	InsertDiscovered(c Candidate) (added bool, err error)
	LogAcquisition(added int) error
}

// AttemptStore is the store surface the application automator drives.
// UnappliedJobs is the source of truth for eligibility: it filters out jobs
// whose attempt budget is spent or whose application already succeeded.
type AttemptStore interface {
	UnappliedJobs() ([]JobRecord, error)
	BeginAttempt(jobID int64) (attempts int, err error)
	FinishAttempt(jobID int64, success bool, siteType, errorMessage string) error
}
