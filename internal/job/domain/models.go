package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// State is the task runtime's native job state.
type State string

const (
	StatePending  State = "PENDING"
	StateReceived State = "RECEIVED"
	StateStarted  State = "STARTED"
	StateSuccess  State = "SUCCESS"
	StateFailure  State = "FAILURE"
	StateRetry    State = "RETRY"
	StateRevoked  State = "REVOKED"
)

// Terminal reports whether no further transitions happen.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateFailure || s == StateRevoked
}

// Client-facing statuses.
const (
	StatusPending   = "pending"
	StatusStarted   = "started"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Spec is everything the orchestrator needs to run one job. The credit was
// debited before the spec was enqueued.
type Spec struct {
	AccountID string
	SourceRef string
	StyleID   string
	UploadID  *snowflake.ID
	HD        bool
}

// Result is the outcome of a successful job.
type Result struct {
	URL         string            `json:"url"`
	Key         string            `json:"key"`
	StyleID     string            `json:"style_id"`
	ContentType string            `json:"content_type"`
	HD          bool              `json:"hd"`
	Directive   map[string]string `json:"directive,omitempty"`
}

// Job is the persisted job record.
type Job struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	AccountID  string       `gorm:"type:varchar(191);not null;index"`
	StyleID    string       `gorm:"type:varchar(64);not null"`
	SourceRef  string       `gorm:"type:varchar(1024);not null"`
	UploadID   *snowflake.ID
	HD         bool                       `gorm:"column:hd;not null"`
	State      State                      `gorm:"type:varchar(16);not null;index"`
	Result     datatypes.JSONType[Result] `gorm:"type:json"`
	Error      string                     `gorm:"type:text"`
	Attempts   int                        `gorm:"not null;default:0"`
	CreatedAt  time.Time                  `gorm:"not null"`
	UpdatedAt  time.Time                  `gorm:"not null"`
	StartedAt  *time.Time
	FinishedAt *time.Time
}

// TableName sets the database table name.
func (Job) TableName() string { return "generation_jobs" }

func (j Job) Spec() Spec {
	return Spec{
		AccountID: j.AccountID,
		SourceRef: j.SourceRef,
		StyleID:   j.StyleID,
		UploadID:  j.UploadID,
		HD:        j.HD,
	}
}

// Projection is what a polling client sees.
type Projection struct {
	JobID  string  `json:"job_id"`
	Status string  `json:"status"`
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
}
