package persistence

import "time"

// Schedule is a declarative recurrence descriptor for automated submissions.
// The scheduler evaluates active schedules; the job runner never touches them.
type Schedule struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Frequency    string     `json:"frequency"`
	TimeOfDay    string     `json:"time_of_day,omitempty"`
	Days         string     `json:"days,omitempty"`
	ScriptSource string     `json:"script_source,omitempty"`
	AutoUpload   bool       `json:"auto_upload"`
	Active       bool       `json:"active"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	NextRun      *time.Time `json:"next_run,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
