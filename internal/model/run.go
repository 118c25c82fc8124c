package model

import "time"

// Task labels of stored runs.
const (
	TaskBCT = "bct"
	TaskEAT = "eat"
)

// Run describes one stored pipeline run.
type Run struct {
	ID        string
	Task      string
	BIDSRoot  string
	Subjects  int
	StartedAt time.Time
	EndedAt   time.Time
	Config    Config
}
