// Package models defines the console client's local records.
package models

import "time"

// DefaultStatus is the status of a freshly filed report.
const DefaultStatus = "受付"

// Report is a locally stored case. Pending marks changes not yet pushed to
// the server; Deleted is a tombstone kept until the delete is synced.
// ServerID is empty until the report has been created on the server.
type Report struct {
	ID        string    `json:"id"`
	ServerID  string    `json:"serverId,omitempty"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	Assignee  string    `json:"assignee"`
	RiskScore int       `json:"riskScore"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Pending   bool      `json:"-"`
	Deleted   bool      `json:"-"`
}

// ReportPatch holds the fields to change; nil means keep.
type ReportPatch struct {
	Title     *string
	Body      *string
	Status    *string
	Assignee  *string
	RiskScore *int
}

// LogEntry is one line of the local audit trail.
type LogEntry struct {
	ID       string    `json:"id"`
	Action   string    `json:"action"`
	TargetID string    `json:"targetId"`
	Detail   string    `json:"detail"`
	At       time.Time `json:"at"`
}
