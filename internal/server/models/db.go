// Package models defines server-side data models persisted in the database.
package models

import "time"

// Tenant scopes every piece of data. A deployment runs with one tenant
// resolved at startup.
type Tenant struct {
	ID        string
	Code      string
	Name      string
	CreatedAt time.Time
}
