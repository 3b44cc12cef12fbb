package models

import "time"

// Attachment records an object key handed out by a presigned upload.
// Whether the upload actually happened is up to the client.
type Attachment struct {
	ID         string
	TenantID   string
	ReportID   *string
	ObjectKey  string
	Filename   string
	MimeType   string
	StorageURL string
	CreatedAt  time.Time
}
