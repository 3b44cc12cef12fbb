package models

import "time"

type AuditLog struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	ActorID   *string   `json:"actorId"`
	Action    string    `json:"action"`
	Detail    *string   `json:"detail"`
	TargetID  *string   `json:"targetId"`
	ReportID  *string   `json:"reportId"`
	CreatedAt time.Time `json:"createdAt"`
}
