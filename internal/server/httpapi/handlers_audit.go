package httpapi

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/silentvoice/internal/server/models"
	"github.com/dmitrijs2005/silentvoice/internal/server/services"
)

type auditRequest struct {
	Action   string `json:"action"`
	Detail   string `json:"detail"`
	TargetID string `json:"targetId"`
	ActorID  string `json:"actorId"`
	ReportID string `json:"reportId"`
}

// parseAuditLimit falls back to the default for anything that is not a
// positive integer and caps the rest.
func parseAuditLimit(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return services.DefaultAuditLimit
	}
	return min(n, services.MaxAuditLimit)
}

func (a *API) listAudit(w http.ResponseWriter, r *http.Request) {
	limit := parseAuditLimit(r.URL.Query().Get("limit"))
	list, err := a.Audit.List(r.Context(), tenantFromContext(r.Context()), limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if list == nil {
		list = []*models.AuditLog{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) createAudit(w http.ResponseWriter, r *http.Request) {
	var req auditRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	entry, err := a.Audit.Record(r.Context(), tenantFromContext(r.Context()), services.AuditEntry{
		Action:   req.Action,
		Detail:   req.Detail,
		TargetID: req.TargetID,
		ActorID:  req.ActorID,
		ReportID: req.ReportID,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}
