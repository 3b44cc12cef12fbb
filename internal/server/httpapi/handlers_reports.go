package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/silentvoice/internal/server/services"
	"github.com/go-chi/chi/v5"
)

type createReportRequest struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Body     string `json:"body"`
}

type updateReportRequest struct {
	Title        *string `json:"title"`
	Body         *string `json:"body"`
	Status       *string `json:"status"`
	RiskScore    *int    `json:"riskScore"`
	AssigneeName *string `json:"assigneeName"`
}

func (a *API) createReport(w http.ResponseWriter, r *http.Request) {
	var req createReportRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	created, err := a.Reports.Create(r.Context(), tenantFromContext(r.Context()), services.CreateReportInput{
		Title:    req.Title,
		Category: req.Category,
		Body:     req.Body,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (a *API) listReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := a.Reports.List(r.Context(), tenantFromContext(r.Context()), services.ReportFilter{
		Status:   q.Get("status"),
		Category: q.Get("category"),
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if list == nil {
		list = []services.ReportView{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) getReport(w http.ResponseWriter, r *http.Request) {
	v, err := a.Reports.Get(r.Context(), tenantFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *API) updateReport(w http.ResponseWriter, r *http.Request) {
	var req updateReportRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if req.RiskScore != nil && (*req.RiskScore < 0 || *req.RiskScore > 100) {
		a.fail(w, r, validationError("riskScore must be between 0 and 100"))
		return
	}

	ctx := r.Context()
	v, err := a.Reports.Update(ctx, tenantFromContext(ctx), actorID(ctx), chi.URLParam(r, "id"), services.ReportPatch{
		Title:        req.Title,
		Body:         req.Body,
		Status:       req.Status,
		RiskScore:    req.RiskScore,
		AssigneeName: req.AssigneeName,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *API) deleteReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := a.Reports.Delete(ctx, tenantFromContext(ctx), actorID(ctx), chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (a *API) receiptStatus(w http.ResponseWriter, r *http.Request) {
	st, err := a.Reports.ReceiptStatus(r.Context(), tenantFromContext(r.Context()), chi.URLParam(r, "token"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *API) reportAttachments(w http.ResponseWriter, r *http.Request) {
	list, err := a.Files.Attachments(r.Context(), tenantFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if list == nil {
		list = []services.AttachmentView{}
	}
	writeJSON(w, http.StatusOK, list)
}
