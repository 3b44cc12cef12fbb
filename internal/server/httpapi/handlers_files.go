package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/silentvoice/internal/server/services"
)

type presignRequest struct {
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
	ReportID string `json:"reportId"`
}

type draftRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (a *API) presign(w http.ResponseWriter, r *http.Request) {
	var req presignRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	res, err := a.Files.Presign(r.Context(), tenantFromContext(r.Context()), services.PresignInput{
		Filename: req.Filename,
		MimeType: req.MimeType,
		ReportID: req.ReportID,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) createDraft(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	res, err := a.Drafts.Create(r.Context(), tenantFromContext(r.Context()), services.DraftInput{Title: req.Title, Body: req.Body})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
