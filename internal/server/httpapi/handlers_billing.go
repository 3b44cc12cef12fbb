package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/silentvoice/internal/server/services"
	"github.com/go-chi/chi/v5"
)

type createInvoiceRequest struct {
	CustomerName string  `json:"customerName"`
	PeriodFrom   string  `json:"periodFrom"`
	PeriodTo     string  `json:"periodTo"`
	AmountJPY    int64   `json:"amountJpy"`
	Memo         *string `json:"memo"`
	Status       string  `json:"status"`
}

type updateInvoiceRequest struct {
	CustomerName *string `json:"customerName"`
	PeriodFrom   *string `json:"periodFrom"`
	PeriodTo     *string `json:"periodTo"`
	AmountJPY    *int64  `json:"amountJpy"`
	Memo         *string `json:"memo"`
	Status       *string `json:"status"`
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func invoiceFilter(r *http.Request) (services.InvoiceFilter, error) {
	q := r.URL.Query()
	f := services.InvoiceFilter{Status: q.Get("status"), Query: q.Get("q")}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return f, validationError("limit must be an integer")
		}
		f.Limit = n
	}
	return f, nil
}

func (a *API) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	ctx := r.Context()
	v, err := a.Billing.Create(ctx, tenantFromContext(ctx), actorID(ctx), services.CreateInvoiceInput{
		CustomerName: req.CustomerName,
		PeriodFrom:   req.PeriodFrom,
		PeriodTo:     req.PeriodTo,
		AmountJPY:    req.AmountJPY,
		Memo:         req.Memo,
		Status:       req.Status,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (a *API) listInvoices(w http.ResponseWriter, r *http.Request) {
	f, err := invoiceFilter(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	list, err := a.Billing.List(r.Context(), tenantFromContext(r.Context()), f)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if list == nil {
		list = []services.InvoiceView{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) updateInvoice(w http.ResponseWriter, r *http.Request) {
	var req updateInvoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	ctx := r.Context()
	v, err := a.Billing.Update(ctx, tenantFromContext(ctx), actorID(ctx), chi.URLParam(r, "id"), services.InvoicePatch{
		CustomerName: req.CustomerName,
		PeriodFrom:   req.PeriodFrom,
		PeriodTo:     req.PeriodTo,
		AmountJPY:    req.AmountJPY,
		Memo:         req.Memo,
		Status:       req.Status,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// exportInvoices renders the filtered invoices into a buffer first so a
// rendering error can still become a JSON error response.
func (a *API) exportInvoices(format, contentType string, render invoiceWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := invoiceFilter(r)
		if err != nil {
			a.fail(w, r, err)
			return
		}

		ctx := r.Context()
		tenantID := tenantFromContext(ctx)
		list, err := a.Billing.Export(ctx, tenantID, f)
		if err != nil {
			a.fail(w, r, err)
			return
		}

		var buf bytes.Buffer
		if err := render(&buf, list); err != nil {
			a.fail(w, r, fmt.Errorf("error rendering %s export: %w", format, err))
			return
		}

		a.Billing.RecordExport(ctx, tenantID, actorID(ctx), format, len(list))

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="invoice_export.%s"`, format))
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	}
}
