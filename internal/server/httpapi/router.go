package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/silentvoice/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Routes builds the REST router. Reporter-facing endpoints are public;
// case handling needs a session and billing and system need an admin.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.requestLogger)
	r.Use(a.recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.Options.WebOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(a.withTenant)

	r.Get("/health", a.health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/otp/send", a.sendOtp)
		r.Post("/otp/verify", a.verifyOtp)
		r.Post("/logout", a.logout)
		r.Get("/session", a.session)
	})

	r.Post("/reports", a.createReport)
	r.Get("/reports/receipt/{token}", a.receiptStatus)
	r.Post("/files/presign", a.presign)
	r.Post("/audit", a.createAudit)

	r.Group(func(r chi.Router) {
		r.Use(a.requireSession)

		r.Get("/reports", a.listReports)
		r.Get("/reports/{id}", a.getReport)
		r.Put("/reports/{id}", a.updateReport)
		r.Delete("/reports/{id}", a.deleteReport)
		r.Get("/reports/{id}/attachments", a.reportAttachments)

		r.Get("/audit", a.listAudit)
		r.Post("/drafts", a.createDraft)

		r.Group(func(r chi.Router) {
			r.Use(a.requireAdmin)

			r.Get("/system", a.systemInfo)
			r.Post("/billing/invoices", a.createInvoice)
			r.Get("/billing/invoices", a.listInvoices)
			r.Put("/billing/invoices/{id}", a.updateInvoice)
			r.Get("/billing/invoices.csv", a.exportInvoices("csv", "text/csv; charset=utf-8", services.WriteInvoicesCSV))
			r.Get("/billing/invoices.xlsx", a.exportInvoices("xlsx", xlsxContentType, services.WriteInvoicesXLSX))
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
