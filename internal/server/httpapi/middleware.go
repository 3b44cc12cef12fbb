package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/common"
	"github.com/dmitrijs2005/silentvoice/internal/server/models"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const (
	tenantKey ctxKey = "tenantID"
	userKey   ctxKey = "user"

	alertSubject = "silent-voice-api-error"
)

func tenantFromContext(ctx context.Context) string {
	id, _ := ctx.Value(tenantKey).(string)
	return id
}

func userFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

func actorID(ctx context.Context) string {
	if u := userFromContext(ctx); u != nil {
		return u.ID
	}
	return ""
}

// withTenant puts the deployment tenant into the request context.
func (a *API) withTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), tenantKey, a.Options.TenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionToken(r *http.Request) string {
	c, err := r.Cookie(common.SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// requireSession rejects requests without a valid session cookie.
func (a *API) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.Auth.Authenticate(r.Context(), sessionToken(r))
		if err != nil {
			a.fail(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin must run after requireSession.
func (a *API) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := userFromContext(r.Context())
		if u == nil || u.Role != models.RoleAdmin {
			a.fail(w, r, common.ErrorForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		a.Logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// recoverer turns a panic into a 500 and publishes an alert.
func (a *API) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				msg := fmt.Sprintf("panic: %v\n%s", rec, debug.Stack())
				a.Logger.Error(r.Context(), "panic serving request", "path", r.URL.Path, "panic", rec)
				a.Alerter.Publish(context.WithoutCancel(r.Context()), alertSubject, msg)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// fail writes err as a JSON error. Server errors are logged and alerted.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.Logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		a.Alerter.Publish(context.WithoutCancel(r.Context()), alertSubject,
			fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
	}
	writeError(w, status, publicMessage(status, err))
}
