package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/server/services"
)

type otpSendRequest struct {
	Email string `json:"email"`
}

type otpVerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (a *API) sendOtp(w http.ResponseWriter, r *http.Request) {
	var req otpSendRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	expiresAt, err := a.Auth.SendOtp(r.Context(), tenantFromContext(r.Context()), req.Email)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "expiresAt": expiresAt.UTC().Format(time.RFC3339)})
}

func (a *API) verifyOtp(w http.ResponseWriter, r *http.Request) {
	var req otpVerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	res, err := a.Auth.VerifyOtp(r.Context(), tenantFromContext(r.Context()), req.Email, req.Code)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	a.setSessionCookie(w, res.Token)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "user": res.User})
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		a.Auth.Logout(r.Context(), tenantFromContext(r.Context()), token)
	}
	a.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (a *API) session(w http.ResponseWriter, r *http.Request) {
	var user *services.SessionUser
	if token := sessionToken(r); token != "" {
		user = a.Auth.Session(r.Context(), token)
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}
