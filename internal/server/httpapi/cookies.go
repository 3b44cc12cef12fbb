package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/common"
)

func (a *API) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(a.Options.CookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   a.Options.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *API) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.Options.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
