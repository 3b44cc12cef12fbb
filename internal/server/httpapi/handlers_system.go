package httpapi

import "net/http"

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	h := a.System.Health(r.Context())
	status := http.StatusOK
	if !h.OK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, h)
}

func (a *API) systemInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.System.Info(r.Context()))
}
