package handler

import (
	"fmt"
	"net/http"
	"time"
)

type AuthReporter interface {
	AuthFailure() (string, bool)
}

type HealthAPI struct {
	auth AuthReporter
}

func NewHealthAPI(auth AuthReporter) *HealthAPI {
	return &HealthAPI{auth: auth}
}

func (api *HealthAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		Error(w, http.StatusMethodNotAllowed, "method not allowed", fmt.Errorf("method %s is not supported", r.Method))
		return
	}

	response := struct {
		Status    string `json:"status"`
		Timestamp string `json:"timestamp"`
		Detail    string `json:"detail,omitempty"`
	}{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if api.auth != nil {
		if detail, failing := api.auth.AuthFailure(); failing {
			response.Status = "degraded"
			response.Detail = detail
		}
	}

	writeJSON(w, http.StatusOK, response)
}
