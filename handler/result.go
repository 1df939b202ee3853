package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"ewintr.nl/vidsum/storage"
	"golang.org/x/exp/slog"
)

// ResultAPI lists recent pipeline outcomes from the result log.
type ResultAPI struct {
	resultRepo storage.ResultRepository
	logger     *slog.Logger
}

func NewResultAPI(resultRepo storage.ResultRepository, logger *slog.Logger) *ResultAPI {
	return &ResultAPI{
		resultRepo: resultRepo,
		logger:     logger,
	}
}

func (api *ResultAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		Error(w, http.StatusMethodNotAllowed, "method not allowed", fmt.Errorf("method %s is not supported", r.Method))
		return
	}
	if api.resultRepo == nil {
		Error(w, http.StatusServiceUnavailable, "result log not configured", fmt.Errorf("no database configured"))
		return
	}

	limit := 50
	if param := r.URL.Query().Get("limit"); param != "" {
		parsed, err := strconv.Atoi(param)
		if err != nil || parsed < 1 {
			Error(w, http.StatusBadRequest, "invalid limit", fmt.Errorf("limit must be a positive number"))
			return
		}
		limit = parsed
	}

	results, err := api.resultRepo.FindLatest(r.Context(), limit)
	if err != nil {
		api.logger.Error("could not list results", err)
		Error(w, http.StatusInternalServerError, "could not list results", err)
		return
	}

	writeJSON(w, http.StatusOK, results)
}
