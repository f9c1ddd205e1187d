package handlers

import (
	"categorizer-server/src/analytics"
	"categorizer-server/src/categorize"
	"categorizer-server/src/classifier"
	"categorizer-server/src/logging"
	"categorizer-server/src/models"
	"categorizer-server/src/util"
	"encoding/json"
	"net/http"
)

func Categorize(orchestrator *categorize.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var txn models.Transaction
		if err := json.NewDecoder(r.Body).Decode(&txn); err != nil {
			util.WriteError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if txn == nil {
			txn = models.Transaction{}
		}
		if amount, ok := txn.Field(models.FieldAmount); ok {
			if _, err := models.ParseNumber(amount); err != nil {
				util.WriteError(w, http.StatusBadRequest, "amount must be a number")
				return
			}
		}
		util.WriteJSON(w, http.StatusOK, orchestrator.Categorize(r.Context(), txn))
	}
}

func Analytics(records []classifier.Record, svc classifier.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := analytics.Build(r.Context(), records, svc)
		if err != nil {
			logging.FromContext(r.Context()).ErrorContext(r.Context(), "failed to build analytics", logging.FieldError, err)
			util.WriteError(w, http.StatusInternalServerError, "failed to build analytics")
			return
		}
		util.WriteJSON(w, http.StatusOK, report)
	}
}

type CacheClearer interface {
	Clear()
}

func ClearCache(cache CacheClearer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cache.Clear()
		logging.FromContext(r.Context()).InfoContext(r.Context(), "prediction cache cleared")
		util.WriteJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	}
}
