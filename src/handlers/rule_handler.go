package handlers

import (
	"categorizer-server/src/logging"
	"categorizer-server/src/models"
	"categorizer-server/src/rules"
	"categorizer-server/src/util"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func ListRules(repo *rules.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		util.WriteJSON(w, http.StatusOK, repo.Load(r.Context()))
	}
}

func SaveRule(repo *rules.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logging.FromContext(r.Context())

		var raw interface{}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			logger.WarnContext(r.Context(), "failed to decode rule body", logging.FieldError, err)
			util.WriteError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		rule, err := rules.ParseRule(raw)
		if err != nil {
			util.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}

		saved, err := repo.Upsert(r.Context(), rule)
		if err != nil {
			logger.ErrorContext(r.Context(), "failed to save rule", logging.FieldRuleID, rule.ID, logging.FieldError, err)
			util.WriteError(w, http.StatusInternalServerError, "failed to save rule")
			return
		}
		util.WriteJSON(w, http.StatusOK, struct {
			Status string      `json:"status"`
			Rule   models.Rule `json:"rule"`
		}{"saved", saved})
	}
}

func DeleteRule(repo *rules.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ruleID := chi.URLParam(r, "rule_id")

		err := repo.Delete(r.Context(), ruleID)
		if errors.Is(err, rules.ErrRuleNotFound) {
			util.WriteError(w, http.StatusNotFound, "rule not found")
			return
		}
		if err != nil {
			logging.FromContext(r.Context()).ErrorContext(r.Context(), "failed to delete rule",
				logging.FieldRuleID, ruleID, logging.FieldError, err)
			util.WriteError(w, http.StatusInternalServerError, "failed to delete rule")
			return
		}
		util.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted", "rule_id": ruleID})
	}
}

func EvaluateRule(evaluator *rules.Evaluator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var txn models.Transaction
		if err := json.NewDecoder(r.Body).Decode(&txn); err != nil {
			util.WriteError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		util.WriteJSON(w, http.StatusOK, evaluator.Evaluate(r.Context(), txn))
	}
}
