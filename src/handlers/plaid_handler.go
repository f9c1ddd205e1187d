package handlers

import (
	"categorizer-server/src/logging"
	"categorizer-server/src/plaid"
	"categorizer-server/src/util"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

const maxWebhookBody = 1 << 20

func PlaidCategorize(source plaid.TransactionSource, categorizer plaid.Categorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			AccessToken string `json:"access_token"`
			Cursor      string `json:"cursor"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			util.WriteError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.AccessToken == "" {
			util.WriteError(w, http.StatusBadRequest, "access_token is required")
			return
		}

		result, err := plaid.CategorizeSince(r.Context(), source, categorizer, req.AccessToken, req.Cursor)
		if err != nil {
			logging.FromContext(r.Context()).ErrorContext(r.Context(), "plaid sync failed",
				logging.FieldComponent, logging.ComponentPlaid, logging.FieldError, err)
			util.WriteError(w, http.StatusBadGateway, "failed to sync transactions")
			return
		}
		util.WriteJSON(w, http.StatusOK, result)
	}
}

type Puller interface {
	Pull(ctx context.Context) (*plaid.SyncResult, error)
}

// PlaidWebhook verifies the webhook signature and, for new transactions,
// starts a background pull of the configured item. feed may be nil.
func PlaidWebhook(verifier *plaid.Verifier, feed Puller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logging.FromContext(r.Context())

		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			util.WriteError(w, http.StatusBadRequest, "failed to read body")
			return
		}
		if err := verifier.Verify(r.Context(), body, r.Header.Get("Plaid-Verification")); err != nil {
			logger.WarnContext(r.Context(), "rejected plaid webhook", logging.FieldError, err)
			util.WriteError(w, http.StatusUnauthorized, "invalid webhook signature")
			return
		}

		var event plaid.WebhookEvent
		if err := json.Unmarshal(body, &event); err != nil {
			util.WriteError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		logger.InfoContext(r.Context(), "plaid webhook received",
			"webhook_type", event.WebhookType, "webhook_code", event.WebhookCode, "item_id", event.ItemID)

		if event.SyncAvailable() && feed != nil {
			go feed.Pull(context.WithoutCancel(r.Context()))
		}
		util.WriteJSON(w, http.StatusOK, map[string]string{"status": "received"})
	}
}
