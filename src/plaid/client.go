// Package plaid feeds bank transactions from Plaid into the categorizer.
package plaid

import (
	"context"
	"fmt"

	"github.com/plaid/plaid-go/v41/plaid"
)

func NewPlaidClient(clientID, secret, env string) (*plaid.APIClient, error) {
	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", clientID)
	configuration.AddDefaultHeader("PLAID-SECRET", secret)

	switch env {
	case "sandbox":
		configuration.UseEnvironment(plaid.Sandbox)
	case "production":
		configuration.UseEnvironment(plaid.Production)
	default:
		return nil, fmt.Errorf("invalid Plaid environment: %s", env)
	}

	return plaid.NewAPIClient(configuration), nil
}

// Page is one /transactions/sync response.
type Page struct {
	Added      []plaid.Transaction
	NextCursor string
	HasMore    bool
}

// API adapts the generated client to the narrow interfaces this package
// needs.
type API struct {
	client *plaid.APIClient
}

func NewAPI(client *plaid.APIClient) *API {
	return &API{client: client}
}

func (a *API) SyncPage(ctx context.Context, accessToken, cursor string) (Page, error) {
	request := plaid.NewTransactionsSyncRequest(accessToken)
	if cursor != "" {
		request.SetCursor(cursor)
	}
	resp, _, err := a.client.PlaidApi.TransactionsSync(ctx).TransactionsSyncRequest(*request).Execute()
	if err != nil {
		return Page{}, fmt.Errorf("transactions sync: %w", err)
	}
	return Page{
		Added:      resp.GetAdded(),
		NextCursor: resp.GetNextCursor(),
		HasMore:    resp.GetHasMore(),
	}, nil
}

func (a *API) VerificationKey(ctx context.Context, kid string) (*plaid.JWKPublicKey, error) {
	req := *plaid.NewWebhookVerificationKeyGetRequest(kid)
	resp, _, err := a.client.PlaidApi.WebhookVerificationKeyGet(ctx).
		WebhookVerificationKeyGetRequest(req).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("webhook verification key: %w", err)
	}
	key := resp.GetKey()
	return &key, nil
}
