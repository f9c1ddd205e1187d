package plaid

import (
	"categorizer-server/src/logging"
	"categorizer-server/src/models"
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/plaid/plaid-go/v41/plaid"
)

// maxPages bounds a single sync so a misbehaving cursor cannot loop forever.
const maxPages = 50

type TransactionSource interface {
	SyncPage(ctx context.Context, accessToken, cursor string) (Page, error)
}

type Categorizer interface {
	Categorize(ctx context.Context, txn models.Transaction) models.CategorizationResult
}

type CategorizedTransaction struct {
	TransactionID string                      `json:"transaction_id"`
	Transaction   models.Transaction          `json:"transaction"`
	Result        models.CategorizationResult `json:"result"`
}

type SyncResult struct {
	Transactions []CategorizedTransaction `json:"transactions"`
	NextCursor   string                   `json:"next_cursor"`
}

// ToTransaction maps a Plaid transaction onto the fields rules and the
// classifier read. Plaid reports outflows as positive amounts.
func ToTransaction(t plaid.Transaction) models.Transaction {
	txn := models.Transaction{
		models.FieldDescription: t.GetName(),
		models.FieldAmount:      t.GetAmount(),
		"transaction_id":        t.GetTransactionId(),
		"account_id":            t.GetAccountId(),
		"date":                  t.GetDate(),
	}
	if merchant := t.GetMerchantName(); merchant != "" {
		txn[models.FieldVendor] = merchant
	}
	return txn
}

// CategorizeSince pulls every transaction added after cursor and categorizes
// each one.
func CategorizeSince(ctx context.Context, source TransactionSource, categorizer Categorizer, accessToken, cursor string) (*SyncResult, error) {
	result := &SyncResult{Transactions: []CategorizedTransaction{}, NextCursor: cursor}

	for page := 0; page < maxPages; page++ {
		resp, err := source.SyncPage(ctx, accessToken, result.NextCursor)
		if err != nil {
			return nil, err
		}
		for _, t := range resp.Added {
			txn := ToTransaction(t)
			result.Transactions = append(result.Transactions, CategorizedTransaction{
				TransactionID: t.GetTransactionId(),
				Transaction:   txn,
				Result:        categorizer.Categorize(ctx, txn),
			})
		}
		result.NextCursor = resp.NextCursor
		if !resp.HasMore {
			return result, nil
		}
	}
	return result, errors.New("transactions sync did not finish within page limit")
}

// Feed follows a single linked item, remembering its cursor between pulls.
type Feed struct {
	source      TransactionSource
	categorizer Categorizer
	accessToken string
	logger      *slog.Logger

	mu     sync.Mutex
	cursor string
}

func NewFeed(source TransactionSource, categorizer Categorizer, accessToken string, logger *slog.Logger) *Feed {
	return &Feed{
		source:      source,
		categorizer: categorizer,
		accessToken: accessToken,
		logger:      logger.With(logging.FieldComponent, logging.ComponentPlaid),
	}
}

// Pull categorizes everything new since the last successful pull. Pulls are
// serialized.
func (f *Feed) Pull(ctx context.Context) (*SyncResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	result, err := CategorizeSince(ctx, f.source, f.categorizer, f.accessToken, f.cursor)
	if err != nil {
		f.logger.ErrorContext(ctx, "plaid sync failed", logging.FieldError, err)
		return nil, err
	}
	f.cursor = result.NextCursor
	f.logger.InfoContext(ctx, "plaid sync complete", "added", len(result.Transactions))
	return result, nil
}
