// Package analytics summarizes the labelled sample data set.
package analytics

import (
	"categorizer-server/src/classifier"
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const previewSize = 10

type Report struct {
	CategoryDistribution map[string]int      `json:"category_distribution"`
	AverageAmounts       map[string]float64  `json:"average_amounts"`
	TotalTransactions    int                 `json:"total_transactions"`
	AnomalyCount         int                 `json:"anomaly_count"`
	Transactions         []classifier.Record `json:"transactions"`
}

// Build computes the report. Averages are rounded to cents. Anomalies are
// counted with svc and are zero when it is unavailable.
func Build(ctx context.Context, records []classifier.Record, svc classifier.Service) (*Report, error) {
	report := &Report{
		CategoryDistribution: make(map[string]int),
		AverageAmounts:       make(map[string]float64),
		TotalTransactions:    len(records),
		Transactions:         records[:min(previewSize, len(records))],
	}
	if report.Transactions == nil {
		report.Transactions = []classifier.Record{}
	}

	totals := make(map[string]decimal.Decimal)
	amounts := make([]float64, len(records))
	for i, r := range records {
		report.CategoryDistribution[r.Category]++
		totals[r.Category] = totals[r.Category].Add(decimal.NewFromFloat(r.Amount))
		amounts[i] = r.Amount
	}
	for category, total := range totals {
		count := decimal.NewFromInt(int64(report.CategoryDistribution[category]))
		report.AverageAmounts[category] = total.Div(count).Round(2).InexactFloat64()
	}

	if svc == nil || !svc.Available() || len(amounts) == 0 {
		return report, nil
	}
	flags, err := svc.ScoreAmounts(ctx, amounts)
	if errors.Is(err, classifier.ErrUnavailable) {
		return report, nil
	}
	if err != nil {
		return nil, fmt.Errorf("score amounts: %w", err)
	}
	for _, anomalous := range flags {
		if anomalous {
			report.AnomalyCount++
		}
	}
	return report, nil
}
