package classifier

import (
	"categorizer-server/src/db"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainingRecords() []Record {
	return []Record{
		{Description: "Uber ride to airport", Amount: 45, Category: "Travel"},
		{Description: "Delta flight booking", Amount: 412, Category: "Travel"},
		{Description: "Hotel stay downtown", Amount: 289, Category: "Travel"},
		{Description: "Electric bill payment", Amount: 132, Category: "Utilities"},
		{Description: "Water bill", Amount: 58, Category: "Utilities"},
		{Description: "Internet service bill", Amount: 90, Category: "Utilities"},
		{Description: "Monthly salary payroll", Amount: 5200, Category: "Salaries"},
		{Description: "Payroll bonus", Amount: 15000, Category: "Salaries"},
		{Description: "Contractor salary", Amount: 4800, Category: "Salaries"},
	}
}

func TestUnavailable(t *testing.T) {
	svc := Unavailable()
	ctx := context.Background()

	assert.False(t, svc.Available())
	_, err := svc.Predict(ctx, "anything")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = svc.IsAnomaly(ctx, 10)
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = svc.ScoreAmounts(ctx, []float64{1, 2})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNewLocal_RejectsBadInput(t *testing.T) {
	_, err := NewLocal(nil, DefaultContamination)
	assert.Error(t, err)

	for _, c := range []float64{0, -0.1, 0.5, 0.9} {
		_, err := NewLocal(trainingRecords(), c)
		assert.Error(t, err, "contamination %v", c)
	}
}

func TestLocal_Predict(t *testing.T) {
	local, err := NewLocal(trainingRecords(), DefaultContamination)
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		description string
		category    string
	}{
		{"UBER ride home", "Travel"},
		{"flight to Denver", "Travel"},
		{"electric bill", "Utilities"},
		{"payroll for March", "Salaries"},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			p, err := local.Predict(ctx, tt.description)
			require.NoError(t, err)
			assert.Equal(t, tt.category, p.Category)
			assert.Greater(t, p.Confidence, 1.0/3)
			assert.LessOrEqual(t, p.Confidence, 1.0)
		})
	}
}

func TestLocal_PredictUnknownTextFallsBackToPriors(t *testing.T) {
	local, err := NewLocal(trainingRecords(), DefaultContamination)
	require.NoError(t, err)

	p, err := local.Predict(context.Background(), "zzzz qqqq")
	require.NoError(t, err)

	// Three balanced classes tie; the first in sorted order wins.
	assert.Equal(t, "Salaries", p.Category)
	assert.InDelta(t, 1.0/3, p.Confidence, 1e-9)
	assert.Equal(t, []string{"Salaries", "Travel", "Utilities"}, local.Classes())
}

func TestLocal_PredictIsDeterministic(t *testing.T) {
	local, err := NewLocal(trainingRecords(), DefaultContamination)
	require.NoError(t, err)

	first, err := local.Predict(context.Background(), "uber salary bill")
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		p, err := local.Predict(context.Background(), "uber salary bill")
		require.NoError(t, err)
		assert.Equal(t, first, p)
	}
}

func TestLocal_PredictHonorsCancellation(t *testing.T) {
	local, err := NewLocal(trainingRecords(), DefaultContamination)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = local.Predict(ctx, "uber")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocal_Anomalies(t *testing.T) {
	amounts := []float64{100, 102, 98, 101, 99, 100, 103, 97, 5000, 10000}
	records := make([]Record, len(amounts))
	for i, a := range amounts {
		records[i] = Record{Description: "purchase", Amount: a, Category: "Procurement"}
	}
	local, err := NewLocal(records, DefaultContamination)
	require.NoError(t, err)
	ctx := context.Background()

	flags, err := local.ScoreAmounts(ctx, amounts)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, false, false, false, false, false, false, true, true}, flags)

	anomaly, err := local.IsAnomaly(ctx, 100.5)
	require.NoError(t, err)
	assert.False(t, anomaly)

	anomaly, err = local.IsAnomaly(ctx, 50000)
	require.NoError(t, err)
	assert.True(t, anomaly)
}

func TestLocal_ConstantAmountsAreNeverAnomalous(t *testing.T) {
	records := []Record{
		{Description: "a", Amount: 10, Category: "X"},
		{Description: "b", Amount: 10, Category: "X"},
		{Description: "c", Amount: 10, Category: "X"},
	}
	local, err := NewLocal(records, DefaultContamination)
	require.NoError(t, err)

	anomaly, err := local.IsAnomaly(context.Background(), 10)
	require.NoError(t, err)
	assert.False(t, anomaly)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"uber", "ride", "airport", "42"}, tokenize("Uber ride to the AIRPORT #42!"))
	assert.Empty(t, tokenize("a of the"))
}

func TestParseDataset(t *testing.T) {
	input := "Category,Amount,Description\nTravel, 12.50 ,Taxi\nUtilities,80,\"Power, monthly\"\n"

	records, err := ParseDataset(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []Record{
		{Description: "Taxi", Amount: 12.5, Category: "Travel"},
		{Description: "Power, monthly", Amount: 80, Category: "Utilities"},
	}, records)
}

func TestParseDataset_Errors(t *testing.T) {
	tests := map[string]string{
		"empty":            "",
		"missing column":   "date,description,amount\n2024-01-01,Taxi,12\n",
		"bad amount":       "description,amount,category\nTaxi,twelve,Travel\n",
		"missing category": "description,amount,category\nTaxi,12,\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDataset(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func TestLoadDataset(t *testing.T) {
	records, err := LoadDataset("")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(records), 10)
	for _, r := range records {
		assert.NotEmpty(t, r.Date)
		assert.NotEmpty(t, r.Category)
	}

	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("date,description,amount,category\n2024-03-01,Taxi,9.5,Travel\n"), 0644))
	records, err = LoadDataset(path)
	require.NoError(t, err)
	assert.Equal(t, []Record{{Date: "2024-03-01", Description: "Taxi", Amount: 9.5, Category: "Travel"}}, records)

	_, err = LoadDataset(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestLocal_TrainsOnBundledData(t *testing.T) {
	records, err := LoadDataset("")
	require.NoError(t, err)
	local, err := NewLocal(records, DefaultContamination)
	require.NoError(t, err)

	p, err := local.Predict(context.Background(), "Uber to the airport")
	require.NoError(t, err)
	assert.Equal(t, "Travel", p.Category)
}

// countingService counts Predict calls and can block them until released.
type countingService struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func (s *countingService) Available() bool { return true }

func (s *countingService) Predict(ctx context.Context, description string) (Prediction, error) {
	s.calls.Add(1)
	if s.release != nil {
		<-s.release
	}
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}
	if s.err != nil {
		return Prediction{}, s.err
	}
	return Prediction{Category: "Travel", Confidence: 0.75}, nil
}

func (s *countingService) IsAnomaly(ctx context.Context, amount float64) (bool, error) {
	return amount > 1000, nil
}

func (s *countingService) ScoreAmounts(ctx context.Context, amounts []float64) ([]bool, error) {
	return make([]bool, len(amounts)), nil
}

func newTestCache(t *testing.T) *db.PredictionCache {
	t.Helper()
	cache, err := db.NewPredictionCache(100)
	require.NoError(t, err)
	t.Cleanup(cache.Close)
	return cache
}

func TestCached_ReusesPredictionsByNormalizedDescription(t *testing.T) {
	next := &countingService{}
	cache := newTestCache(t)
	cached := NewCached(next, cache)
	ctx := context.Background()

	p, err := cached.Predict(ctx, "Uber  Ride")
	require.NoError(t, err)
	assert.Equal(t, Prediction{Category: "Travel", Confidence: 0.75}, p)
	cache.Wait()

	p, err = cached.Predict(ctx, " uber ride ")
	require.NoError(t, err)
	assert.Equal(t, "Travel", p.Category)
	assert.Equal(t, int32(1), next.calls.Load())

	cached.Clear()
	_, err = cached.Predict(ctx, "uber ride")
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestCached_CollapsesConcurrentLookups(t *testing.T) {
	next := &countingService{release: make(chan struct{})}
	cached := NewCached(next, newTestCache(t))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := cached.Predict(context.Background(), "hotel")
			assert.NoError(t, err)
			assert.Equal(t, "Travel", p.Category)
		}()
	}

	// Let the first caller in before releasing it.
	require.Eventually(t, func() bool { return next.calls.Load() >= 1 }, time.Second, time.Millisecond)
	close(next.release)
	wg.Wait()

	assert.LessOrEqual(t, next.calls.Load(), int32(10))
	assert.GreaterOrEqual(t, next.calls.Load(), int32(1))
}

func TestCached_CancelledCallerDoesNotFailSharedLookup(t *testing.T) {
	next := &countingService{release: make(chan struct{})}
	cached := NewCached(next, newTestCache(t))

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := cached.Predict(ctx, "hotel")
		first <- err
	}()
	require.Eventually(t, func() bool { return next.calls.Load() == 1 }, time.Second, time.Millisecond)

	second := make(chan Prediction, 1)
	go func() {
		p, err := cached.Predict(context.Background(), "hotel")
		assert.NoError(t, err)
		second <- p
	}()

	cancel()
	close(next.release)

	assert.NoError(t, <-first)
	assert.Equal(t, "Travel", (<-second).Category)
	assert.LessOrEqual(t, next.calls.Load(), int32(2))
}

func TestCached_DoesNotCacheErrors(t *testing.T) {
	boom := errors.New("boom")
	next := &countingService{err: boom}
	cache := newTestCache(t)
	cached := NewCached(next, cache)

	_, err := cached.Predict(context.Background(), "hotel")
	assert.ErrorIs(t, err, boom)
	cache.Wait()
	_, err = cached.Predict(context.Background(), "hotel")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestCached_DelegatesAnomalies(t *testing.T) {
	cached := NewCached(&countingService{}, newTestCache(t))
	assert.True(t, cached.Available())

	anomaly, err := cached.IsAnomaly(context.Background(), 5000)
	require.NoError(t, err)
	assert.True(t, anomaly)

	cachedDown := NewCached(Unavailable(), newTestCache(t))
	assert.False(t, cachedDown.Available())
}
