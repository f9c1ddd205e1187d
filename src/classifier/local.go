package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode"
)

const DefaultContamination = 0.2

// Local is a Service trained in-process from labelled records: a
// multinomial naive Bayes model over description tokens and a median
// absolute deviation detector over amounts.
type Local struct {
	model    *naiveBayes
	detector *amountDetector
}

// NewLocal trains both models. contamination is the expected share of
// outliers in the training amounts and must lie in (0, 0.5).
func NewLocal(records []Record, contamination float64) (*Local, error) {
	if len(records) == 0 {
		return nil, errors.New("no training records")
	}
	if contamination <= 0 || contamination >= 0.5 {
		return nil, fmt.Errorf("contamination must be in (0, 0.5), got %v", contamination)
	}

	amounts := make([]float64, len(records))
	for i, r := range records {
		amounts[i] = r.Amount
	}
	return &Local{
		model:    trainNaiveBayes(records),
		detector: fitAmountDetector(amounts, contamination),
	}, nil
}

func (l *Local) Available() bool {
	return true
}

// Classes returns the known categories in sorted order.
func (l *Local) Classes() []string {
	return slices.Clone(l.model.classes)
}

func (l *Local) Predict(ctx context.Context, description string) (Prediction, error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}
	return l.model.predict(description), nil
}

func (l *Local) IsAnomaly(ctx context.Context, amount float64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return l.detector.isAnomaly(amount), nil
}

func (l *Local) ScoreAmounts(ctx context.Context, amounts []float64) ([]bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	flags := make([]bool, len(amounts))
	for i, amount := range amounts {
		flags[i] = l.detector.isAnomaly(amount)
	}
	return flags, nil
}

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "at": {}, "by": {}, "for": {}, "from": {},
	"in": {}, "of": {}, "on": {}, "or": {}, "the": {}, "to": {}, "with": {},
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

type naiveBayes struct {
	classes     []string
	logPrior    map[string]float64
	tokenCounts map[string]map[string]int
	tokenTotals map[string]int
	vocabulary  map[string]struct{}
}

func trainNaiveBayes(records []Record) *naiveBayes {
	nb := &naiveBayes{
		logPrior:    make(map[string]float64),
		tokenCounts: make(map[string]map[string]int),
		tokenTotals: make(map[string]int),
		vocabulary:  make(map[string]struct{}),
	}

	docs := make(map[string]int)
	for _, r := range records {
		docs[r.Category]++
		counts, ok := nb.tokenCounts[r.Category]
		if !ok {
			counts = make(map[string]int)
			nb.tokenCounts[r.Category] = counts
		}
		for _, tok := range tokenize(r.Description) {
			counts[tok]++
			nb.tokenTotals[r.Category]++
			nb.vocabulary[tok] = struct{}{}
		}
	}

	for class, n := range docs {
		nb.classes = append(nb.classes, class)
		nb.logPrior[class] = math.Log(float64(n) / float64(len(records)))
	}
	slices.Sort(nb.classes)
	return nb
}

// predict returns the class with the highest posterior. Ties go to the class
// that sorts first. Tokens never seen in training are ignored.
func (nb *naiveBayes) predict(description string) Prediction {
	tokens := tokenize(description)
	vocab := float64(len(nb.vocabulary))

	scores := make([]float64, len(nb.classes))
	for i, class := range nb.classes {
		score := nb.logPrior[class]
		denom := float64(nb.tokenTotals[class]) + vocab
		for _, tok := range tokens {
			if _, known := nb.vocabulary[tok]; !known {
				continue
			}
			score += math.Log((float64(nb.tokenCounts[class][tok]) + 1) / denom)
		}
		scores[i] = score
	}

	best := 0
	for i := range scores {
		if scores[i] > scores[best] {
			best = i
		}
	}

	var sum float64
	for _, s := range scores {
		sum += math.Exp(s - scores[best])
	}
	return Prediction{Category: nb.classes[best], Confidence: 1 / sum}
}

type amountDetector struct {
	median    float64
	scale     float64
	threshold float64
}

func fitAmountDetector(amounts []float64, contamination float64) *amountDetector {
	center := median(amounts)
	deviations := make([]float64, len(amounts))
	for i, a := range amounts {
		deviations[i] = math.Abs(a - center)
	}

	scale := median(deviations)
	if scale == 0 {
		scale = mean(deviations)
	}
	if scale == 0 {
		scale = 1
	}

	d := &amountDetector{median: center, scale: scale}
	scores := make([]float64, len(amounts))
	for i, a := range amounts {
		scores[i] = d.score(a)
	}
	slices.Sort(scores)

	// Nearest-rank quantile; the epsilon keeps 0.8*10 from rounding up to 9.
	rank := int(math.Ceil((1-contamination)*float64(len(scores))-1e-9)) - 1
	rank = max(0, min(rank, len(scores)-1))
	d.threshold = scores[rank]
	return d
}

func (d *amountDetector) score(amount float64) float64 {
	return math.Abs(amount-d.median) / d.scale
}

func (d *amountDetector) isAnomaly(amount float64) bool {
	return d.score(amount) > d.threshold
}

func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
