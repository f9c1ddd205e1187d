package classifier

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

//go:embed data/sample_data.csv
var defaultSampleData []byte

// Record is one labelled row of the sample data set.
type Record struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
}

// LoadDataset reads the CSV at path, or the bundled sample set when path is
// empty.
func LoadDataset(path string) ([]Record, error) {
	if path == "" {
		return ParseDataset(bytes.NewReader(defaultSampleData))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sample data: %w", err)
	}
	defer f.Close()
	return ParseDataset(f)
}

// ParseDataset reads CSV with a header row. Columns are matched by name;
// description, amount and category are required, date is optional.
func ParseDataset(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("sample data is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sample data header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"description", "amount", "category"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("sample data missing column: %s", required)
		}
	}
	dateCol, hasDate := columns["date"]

	var records []Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read sample data: %w", err)
		}
		line, _ := reader.FieldPos(0)

		amount, err := strconv.ParseFloat(strings.TrimSpace(row[columns["amount"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid amount %q", line, row[columns["amount"]])
		}
		record := Record{
			Description: row[columns["description"]],
			Amount:      amount,
			Category:    strings.TrimSpace(row[columns["category"]]),
		}
		if hasDate {
			record.Date = row[dateCol]
		}
		if record.Category == "" {
			return nil, fmt.Errorf("line %d: missing category", line)
		}
		records = append(records, record)
	}
	return records, nil
}
