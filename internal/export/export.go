// Package export writes the store snapshot to disk as JSON and CSV
// files. Filenames are timestamped so repeated backups never clobber
// each other.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"finguard/internal/core"
	"finguard/internal/engine"
)

// csvHeader matches the layout accepted by common spreadsheet imports.
var csvHeader = []string{"Date", "Type", "Category", "Amount", "Note"}

// ToJSON writes the full snapshot as an indented JSON document and
// returns the absolute path of the created file.
func ToJSON(snap engine.StoreSnapshot, baseFilename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(baseFilename, outputDir, "json")
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(snap); err != nil {
		return "", fmt.Errorf("error encoding JSON data: %w", err)
	}

	return filepath.Abs(outputFilename)
}

// TransactionsToCSV writes the transaction list as a CSV file and
// returns the absolute path of the created file.
func TransactionsToCSV(txns []core.Transaction, baseFilename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(baseFilename, outputDir, "csv")
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(csvHeader); err != nil {
		return "", fmt.Errorf("error writing CSV header: %w", err)
	}
	for _, t := range txns {
		record := TransactionRecord(t)
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("error writing CSV record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("error flushing CSV data: %w", err)
	}

	return filepath.Abs(outputFilename)
}

// TransactionRecord converts one transaction to its CSV row. The csv
// writer handles quoting, so notes with commas survive a round trip.
func TransactionRecord(t core.Transaction) []string {
	return []string{
		t.Date.String(),
		string(t.Type),
		t.Category,
		strconv.FormatFloat(t.Amount, 'f', -1, 64),
		t.Note,
	}
}

// Header returns a copy of the CSV header row.
func Header() []string {
	return append([]string(nil), csvHeader...)
}

// generateFilename builds a unique timestamped filename and makes sure
// the output directory exists.
func generateFilename(base, dir, ext string) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("could not get current working directory: %w", err)
		}
		dir = cwd
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("error creating output directory '%s': %w", dir, err)
	}
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s.%s", base, timestamp, ext)
	return filepath.Join(dir, filename), nil
}
