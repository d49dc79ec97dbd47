// Package csvsource reads id lists and category lists from CSV exports.
package csvsource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrColumnNotFound is returned when the header has no column of the requested name.
var ErrColumnNotFound = errors.New("column not found")

// ReadColumn returns the non-blank values of column in row order.
func ReadColumn(r io.Reader, column string) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %q (empty file)", ErrColumnNotFound, column)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := -1
	for i, name := range header {
		if strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF")) == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}

	var values []string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if idx >= len(rec) {
			continue
		}
		if v := strings.TrimSpace(rec[idx]); v != "" {
			values = append(values, v)
		}
	}
	return values, nil
}

// LoadIDs reads the external ids from column of the file at path.
func LoadIDs(path, column string) ([]string, error) {
	return loadColumn(path, column)
}

// LoadCategories reads column of the file at path, keeping the first
// occurrence of each category.
func LoadCategories(path, column string) ([]string, error) {
	values, err := loadColumn(path, column)
	if err != nil {
		return nil, err
	}
	return Unique(values), nil
}

// Unique drops repeated values, keeping first-seen order.
func Unique(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func loadColumn(path, column string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	values, err := ReadColumn(f, column)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return values, nil
}
