// Package dataset loads and cleans the encoded heart disease CSV used
// for training and for the age-group comparison statistics.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"

	"heartguard/schema"
)

// Set is a parsed dataset: feature rows in schema column order plus the
// binary target.
type Set struct {
	Features [][]float64
	Labels   []int
}

// RowIssue records a rejected CSV row and why it was dropped.
type RowIssue struct {
	Line   int
	Reason string
}

// LoadCSV reads the dataset, validating the header against the feature
// schema and every row against each feature's domain. Bad rows are
// dropped and reported, not silently corrected.
func LoadCSV(path string) (*Set, []RowIssue, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	if err := validateHeader(header); err != nil {
		return nil, nil, err
	}
	// a short or long row must reach the length check below as a
	// reportable issue, not abort the loop
	reader.FieldsPerRecord = -1

	specs := schema.Specs()
	set := &Set{}
	var issues []RowIssue

	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				issues = append(issues, RowIssue{Line: parseErr.Line, Reason: "malformed row"})
				continue
			}
			return nil, issues, fmt.Errorf("read row %d: %w", line, err)
		}
		if len(record) != len(specs)+1 {
			issues = append(issues, RowIssue{Line: line, Reason: "wrong column count"})
			continue
		}

		row := make([]float64, len(specs))
		ok := true
		for i, spec := range specs {
			value, err := strconv.ParseFloat(record[i], 64)
			if err != nil {
				issues = append(issues, RowIssue{Line: line, Reason: fmt.Sprintf("%s: not a number", spec.Name)})
				ok = false
				break
			}
			if !inDomain(spec, value) {
				issues = append(issues, RowIssue{Line: line, Reason: fmt.Sprintf("%s: %g outside domain", spec.Name, value)})
				ok = false
				break
			}
			row[i] = value
		}
		if !ok {
			continue
		}

		target, err := strconv.Atoi(record[len(specs)])
		if err != nil || (target != 0 && target != 1) {
			issues = append(issues, RowIssue{Line: line, Reason: "target must be 0 or 1"})
			continue
		}

		set.Features = append(set.Features, row)
		set.Labels = append(set.Labels, target)
	}

	if len(set.Features) == 0 {
		return nil, issues, fmt.Errorf("no usable rows in %s", path)
	}
	return set, issues, nil
}

func validateHeader(header []string) error {
	names := schema.FeatureNames()
	if len(header) != len(names)+1 {
		return fmt.Errorf("header has %d columns, want %d", len(header), len(names)+1)
	}
	for i, name := range names {
		if header[i] != name {
			return fmt.Errorf("column %d is %q, want %q", i, header[i], name)
		}
	}
	if header[len(names)] != "target" {
		return fmt.Errorf("last column is %q, want \"target\"", header[len(names)])
	}
	return nil
}

// inDomain checks an encoded value against the feature's domain:
// continuous range for numeric features, valid codes for the rest.
func inDomain(spec schema.FeatureSpec, value float64) bool {
	if spec.Kind == schema.Continuous {
		return value >= spec.Min && value <= spec.Max
	}
	for _, code := range spec.Codes {
		if code == value {
			return true
		}
	}
	return false
}

// Split shuffles the set and carves off a test fraction.
func Split(set *Set, testRatio float64, seed int64) (train, test *Set) {
	if testRatio <= 0 || testRatio >= 1 {
		testRatio = 0.2
	}
	rng := rand.New(rand.NewSource(seed))
	indices := rng.Perm(len(set.Features))

	split := int(float64(len(set.Features)) * (1 - testRatio))
	train = &Set{}
	test = &Set{}
	for i, idx := range indices {
		if i < split {
			train.Features = append(train.Features, set.Features[idx])
			train.Labels = append(train.Labels, set.Labels[idx])
		} else {
			test.Features = append(test.Features, set.Features[idx])
			test.Labels = append(test.Labels, set.Labels[idx])
		}
	}
	return train, test
}
