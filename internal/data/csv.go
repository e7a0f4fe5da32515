package data

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// LoadCSV reads a dataset from a CSV file where each row holds the
// integer class label followed by the feature values.
//
// All rows must have the same number of columns. Labels are one-hot
// encoded over numClasses.
func LoadCSV(path string, numClasses int) (*Dataset, error) {
	if numClasses <= 0 {
		return nil, fmt.Errorf("csv: numClasses %d must be positive", numClasses)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("csv: %s is empty", path)
	}

	numFeatures := len(rows[0]) - 1
	if numFeatures <= 0 {
		return nil, fmt.Errorf("csv: rows need a label and at least one feature, got %d columns", len(rows[0]))
	}

	inputs := make([]float32, 0, len(rows)*numFeatures)
	labels := make([]float32, len(rows)*numClasses)
	for i, row := range rows {
		if len(row) != numFeatures+1 {
			return nil, fmt.Errorf("csv: row %d has %d columns, want %d", i, len(row), numFeatures+1)
		}

		label, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("csv: row %d: bad label %q: %w", i, row[0], err)
		}
		if label < 0 || label >= numClasses {
			return nil, fmt.Errorf("csv: row %d: label %d out of range [0, %d)", i, label, numClasses)
		}
		labels[i*numClasses+label] = 1

		for j, field := range row[1:] {
			v, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, fmt.Errorf("csv: row %d, column %d: %w", i, j+1, err)
			}
			inputs = append(inputs, float32(v))
		}
	}

	return NewDataset(inputs, labels, len(rows), numFeatures, numClasses)
}
