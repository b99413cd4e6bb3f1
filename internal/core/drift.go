package core

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"gonum.org/v1/gonum/stat"
)

type ColumnDrift struct {
	Column    string
	Statistic float64
	Drifted   bool
}

// KSDriftDetector compares the distribution of each numeric column shared
// by two tables with the two sample Kolmogorov-Smirnov statistic.
type KSDriftDetector struct {
	params DriftParams
}

func NewKSDriftDetector(params DriftParams) *KSDriftDetector {
	return &KSDriftDetector{params: params}
}

func (d *KSDriftDetector) DetectDrift(reference, current *Table) (bool, error) {
	report, err := d.Compare(reference, current)
	if err != nil {
		return false, err
	}

	drifted := 0
	for _, col := range report {
		if col.Drifted {
			drifted++
		}
	}

	slog.Info("drift check complete", "columns", len(report), "drifted_columns", drifted, "min_drifted_columns", d.params.MinDriftedColumns)

	return drifted >= d.params.MinDriftedColumns, nil
}

// Compare computes the per column statistics in reference column order.
func (d *KSDriftDetector) Compare(reference, current *Table) ([]ColumnDrift, error) {
	currentNumeric := current.NumericColumns()

	var report []ColumnDrift
	for _, col := range reference.NumericColumns() {
		if slices.Contains(d.params.IgnoreColumns, col) || !slices.Contains(currentNumeric, col) {
			continue
		}

		x, err := reference.Observed(col)
		if err != nil {
			return nil, fmt.Errorf("error reading reference column: %w", err)
		}
		y, err := current.Observed(col)
		if err != nil {
			return nil, fmt.Errorf("error reading current column: %w", err)
		}

		sort.Float64s(x)
		sort.Float64s(y)
		statistic := stat.KolmogorovSmirnov(x, nil, y, nil)

		report = append(report, ColumnDrift{
			Column:    col,
			Statistic: statistic,
			Drifted:   statistic > d.params.KSThreshold,
		})
	}

	if len(report) == 0 {
		return nil, fmt.Errorf("datasets share no numeric columns to compare")
	}

	return report, nil
}
