// Package snapshot computes compact statistical fingerprints of tabular
// datasets: per-column null ratios, cardinalities, quantile sketches for
// ordered types and top-K category frequencies for the rest.
//
// Snapshots are immutable value objects. A snapshot records the algorithm
// identifier it was computed with; comparing snapshots produced by different
// algorithms is refused rather than silently producing nonsense.
package snapshot

import (
	"fmt"
	"sort"
	"time"

	"github.com/framecheck-labs/framecheck/pkg/contract"
	"github.com/framecheck-labs/framecheck/pkg/dataset"
)

// Algorithm identifies the quantile/cardinality computation this package
// implements: exact order statistics with linear interpolation, exact
// distinct counts. Bump the suffix when the math changes.
const Algorithm = "exact/linear-v1"

// Probability points of the quantile sketch, fixed per algorithm version.
var quantilePoints = []float64{0, 0.25, 0.5, 0.75, 1}

// TopK is the number of category frequencies retained per textual column.
const TopK = 20

// QuantilePoint is one (probability, value) pair of the sketch.
type QuantilePoint struct {
	P     float64 `json:"p" yaml:"p"`
	Value float64 `json:"value" yaml:"value"`
}

// ValueFreq is one retained category and its frequency among non-null values.
type ValueFreq struct {
	Value string  `json:"value" yaml:"value"`
	Ratio float64 `json:"ratio" yaml:"ratio"`
}

// ColumnStats is the fingerprint of a single column. Quantiles is populated
// for ordered dtypes, TopValues for the rest; never both.
type ColumnStats struct {
	Name          string          `json:"name" yaml:"name"`
	DType         contract.DType  `json:"dtype" yaml:"dtype"`
	NullRatio     float64         `json:"null_ratio" yaml:"null_ratio"`
	DistinctCount int             `json:"distinct_count" yaml:"distinct_count"`
	Mean          float64         `json:"mean,omitempty" yaml:"mean,omitempty"`
	Quantiles     []QuantilePoint `json:"quantiles,omitempty" yaml:"quantiles,omitempty"`
	TopValues     []ValueFreq     `json:"top_values,omitempty" yaml:"top_values,omitempty"`
}

// Snapshot is a dataset fingerprint at a point in time.
type Snapshot struct {
	Algorithm string        `json:"algorithm" yaml:"algorithm"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`
	RowCount  int           `json:"row_count" yaml:"row_count"`
	Columns   []ColumnStats `json:"columns" yaml:"columns"`
}

// Column returns the stats for name, or nil.
func (s *Snapshot) Column(name string) *ColumnStats {
	for i := range s.Columns {
		if s.Columns[i].Name == name {
			return &s.Columns[i]
		}
	}
	return nil
}

// ColumnNames returns fingerprinted column names in dataset order.
func (s *Snapshot) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Take fingerprints ds in a single pass per column. Identical datasets always
// produce identical snapshots apart from CreatedAt.
func Take(ds dataset.Dataset) *Snapshot {
	snap := &Snapshot{
		Algorithm: Algorithm,
		CreatedAt: time.Now().UTC(),
		RowCount:  ds.RowCount(),
	}
	for _, name := range ds.ColumnNames() {
		col, ok := ds.Column(name)
		if !ok {
			continue
		}
		snap.Columns = append(snap.Columns, columnStats(col))
	}
	return snap
}

func columnStats(col dataset.Column) ColumnStats {
	stats := ColumnStats{
		Name:          col.Name(),
		DType:         col.DType(),
		NullRatio:     dataset.NullRatio(col),
		DistinctCount: dataset.DistinctCount(col),
	}
	if col.DType().Ordered() {
		values := make([]float64, 0, col.Len())
		sum := 0.0
		for i := 0; i < col.Len(); i++ {
			if v, ok := col.Float(i); ok {
				values = append(values, v)
				sum += v
			}
		}
		if len(values) > 0 {
			stats.Mean = sum / float64(len(values))
			stats.Quantiles = sketch(values)
		}
		return stats
	}
	stats.TopValues = topValues(col, TopK)
	return stats
}

// topValues returns the k most frequent non-null values with their ratios,
// ordered by descending frequency and then by value for determinism.
func topValues(col dataset.Column, k int) []ValueFreq {
	counts := make(map[string]int)
	total := 0
	for i := 0; i < col.Len(); i++ {
		if s, ok := col.String(i); ok {
			counts[s]++
			total++
		}
	}
	if total == 0 {
		return nil
	}
	out := make([]ValueFreq, 0, len(counts))
	for value, n := range counts {
		out = append(out, ValueFreq{Value: value, Ratio: float64(n) / float64(total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Ratio != out[j].Ratio {
			return out[i].Ratio > out[j].Ratio
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// IncompatibleSnapshotError reports a snapshot comparison that cannot
// proceed: the two sides were produced by different algorithms.
type IncompatibleSnapshotError struct {
	OldAlgorithm string
	NewAlgorithm string
}

func (e *IncompatibleSnapshotError) Error() string {
	return fmt.Sprintf("snapshots are not comparable: algorithm %q vs %q", e.OldAlgorithm, e.NewAlgorithm)
}
