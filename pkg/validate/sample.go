package validate

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/framecheck-labs/framecheck/pkg/dataset"
)

// nullGroupKey stands in for null values when grouping, so null-keyed rows
// form their own stratum instead of being dropped.
const nullGroupKey = "<null>"

// sampleIndices draws a reproducible random subset of row indices. With a
// by column the fraction is drawn independently within each group (minimum
// one row per non-empty group), preserving group proportions. Indices are
// returned sorted ascending so the sampled view keeps the dataset's row
// order.
func sampleIndices(ds dataset.Dataset, fraction float64, by string, seed int64) ([]int, error) {
	rng := rand.New(rand.NewSource(seed))
	n := ds.RowCount()
	if by == "" {
		k := int(math.Round(fraction * float64(n)))
		if k >= n {
			k = n
		}
		indices := rng.Perm(n)[:k]
		sort.Ints(indices)
		return indices, nil
	}

	col, ok := ds.Column(by)
	if !ok {
		return nil, fmt.Errorf("sampling column %q missing from dataset", by)
	}
	// Groups in first-occurrence order keep the rng consumption sequence,
	// and therefore the draw, deterministic.
	var order []string
	groups := make(map[string][]int)
	for i := 0; i < n; i++ {
		key := nullGroupKey
		if s, ok := col.String(i); ok {
			key = s
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	var indices []int
	for _, key := range order {
		rows := groups[key]
		k := int(math.Round(fraction * float64(len(rows))))
		if k < 1 {
			k = 1
		}
		if k > len(rows) {
			k = len(rows)
		}
		for _, pick := range rng.Perm(len(rows))[:k] {
			indices = append(indices, rows[pick])
		}
	}
	sort.Ints(indices)
	return indices, nil
}

// groupIndices partitions all rows by the values of column by, in
// first-occurrence order. Used by group-aware table rules.
func groupIndices(ds dataset.Dataset, by string) ([]string, map[string][]int, bool) {
	col, ok := ds.Column(by)
	if !ok {
		return nil, nil, false
	}
	var order []string
	groups := make(map[string][]int)
	for i := 0; i < ds.RowCount(); i++ {
		key := nullGroupKey
		if s, ok := col.String(i); ok {
			key = s
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}
	return order, groups, true
}
