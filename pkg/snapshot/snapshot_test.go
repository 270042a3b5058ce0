package snapshot

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/framecheck-labs/framecheck/pkg/contract"
	"github.com/framecheck-labs/framecheck/pkg/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTakeOrderedColumn(t *testing.T) {
	ds := dataset.MustNew(
		dataset.Floats("amount", []float64{4, 1, 3, 2, 0}, []bool{false, false, false, false, true}),
	)
	snap := Take(ds)

	require.Equal(t, Algorithm, snap.Algorithm)
	assert.Equal(t, 5, snap.RowCount)

	cs := snap.Column("amount")
	require.NotNil(t, cs)
	assert.InDelta(t, 0.2, cs.NullRatio, 1e-9)
	assert.Equal(t, 4, cs.DistinctCount)
	assert.InDelta(t, 2.5, cs.Mean, 1e-9)
	assert.Empty(t, cs.TopValues)

	// Exact order statistics with linear interpolation over {1,2,3,4}.
	require.Len(t, cs.Quantiles, 5)
	assert.Equal(t, 0.0, cs.Quantiles[0].P)
	assert.InDelta(t, 1.0, cs.Quantiles[0].Value, 1e-9)
	assert.InDelta(t, 1.75, cs.Quantiles[1].Value, 1e-9)
	assert.InDelta(t, 2.5, cs.Quantiles[2].Value, 1e-9)
	assert.InDelta(t, 3.25, cs.Quantiles[3].Value, 1e-9)
	assert.InDelta(t, 4.0, cs.Quantiles[4].Value, 1e-9)
}

func TestTakeTextualColumnKeepsTopValues(t *testing.T) {
	ds := dataset.MustNew(
		dataset.Categories("status", []string{"open", "open", "closed", "shipped", "open"}, nil),
	)
	cs := Take(ds).Column("status")
	require.NotNil(t, cs)
	assert.Equal(t, contract.Categorical, cs.DType)
	assert.Empty(t, cs.Quantiles)

	require.Len(t, cs.TopValues, 3)
	assert.Equal(t, "open", cs.TopValues[0].Value)
	assert.InDelta(t, 0.6, cs.TopValues[0].Ratio, 1e-9)
	// Frequency ties break on the value, keeping snapshots deterministic.
	assert.Equal(t, "closed", cs.TopValues[1].Value)
	assert.Equal(t, "shipped", cs.TopValues[2].Value)
}

func TestTakeCapsTopValues(t *testing.T) {
	values := make([]string, 100)
	for i := range values {
		values[i] = string(rune('a' + i%26))
	}
	cs := Take(dataset.MustNew(dataset.Strings("s", values, nil))).Column("s")
	require.NotNil(t, cs)
	assert.Len(t, cs.TopValues, TopK)
}

func TestTakeIsDeterministicUpToCreatedAt(t *testing.T) {
	ds := dataset.MustNew(
		dataset.Ints("id", []int64{3, 1, 2}, nil),
		dataset.Strings("s", []string{"x", "y", "x"}, nil),
	)
	a, b := Take(ds), Take(ds)
	a.CreatedAt = b.CreatedAt
	assert.Equal(t, a, b)
}

func TestQuantileSingleValue(t *testing.T) {
	points := sketch([]float64{7})
	for _, q := range points {
		assert.Equal(t, 7.0, q.Value)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ds := dataset.MustNew(
		dataset.Floats("amount", []float64{1, 2, 3}, nil),
		dataset.Strings("status", []string{"a", "b", "a"}, nil),
	)
	snap := Take(ds)

	for _, name := range []string{"snap.json", "snap.yaml"} {
		path := filepath.Join(t.TempDir(), name)
		require.NoError(t, Save(snap, path))

		back, err := Load(path)
		require.NoError(t, err, name)
		assert.Equal(t, snap.Algorithm, back.Algorithm)
		assert.Equal(t, snap.RowCount, back.RowCount)
		assert.Empty(t, cmp.Diff(snap.Columns, back.Columns), name)
	}
}

func TestUnmarshalRejectsMissingAlgorithm(t *testing.T) {
	_, err := Unmarshal([]byte(`{"row_count": 3, "columns": []}`), contract.FormatJSON)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "algorithm")
}

func TestColumnLookup(t *testing.T) {
	snap := Take(dataset.MustNew(dataset.Ints("id", []int64{1}, nil)))
	assert.NotNil(t, snap.Column("id"))
	assert.Nil(t, snap.Column("missing"))
	assert.Equal(t, []string{"id"}, snap.ColumnNames())
}
