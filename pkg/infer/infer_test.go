package infer

import (
	"fmt"
	"testing"
	"time"

	"github.com/framecheck-labs/framecheck/pkg/contract"
	"github.com/framecheck-labs/framecheck/pkg/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferLowCardinalityGetsEnum(t *testing.T) {
	ds := dataset.MustNew(dataset.Strings("tag", []string{"a", "b", "a", "b"}, nil))

	res, err := Infer(ds, Options{})
	require.NoError(t, err)

	col := res.Contract.Column("tag")
	require.NotNil(t, col)
	require.Len(t, col.Rules, 1)
	assert.Equal(t, contract.EnumRule, col.Rules[0].Kind)
	assert.Equal(t, []string{"a", "b"}, col.Rules[0].Enum.Values)
	assert.False(t, col.Nullable)
}

func TestInferHighCardinalityGetsNoEnum(t *testing.T) {
	n := 10000
	vals := make([]string, n)
	for i := range vals {
		vals[i] = fmt.Sprintf("user-%06d", i)
	}
	ds := dataset.MustNew(dataset.Strings("user", vals, nil))

	res, err := Infer(ds, Options{})
	require.NoError(t, err)

	for _, r := range res.Contract.Column("user").Rules {
		assert.NotEqual(t, contract.EnumRule, r.Kind)
	}
}

func TestInferNumericBoundsCarrySlack(t *testing.T) {
	ds := dataset.MustNew(dataset.Floats("amount", []float64{10, 20, 500}, nil))

	res, err := Infer(ds, Options{})
	require.NoError(t, err)

	col := res.Contract.Column("amount")
	var rng *contract.Rule
	for i := range col.Rules {
		if col.Rules[i].Kind == contract.RangeRule {
			rng = &col.Rules[i]
		}
	}
	require.NotNil(t, rng)
	// Slack is max(1, 1% of range 490) = 4.9, clamped at zero below.
	assert.InDelta(t, 5.1, *rng.Range.Min, 1e-9)
	assert.InDelta(t, 504.9, *rng.Range.Max, 1e-9)
}

func TestInferNonNegativeSampleKeepsZeroFloor(t *testing.T) {
	ds := dataset.MustNew(dataset.Ints("count", []int64{0, 1, 2}, nil))

	res, err := Infer(ds, Options{})
	require.NoError(t, err)

	rng := res.Contract.Column("count").Rules[0]
	assert.Equal(t, 0.0, *rng.Range.Min)
}

func TestInferNullableIffNullsObserved(t *testing.T) {
	ds := dataset.MustNew(
		dataset.Floats("clean", []float64{1, 2}, nil),
		dataset.Floats("holey", []float64{1, 0}, []bool{false, true}),
	)

	res, err := Infer(ds, Options{})
	require.NoError(t, err)

	assert.False(t, res.Contract.Column("clean").Nullable)
	assert.True(t, res.Contract.Column("holey").Nullable)
}

func TestInferDetectsUniqueColumn(t *testing.T) {
	ds := dataset.MustNew(dataset.Ints("id", []int64{1, 2, 3}, nil))

	res, err := Infer(ds, Options{})
	require.NoError(t, err)

	var kinds []contract.RuleKind
	for _, r := range res.Contract.Column("id").Rules {
		kinds = append(kinds, r.Kind)
	}
	assert.Contains(t, kinds, contract.UniquenessRule)
}

func TestInferIntervalPair(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	ds := dataset.MustNew(
		dataset.Times("start_at", []time.Time{base, base.Add(time.Hour)}, nil),
		dataset.Times("end_at", []time.Time{base.Add(time.Hour), base.Add(2 * time.Hour)}, nil),
	)

	res, err := Infer(ds, Options{})
	require.NoError(t, err)

	require.Len(t, res.Contract.TableRules, 1)
	tr := res.Contract.TableRules[0]
	assert.Equal(t, contract.CrossColumnRule, tr.Kind)
	assert.Equal(t, contract.CheckStartLeEnd, tr.CrossColumn.Check)
	assert.Equal(t, "start_at", tr.CrossColumn.Start)
	assert.Equal(t, "end_at", tr.CrossColumn.End)
}

func TestInferIsDeterministic(t *testing.T) {
	ds := dataset.MustNew(
		dataset.Ints("id", []int64{3, 1, 2}, nil),
		dataset.Strings("tag", []string{"b", "a", "b"}, nil),
	)

	a, err := Infer(ds, Options{})
	require.NoError(t, err)
	b, err := Infer(ds, Options{})
	require.NoError(t, err)

	assert.True(t, a.Contract.Equal(b.Contract))
	assert.Equal(t, a.Suggestions, b.Suggestions)
}

func TestInferredContractValidatesItsOwnSample(t *testing.T) {
	ds := dataset.MustNew(
		dataset.Ints("id", []int64{1, 2, 3}, nil),
		dataset.Floats("amount", []float64{5, 10, 20}, nil),
		dataset.Strings("status", []string{"new", "paid", "new"}, nil),
	)

	res, err := Infer(ds, Options{})
	require.NoError(t, err)
	require.NoError(t, res.Contract.Validate())
}
