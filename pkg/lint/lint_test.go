package lint

import (
	"testing"

	"github.com/framecheck-labs/framecheck/pkg/contract"
	"github.com/framecheck-labs/framecheck/pkg/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func suggestionFor(t *testing.T, res *Result, check string) *Suggestion {
	t.Helper()
	for i := range res.Suggestions {
		if res.Suggestions[i].Check == check {
			return &res.Suggestions[i]
		}
	}
	t.Fatalf("no %s suggestion", check)
	return nil
}

func TestCheckFlagsDuplicateRules(t *testing.T) {
	c := &contract.Contract{
		Name: "orders", Version: "1.0.0",
		Columns: []contract.ColumnSpec{{
			Name: "amount", DType: contract.Float,
			Rules: []contract.Rule{
				{ID: "amount.range", Kind: contract.RangeRule, Severity: contract.SeverityError,
					Range: &contract.RangeParams{Min: fp(0)}},
				{ID: "amount.range2", Kind: contract.RangeRule, Severity: contract.SeverityError,
					Range: &contract.RangeParams{Min: fp(0)}},
			},
		}},
	}

	res, err := Check(c, nil)
	require.NoError(t, err)

	s := suggestionFor(t, res, "duplicate_rule")
	assert.Equal(t, "amount.range2", s.RuleID)
	assert.False(t, s.Advisory())

	applied, err := res.Apply(c)
	require.NoError(t, err)
	assert.Len(t, applied.Column("amount").Rules, 1)
	assert.Equal(t, "1.1.0", applied.Version)
	assert.Len(t, c.Column("amount").Rules, 2, "input contract is untouched")
}

func TestCheckFlagsSingleMemberEnum(t *testing.T) {
	c := &contract.Contract{
		Name: "orders", Version: "1.0.0",
		Columns: []contract.ColumnSpec{{
			Name: "status", DType: contract.String,
			Rules: []contract.Rule{{
				ID: "status.enum", Kind: contract.EnumRule, Severity: contract.SeverityError,
				Enum: &contract.EnumParams{Values: []string{"only"}},
			}},
		}},
	}

	res, err := Check(c, nil)
	require.NoError(t, err)

	s := suggestionFor(t, res, "single_member_enum")
	assert.True(t, s.Advisory())

	applied, err := res.Apply(c)
	require.NoError(t, err)
	assert.True(t, applied.Column("status").Rules[0].Enum != nil, "advisory suggestions change nothing")
}

func TestCheckFlagsSpuriousNullable(t *testing.T) {
	c := &contract.Contract{
		Name: "orders", Version: "1.0.0",
		Columns: []contract.ColumnSpec{
			{Name: "id", DType: contract.Integer, Nullable: true},
			{Name: "note", DType: contract.String, Nullable: true},
		},
	}
	ds := dataset.MustNew(
		dataset.Ints("id", []int64{1, 2}, nil),
		dataset.Strings("note", []string{"x", ""}, []bool{false, true}),
	)

	res, err := Check(c, ds)
	require.NoError(t, err)

	s := suggestionFor(t, res, "spurious_nullable")
	assert.Equal(t, "id", s.Column)
	for _, sug := range res.Suggestions {
		assert.NotEqual(t, "note", sug.Column, "columns with observed nulls stay nullable")
	}

	applied, err := res.Apply(c)
	require.NoError(t, err)
	assert.False(t, applied.Column("id").Nullable)
	assert.True(t, applied.Column("note").Nullable)
}

func TestCheckFlagsWideBounds(t *testing.T) {
	c := &contract.Contract{
		Name: "orders", Version: "1.0.0",
		Columns: []contract.ColumnSpec{{
			Name: "amount", DType: contract.Float,
			Rules: []contract.Rule{{
				ID: "amount.range", Kind: contract.RangeRule, Severity: contract.SeverityError,
				Range: &contract.RangeParams{Min: fp(-1e9), Max: fp(1e9)},
			}},
		}},
	}
	ds := dataset.MustNew(dataset.Floats("amount", []float64{10, 20, 30}, nil))

	res, err := Check(c, ds)
	require.NoError(t, err)

	suggestionFor(t, res, "wide_bounds")
	applied, err := res.Apply(c)
	require.NoError(t, err)

	rng := applied.Column("amount").Rules[0].Range
	assert.Equal(t, 10.0, *rng.Min)
	assert.Equal(t, 30.0, *rng.Max)
}

func TestCheckNeverSuggestsWhatTheDataFails(t *testing.T) {
	// Bounds are wide relative to nothing here: the observed range is a
	// single point, so no tightening is proposed.
	c := &contract.Contract{
		Name: "orders", Version: "1.0.0",
		Columns: []contract.ColumnSpec{{
			Name: "amount", DType: contract.Float,
			Rules: []contract.Rule{{
				ID: "amount.range", Kind: contract.RangeRule, Severity: contract.SeverityError,
				Range: &contract.RangeParams{Min: fp(-1e9), Max: fp(1e9)},
			}},
		}},
	}
	ds := dataset.MustNew(dataset.Floats("amount", []float64{42, 42}, nil))

	res, err := Check(c, ds)
	require.NoError(t, err)
	for _, s := range res.Suggestions {
		assert.NotEqual(t, "wide_bounds", s.Check)
	}
}

func TestCheckFlagsDisabledRules(t *testing.T) {
	c := &contract.Contract{
		Name: "orders", Version: "1.0.0",
		Columns: []contract.ColumnSpec{{
			Name: "amount", DType: contract.Float,
			Rules: []contract.Rule{{
				ID: "amount.range", Kind: contract.RangeRule, Severity: contract.SeverityError,
				Disabled: true,
				Range:    &contract.RangeParams{Min: fp(0)},
			}},
		}},
	}

	res, err := Check(c, nil)
	require.NoError(t, err)
	assert.True(t, suggestionFor(t, res, "disabled_rule").Advisory())
}

func TestCheckRejectsInvalidContract(t *testing.T) {
	c := &contract.Contract{Name: "", Version: "1.0.0"}
	_, err := Check(c, nil)
	assert.Error(t, err)
}
