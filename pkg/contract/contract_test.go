package contract

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func ordersContract() *Contract {
	return &Contract{
		Name:    "orders",
		Version: "1.2.3",
		Columns: []ColumnSpec{
			{Name: "order_id", DType: Integer, Rules: []Rule{
				{ID: "order_id.unique", Kind: UniquenessRule, Severity: SeverityError, Uniqueness: &UniquenessParams{}},
			}},
			{Name: "amount", DType: Float, Rules: []Rule{
				{ID: "amount.range", Kind: RangeRule, Severity: SeverityError,
					Range: &RangeParams{Min: fp(0), Max: fp(10000)}},
			}},
			{Name: "status", DType: String, Nullable: true, Rules: []Rule{
				{ID: "status.enum", Kind: EnumRule, Severity: SeverityWarning,
					Enum: &EnumParams{Values: []string{"open", "shipped", "closed"}}},
			}},
		},
		TableRules: []Rule{
			{ID: "table.rows", Kind: TableRowCountRule, Severity: SeverityWarning,
				RowCount: &RowCountParams{Min: intp(1)}},
		},
		Profiles: map[string]Profile{
			"dev": {Overrides: []Override{
				{Rule: "amount.range", Op: OpWidenBound, Factor: 2},
				{Rule: "status.enum", Op: OpDisableRule},
				{Column: "amount", Op: OpSetNullable, Nullable: boolp(true)},
			}},
		},
	}
}

func intp(v int) *int    { return &v }
func boolp(v bool) *bool { return &v }

func TestValidateAcceptsWellFormedContract(t *testing.T) {
	require.NoError(t, ordersContract().Validate())
}

func TestValidateRejectsDuplicateRuleIDs(t *testing.T) {
	c := ordersContract()
	c.Columns[1].Rules = append(c.Columns[1].Rules, Rule{
		ID: "order_id.unique", Kind: RangeRule, Severity: SeverityError,
		Range: &RangeParams{Min: fp(0)},
	})

	err := c.Validate()
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Contains(t, schemaErr.Msg, "duplicate rule id")
}

func TestValidateRejectsUndeclaredColumnReference(t *testing.T) {
	c := ordersContract()
	c.TableRules = append(c.TableRules, Rule{
		ID: "table.key", Kind: UniquenessRule, Severity: SeverityError,
		Uniqueness: &UniquenessParams{Columns: []string{"order_id", "warehouse"}},
	})

	var schemaErr *SchemaError
	require.ErrorAs(t, c.Validate(), &schemaErr)
	assert.Contains(t, schemaErr.Msg, `undeclared column "warehouse"`)
}

func TestValidateRejectsPayloadKindMismatch(t *testing.T) {
	c := ordersContract()
	c.Columns[1].Rules[0].Kind = EnumRule

	var schemaErr *SchemaError
	require.ErrorAs(t, c.Validate(), &schemaErr)
}

func TestValidateRejectsRangeOnUnorderedColumn(t *testing.T) {
	c := ordersContract()
	c.Columns[2].Rules = append(c.Columns[2].Rules, Rule{
		ID: "status.range", Kind: RangeRule, Severity: SeverityError,
		Range: &RangeParams{Min: fp(0)},
	})

	var schemaErr *SchemaError
	require.ErrorAs(t, c.Validate(), &schemaErr)
	assert.Contains(t, schemaErr.Msg, "ordered dtype")
}

func TestValidateAllowsLengthBoundsOnStrings(t *testing.T) {
	c := ordersContract()
	c.Columns[2].Rules = append(c.Columns[2].Rules, Rule{
		ID: "status.len", Kind: RangeRule, Severity: SeverityWarning,
		Range: &RangeParams{Min: fp(1), Max: fp(16), OfLength: true},
	})
	require.NoError(t, c.Validate())
}

func TestRoundTripPreservesContract(t *testing.T) {
	c := ordersContract()
	for _, format := range []Format{FormatJSON, FormatYAML} {
		raw, err := c.Marshal(format)
		require.NoError(t, err)

		back, err := Unmarshal(raw, format)
		require.NoError(t, err, "format %s", format)
		assert.True(t, c.Equal(back), "format %s round trip changed the contract", format)
	}
}

func TestUnmarshalRejectsUnknownFields(t *testing.T) {
	raw := []byte(`{"name":"x","version":"1.0.0","colums":[]}`)
	_, err := Unmarshal(raw, FormatJSON)
	require.Error(t, err)
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.yaml")
	c := ordersContract()
	require.NoError(t, Save(c, path))

	back, err := Load(path)
	require.NoError(t, err)
	assert.True(t, c.Equal(back))
}

func TestFingerprintIsStableAndContentSensitive(t *testing.T) {
	a, b := ordersContract(), ordersContract()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.Columns[1].Rules[0].Range.Max = fp(20000)
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestCloneIsDeep(t *testing.T) {
	c := ordersContract()
	clone := c.Clone()
	*clone.Columns[1].Rules[0].Range.Max = 99
	clone.Profiles["dev"] = Profile{}

	assert.Equal(t, 10000.0, *c.Columns[1].Rules[0].Range.Max)
	assert.Len(t, c.Profiles["dev"].Overrides, 3)
}

func TestWithProfileAppliesOverrides(t *testing.T) {
	c := ordersContract()
	eff, err := c.WithProfile("dev")
	require.NoError(t, err)

	r, _ := eff.RuleByID("amount.range")
	require.NotNil(t, r)
	// [0, 10000] widened by factor 2 around the midpoint is [-5000, 15000].
	assert.InDelta(t, -5000, *r.Range.Min, 1e-9)
	assert.InDelta(t, 15000, *r.Range.Max, 1e-9)

	enum, _ := eff.RuleByID("status.enum")
	assert.True(t, enum.Disabled)
	assert.True(t, eff.Column("amount").Nullable)

	// The stored contract is untouched.
	orig, _ := c.RuleByID("amount.range")
	assert.Equal(t, 0.0, *orig.Range.Min)
	assert.False(t, c.Column("amount").Nullable)
}

func TestWithProfileUnknownName(t *testing.T) {
	_, err := ordersContract().WithProfile("prod")
	var notFound *ProfileNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, []string{"dev"}, notFound.Available)
}

func TestWithProfileEmptyNameReturnsCopy(t *testing.T) {
	c := ordersContract()
	eff, err := c.WithProfile("")
	require.NoError(t, err)
	assert.True(t, c.Equal(eff))
}

func TestValidateRejectsProfileTargetingUnknownRule(t *testing.T) {
	c := ordersContract()
	c.Profiles["dev"] = Profile{Overrides: []Override{
		{Rule: "no.such.rule", Op: OpDisableRule},
	}}

	var schemaErr *SchemaError
	require.ErrorAs(t, c.Validate(), &schemaErr)
}

func TestRuleByIDSearchesBothScopes(t *testing.T) {
	c := ordersContract()

	r, col := c.RuleByID("status.enum")
	require.NotNil(t, r)
	assert.Equal(t, "status", col)

	r, col = c.RuleByID("table.rows")
	require.NotNil(t, r)
	assert.Equal(t, "", col)

	r, _ = c.RuleByID("nope")
	assert.Nil(t, r)
}

func TestBumpMinor(t *testing.T) {
	c := ordersContract()
	bumped := c.BumpMinor()
	assert.Equal(t, "1.3.0", bumped.Version)
	assert.Equal(t, "1.2.3", c.Version)

	c.Version = "rolling"
	assert.Equal(t, "rolling", c.BumpMinor().Version)
}

func TestCompatible(t *testing.T) {
	assert.True(t, Compatible(Integer, Float))
	assert.False(t, Compatible(Float, Integer))
	assert.True(t, Compatible(String, Categorical))
	assert.True(t, Compatible(Categorical, String))
	assert.False(t, Compatible(Boolean, Integer))
}

func TestScaleRangeSingleBound(t *testing.T) {
	p := &RangeParams{Min: fp(100)}
	scaleRange(p, OpWidenBound, 1.5)
	// Pad is (factor-1) * |min|, so the floor drops to 50.
	assert.InDelta(t, 50, *p.Min, 1e-9)
	assert.Nil(t, p.Max)
}
