package export

import (
	"encoding/json"

	"github.com/framecheck-labs/framecheck/pkg/contract"
)

type gxSuite struct {
	Name         string           `json:"expectation_suite_name"`
	Expectations []gxExpectation  `json:"expectations"`
	Meta         map[string]any   `json:"meta,omitempty"`
}

type gxExpectation struct {
	Type   string         `json:"expectation_type"`
	Kwargs map[string]any `json:"kwargs"`
}

// GreatExpectations renders the contract as an expectation suite document.
func GreatExpectations(c *contract.Contract) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	suite := gxSuite{
		Name: c.Name,
		Meta: map[string]any{"contract_version": c.Version},
	}
	add := func(typ string, kwargs map[string]any) {
		suite.Expectations = append(suite.Expectations, gxExpectation{Type: typ, Kwargs: kwargs})
	}

	for _, col := range c.Columns {
		if !col.Nullable {
			add("expect_column_values_to_not_be_null", map[string]any{"column": col.Name})
		}
		for i := range col.Rules {
			r := &col.Rules[i]
			if r.Disabled {
				continue
			}
			switch r.Kind {
			case contract.RangeRule:
				if r.Range.OfLength {
					kwargs := map[string]any{"column": col.Name}
					if r.Range.Min != nil {
						kwargs["min_value"] = *r.Range.Min
					}
					if r.Range.Max != nil {
						kwargs["max_value"] = *r.Range.Max
					}
					add("expect_column_value_lengths_to_be_between", kwargs)
					continue
				}
				kwargs := map[string]any{"column": col.Name}
				if r.Range.Min != nil {
					kwargs["min_value"] = *r.Range.Min
				}
				if r.Range.Max != nil {
					kwargs["max_value"] = *r.Range.Max
				}
				add("expect_column_values_to_be_between", kwargs)
			case contract.EnumRule:
				if r.Enum.AllowUnknown {
					continue
				}
				add("expect_column_values_to_be_in_set", map[string]any{
					"column": col.Name, "value_set": r.Enum.Values,
				})
			case contract.PatternRule:
				add("expect_column_values_to_match_regex", map[string]any{
					"column": col.Name, "regex": r.Pattern.Regex,
				})
			case contract.UniquenessRule:
				if len(r.Uniqueness.Columns) == 0 {
					add("expect_column_values_to_be_unique", map[string]any{"column": col.Name})
				}
			case contract.NullRatioRule:
				add("expect_column_values_to_not_be_null", map[string]any{
					"column": col.Name, "mostly": 1 - r.NullRatio.MaxRatio,
				})
			}
		}
	}

	for i := range c.TableRules {
		r := &c.TableRules[i]
		if r.Disabled {
			continue
		}
		switch r.Kind {
		case contract.UniquenessRule:
			add("expect_compound_columns_to_be_unique", map[string]any{
				"column_list": r.Uniqueness.Columns,
			})
		case contract.TableRowCountRule:
			kwargs := map[string]any{}
			if r.RowCount.Min != nil {
				kwargs["min_value"] = *r.RowCount.Min
			}
			if r.RowCount.Max != nil {
				kwargs["max_value"] = *r.RowCount.Max
			}
			add("expect_table_row_count_to_be_between", kwargs)
		case contract.CrossColumnRule:
			if r.CrossColumn.Check == contract.CheckStartLeEnd {
				add("expect_column_pair_values_a_to_be_greater_than_b", map[string]any{
					"column_A": r.CrossColumn.End, "column_B": r.CrossColumn.Start,
					"or_equal": true,
				})
			}
		}
	}

	return json.MarshalIndent(suite, "", "  ")
}
