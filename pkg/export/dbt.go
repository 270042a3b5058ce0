package export

import (
	"github.com/framecheck-labs/framecheck/pkg/contract"
	"gopkg.in/yaml.v3"
)

type dbtSchema struct {
	Version int        `yaml:"version"`
	Models  []dbtModel `yaml:"models"`
}

type dbtModel struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Tests       []any       `yaml:"tests,omitempty"`
	Columns     []dbtColumn `yaml:"columns,omitempty"`
}

type dbtColumn struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Tests       []any  `yaml:"tests,omitempty"`
}

// Dbt renders a dbt schema file with one test per expressible rule.
func Dbt(c *contract.Contract) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	model := dbtModel{Name: c.Name, Description: c.Description}

	for _, col := range c.Columns {
		dc := dbtColumn{Name: col.Name, Description: col.Description}
		if !col.Nullable {
			dc.Tests = append(dc.Tests, "not_null")
		}
		for i := range col.Rules {
			r := &col.Rules[i]
			if r.Disabled {
				continue
			}
			switch r.Kind {
			case contract.UniquenessRule:
				if len(r.Uniqueness.Columns) == 0 {
					dc.Tests = append(dc.Tests, "unique")
				}
			case contract.EnumRule:
				if !r.Enum.AllowUnknown {
					dc.Tests = append(dc.Tests, map[string]any{
						"accepted_values": map[string]any{"values": r.Enum.Values},
					})
				}
			case contract.RangeRule:
				if r.Range.OfLength {
					continue
				}
				args := map[string]any{}
				if r.Range.Min != nil {
					args["min_value"] = *r.Range.Min
				}
				if r.Range.Max != nil {
					args["max_value"] = *r.Range.Max
				}
				if len(args) > 0 {
					dc.Tests = append(dc.Tests, map[string]any{
						"dbt_utils.accepted_range": args,
					})
				}
			}
		}
		model.Columns = append(model.Columns, dc)
	}

	for i := range c.TableRules {
		r := &c.TableRules[i]
		if r.Disabled || r.Kind != contract.UniquenessRule {
			continue
		}
		model.Tests = append(model.Tests, map[string]any{
			"dbt_utils.unique_combination_of_columns": map[string]any{
				"combination_of_columns": r.Uniqueness.Columns,
			},
		})
	}

	return yaml.Marshal(dbtSchema{Version: 2, Models: []dbtModel{model}})
}
