// Package lint analyzes a contract for best-practice violations and proposes
// amendments.
//
// Static checks need only the contract. When a dataset is supplied the
// checks additionally propose tightenings cross-checked against the data: a
// suggestion the supplied dataset would itself fail is never emitted.
// Applying a result is pure and produces a new contract at a bumped minor
// version.
package lint

import (
	"fmt"
	"math"
	"reflect"

	"github.com/framecheck-labs/framecheck/pkg/contract"
	"github.com/framecheck-labs/framecheck/pkg/dataset"
)

// wideBoundsFactor is how many times wider than the observed value range a
// declared range must be before it counts as overly wide.
const wideBoundsFactor = 10

// Suggestion is one proposed amendment. Advisory suggestions carry no fix
// and survive Apply unchanged.
type Suggestion struct {
	Check   string `json:"check" yaml:"check"`
	Column  string `json:"column,omitempty" yaml:"column,omitempty"`
	RuleID  string `json:"rule_id,omitempty" yaml:"rule_id,omitempty"`
	Message string `json:"message" yaml:"message"`

	fix func(c *contract.Contract)
}

// Advisory reports whether the suggestion has no automatic fix.
func (s *Suggestion) Advisory() bool { return s.fix == nil }

// Result is the outcome of one lint pass.
type Result struct {
	Suggestions []Suggestion
}

// Check lints c. ds may be nil for static-only linting.
func Check(c *contract.Contract, ds dataset.Dataset) (*Result, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	res := &Result{}
	res.duplicateRules(c)
	res.singleMemberEnums(c)
	res.disabledRules(c)
	if ds != nil {
		res.spuriousNullability(c, ds)
		res.wideBounds(c, ds)
	}
	return res, nil
}

// Apply merges every fixable suggestion into a copy of c and bumps its minor
// version. The input contract is never mutated.
func (r *Result) Apply(c *contract.Contract) (*contract.Contract, error) {
	out := c.Clone()
	for i := range r.Suggestions {
		if fix := r.Suggestions[i].fix; fix != nil {
			fix(out)
		}
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("applying lint suggestions: %w", err)
	}
	return out.BumpMinor(), nil
}

func (res *Result) add(s Suggestion) { res.Suggestions = append(res.Suggestions, s) }

// duplicateRules flags rules on the same scope with identical kind and
// parameters; the later duplicate is removed on apply.
func (res *Result) duplicateRules(c *contract.Contract) {
	for ci := range c.Columns {
		col := &c.Columns[ci]
		res.duplicatesIn(col.Name, col.Rules)
	}
	res.duplicatesIn("", c.TableRules)
}

func (res *Result) duplicatesIn(column string, rules []contract.Rule) {
	for i := range rules {
		for j := i + 1; j < len(rules); j++ {
			if rules[i].Kind != rules[j].Kind || !sameParams(&rules[i], &rules[j]) {
				continue
			}
			dupID := rules[j].ID
			res.add(Suggestion{
				Check: "duplicate_rule", Column: column, RuleID: dupID,
				Message: fmt.Sprintf("rule %q duplicates %q; remove it", dupID, rules[i].ID),
				fix:     func(c *contract.Contract) { removeRule(c, column, dupID) },
			})
		}
	}
}

func sameParams(a, b *contract.Rule) bool {
	return reflect.DeepEqual(a.Range, b.Range) &&
		reflect.DeepEqual(a.Enum, b.Enum) &&
		reflect.DeepEqual(a.Pattern, b.Pattern) &&
		reflect.DeepEqual(a.NullRatio, b.NullRatio) &&
		reflect.DeepEqual(a.Uniqueness, b.Uniqueness) &&
		reflect.DeepEqual(a.Predicate, b.Predicate) &&
		reflect.DeepEqual(a.RowCount, b.RowCount) &&
		reflect.DeepEqual(a.CrossColumn, b.CrossColumn)
}

func removeRule(c *contract.Contract, column, id string) {
	prune := func(rules []contract.Rule) []contract.Rule {
		out := rules[:0]
		for _, r := range rules {
			if r.ID != id {
				out = append(out, r)
			}
		}
		return out
	}
	if column == "" {
		c.TableRules = prune(c.TableRules)
		return
	}
	if col := c.Column(column); col != nil {
		col.Rules = prune(col.Rules)
	}
}

// singleMemberEnums are almost always a mistake: either the column is a
// constant (say so in a description) or members are missing. Advisory only.
func (res *Result) singleMemberEnums(c *contract.Contract) {
	for ci := range c.Columns {
		col := &c.Columns[ci]
		for ri := range col.Rules {
			r := &col.Rules[ri]
			if r.Kind == contract.EnumRule && len(r.Enum.Values) == 1 {
				res.add(Suggestion{
					Check: "single_member_enum", Column: col.Name, RuleID: r.ID,
					Message: fmt.Sprintf("enum rule %q has a single member %q", r.ID, r.Enum.Values[0]),
				})
			}
		}
	}
}

// disabledRules flags rules disabled in the base contract (as opposed to by
// a profile), which silently never run. Advisory only.
func (res *Result) disabledRules(c *contract.Contract) {
	flag := func(column string, rules []contract.Rule) {
		for i := range rules {
			if rules[i].Disabled {
				res.add(Suggestion{
					Check: "disabled_rule", Column: column, RuleID: rules[i].ID,
					Message: fmt.Sprintf("rule %q is disabled in the base contract", rules[i].ID),
				})
			}
		}
	}
	for ci := range c.Columns {
		flag(c.Columns[ci].Name, c.Columns[ci].Rules)
	}
	flag("", c.TableRules)
}

// spuriousNullability proposes dropping nullable from columns the dataset
// never leaves null. Safe to apply since the data already satisfies it.
func (res *Result) spuriousNullability(c *contract.Contract, ds dataset.Dataset) {
	for ci := range c.Columns {
		spec := &c.Columns[ci]
		if !spec.Nullable {
			continue
		}
		col, ok := ds.Column(spec.Name)
		if !ok || col.Len() == 0 || dataset.NullRatio(col) > 0 {
			continue
		}
		name := spec.Name
		res.add(Suggestion{
			Check: "spurious_nullable", Column: name,
			Message: fmt.Sprintf("column %q is nullable but the sample has no nulls", name),
			fix: func(c *contract.Contract) {
				if col := c.Column(name); col != nil {
					col.Nullable = false
				}
			},
		})
	}
}

// wideBounds proposes narrowing range rules whose declared width dwarfs the
// observed value range. The proposed bounds are the observed extremes, so the
// supplied dataset passes by construction.
func (res *Result) wideBounds(c *contract.Contract, ds dataset.Dataset) {
	for ci := range c.Columns {
		spec := &c.Columns[ci]
		col, ok := ds.Column(spec.Name)
		if !ok {
			continue
		}
		for ri := range spec.Rules {
			r := &spec.Rules[ri]
			if r.Kind != contract.RangeRule || r.Range.OfLength || r.Range.Min == nil || r.Range.Max == nil {
				continue
			}
			lo, hi, seen := observedRange(col)
			if !seen || hi == lo {
				continue
			}
			declared := *r.Range.Max - *r.Range.Min
			if declared <= wideBoundsFactor*(hi-lo) {
				continue
			}
			column, ruleID := spec.Name, r.ID
			newLo, newHi := lo, hi
			res.add(Suggestion{
				Check: "wide_bounds", Column: column, RuleID: ruleID,
				Message: fmt.Sprintf("rule %q spans [%v, %v] but observed values span [%v, %v]",
					ruleID, *r.Range.Min, *r.Range.Max, lo, hi),
				fix: func(c *contract.Contract) {
					rule, _ := c.RuleByID(ruleID)
					if rule != nil && rule.Range != nil {
						rule.Range.Min, rule.Range.Max = &newLo, &newHi
					}
				},
			})
		}
	}
}

func observedRange(col dataset.Column) (lo, hi float64, seen bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for i := 0; i < col.Len(); i++ {
		if v, ok := col.Float(i); ok {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
			seen = true
		}
	}
	return lo, hi, seen
}
