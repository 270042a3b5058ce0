package contract

import (
	"fmt"
	"math"
)

// OverrideOp is one of the recognized profile override operations.
type OverrideOp string

// The closed override operation set. Profiles relax or tighten thresholds;
// they never add or remove columns or rules, which keeps an effective
// contract structurally comparable to the stored one.
const (
	OpWidenBound  OverrideOp = "widen_bound"
	OpNarrowBound OverrideOp = "narrow_bound"
	OpSetNullable OverrideOp = "set_nullable"
	OpDisableRule OverrideOp = "disable_rule"
)

// Valid reports whether op is recognized.
func (op OverrideOp) Valid() bool {
	switch op {
	case OpWidenBound, OpNarrowBound, OpSetNullable, OpDisableRule:
		return true
	default:
		return false
	}
}

// Override adjusts a single column or rule. Exactly one target is named:
// set_nullable targets a column, the other ops target a rule by id.
//
// Bound ops either replace the bounds outright (Min/Max set) or scale the
// bound span symmetrically around its midpoint by Factor (widen expects
// Factor > 1, narrow expects Factor in (0, 1)). On a null-ratio rule the
// ops scale MaxRatio, clamped to [0, 1].
type Override struct {
	Column   string     `json:"column,omitempty" yaml:"column,omitempty"`
	Rule     string     `json:"rule,omitempty" yaml:"rule,omitempty"`
	Op       OverrideOp `json:"op" yaml:"op"`
	Factor   float64    `json:"factor,omitempty" yaml:"factor,omitempty"`
	Min      *float64   `json:"min,omitempty" yaml:"min,omitempty"`
	Max      *float64   `json:"max,omitempty" yaml:"max,omitempty"`
	Nullable *bool      `json:"nullable,omitempty" yaml:"nullable,omitempty"`
}

// Profile is a named overlay of overrides applied at validation time.
// MaxExamples, when non-zero, caps finding examples for runs under this
// profile.
type Profile struct {
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	MaxExamples int        `json:"max_examples,omitempty" yaml:"max_examples,omitempty"`
	Overrides   []Override `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

func (p Profile) clone() Profile {
	out := p
	if p.Overrides != nil {
		out.Overrides = make([]Override, len(p.Overrides))
		for i, ov := range p.Overrides {
			out.Overrides[i] = ov
			if ov.Min != nil {
				v := *ov.Min
				out.Overrides[i].Min = &v
			}
			if ov.Max != nil {
				v := *ov.Max
				out.Overrides[i].Max = &v
			}
			if ov.Nullable != nil {
				v := *ov.Nullable
				out.Overrides[i].Nullable = &v
			}
		}
	}
	return out
}

func (p Profile) validate(c *Contract, name string) error {
	fail := func(format string, args ...any) error {
		return &SchemaError{Contract: c.Name, Msg: fmt.Sprintf("profile %q: %s", name, fmt.Sprintf(format, args...))}
	}
	for _, ov := range p.Overrides {
		if !ov.Op.Valid() {
			return fail("unknown override op %q", ov.Op)
		}
		switch ov.Op {
		case OpSetNullable:
			if ov.Column == "" || ov.Nullable == nil {
				return fail("set_nullable needs a column and a nullable value")
			}
			if c.Column(ov.Column) == nil {
				return fail("set_nullable targets undeclared column %q", ov.Column)
			}
		case OpDisableRule:
			if ov.Rule == "" {
				return fail("disable_rule needs a rule id")
			}
			if r, _ := c.RuleByID(ov.Rule); r == nil {
				return fail("disable_rule targets unknown rule %q", ov.Rule)
			}
		case OpWidenBound, OpNarrowBound:
			if ov.Rule == "" {
				return fail("%s needs a rule id", ov.Op)
			}
			target, _ := c.RuleByID(ov.Rule)
			if target == nil {
				return fail("%s targets unknown rule %q", ov.Op, ov.Rule)
			}
			if target.Kind != RangeRule && target.Kind != NullRatioRule && target.Kind != TableRowCountRule {
				return fail("%s targets rule %q of kind %q, which has no bounds", ov.Op, ov.Rule, target.Kind)
			}
			if ov.Min == nil && ov.Max == nil && ov.Factor <= 0 {
				return fail("%s on rule %q needs explicit bounds or a positive factor", ov.Op, ov.Rule)
			}
		}
	}
	return nil
}

// WithProfile resolves the effective contract for a named profile: a deep
// copy with the profile's overrides applied, ready for evaluation. The empty
// profile name returns an unmodified copy. Unknown names fail with a
// *ProfileNotFoundError.
func (c *Contract) WithProfile(name string) (*Contract, error) {
	eff := c.Clone()
	if name == "" {
		return eff, nil
	}
	profile, ok := c.Profiles[name]
	if !ok {
		return nil, &ProfileNotFoundError{Contract: c.Name, Profile: name, Available: c.ProfileNames()}
	}
	for _, ov := range profile.Overrides {
		applyOverride(eff, ov)
	}
	return eff, nil
}

func applyOverride(c *Contract, ov Override) {
	switch ov.Op {
	case OpSetNullable:
		if col := c.Column(ov.Column); col != nil {
			col.Nullable = *ov.Nullable
		}
	case OpDisableRule:
		if r, _ := c.RuleByID(ov.Rule); r != nil {
			r.Disabled = true
		}
	case OpWidenBound, OpNarrowBound:
		if r, _ := c.RuleByID(ov.Rule); r != nil {
			adjustBounds(r, ov)
		}
	}
}

func adjustBounds(r *Rule, ov Override) {
	switch r.Kind {
	case RangeRule:
		if ov.Min != nil {
			r.Range.Min = ov.Min
		}
		if ov.Max != nil {
			r.Range.Max = ov.Max
		}
		if ov.Min == nil && ov.Max == nil && ov.Factor > 0 {
			scaleRange(r.Range, ov.Op, ov.Factor)
		}
	case NullRatioRule:
		switch {
		case ov.Max != nil:
			r.NullRatio.MaxRatio = clamp01(*ov.Max)
		case ov.Factor > 0:
			r.NullRatio.MaxRatio = clamp01(r.NullRatio.MaxRatio * ov.Factor)
		}
	case TableRowCountRule:
		if ov.Min != nil {
			v := int(*ov.Min)
			r.RowCount.Min = &v
		}
		if ov.Max != nil {
			v := int(*ov.Max)
			r.RowCount.Max = &v
		}
	}
}

// scaleRange widens or narrows [min, max] symmetrically around the midpoint.
// With a single bound the pad is taken from the bound's own magnitude (at
// least one unit), so widening a min-only rule still relaxes it.
func scaleRange(p *RangeParams, op OverrideOp, factor float64) {
	if op == OpNarrowBound {
		factor = 1 / factor
	}
	switch {
	case p.Min != nil && p.Max != nil:
		mid := (*p.Min + *p.Max) / 2
		half := (*p.Max - *p.Min) / 2 * factor
		lo, hi := mid-half, mid+half
		p.Min, p.Max = &lo, &hi
	case p.Min != nil:
		pad := (factor - 1) * math.Max(math.Abs(*p.Min), 1)
		lo := *p.Min - pad
		p.Min = &lo
	case p.Max != nil:
		pad := (factor - 1) * math.Max(math.Abs(*p.Max), 1)
		hi := *p.Max + pad
		p.Max = &hi
	}
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
