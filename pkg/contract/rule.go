package contract

import (
	"fmt"
	"regexp"
	"time"
)

// =============================================================================
// Rule kinds
// =============================================================================

// RuleKind identifies one of the closed set of rule variants.
type RuleKind string

// The closed rule kind set. Evaluation is a total switch over these values.
const (
	RangeRule           RuleKind = "range"
	EnumRule            RuleKind = "enum"
	PatternRule         RuleKind = "pattern"
	NullRatioRule       RuleKind = "null_ratio"
	UniquenessRule      RuleKind = "uniqueness"
	CustomPredicateRule RuleKind = "predicate"
	TableRowCountRule   RuleKind = "row_count"
	CrossColumnRule     RuleKind = "cross_column"
)

// Valid reports whether k is a recognized rule kind.
func (k RuleKind) Valid() bool {
	switch k {
	case RangeRule, EnumRule, PatternRule, NullRatioRule, UniquenessRule,
		CustomPredicateRule, TableRowCountRule, CrossColumnRule:
		return true
	default:
		return false
	}
}

// TableScoped reports whether the kind only makes sense as a table rule.
func (k RuleKind) TableScoped() bool {
	return k == TableRowCountRule || k == CrossColumnRule
}

// =============================================================================
// Parameter payloads
// =============================================================================

// RangeParams bounds the values of an ordered column. Numeric columns use
// Min/Max; datetime columns use MinTime/MaxTime. When OfLength is true the
// bounds apply to string lengths instead of values, which is the only legal
// use of a range rule on a textual column.
type RangeParams struct {
	Min      *float64   `json:"min,omitempty" yaml:"min,omitempty"`
	Max      *float64   `json:"max,omitempty" yaml:"max,omitempty"`
	MinTime  *time.Time `json:"min_time,omitempty" yaml:"min_time,omitempty"`
	MaxTime  *time.Time `json:"max_time,omitempty" yaml:"max_time,omitempty"`
	OfLength bool       `json:"of_length,omitempty" yaml:"of_length,omitempty"`
}

// EnumParams restricts a column to a fixed member set. AllowUnknown downgrades
// membership from a requirement to documentation; profiles toggle it per
// environment.
type EnumParams struct {
	Values       []string `json:"values" yaml:"values"`
	AllowUnknown bool     `json:"allow_unknown,omitempty" yaml:"allow_unknown,omitempty"`
}

// PatternParams requires every non-null value to fully match Regex.
type PatternParams struct {
	Regex string `json:"regex" yaml:"regex"`
}

// NullRatioParams caps the fraction of null values in a column.
// MaxRatio 0 means no nulls at all.
type NullRatioParams struct {
	MaxRatio float64 `json:"max_ratio" yaml:"max_ratio"`
}

// UniquenessParams requires distinct values. On a column rule Columns is
// empty and the scope column itself must be unique; on a table rule Columns
// names a composite key.
type UniquenessParams struct {
	Columns []string `json:"columns,omitempty" yaml:"columns,omitempty"`
}

// PredicateParams evaluates a named pure predicate per row over the listed
// columns. The predicate is resolved from a static table at evaluation time;
// an unknown name is captured as a rule-evaluation finding, not a panic.
type PredicateParams struct {
	Name    string             `json:"name" yaml:"name"`
	Columns []string           `json:"columns,omitempty" yaml:"columns,omitempty"`
	Args    map[string]float64 `json:"args,omitempty" yaml:"args,omitempty"`
}

// RowCountParams bounds the number of rows in the evaluated slice.
type RowCountParams struct {
	Min *int `json:"min,omitempty" yaml:"min,omitempty"`
	Max *int `json:"max,omitempty" yaml:"max,omitempty"`
}

// Cross-column check names, the closed set behind CrossColumnRule.
const (
	CheckStartLeEnd           = "start_le_end"
	CheckNonDecreasingByKey   = "non_decreasing_by_key"
	CheckWithinTolerance      = "within_tolerance"
	CheckFunctionalDependency = "functional_dependency"
)

// CrossColumnParams configures one of the built-in cross-column checks.
// Only the fields relevant to the chosen Check are used:
//
//	start_le_end:          Start, End
//	non_decreasing_by_key: Column, By (By optional)
//	within_tolerance:      Left, Right, Tolerance
//	functional_dependency: Determinant, Dependent
type CrossColumnParams struct {
	Check       string   `json:"check" yaml:"check"`
	Start       string   `json:"start,omitempty" yaml:"start,omitempty"`
	End         string   `json:"end,omitempty" yaml:"end,omitempty"`
	Column      string   `json:"column,omitempty" yaml:"column,omitempty"`
	By          []string `json:"by,omitempty" yaml:"by,omitempty"`
	Left        string   `json:"left,omitempty" yaml:"left,omitempty"`
	Right       string   `json:"right,omitempty" yaml:"right,omitempty"`
	Tolerance   float64  `json:"tolerance,omitempty" yaml:"tolerance,omitempty"`
	Determinant []string `json:"determinant,omitempty" yaml:"determinant,omitempty"`
	Dependent   []string `json:"dependent,omitempty" yaml:"dependent,omitempty"`
}

// columns returns every column the check references, for cross-reference
// validation.
func (p *CrossColumnParams) columns() []string {
	var cols []string
	for _, c := range []string{p.Start, p.End, p.Column, p.Left, p.Right} {
		if c != "" {
			cols = append(cols, c)
		}
	}
	cols = append(cols, p.By...)
	cols = append(cols, p.Determinant...)
	cols = append(cols, p.Dependent...)
	return cols
}

// =============================================================================
// Rule
// =============================================================================

// Rule is a tagged variant: Kind selects exactly one parameter payload.
// Rules are pure predicates over a dataset or column slice; they carry no
// state and have no side effects.
type Rule struct {
	ID       string   `json:"id" yaml:"id"`
	Kind     RuleKind `json:"kind" yaml:"kind"`
	Severity Severity `json:"severity" yaml:"severity"`
	Message  string   `json:"message,omitempty" yaml:"message,omitempty"`
	Disabled bool     `json:"disabled,omitempty" yaml:"disabled,omitempty"`

	Range       *RangeParams       `json:"range,omitempty" yaml:"range,omitempty"`
	Enum        *EnumParams        `json:"enum,omitempty" yaml:"enum,omitempty"`
	Pattern     *PatternParams     `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	NullRatio   *NullRatioParams   `json:"null_ratio,omitempty" yaml:"null_ratio,omitempty"`
	Uniqueness  *UniquenessParams  `json:"uniqueness,omitempty" yaml:"uniqueness,omitempty"`
	Predicate   *PredicateParams   `json:"predicate,omitempty" yaml:"predicate,omitempty"`
	RowCount    *RowCountParams    `json:"row_count,omitempty" yaml:"row_count,omitempty"`
	CrossColumn *CrossColumnParams `json:"cross_column,omitempty" yaml:"cross_column,omitempty"`
}

// payloadCount returns how many parameter payloads are set. A well-formed
// rule has exactly one, matching its Kind.
func (r *Rule) payloadCount() int {
	n := 0
	for _, set := range []bool{
		r.Range != nil, r.Enum != nil, r.Pattern != nil, r.NullRatio != nil,
		r.Uniqueness != nil, r.Predicate != nil, r.RowCount != nil, r.CrossColumn != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

// payloadMatchesKind reports whether the set payload corresponds to Kind.
func (r *Rule) payloadMatchesKind() bool {
	switch r.Kind {
	case RangeRule:
		return r.Range != nil
	case EnumRule:
		return r.Enum != nil
	case PatternRule:
		return r.Pattern != nil
	case NullRatioRule:
		return r.NullRatio != nil
	case UniquenessRule:
		return r.Uniqueness != nil
	case CustomPredicateRule:
		return r.Predicate != nil
	case TableRowCountRule:
		return r.RowCount != nil
	case CrossColumnRule:
		return r.CrossColumn != nil
	default:
		return false
	}
}

// validate checks the rule in the context of the column it is scoped to
// (dtype is the declared column type; empty string column means table scope).
func (r *Rule) validate(contractName, column string, dtype DType) error {
	fail := func(format string, args ...any) error {
		return &SchemaError{Contract: contractName, Column: column, Rule: r.ID, Msg: fmt.Sprintf(format, args...)}
	}
	if r.ID == "" {
		return fail("rule has no id")
	}
	if !r.Kind.Valid() {
		return fail("unknown rule kind %q", r.Kind)
	}
	if !r.Severity.Valid() {
		return fail("unknown severity %q", r.Severity)
	}
	if n := r.payloadCount(); n != 1 {
		return fail("rule must carry exactly one parameter payload, has %d", n)
	}
	if !r.payloadMatchesKind() {
		return fail("parameter payload does not match kind %q", r.Kind)
	}
	if column == "" {
		if !r.Kind.TableScoped() && r.Kind != UniquenessRule && r.Kind != CustomPredicateRule {
			return fail("kind %q is not valid as a table rule", r.Kind)
		}
		if r.Kind == UniquenessRule && len(r.Uniqueness.Columns) == 0 {
			return fail("table uniqueness rule needs a composite key")
		}
	} else {
		if r.Kind.TableScoped() {
			return fail("kind %q is only valid as a table rule", r.Kind)
		}
	}
	return r.validateParams(fail, dtype, column != "")
}

func (r *Rule) validateParams(fail func(string, ...any) error, dtype DType, columnScoped bool) error {
	switch r.Kind {
	case RangeRule:
		p := r.Range
		if p.Min == nil && p.Max == nil && p.MinTime == nil && p.MaxTime == nil {
			return fail("range rule with no bounds")
		}
		if p.Min != nil && p.Max != nil && *p.Min > *p.Max {
			return fail("range min %v exceeds max %v", *p.Min, *p.Max)
		}
		if p.MinTime != nil && p.MaxTime != nil && p.MinTime.After(*p.MaxTime) {
			return fail("range min_time is after max_time")
		}
		if p.OfLength {
			if !dtype.Textual() {
				return fail("length bounds require a textual column, got %q", dtype)
			}
			return nil
		}
		if columnScoped && !dtype.Ordered() {
			return fail("range rule requires an ordered dtype, got %q", dtype)
		}
	case EnumRule:
		if len(r.Enum.Values) == 0 {
			return fail("enum rule with no members")
		}
		if columnScoped && !dtype.Textual() {
			return fail("enum rule requires a textual column, got %q", dtype)
		}
	case PatternRule:
		if r.Pattern.Regex == "" {
			return fail("pattern rule with empty regex")
		}
		if columnScoped && !dtype.Textual() {
			return fail("pattern rule requires a textual column, got %q", dtype)
		}
		// Regex syntax is deliberately NOT validated here: a broken pattern
		// must surface as an isolated evaluation finding (see validate pkg),
		// not block contract construction.
	case NullRatioRule:
		if r.NullRatio.MaxRatio < 0 || r.NullRatio.MaxRatio > 1 {
			return fail("null ratio %v outside [0, 1]", r.NullRatio.MaxRatio)
		}
	case CustomPredicateRule:
		if r.Predicate.Name == "" {
			return fail("predicate rule with no predicate name")
		}
	case TableRowCountRule:
		p := r.RowCount
		if p.Min == nil && p.Max == nil {
			return fail("row count rule with no bounds")
		}
		if p.Min != nil && p.Max != nil && *p.Min > *p.Max {
			return fail("row count min %d exceeds max %d", *p.Min, *p.Max)
		}
	case CrossColumnRule:
		return r.validateCrossColumn(fail)
	}
	return nil
}

func (r *Rule) validateCrossColumn(fail func(string, ...any) error) error {
	p := r.CrossColumn
	switch p.Check {
	case CheckStartLeEnd:
		if p.Start == "" || p.End == "" {
			return fail("start_le_end needs start and end columns")
		}
	case CheckNonDecreasingByKey:
		if p.Column == "" {
			return fail("non_decreasing_by_key needs a column")
		}
	case CheckWithinTolerance:
		if p.Left == "" || p.Right == "" {
			return fail("within_tolerance needs left and right columns")
		}
		if p.Tolerance < 0 {
			return fail("tolerance must be non-negative")
		}
	case CheckFunctionalDependency:
		if len(p.Determinant) == 0 || len(p.Dependent) == 0 {
			return fail("functional_dependency needs determinant and dependent columns")
		}
	default:
		return fail("unknown cross-column check %q", p.Check)
	}
	return nil
}

// referencedColumns returns every column name the rule mentions beyond its
// scope column.
func (r *Rule) referencedColumns() []string {
	switch {
	case r.Uniqueness != nil:
		return r.Uniqueness.Columns
	case r.Predicate != nil:
		return r.Predicate.Columns
	case r.CrossColumn != nil:
		return r.CrossColumn.columns()
	default:
		return nil
	}
}

// CompilePattern compiles the rule's regex. Only meaningful for pattern rules.
func (r *Rule) CompilePattern() (*regexp.Regexp, error) {
	if r.Pattern == nil {
		return nil, fmt.Errorf("rule %s is not a pattern rule", r.ID)
	}
	re, err := regexp.Compile(r.Pattern.Regex)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", r.ID, err)
	}
	return re, nil
}
