// Package diff compares two contracts or two snapshots and classifies every
// difference as breaking or informational.
//
// Breaking-ness is judged from the consumer's side: a change that could make
// data valid under the old contract invalid for a reader of the new one is
// breaking. Loosening (rule removed, range widened, enum grown) is not. The
// classification policy and drift thresholds are explicit parameters, never
// hardcoded law.
package diff

// ChangeKind names one difference category in a diff report.
type ChangeKind string

const (
	ColumnAdded     ChangeKind = "column_added"
	ColumnRemoved   ChangeKind = "column_removed"
	DTypeChanged    ChangeKind = "dtype_changed"
	NullableChanged ChangeKind = "nullable_changed"
	RuleAdded       ChangeKind = "rule_added"
	RuleRemoved     ChangeKind = "rule_removed"
	RuleModified    ChangeKind = "rule_modified"
	EnumChanged     ChangeKind = "enum_changed"
	StatDrift       ChangeKind = "stat_drift"
)

// Change is one classified difference.
type Change struct {
	Kind     ChangeKind `json:"kind" yaml:"kind"`
	Column   string     `json:"column,omitempty" yaml:"column,omitempty"`
	RuleID   string     `json:"rule_id,omitempty" yaml:"rule_id,omitempty"`
	Breaking bool       `json:"breaking" yaml:"breaking"`
	Detail   string     `json:"detail" yaml:"detail"`
	From     string     `json:"from,omitempty" yaml:"from,omitempty"`
	To       string     `json:"to,omitempty" yaml:"to,omitempty"`
}

// Report is an ordered sequence of changes between two contracts or two
// snapshots.
type Report struct {
	Changes []Change `json:"changes" yaml:"changes"`
}

// IsBreaking reports whether any change in the report is breaking.
func (r *Report) IsBreaking() bool {
	for _, c := range r.Changes {
		if c.Breaking {
			return true
		}
	}
	return false
}

// BreakingChanges returns the breaking subset, in report order.
func (r *Report) BreakingChanges() []Change {
	var out []Change
	for _, c := range r.Changes {
		if c.Breaking {
			out = append(out, c)
		}
	}
	return out
}

func (r *Report) add(c Change) { r.Changes = append(r.Changes, c) }

// Policy configures the breaking classification of contract diffs.
type Policy struct {
	// AdditionsBreaking marks newly added non-nullable columns breaking,
	// for consumer-facing contracts where readers reject unknown shapes.
	AdditionsBreaking bool
}

// Thresholds configures when snapshot drift counts as breaking. Zero values
// fall back to the defaults below.
type Thresholds struct {
	// NullRatio is the absolute null-ratio delta above which drift breaks.
	NullRatio float64
	// Quantile is the relative quantile delta (fraction of the baseline
	// value) above which drift breaks.
	Quantile float64
	// DistinctCount is the relative distinct-count delta above which drift
	// breaks.
	DistinctCount float64
	// CategoryChurn is the top-value mass fraction that may enter or leave
	// a categorical column before drift breaks.
	CategoryChurn float64
}

// Default drift thresholds.
const (
	DefaultNullRatioThreshold     = 0.05
	DefaultQuantileThreshold      = 0.10
	DefaultDistinctCountThreshold = 0.50
	DefaultCategoryChurnThreshold = 0.20
)

func (t Thresholds) withDefaults() Thresholds {
	if t.NullRatio == 0 {
		t.NullRatio = DefaultNullRatioThreshold
	}
	if t.Quantile == 0 {
		t.Quantile = DefaultQuantileThreshold
	}
	if t.DistinctCount == 0 {
		t.DistinctCount = DefaultDistinctCountThreshold
	}
	if t.CategoryChurn == 0 {
		t.CategoryChurn = DefaultCategoryChurnThreshold
	}
	return t
}
