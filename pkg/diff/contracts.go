package diff

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/framecheck-labs/framecheck/pkg/contract"
)

// Contracts compares two contract versions and classifies every structural
// difference. Columns and rules are matched by name and rule ID; order
// changes alone are not differences.
func Contracts(old, new *contract.Contract, p Policy) *Report {
	rep := &Report{}

	newCols := new.ColumnMap()
	oldCols := old.ColumnMap()

	for _, oc := range old.Columns {
		nc, ok := newCols[oc.Name]
		if !ok {
			rep.add(Change{
				Kind: ColumnRemoved, Column: oc.Name, Breaking: true,
				Detail: fmt.Sprintf("column %q removed", oc.Name),
			})
			continue
		}
		if oc.DType != nc.DType {
			rep.add(Change{
				Kind: DTypeChanged, Column: oc.Name, Breaking: true,
				Detail: fmt.Sprintf("column %q dtype changed", oc.Name),
				From:   string(oc.DType), To: string(nc.DType),
			})
		}
		if oc.Nullable != nc.Nullable {
			// Forbidding nulls breaks data that was valid before; allowing
			// them does not.
			rep.add(Change{
				Kind: NullableChanged, Column: oc.Name, Breaking: oc.Nullable && !nc.Nullable,
				Detail: fmt.Sprintf("column %q nullable changed", oc.Name),
				From:   fmt.Sprint(oc.Nullable), To: fmt.Sprint(nc.Nullable),
			})
		}
		diffRules(rep, oc.Name, oc.Rules, nc.Rules)
	}

	for _, nc := range new.Columns {
		if _, ok := oldCols[nc.Name]; ok {
			continue
		}
		rep.add(Change{
			Kind: ColumnAdded, Column: nc.Name, Breaking: p.AdditionsBreaking && !nc.Nullable,
			Detail: fmt.Sprintf("column %q added", nc.Name),
		})
	}

	diffRules(rep, "", old.TableRules, new.TableRules)
	return rep
}

// diffRules matches rules by ID within one scope and classifies additions,
// removals and parameter changes.
func diffRules(rep *Report, column string, old, new []contract.Rule) {
	newByID := make(map[string]*contract.Rule, len(new))
	for i := range new {
		newByID[new[i].ID] = &new[i]
	}
	oldByID := make(map[string]*contract.Rule, len(old))
	for i := range old {
		oldByID[old[i].ID] = &old[i]
	}

	for i := range old {
		or := &old[i]
		nr, ok := newByID[or.ID]
		if !ok {
			rep.add(Change{
				Kind: RuleRemoved, Column: column, RuleID: or.ID, Breaking: false,
				Detail: fmt.Sprintf("rule %q removed", or.ID),
			})
			continue
		}
		if c, changed := classifyRuleChange(column, or, nr); changed {
			rep.add(c)
		}
	}
	for i := range new {
		nr := &new[i]
		if _, ok := oldByID[nr.ID]; ok {
			continue
		}
		rep.add(Change{
			Kind: RuleAdded, Column: column, RuleID: nr.ID, Breaking: true,
			Detail: fmt.Sprintf("rule %q added (%s)", nr.ID, nr.Kind),
		})
	}
}

// classifyRuleChange compares two rules sharing an ID. Breaking iff the new
// rule is tighter than the old on any axis; provable loosening is
// informational. Changes that cannot be ordered (regex, predicate) are
// treated as breaking.
func classifyRuleChange(column string, old, new *contract.Rule) (Change, bool) {
	c := Change{Kind: RuleModified, Column: column, RuleID: old.ID}

	if old.Kind != new.Kind {
		c.Breaking = true
		c.Detail = fmt.Sprintf("rule %q kind changed", old.ID)
		c.From, c.To = string(old.Kind), string(new.Kind)
		return c, true
	}

	var notes []string
	tightened := false

	if old.Severity != new.Severity {
		notes = append(notes, fmt.Sprintf("severity %s to %s", old.Severity, new.Severity))
		if new.Severity == contract.SeverityError {
			tightened = true
		}
	}
	if old.Disabled != new.Disabled {
		if old.Disabled {
			notes = append(notes, "rule enabled")
			tightened = true
		} else {
			notes = append(notes, "rule disabled")
		}
	}

	switch old.Kind {
	case contract.RangeRule:
		if t, note := compareRanges(old.Range, new.Range); note != "" {
			notes = append(notes, note)
			tightened = tightened || t
		}
	case contract.EnumRule:
		if ch, changed := compareEnums(column, old, new); changed {
			// Enum membership changes get their own kind; fold in any
			// severity note gathered above.
			if len(notes) > 0 {
				ch.Detail += "; " + strings.Join(notes, "; ")
				ch.Breaking = ch.Breaking || tightened
			}
			return ch, true
		}
	case contract.NullRatioRule:
		if old.NullRatio.MaxRatio != new.NullRatio.MaxRatio {
			notes = append(notes, fmt.Sprintf("max null ratio %v to %v", old.NullRatio.MaxRatio, new.NullRatio.MaxRatio))
			if new.NullRatio.MaxRatio < old.NullRatio.MaxRatio {
				tightened = true
			}
		}
	case contract.TableRowCountRule:
		if t, note := compareRowCounts(old.RowCount, new.RowCount); note != "" {
			notes = append(notes, note)
			tightened = tightened || t
		}
	case contract.PatternRule:
		if old.Pattern.Regex != new.Pattern.Regex {
			notes = append(notes, "regex changed")
			tightened = true
		}
	case contract.UniquenessRule:
		if !reflect.DeepEqual(old.Uniqueness, new.Uniqueness) {
			notes = append(notes, "key columns changed")
			tightened = true
		}
	case contract.CustomPredicateRule:
		if !reflect.DeepEqual(old.Predicate, new.Predicate) {
			notes = append(notes, "predicate changed")
			tightened = true
		}
	case contract.CrossColumnRule:
		if !reflect.DeepEqual(old.CrossColumn, new.CrossColumn) {
			notes = append(notes, "cross-column check changed")
			tightened = true
		}
	}

	if len(notes) == 0 {
		return Change{}, false
	}
	c.Breaking = tightened
	c.Detail = fmt.Sprintf("rule %q: %s", old.ID, strings.Join(notes, "; "))
	return c, true
}

// compareRanges reports whether the new bounds are tighter on any side.
func compareRanges(old, new *contract.RangeParams) (tightened bool, note string) {
	oldLo, oldHi := rangeBounds(old)
	newLo, newHi := rangeBounds(new)
	if oldLo == newLo && oldHi == newHi && old.OfLength == new.OfLength {
		return false, ""
	}
	if newLo > oldLo || newHi < oldHi || old.OfLength != new.OfLength {
		return true, "bounds tightened"
	}
	return false, "bounds widened"
}

func rangeBounds(p *contract.RangeParams) (lo, hi float64) {
	lo, hi = math.Inf(-1), math.Inf(1)
	if p.Min != nil {
		lo = *p.Min
	}
	if p.Max != nil {
		hi = *p.Max
	}
	if p.MinTime != nil {
		lo = float64(p.MinTime.Unix())
	}
	if p.MaxTime != nil {
		hi = float64(p.MaxTime.Unix())
	}
	return lo, hi
}

func compareRowCounts(old, new *contract.RowCountParams) (tightened bool, note string) {
	oldLo, oldHi := countBounds(old)
	newLo, newHi := countBounds(new)
	if oldLo == newLo && oldHi == newHi {
		return false, ""
	}
	if newLo > oldLo || newHi < oldHi {
		return true, "row count bounds tightened"
	}
	return false, "row count bounds widened"
}

func countBounds(p *contract.RowCountParams) (lo, hi float64) {
	lo, hi = math.Inf(-1), math.Inf(1)
	if p.Min != nil {
		lo = float64(*p.Min)
	}
	if p.Max != nil {
		hi = float64(*p.Max)
	}
	return lo, hi
}

// compareEnums classifies membership changes. Growing the set (or starting to
// allow unknowns) loosens; losing a member or forbidding unknowns tightens.
func compareEnums(column string, old, new *contract.Rule) (Change, bool) {
	oldSet := make(map[string]struct{}, len(old.Enum.Values))
	for _, v := range old.Enum.Values {
		oldSet[v] = struct{}{}
	}
	newSet := make(map[string]struct{}, len(new.Enum.Values))
	for _, v := range new.Enum.Values {
		newSet[v] = struct{}{}
	}

	var added, removed int
	for v := range newSet {
		if _, ok := oldSet[v]; !ok {
			added++
		}
	}
	for v := range oldSet {
		if _, ok := newSet[v]; !ok {
			removed++
		}
	}
	unknownTightened := old.Enum.AllowUnknown && !new.Enum.AllowUnknown
	unknownLoosened := !old.Enum.AllowUnknown && new.Enum.AllowUnknown
	if added == 0 && removed == 0 && !unknownTightened && !unknownLoosened {
		return Change{}, false
	}

	var notes []string
	if added > 0 {
		notes = append(notes, fmt.Sprintf("%d members added", added))
	}
	if removed > 0 {
		notes = append(notes, fmt.Sprintf("%d members removed", removed))
	}
	if unknownTightened {
		notes = append(notes, "unknown values no longer allowed")
	}
	if unknownLoosened {
		notes = append(notes, "unknown values now allowed")
	}
	return Change{
		Kind:     EnumChanged,
		Column:   column,
		RuleID:   old.ID,
		Breaking: removed > 0 || unknownTightened,
		Detail:   fmt.Sprintf("rule %q: %s", old.ID, strings.Join(notes, "; ")),
	}, true
}
