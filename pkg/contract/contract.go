package contract

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// =============================================================================
// Column specification
// =============================================================================

// ColumnSpec describes one expected column: its semantic type, nullability
// and the rules scoped to it.
type ColumnSpec struct {
	Name        string `json:"name" yaml:"name"`
	DType       DType  `json:"dtype" yaml:"dtype"`
	Nullable    bool   `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Unit        string `json:"unit,omitempty" yaml:"unit,omitempty"`
	Rules       []Rule `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// =============================================================================
// Contract
// =============================================================================

// Contract is the root entity: an ordered set of column specs, table-level
// rules and named profile overlays, identified by name and version.
//
// StrictColumns inverts the historical allow-extra-columns default: when true,
// dataset columns not declared in the contract produce warning findings.
type Contract struct {
	Name          string             `json:"name" yaml:"name"`
	Version       string             `json:"version" yaml:"version"`
	Description   string             `json:"description,omitempty" yaml:"description,omitempty"`
	Columns       []ColumnSpec       `json:"columns" yaml:"columns"`
	TableRules    []Rule             `json:"table_rules,omitempty" yaml:"table_rules,omitempty"`
	Profiles      map[string]Profile `json:"profiles,omitempty" yaml:"profiles,omitempty"`
	Metadata      map[string]string  `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	StrictColumns bool               `json:"strict_columns,omitempty" yaml:"strict_columns,omitempty"`
}

// ColumnMap returns columns keyed by name. The map is derived, never stored.
func (c *Contract) ColumnMap() map[string]*ColumnSpec {
	m := make(map[string]*ColumnSpec, len(c.Columns))
	for i := range c.Columns {
		m[c.Columns[i].Name] = &c.Columns[i]
	}
	return m
}

// Column returns the spec for name, or nil.
func (c *Contract) Column(name string) *ColumnSpec {
	for i := range c.Columns {
		if c.Columns[i].Name == name {
			return &c.Columns[i]
		}
	}
	return nil
}

// RuleByID returns a rule (column-scoped or table-scoped) and the name of the
// column it is scoped to ("" for table rules).
func (c *Contract) RuleByID(id string) (*Rule, string) {
	for i := range c.Columns {
		for j := range c.Columns[i].Rules {
			if c.Columns[i].Rules[j].ID == id {
				return &c.Columns[i].Rules[j], c.Columns[i].Name
			}
		}
	}
	for i := range c.TableRules {
		if c.TableRules[i].ID == id {
			return &c.TableRules[i], ""
		}
	}
	return nil, ""
}

// ProfileNames returns declared profile names, sorted.
func (c *Contract) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks the contract's internal consistency: unique column names,
// well-formed rules legal for their column's dtype, unique rule IDs, every
// cross-reference resolving to a declared column, and profile overlays
// targeting declared columns/rules. Returns a *SchemaError on the first
// violation found.
func (c *Contract) Validate() error {
	if c.Name == "" {
		return &SchemaError{Msg: "contract has no name"}
	}
	if c.Version == "" {
		return &SchemaError{Contract: c.Name, Msg: "contract has no version"}
	}
	if len(c.Columns) == 0 {
		return &SchemaError{Contract: c.Name, Msg: "contract declares no columns"}
	}

	declared := make(map[string]DType, len(c.Columns))
	for _, col := range c.Columns {
		if col.Name == "" {
			return &SchemaError{Contract: c.Name, Msg: "column with empty name"}
		}
		if _, dup := declared[col.Name]; dup {
			return &SchemaError{Contract: c.Name, Column: col.Name, Msg: "duplicate column name"}
		}
		if !col.DType.Valid() {
			return &SchemaError{Contract: c.Name, Column: col.Name, Msg: fmt.Sprintf("unknown dtype %q", col.DType)}
		}
		declared[col.Name] = col.DType
	}

	ruleIDs := make(map[string]bool)
	checkRefs := func(r *Rule, column string) error {
		if ruleIDs[r.ID] {
			return &SchemaError{Contract: c.Name, Column: column, Rule: r.ID, Msg: "duplicate rule id"}
		}
		ruleIDs[r.ID] = true
		for _, ref := range r.referencedColumns() {
			if _, ok := declared[ref]; !ok {
				return &SchemaError{Contract: c.Name, Column: column, Rule: r.ID,
					Msg: fmt.Sprintf("references undeclared column %q", ref)}
			}
		}
		return nil
	}

	for _, col := range c.Columns {
		for i := range col.Rules {
			r := &col.Rules[i]
			if err := r.validate(c.Name, col.Name, col.DType); err != nil {
				return err
			}
			if err := checkRefs(r, col.Name); err != nil {
				return err
			}
		}
	}
	for i := range c.TableRules {
		r := &c.TableRules[i]
		if err := r.validate(c.Name, "", ""); err != nil {
			return err
		}
		if err := checkRefs(r, ""); err != nil {
			return err
		}
	}

	for name, profile := range c.Profiles {
		if err := profile.validate(c, name); err != nil {
			return err
		}
	}
	return nil
}

// Equal reports structural equality over the full contract content.
// Both sides are normalized first so that nil and empty collections compare
// equal, keeping Equal consistent with serialization round-trips.
func (c *Contract) Equal(o *Contract) bool {
	if c == nil || o == nil {
		return c == o
	}
	a, b := c.Clone(), o.Clone()
	a.normalize()
	b.normalize()
	return reflect.DeepEqual(a, b)
}

// Fingerprint returns a stable content hash of the contract, usable as a
// cache key or cheap pre-check before a structural diff.
func (c *Contract) Fingerprint() string {
	n := c.Clone()
	n.normalize()
	raw, err := json.Marshal(n)
	if err != nil {
		// Contract is a closed tree of marshalable types; this cannot fail
		// for a validated contract.
		panic(fmt.Sprintf("contract fingerprint: %v", err))
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Clone returns a deep copy.
func (c *Contract) Clone() *Contract {
	if c == nil {
		return nil
	}
	out := *c
	out.Columns = make([]ColumnSpec, len(c.Columns))
	for i, col := range c.Columns {
		out.Columns[i] = col
		out.Columns[i].Rules = cloneRules(col.Rules)
	}
	out.TableRules = cloneRules(c.TableRules)
	if c.Profiles != nil {
		out.Profiles = make(map[string]Profile, len(c.Profiles))
		for name, p := range c.Profiles {
			out.Profiles[name] = p.clone()
		}
	}
	if c.Metadata != nil {
		out.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

func cloneRules(rules []Rule) []Rule {
	if rules == nil {
		return nil
	}
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = cloneRule(r)
	}
	return out
}

func cloneRule(r Rule) Rule {
	if r.Range != nil {
		p := *r.Range
		if r.Range.Min != nil {
			v := *r.Range.Min
			p.Min = &v
		}
		if r.Range.Max != nil {
			v := *r.Range.Max
			p.Max = &v
		}
		if r.Range.MinTime != nil {
			v := *r.Range.MinTime
			p.MinTime = &v
		}
		if r.Range.MaxTime != nil {
			v := *r.Range.MaxTime
			p.MaxTime = &v
		}
		r.Range = &p
	}
	if r.Enum != nil {
		p := EnumParams{Values: append([]string(nil), r.Enum.Values...), AllowUnknown: r.Enum.AllowUnknown}
		r.Enum = &p
	}
	if r.Pattern != nil {
		p := *r.Pattern
		r.Pattern = &p
	}
	if r.NullRatio != nil {
		p := *r.NullRatio
		r.NullRatio = &p
	}
	if r.Uniqueness != nil {
		p := UniquenessParams{Columns: append([]string(nil), r.Uniqueness.Columns...)}
		r.Uniqueness = &p
	}
	if r.Predicate != nil {
		p := PredicateParams{Name: r.Predicate.Name, Columns: append([]string(nil), r.Predicate.Columns...)}
		if r.Predicate.Args != nil {
			p.Args = make(map[string]float64, len(r.Predicate.Args))
			for k, v := range r.Predicate.Args {
				p.Args[k] = v
			}
		}
		r.Predicate = &p
	}
	if r.RowCount != nil {
		p := *r.RowCount
		if r.RowCount.Min != nil {
			v := *r.RowCount.Min
			p.Min = &v
		}
		if r.RowCount.Max != nil {
			v := *r.RowCount.Max
			p.Max = &v
		}
		r.RowCount = &p
	}
	if r.CrossColumn != nil {
		p := *r.CrossColumn
		p.By = append([]string(nil), r.CrossColumn.By...)
		p.Determinant = append([]string(nil), r.CrossColumn.Determinant...)
		p.Dependent = append([]string(nil), r.CrossColumn.Dependent...)
		r.CrossColumn = &p
	}
	return r
}

// normalize nils out empty collections in place so that round-tripped and
// hand-built contracts compare equal.
func (c *Contract) normalize() {
	if len(c.TableRules) == 0 {
		c.TableRules = nil
	}
	if len(c.Profiles) == 0 {
		c.Profiles = nil
	}
	if len(c.Metadata) == 0 {
		c.Metadata = nil
	}
	for i := range c.Columns {
		if len(c.Columns[i].Rules) == 0 {
			c.Columns[i].Rules = nil
		}
		for j := range c.Columns[i].Rules {
			normalizeRule(&c.Columns[i].Rules[j])
		}
	}
	for i := range c.TableRules {
		normalizeRule(&c.TableRules[i])
	}
	for name, p := range c.Profiles {
		if len(p.Overrides) == 0 {
			p.Overrides = nil
			c.Profiles[name] = p
		}
	}
}

func normalizeRule(r *Rule) {
	if r.Uniqueness != nil && len(r.Uniqueness.Columns) == 0 {
		r.Uniqueness.Columns = nil
	}
	if r.Predicate != nil {
		if len(r.Predicate.Columns) == 0 {
			r.Predicate.Columns = nil
		}
		if len(r.Predicate.Args) == 0 {
			r.Predicate.Args = nil
		}
	}
	if r.CrossColumn != nil {
		if len(r.CrossColumn.By) == 0 {
			r.CrossColumn.By = nil
		}
		if len(r.CrossColumn.Determinant) == 0 {
			r.CrossColumn.Determinant = nil
		}
		if len(r.CrossColumn.Dependent) == 0 {
			r.CrossColumn.Dependent = nil
		}
	}
}

// =============================================================================
// Versioning
// =============================================================================

// BumpMinor returns a copy of the contract with the minor version incremented
// and the patch reset, e.g. 1.2.3 -> 1.3.0. Non-semver versions are returned
// unchanged, matching the forgiving behavior contracts inherited from early
// releases.
func (c *Contract) BumpMinor() *Contract {
	out := c.Clone()
	out.Version = bumpMinor(c.Version)
	return out
}

func bumpMinor(version string) string {
	parts := strings.Split(version, ".")
	if len(parts) != 3 {
		return version
	}
	major, err1 := strconv.Atoi(parts[0])
	minor, err2 := strconv.Atoi(parts[1])
	if _, err3 := strconv.Atoi(parts[2]); err1 != nil || err2 != nil || err3 != nil {
		return version
	}
	return fmt.Sprintf("%d.%d.0", major, minor+1)
}
