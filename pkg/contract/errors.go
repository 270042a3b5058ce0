package contract

import (
	"fmt"
	"strings"
)

// SchemaError reports a malformed or self-inconsistent contract. It is fatal
// and raised at construction/validation time, never during rule evaluation.
type SchemaError struct {
	Contract string
	Column   string
	Rule     string
	Msg      string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("invalid contract")
	if e.Contract != "" {
		fmt.Fprintf(&b, " %q", e.Contract)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, ", column %q", e.Column)
	}
	if e.Rule != "" {
		fmt.Fprintf(&b, ", rule %q", e.Rule)
	}
	b.WriteString(": ")
	b.WriteString(e.Msg)
	return b.String()
}

// ProfileNotFoundError reports a validate call naming a profile the contract
// does not declare. Fatal to the call.
type ProfileNotFoundError struct {
	Contract  string
	Profile   string
	Available []string
}

func (e *ProfileNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("contract %q declares no profiles, requested %q", e.Contract, e.Profile)
	}
	return fmt.Sprintf("profile %q not found in contract %q (available: %s)",
		e.Profile, e.Contract, strings.Join(e.Available, ", "))
}

// RuleEvaluationError reports that a single rule's predicate itself failed,
// e.g. a regex that does not compile or an unknown predicate name. It is
// isolated: the evaluator captures it as an error-severity finding on the
// offending rule and continues with the rest of the contract.
type RuleEvaluationError struct {
	Rule   string
	Column string
	Err    error
}

func (e *RuleEvaluationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("rule %q on column %q: %v", e.Rule, e.Column, e.Err)
	}
	return fmt.Sprintf("rule %q: %v", e.Rule, e.Err)
}

func (e *RuleEvaluationError) Unwrap() error { return e.Err }
