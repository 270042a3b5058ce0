package export

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/framecheck-labs/framecheck/pkg/contract"
)

var goTypes = map[contract.DType]string{
	contract.Integer:     "int64",
	contract.Float:       "float64",
	contract.String:      "string",
	contract.Boolean:     "bool",
	contract.Datetime:    "time.Time",
	contract.Categorical: "string",
}

// GoTypes renders a Go source file declaring a row struct for the contract.
// Nullable columns become pointers.
func GoTypes(c *contract.Contract, pkg string) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	if pkg == "" {
		pkg = "schema"
	}

	needsTime := false
	for _, col := range c.Columns {
		if col.DType == contract.Datetime {
			needsTime = true
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "// Code generated from contract %s@%s. DO NOT EDIT.\n\n", c.Name, c.Version)
	fmt.Fprintf(&b, "package %s\n\n", pkg)
	if needsTime {
		b.WriteString("import \"time\"\n\n")
	}

	typeName := exportedName(c.Name)
	if c.Description != "" {
		fmt.Fprintf(&b, "// %s is a row of %s: %s\n", typeName, c.Name, c.Description)
	} else {
		fmt.Fprintf(&b, "// %s is a row of %s.\n", typeName, c.Name)
	}
	fmt.Fprintf(&b, "type %s struct {\n", typeName)
	for _, col := range c.Columns {
		goType := goTypes[col.DType]
		if col.Nullable {
			goType = "*" + goType
		}
		fmt.Fprintf(&b, "\t%s %s `json:%q`\n", exportedName(col.Name), goType, col.Name)
	}
	b.WriteString("}\n")
	return b.String(), nil
}

// exportedName converts snake_case and kebab-case identifiers to exported
// CamelCase, keeping common initialisms upper.
func exportedName(name string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || unicode.IsSpace(r)
	}) {
		switch strings.ToLower(part) {
		case "id", "url", "sql", "api", "uuid":
			b.WriteString(strings.ToUpper(part))
		default:
			r := []rune(part)
			r[0] = unicode.ToUpper(r[0])
			b.WriteString(string(r))
		}
	}
	if b.Len() == 0 {
		return "Row"
	}
	return b.String()
}
