package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects a persistence encoding for contracts and snapshots.
type Format string

// Supported persistence formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks a format from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported contract extension %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}
}

// Marshal encodes the contract. The encoding is canonical enough that
// Unmarshal(Marshal(c)) equals c for any validated contract.
func (c *Contract) Marshal(format Format) ([]byte, error) {
	n := c.Clone()
	n.normalize()
	switch format {
	case FormatJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(n); err != nil {
			return nil, fmt.Errorf("encoding contract %q: %w", c.Name, err)
		}
		return buf.Bytes(), nil
	case FormatYAML:
		raw, err := yaml.Marshal(n)
		if err != nil {
			return nil, fmt.Errorf("encoding contract %q: %w", c.Name, err)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("unsupported contract format %q", format)
	}
}

// Unmarshal decodes and validates a contract.
func Unmarshal(raw []byte, format Format) (*Contract, error) {
	var c Contract
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&c); err != nil {
			return nil, fmt.Errorf("decoding contract: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(&c); err != nil {
			return nil, fmt.Errorf("decoding contract: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported contract format %q", format)
	}
	c.normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads a contract from disk, picking the format from the extension.
func Load(path string) (*Contract, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading contract: %w", err)
	}
	c, err := Unmarshal(raw, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Save writes a contract to disk, picking the format from the extension.
func Save(c *Contract, path string) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}
	raw, err := c.Marshal(format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing contract: %w", err)
	}
	return nil
}
