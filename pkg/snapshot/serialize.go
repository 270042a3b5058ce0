package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/framecheck-labs/framecheck/pkg/contract"
	"gopkg.in/yaml.v3"
)

// Marshal encodes the snapshot in the given format. The algorithm identifier
// is part of the payload so a later comparison can detect mismatches.
func (s *Snapshot) Marshal(format contract.Format) ([]byte, error) {
	switch format {
	case contract.FormatJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return nil, fmt.Errorf("encoding snapshot: %w", err)
		}
		return buf.Bytes(), nil
	case contract.FormatYAML:
		raw, err := yaml.Marshal(s)
		if err != nil {
			return nil, fmt.Errorf("encoding snapshot: %w", err)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("unsupported snapshot format %q", format)
	}
}

// Unmarshal decodes a snapshot.
func Unmarshal(raw []byte, format contract.Format) (*Snapshot, error) {
	var s Snapshot
	switch format {
	case contract.FormatJSON:
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decoding snapshot: %w", err)
		}
	case contract.FormatYAML:
		if err := yaml.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decoding snapshot: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported snapshot format %q", format)
	}
	if s.Algorithm == "" {
		return nil, fmt.Errorf("snapshot has no algorithm identifier")
	}
	return &s, nil
}

// Load reads a snapshot from disk, picking the format from the extension.
func Load(path string) (*Snapshot, error) {
	format, err := contract.FormatForPath(path)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	s, err := Unmarshal(raw, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Save writes a snapshot to disk, picking the format from the extension.
func Save(s *Snapshot, path string) error {
	format, err := contract.FormatForPath(path)
	if err != nil {
		return err
	}
	raw, err := s.Marshal(format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}
