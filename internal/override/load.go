package override

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"invclean/internal/domain"
)

// LoadFile reads an override mapping from a YAML or JSON file. A missing path
// (empty string) yields an empty mapping.
func LoadFile(path string) (domain.OverrideSet, error) {
	if path == "" {
		return domain.OverrideSet{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open overrides: %w", err)
	}
	defer f.Close()

	set, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse overrides %s: %w", path, err)
	}
	return set, nil
}

// Parse decodes an override mapping of the form
//
//	"10":
//	  device_type: printer
//	  confidence: 0.8
//	  owner_team: Facilities
//	  owner_email: facilities@example.com
//
// JSON documents are accepted as well since YAML is a superset of JSON.
// Row identifiers may be written unquoted; they are always read as strings.
func Parse(r io.Reader) (domain.OverrideSet, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.OverrideSet{}, nil
		}
		return nil, err
	}
	if len(doc.Content) == 0 {
		return domain.OverrideSet{}, nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return domain.OverrideSet{}, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of row id to overrides", root.Line)
	}

	set := make(domain.OverrideSet, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], root.Content[i+1]
		rowID := strings.TrimSpace(keyNode.Value)
		if rowID == "" {
			return nil, fmt.Errorf("line %d: empty row id", keyNode.Line)
		}
		if _, dup := set[rowID]; dup {
			return nil, fmt.Errorf("line %d: duplicate row id %q", keyNode.Line, rowID)
		}

		var entry domain.OverrideEntry
		if err := valNode.Decode(&entry); err != nil {
			return nil, fmt.Errorf("row %s: %w", rowID, err)
		}
		entry.DeviceType = strings.TrimSpace(entry.DeviceType)
		entry.OwnerTeam = strings.TrimSpace(entry.OwnerTeam)
		entry.OwnerEmail = strings.TrimSpace(entry.OwnerEmail)
		if c, ok := entry.ConfidenceValue(); ok && (c < 0 || c > 1) {
			return nil, fmt.Errorf("row %s: confidence %v outside [0,1]", rowID, c)
		}
		if entry.IsEmpty() {
			continue
		}
		set[rowID] = entry
	}
	return set, nil
}
