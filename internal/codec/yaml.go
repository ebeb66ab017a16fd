package codec

import (
	"fmt"
	"io"

	"invclean/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec exports the anomaly report as YAML
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// ExportReport writes the anomaly report as a mapping of row id to entries.
// Row ids are emitted as quoted strings so numeric-looking ids stay strings
// for whoever reads the file back.
func (c *YAMLCodec) ExportReport(report domain.Report, w io.Writer) error {
	if report == nil {
		report = domain.Report{}
	}

	var node yaml.Node
	if err := node.Encode(report); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	for i := 0; i < len(node.Content); i += 2 {
		node.Content[i].Style = yaml.DoubleQuotedStyle
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&node); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
