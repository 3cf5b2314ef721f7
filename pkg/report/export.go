package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ritzau/gardener-conformance/pkg/runner"
)

// Format of an exported report
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the export format: explicit wins, then the file
// extension, then JSON
func FormatFor(explicit, path string) (Format, error) {
	switch strings.ToLower(explicit) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "":
	default:
		return "", fmt.Errorf("unsupported report format %q", explicit)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return FormatJSON, nil
	}
}

// Encode writes the report in the given format
func Encode(w io.Writer, f Format, r *runner.Report) error {
	switch f {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode report as YAML: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode report as JSON: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported report format %q", f)
	}
}

// Export writes the report to path
func Export(path string, f Format, r *runner.Report) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := Encode(file, f, r); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
