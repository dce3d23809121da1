package gridfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"toy-powerflow/pkg/analysis"
)

// LoadOptions reads a YAML solver options file. Absent keys keep their
// defaults.
func LoadOptions(path string) (analysis.Options, error) {
	opts := analysis.DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("reading options file: %w", err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("parsing options file: %w", err)
	}
	return opts, nil
}
