package branchlayout

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Decode parses a trace from YAML. JSON input is accepted as well.
func Decode(data []byte) (Trace, error) {
	var t Trace
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Trace{}, fmt.Errorf("decode trace: %w", err)
	}
	return t, nil
}
