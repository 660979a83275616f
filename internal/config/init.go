package config

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

const initHeader = `# packsplit project configuration.
# Rules are evaluated by descending priority; the first match wins.
# Profiles override the base settings for one build mode.
`

// InitContent renders the default configuration as a YAML document.
func InitContent() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(initHeader)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(DefaultConfig()); err != nil {
		return nil, fmt.Errorf("encoding default config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding default config: %w", err)
	}
	return buf.Bytes(), nil
}
