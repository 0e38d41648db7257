package rankingfile

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Loader handles loading and parsing of ranking.yaml
type Loader struct {
	filePath string
}

// NewLoader creates a new ranking file loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Path returns the watched file path
func (l *Loader) Path() string {
	return l.filePath
}

// Load reads and parses the ranking file
func (l *Loader) Load() (*File, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read ranking file: %w", err)
	}

	data = expandEnvVars(data)

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse ranking yaml: %w", err)
	}

	return &file, nil
}

// expandEnvVars replaces ${VAR} with the environment value (empty if unset)
func expandEnvVars(data []byte) []byte {
	return envVarPattern.ReplaceAllFunc(data, func(m []byte) []byte {
		name := envVarPattern.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}
