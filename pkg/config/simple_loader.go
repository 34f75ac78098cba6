package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/source-coda/pkg/errors"
)

// Load reads a YAML or JSON file into config after substituting ${VAR}
// references. Fields missing from the file keep their current values.
func Load(filePath string, config interface{}) error {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: path comes from the host command line
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to read config file").
			WithDetail("path", filePath)
	}
	return LoadBytes(data, config)
}

// LoadBytes is Load for in-memory content.
func LoadBytes(data []byte, config interface{}) error {
	content := substituteEnvVars(string(data))

	if strings.TrimSpace(content) == "" {
		return errors.New(errors.ErrorTypeConfig, "config is empty")
	}

	if err := yaml.Unmarshal([]byte(content), config); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse config")
	}

	return nil
}

// LoadCodaSource loads and validates a Coda source configuration.
func LoadCodaSource(filePath string) (*CodaSourceConfig, error) {
	cfg := NewCodaSourceConfig()
	if err := Load(filePath, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		b.WriteString(content[:start])
		b.WriteString(os.Getenv(varName))
		content = content[end+1:]
	}
	b.WriteString(content)
	return b.String()
}
