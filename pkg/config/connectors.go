package config

import (
	"net/url"
	"strings"

	"github.com/ajitpratap0/source-coda/pkg/errors"
)

const (
	// DefaultCodaBaseURL is the public Coda REST API root
	DefaultCodaBaseURL = "https://coda.io/apis/v1"

	// CheckModeFull walks documents, tables and rows
	CheckModeFull = "full"
	// CheckModeDocs only lists documents
	CheckModeDocs = "docs"
)

var validValueFormats = map[string]bool{
	"simple":           true,
	"simpleWithArrays": true,
	"rich":             true,
}

// CodaSourceConfig is the configuration the host passes to check, discover
// and read.
type CodaSourceConfig struct {
	BaseConfig `yaml:",inline" json:",inline"`

	// APIKey is the Coda bearer token
	APIKey  string `yaml:"api_key" json:"api_key" required:"true"`
	BaseURL string `yaml:"base_url" json:"base_url" default:"https://coda.io/apis/v1"`

	// Query parameters sent to the Coda API
	IsOwner        bool   `yaml:"is_owner" json:"is_owner" default:"true"`
	UseColumnNames bool   `yaml:"use_column_names" json:"use_column_names" default:"true"`
	ValueFormat    string `yaml:"value_format" json:"value_format" default:"simpleWithArrays"`
	PageSize       int    `yaml:"page_size" json:"page_size" default:"0"` // 0 = server default

	CheckMode string `yaml:"check_mode" json:"check_mode" default:"full"`
}

// NewCodaSourceConfig returns a configuration with every default applied and
// no API key.
func NewCodaSourceConfig() *CodaSourceConfig {
	return &CodaSourceConfig{
		BaseConfig:     *NewBaseConfig(),
		BaseURL:        DefaultCodaBaseURL,
		IsOwner:        true,
		UseColumnNames: true,
		ValueFormat:    "simpleWithArrays",
		CheckMode:      CheckModeFull,
	}
}

// Validate returns a validation error naming the first offending field.
func (c *CodaSourceConfig) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New(errors.ErrorTypeValidation, "api_key is required")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New(errors.ErrorTypeValidation, "base_url must be an absolute http(s) URL").
			WithDetail("base_url", c.BaseURL)
	}

	if !validValueFormats[c.ValueFormat] {
		return errors.New(errors.ErrorTypeValidation, "value_format must be one of simple, simpleWithArrays, rich").
			WithDetail("value_format", c.ValueFormat)
	}

	switch c.CheckMode {
	case CheckModeFull, CheckModeDocs:
	default:
		return errors.New(errors.ErrorTypeValidation, "check_mode must be full or docs").
			WithDetail("check_mode", c.CheckMode)
	}

	if c.PageSize < 0 {
		return errors.New(errors.ErrorTypeValidation, "page_size cannot be negative")
	}

	return c.BaseConfig.Validate()
}

// Endpoint returns the base URL without a trailing slash.
func (c *CodaSourceConfig) Endpoint() string {
	return strings.TrimRight(c.BaseURL, "/")
}
