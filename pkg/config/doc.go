// Package config holds the connector configuration.
//
// The host hands the connector a JSON file; it is read with the YAML loader
// (JSON is a YAML subset), so the same file may also be written as YAML and
// may reference environment variables:
//
//	api_key: ${CODA_API_KEY}
//	base_url: https://coda.io/apis/v1
//	reliability:
//	  retry_attempts: 5
//	  retry_delay: 500ms
//
// Connector configurations embed BaseConfig inline so timeouts and
// reliability settings are shared:
//
//	type CodaSourceConfig struct {
//		BaseConfig `yaml:",inline" json:",inline"`
//		APIKey     string `yaml:"api_key" json:"api_key"`
//	}
//
// Values absent from the file keep the defaults from the constructor, so load
// into NewCodaSourceConfig() rather than a zero value.
package config
