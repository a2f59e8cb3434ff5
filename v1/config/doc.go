// Package config loads the root configuration of a vecsearch process from
// an optional YAML file and VECSEARCH_* environment variables.
package config
