// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax, so secrets like the GW2 API
// token can live in the environment rather than on disk.
package config
