// Package config loads adminsync configuration.
//
// Sources, in order of precedence (last wins):
//   - built-in defaults (see defaults.go)
//   - a YAML file, with ${VAR} references expanded from the environment
//   - ADMINSYNC_* environment variables, optionally seeded from a .env file
package config
