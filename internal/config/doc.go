// Package config loads and validates application settings from the
// environment, an optional .env file and an optional config.yaml.
package config
