// Package config loads the application's startup configuration from a yaml
// file, a .env file and environment variable overrides. The configuration is
// read once and treated as immutable for the life of the process.
package config
