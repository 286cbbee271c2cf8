// Package config handles configuration loading, parsing, and validation
// from environment variables and an optional YAML file. It provides
// type-safe access to the client's settings (logging, storage backend,
// remote API, synchronization) while keeping configuration details
// separate from the state container.
package config
