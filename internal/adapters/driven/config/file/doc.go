// Package file provides the file-based configuration adapter: a TOML
// ConfigStore and LoadConfig, which turns a store into one immutable
// domain.Config.
package file
