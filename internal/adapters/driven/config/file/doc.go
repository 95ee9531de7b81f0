// Package file provides file-based implementations of driven port interfaces.
//
// ConfigStore keeps settings in ~/.vectorlite/config.toml with dot-notation
// keys mapped onto TOML tables, overlaid by VECTORLITE_* environment variables.
package file
