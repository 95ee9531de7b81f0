// Package vector provides embedding serialisation and similarity scoring.
// Vectors are stored as little-endian IEEE 754 float32 sequences with no
// length prefix; the dimensionality is derived from the byte length.
package vector
