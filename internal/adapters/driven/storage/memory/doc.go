// Package memory provides in-memory implementations of the storage ports.
// It backs the "memory" storage driver and the service tests.
package memory
