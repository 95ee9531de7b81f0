// Package services implements the driving ports on top of the driven ones.
//
// Nothing here knows which store or provider is plugged in; the same
// ingest, drain and search code runs against SQLite, Postgres and the
// in-memory store used in tests.
package services
