// Package repository defines the data access interfaces for CityOS.
//
// Services depend on the narrow LeadStore, AnalysisStore and AuditStore
// interfaces. The sqlite subpackage implements all of them on a single
// database using modernc.org/sqlite, so no cgo toolchain is needed.
//
// # Schema Migration
//
// The sqlite repository creates its tables on open and adds columns
// introduced by later releases, preserving existing data.
//
// # Testing
//
// Repository tests run against in-memory databases.
package repository
