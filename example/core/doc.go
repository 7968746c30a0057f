// Package core contains the example domain entities: an Order with typed
// attributes, a version counter, a hash chain and stored timestamps, and a
// schemaless AuditNote whose times are derived from time-ordered event
// identifiers.
//
// The package is pure domain logic. Persistence lives in the shell package.
package core
