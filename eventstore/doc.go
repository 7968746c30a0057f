// Package eventstore defines the storage-agnostic contracts for persisting
// entity events: a scalar StorableEvent DTO, a per-originator stream
// Filter, the Engine interface with optimistic compare-and-append
// semantics, the codec between entity events and their storage
// representation, and dependency-free observability interfaces.
//
// Engine implementations live in the postgresengine and memoryengine
// subpackages.
package eventstore
