// Package entity implements an entity-mutation protocol for event-sourced
// domain objects.
//
// An entity's observable state is derived exclusively by applying a
// sequence of immutable events. Concrete entity types compose integrity
// extensions by embedding their state next to Base: Versioned for
// optimistic concurrency, Hashchained for tamper and ordering evidence,
// Timestamped or Timeuuided for temporal audit. Every operation runs the
// same check-then-mutate pipeline: all active extensions validate the
// event read-only before any of them mutates the entity, so a failed
// check never leaves an entity partially updated, and reconstructing an
// entity from its full event history converges to the same state as
// applying the same events live.
//
// The external collaborators are kept at the boundary: a Publisher
// receives every applied event synchronously, a Hasher computes event
// digests for hash-chained types, and the topic registry resolves
// persisted topic strings back to concrete types during replay. Durable
// storage lives in the eventstore package.
package entity
