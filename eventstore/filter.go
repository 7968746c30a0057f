package eventstore

import (
	"slices"
)

type FilterEventTypeString = string
type FilterOriginatorIDString = string

// Filter selects the event stream of one originator, optionally narrowed
// to specific event types. Store engines translate it into their native
// query language.
type Filter struct {
	originatorID FilterOriginatorIDString
	eventTypes   []FilterEventTypeString
}

// FilterForOriginator builds a Filter matching every event of the given
// originator.
func FilterForOriginator(originatorID FilterOriginatorIDString) Filter {
	return Filter{originatorID: originatorID}
}

// AndEventTypes narrows the filter to the given event types.
//
// It sanitizes the input:
//   - removing empty event types ("")
//   - sorting the event types
//   - removing duplicate event types
func (f Filter) AndEventTypes(eventTypes ...FilterEventTypeString) Filter {
	sanitized := make([]FilterEventTypeString, 0, len(eventTypes))

	for _, eventType := range eventTypes {
		if eventType != "" {
			sanitized = append(sanitized, eventType)
		}
	}

	slices.Sort(sanitized)
	sanitized = slices.Compact(sanitized)

	f.eventTypes = sanitized

	return f
}

// OriginatorID returns the originator whose stream this filter selects.
func (f Filter) OriginatorID() FilterOriginatorIDString {
	return f.originatorID
}

// EventTypes returns the event types this filter is narrowed to; empty
// means all.
func (f Filter) EventTypes() []FilterEventTypeString {
	return slices.Clone(f.eventTypes)
}

// Matches reports whether the given storable event passes the filter.
// Engines without a native query language (e.g. the memory engine) use it
// directly.
func (f Filter) Matches(event StorableEvent) bool {
	if f.originatorID != "" && event.OriginatorID != f.originatorID {
		return false
	}

	if len(f.eventTypes) > 0 && !slices.Contains(f.eventTypes, event.EventType) {
		return false
	}

	return true
}
