package core

import (
	"github.com/domainkit/event-sourced-entities-go/entity"
)

// AuditNoteTopic is the registered topic identifier for AuditNote entities.
const AuditNoteTopic = "example.AuditNote"

// AuditNote is a free-form annotation attached to an audit trail. Its
// attributes are schemaless, and its creation and modification times are
// derived from the time-ordered identifiers of its events instead of
// stored timestamps.
type AuditNote struct {
	entity.Base
	entity.Versioned
	entity.Timeuuided
	entity.AttributeMap
}

// RecordAuditNote creates a new AuditNote carrying the given attributes.
func RecordAuditNote(attributes entity.Fields, opts ...entity.CreateOption) (*AuditNote, error) {
	return entity.Create(newAuditNote, attributes, opts...)
}

func newAuditNote() *AuditNote {
	return &AuditNote{}
}

// Annotate sets or replaces one attribute of the note.
func (n *AuditNote) Annotate(name string, value any) error {
	_, err := entity.ChangeAttribute(n, name, value)
	return err
}

// Equals compares identity, lifecycle, extension state and all attributes.
func (n *AuditNote) Equals(other entity.Root) bool {
	otherNote, ok := other.(*AuditNote)
	if !ok {
		return false
	}

	return n.ID() == otherNote.ID() &&
		n.IsDiscarded() == otherNote.IsDiscarded() &&
		n.Version() == otherNote.Version() &&
		n.InitialEventID() == otherNote.InitialEventID() &&
		n.LastEventID() == otherNote.LastEventID() &&
		n.EqualAttributes(&otherNote.AttributeMap)
}
