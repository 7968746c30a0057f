package core

import (
	"github.com/domainkit/event-sourced-entities-go/entity"
)

// RegisterTopics registers every entity type of this package. Call once at
// startup before replaying streams.
func RegisterTopics() {
	entity.MustRegisterTopic(OrderTopic, newOrder)
	entity.MustRegisterTopic(AuditNoteTopic, newAuditNote)
}
