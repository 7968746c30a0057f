package entity

import (
	"fmt"
	"reflect"
	"sync"
)

// The topic registry maps topic strings to factory functions for concrete
// entity types, and back. It is process-wide state, populated once at
// startup and read-only thereafter. The mutation step of a Created event
// resolves the originator topic here when it is applied with no existing
// target, e.g. during replay.

type topicRegistry struct {
	mu        sync.RWMutex
	factories map[string]func() Root
	topics    map[reflect.Type]string
}

var registry = &topicRegistry{
	factories: make(map[string]func() Root),
	topics:    make(map[reflect.Type]string),
}

// RegisterTopic registers a factory for the concrete entity type under the
// given topic. Registering the same topic or the same type twice fails.
func RegisterTopic[T Root](topic string, factory func() T) error {
	if topic == "" {
		return fmt.Errorf("%w: empty topic", ErrTopicNotRegistered)
	}

	entityType := reflect.TypeOf(factory())

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, exists := registry.factories[topic]; exists {
		return fmt.Errorf("%w: %s", ErrTopicAlreadyRegistered, topic)
	}

	if registered, exists := registry.topics[entityType]; exists {
		return fmt.Errorf("%w: type %s as %s", ErrTopicAlreadyRegistered, entityType, registered)
	}

	registry.factories[topic] = func() Root { return factory() }
	registry.topics[entityType] = topic

	return nil
}

// MustRegisterTopic is like RegisterTopic but panics on failure. Intended
// for registration at startup.
func MustRegisterTopic[T Root](topic string, factory func() T) {
	if err := RegisterTopic(topic, factory); err != nil {
		panic(err)
	}
}

// ResolveTopic returns the factory registered for the given topic.
func ResolveTopic(topic string) (func() Root, error) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	factory, exists := registry.factories[topic]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTopicNotRegistered, topic)
	}

	return factory, nil
}

// TopicFor returns the topic registered for the concrete type of the given
// entity.
func TopicFor(target Root) (string, error) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	topic, exists := registry.topics[reflect.TypeOf(target)]
	if !exists {
		return "", fmt.Errorf("%w: type %T", ErrTopicNotRegistered, target)
	}

	return topic, nil
}
