package entity

import "reflect"

// AttributeMap is an embeddable keyed attribute store for entity types
// whose changeable attributes are dynamic rather than hand-declared
// fields. It satisfies the attribute dispatch part of Root.
type AttributeMap struct {
	attributes map[string]any
}

// SetAttribute assigns the named attribute to the given value.
func (m *AttributeMap) SetAttribute(name string, value any) error {
	if m.attributes == nil {
		m.attributes = make(map[string]any)
	}

	m.attributes[name] = value

	return nil
}

// Attribute returns the value of the named attribute and whether it is set.
func (m *AttributeMap) Attribute(name string) (any, bool) {
	value, ok := m.attributes[name]
	return value, ok
}

// Attributes returns a copy of all attributes.
func (m *AttributeMap) Attributes() map[string]any {
	copied := make(map[string]any, len(m.attributes))
	for name, value := range m.attributes {
		copied[name] = value
	}

	return copied
}

// EqualAttributes reports whether both maps hold the same attributes with
// equal values.
func (m *AttributeMap) EqualAttributes(other *AttributeMap) bool {
	if len(m.attributes) != len(other.attributes) {
		return false
	}

	for name, value := range m.attributes {
		otherValue, ok := other.attributes[name]
		if !ok || !reflect.DeepEqual(value, otherValue) {
			return false
		}
	}

	return true
}
