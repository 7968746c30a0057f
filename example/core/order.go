package core

import (
	"errors"
	"fmt"

	"github.com/domainkit/event-sourced-entities-go/entity"
)

// OrderTopic is the registered topic identifier for Order entities.
const OrderTopic = "example.Order"

// OrderShippedEventType is the event type identifier for the shipment event.
const OrderShippedEventType = "OrderShipped"

// Attribute names of the Order entity.
const (
	AttrCustomerName = "customerName"
	AttrTotalCents   = "totalCents"
)

// ErrInvalidAttributeValue occurs when an attribute is assigned a value of
// the wrong type.
var ErrInvalidAttributeValue = errors.New("invalid attribute value")

// Order is a customer order whose state is derived from its event stream.
// It carries a version counter for optimistic concurrency, a hash chain
// over its events and creation/modification timestamps.
type Order struct {
	entity.Base
	entity.Versioned
	entity.Hashchained
	entity.Timestamped
	entity.Deferred

	customerName string
	totalCents   int64
	shipped      bool
}

// OpenOrder creates a new Order for the given customer.
func OpenOrder(customerName string, totalCents int64, opts ...entity.CreateOption) (*Order, error) {
	return entity.Create(
		newOrder,
		entity.Fields{
			AttrCustomerName: customerName,
			AttrTotalCents:   totalCents,
		},
		opts...,
	)
}

func newOrder() *Order {
	return &Order{}
}

// CustomerName returns the name of the ordering customer.
func (o *Order) CustomerName() string {
	return o.customerName
}

// TotalCents returns the order total in cents.
func (o *Order) TotalCents() int64 {
	return o.totalCents
}

// IsShipped reports whether the order has been shipped.
func (o *Order) IsShipped() bool {
	return o.shipped
}

// Rename changes the customer name.
func (o *Order) Rename(customerName string) error {
	_, err := entity.ChangeAttribute(o, AttrCustomerName, customerName)
	return err
}

// AdjustTotal changes the order total.
func (o *Order) AdjustTotal(totalCents int64) error {
	_, err := entity.ChangeAttribute(o, AttrTotalCents, totalCents)
	return err
}

// Ship marks the order as shipped.
func (o *Order) Ship() error {
	_, err := entity.Trigger(o, OrderShippedEventType, nil)
	return err
}

// Cancel discards the order. Canceling is terminal.
func (o *Order) Cancel() error {
	_, err := entity.Discard(o)
	return err
}

// SetAttribute assigns one named attribute with type checking. Numeric
// values may arrive as float64 after a JSON round trip through the store.
func (o *Order) SetAttribute(name string, value any) error {
	switch name {
	case AttrCustomerName:
		customerName, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s must be a string", ErrInvalidAttributeValue, AttrCustomerName)
		}
		o.customerName = customerName

		return nil

	case AttrTotalCents:
		totalCents, ok := toInt64(value)
		if !ok {
			return fmt.Errorf("%w: %s must be an integer", ErrInvalidAttributeValue, AttrTotalCents)
		}
		o.totalCents = totalCents

		return nil

	default:
		return fmt.Errorf("%w: %s", entity.ErrUnknownAttribute, name)
	}
}

// ApplyEvent mutates the order for attribute changes and the shipment event.
func (o *Order) ApplyEvent(event entity.Event) error {
	switch {
	case event.Kind() == entity.KindAttributeChanged:
		return o.SetAttribute(event.Name(), event.Value())

	case event.EventType() == OrderShippedEventType:
		o.shipped = true
		return nil

	default:
		return fmt.Errorf("%w: %s", entity.ErrUnhandledEventType, event.EventType())
	}
}

// Equals compares all owned state including the extension state.
func (o *Order) Equals(other entity.Root) bool {
	otherOrder, ok := other.(*Order)
	if !ok {
		return false
	}

	return o.ID() == otherOrder.ID() &&
		o.IsDiscarded() == otherOrder.IsDiscarded() &&
		o.Version() == otherOrder.Version() &&
		o.Head() == otherOrder.Head() &&
		o.CreatedOn().Equal(otherOrder.CreatedOn()) &&
		o.LastModified().Equal(otherOrder.LastModified()) &&
		o.customerName == otherOrder.customerName &&
		o.totalCents == otherOrder.totalCents &&
		o.shipped == otherOrder.shipped
}

// toInt64 accepts the integer representations an attribute value can have
// in memory and after JSON decoding. Float values with a fractional part
// are rejected.
func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		if v != float64(int64(v)) {
			return 0, false
		}
		return int64(v), true
	default:
		return 0, false
	}
}
