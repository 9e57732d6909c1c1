package table

// Handle is an opaque reference to an entry in a table.
// Handle 0 is reserved and always invalid.
type Handle uint32

// EventType identifies a lifecycle notification.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
	EventRemoved
	EventBorrowed
	EventBorrowReturned
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDropped:
		return "dropped"
	case EventRemoved:
		return "removed"
	case EventBorrowed:
		return "borrowed"
	case EventBorrowReturned:
		return "borrow_returned"
	default:
		return "unknown"
	}
}

// Event represents an entry lifecycle event. Value is the entry's object at
// the time of the event.
type Event[C any] struct {
	Value  C
	Handle Handle
	Type   EventType
}

// Observer receives notifications about entry lifecycle events.
// Implementations must be comparable, typically pointer types, since
// Unsubscribe matches observers with ==.
type Observer[C any] interface {
	OnEvent(Event[C])
}
