package events

// Topic constants for domain events emitted by the platform.
const (
	TopicOrderCreated         = "order.created"
	TopicOrderStatusChanged   = "order.status_changed"
	TopicBookingCreated       = "booking.created"
	TopicBookingStatusChanged = "booking.status_changed"
	TopicBusinessUpdated      = "business.updated"
)

// DefaultTopics returns the canonical list of topics that support notifications.
func DefaultTopics() []string {
	return []string{
		TopicOrderCreated,
		TopicOrderStatusChanged,
		TopicBookingCreated,
		TopicBookingStatusChanged,
		TopicBusinessUpdated,
	}
}
