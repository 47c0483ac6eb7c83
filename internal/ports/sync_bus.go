package ports

import "context"

// ChangeType of a published record mutation.
type ChangeType string

const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
)

// Change is the notification payload delivered to subscribed modules.
type Change struct {
	UID        string
	ObjectType string
	ChangedBy  string
	Type       ChangeType
	Payload    map[string]any
}

// Subscriber is a consuming module's hook into the sync bus.
// Notify runs synchronously on the writer's goroutine; implementations
// should return quickly. Errors are logged and isolated, never propagated
// back to the writer.
type Subscriber interface {
	Module() string
	Notify(ctx context.Context, change Change) error
}

// SyncBus is the process-local publish/subscribe registry. Delivery is in
// registration order and skips the subscriber whose module equals
// Change.ChangedBy. Subscriptions do not survive the process.
type SyncBus interface {
	Subscribe(sub Subscriber)
	Unsubscribe(sub Subscriber)
	Publish(ctx context.Context, change Change)
}
