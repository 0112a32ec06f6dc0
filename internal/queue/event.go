// Package queue defines message payloads exchanged over the message broker.
package queue

// Product lifecycle actions carried in ProductLifecycleEvent.Action.
const (
	ActionRecycled = "recycled" // soft-deleted into the recycle bin
	ActionRestored = "restored" // returned to the active catalog
	ActionPurged   = "purged"   // permanently removed (explicit or sweep)
)

// ProductLifecycleEvent is published whenever a product changes
// recycle-bin state. It carries enough for downstream consumers to log
// or trigger notifications without querying the primary database; bulk
// operations publish a single event with Count > 1 and no product
// identity.
type ProductLifecycleEvent struct {
	Action     string `json:"action"`
	ProductID  uint64 `json:"product_id,omitempty"`
	Name       string `json:"product_name,omitempty"`
	Barcode    string `json:"barcode,omitempty"`
	Count      int64  `json:"count"`
	Source     string `json:"source"` // "api" or "sweep"
	OccurredAt string `json:"occurred_at"`
}
