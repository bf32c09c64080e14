// Package notify carries fire-and-forget "operation occurred" events to
// real-time client subscribers. A failed notification never fails the
// activity that produced it.
package notify

import "context"

// Operation names mirror the user operations clients subscribe to
const (
	OpEditCommunity  = "EditCommunity"
	OpCreatePostLike = "CreatePostLike"
)

// Event describes one completed operation on a local entity
type Event struct {
	Op          string `json:"op"`
	EntityID    int64  `json:"entity_id"`
	CommunityID int64  `json:"community_id,omitempty"`
}

// Notifier delivers events to subscribers. Implementations swallow their
// own failures and at most log them.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}
