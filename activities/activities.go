// Package activities holds the per-kind activity handlers and the
// authorization predicates shared between them. Every inbound activity is
// verified before it is received; verification never mutates local state.
package activities

import (
	"context"
	"errors"
	"net/url"

	"github.com/crollins/chorus/models"
	"github.com/crollins/chorus/notify"
	"github.com/crollins/chorus/storage"
)

// ErrUnsupportedActivityType is returned when the activity carries a type
// outside the closed set of kinds this instance understands
var ErrUnsupportedActivityType = errors.New("unsupported activity type")

// ErrDomainMismatch is returned when an activity's id does not live under
// the same authority as its actor
var ErrDomainMismatch = errors.New("activity id and actor domains do not match")

// ErrNotAMember is returned when the acting person is not a subscriber of
// the target community
var ErrNotAMember = errors.New("actor is not a member of the community")

// ErrNotAuthorized is returned when a moderator-gated activity comes from
// an actor without moderator rank
var ErrNotAuthorized = errors.New("not authorized: mod action")

// ErrRecursionLimit is returned when processing one activity would require
// more nested remote lookups than the configured bound allows
var ErrRecursionLimit = errors.New("remote lookup recursion limit exceeded")

// Handler is implemented once per activity kind. Verify is a pure
// authorization and shape check; Receive applies the local side effect and
// is only ever called after Verify succeeds. Both share one Counter for
// the lifetime of the activity so nested remote lookups are bounded in
// aggregate.
type Handler interface {
	Verify(ctx context.Context, deps *Deps, counter *Counter) error
	Receive(ctx context.Context, deps *Deps, counter *Counter) error
	Common() *models.Envelope
}

// Announcable is the closed subset of activity kinds a community may wrap
// in an Announce for re-broadcast to its followers. The marker method
// keeps the set closed to this package.
type Announcable interface {
	Handler
	announcable()
	target() string
}

// ActorResolver resolves an actor URI to a cached person, fetching and
// caching the remote actor document when the person is unknown locally.
// Each remote fetch consumes one unit of the counter.
type ActorResolver interface {
	ResolvePerson(ctx context.Context, uri string, counter *Counter) (*models.Person, error)
}

// DeliveryQueue accepts a locally authored activity payload for fan-out to
// the community's follower inboxes plus any explicit extra recipients
type DeliveryQueue interface {
	SendToCommunity(ctx context.Context, activityID string, payload []byte, community *models.Community, extra []url.URL) error
}

// Deps bundles the collaborators a handler needs. Scheme and Domain
// identify this instance and are used to mint outbound activity ids.
type Deps struct {
	Scheme   string
	Domain   string
	Store    storage.Store
	Notifier notify.Notifier
	Resolver ActorResolver
	Queue    DeliveryQueue
}
