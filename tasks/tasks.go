// Package tasks performs outbound activity delivery: resolving recipient
// inboxes, signing requests, and retrying failed sends with backoff.
package tasks

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofrs/uuid"
)

// ErrDeliveryFailure is returned when a destination inbox rejects or
// cannot receive a delivery attempt
var ErrDeliveryFailure = errors.New("delivery failure")

// Task is an asynchronous delivery task
type Task interface {
	ID() uuid.UUID
	Run(ctx context.Context) error
}

// Signer signs an outbound request over its body so the destination can
// authenticate this instance
type Signer interface {
	SignRequest(req *http.Request, body []byte) error
}
