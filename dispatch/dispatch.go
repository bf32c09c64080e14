// Package dispatch routes inbound activities through the verify-then-
// receive state machine. Every message moves Received -> Verifying ->
// Applying -> Applied, or ends Rejected with no local effect.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/piprate/json-gold/ld"
	"github.com/sirupsen/logrus"

	"github.com/crollins/chorus/activities"
	"github.com/crollins/chorus/dedupe"
	"github.com/crollins/chorus/models"
)

const (
	stateReceived  = "received"
	stateVerifying = "verifying"
	stateApplying  = "applying"
	stateApplied   = "applied"
	stateRejected  = "rejected"
)

// Dispatcher owns the per-message lookup counter and drives each inbound
// activity through its handler. A verification failure drops the message
// as an atomic no-op; it never affects other in-flight activities.
type Dispatcher struct {
	deps        *activities.Deps
	applied     dedupe.Store
	lookupLimit int

	proc *ld.JsonLdProcessor
	opts *ld.JsonLdOptions

	log *logrus.Entry
}

// NewDispatcher creates a Dispatcher. When client is non-nil, inbound
// payloads are additionally run through JSON-LD expansion (resolving
// contexts over client) to reject documents that are not valid JSON-LD.
func NewDispatcher(deps *activities.Deps, applied dedupe.Store, lookupLimit int, client *http.Client, log *logrus.Entry) *Dispatcher {
	d := &Dispatcher{
		deps:        deps,
		applied:     applied,
		lookupLimit: lookupLimit,
		log:         log,
	}

	if client != nil {
		loader := ld.NewRFC7324CachingDocumentLoader(client)
		opts := ld.NewJsonLdOptions("")
		opts.DocumentLoader = loader
		d.proc = ld.NewJsonLdProcessor()
		d.opts = opts
	}

	return d
}

// Process runs one raw inbound payload through decode, verify, and
// receive. The returned error describes why the activity was rejected or
// failed; either way no other activity is affected.
func (d *Dispatcher) Process(ctx context.Context, raw []byte) error {
	log := d.log.WithField("state", stateReceived)

	if d.proc != nil {
		var doc map[string]interface{}
		if err := json.Unmarshal(raw, &doc); err != nil {
			log.WithError(err).Warn("rejecting payload that is not a JSON object")
			return fmt.Errorf("%w: %v", models.ErrMalformedEnvelope, err)
		}
		if _, err := d.proc.Expand(doc, d.opts); err != nil {
			log.WithError(err).Warn("rejecting payload that does not expand as JSON-LD")
			return fmt.Errorf("%w: %v", models.ErrMalformedEnvelope, err)
		}
	}

	handler, err := activities.DecodeActivity(raw)
	if err != nil {
		log.WithError(err).Warn("rejecting undecodable activity")
		return err
	}

	env := handler.Common()
	log = d.log.WithFields(logrus.Fields{
		"activity": env.ID,
		"actor":    env.Actor,
	})

	seen, err := d.applied.Seen(ctx, env.ID)
	if err != nil {
		log.WithError(err).Warn("could not check applied-id store, continuing")
	} else if seen {
		log.Info("activity already applied, dropping redelivery")
		return nil
	}

	counter := activities.NewCounter(d.lookupLimit)

	log.WithField("state", stateVerifying).Debug("verifying activity")
	if err := handler.Verify(ctx, d.deps, counter); err != nil {
		log.WithField("state", stateRejected).WithError(err).Warn("activity failed verification")
		return fmt.Errorf("verify %s: %w", env.ID, err)
	}

	log.WithField("state", stateApplying).Debug("applying activity")
	if err := handler.Receive(ctx, d.deps, counter); err != nil {
		log.WithField("state", stateRejected).WithError(err).Error("activity failed to apply")
		return fmt.Errorf("receive %s: %w", env.ID, err)
	}

	if err := d.applied.Mark(ctx, env.ID); err != nil {
		log.WithError(err).Warn("could not mark activity applied")
	}

	// The local effect is committed; a failed re-broadcast must not fail
	// the inbound activity.
	if err := activities.Rebroadcast(ctx, d.deps, handler); err != nil {
		log.WithError(err).Error("could not re-broadcast activity to followers")
	}

	log.WithField("state", stateApplied).WithField("lookups", counter.Used()).Info("activity applied")
	return nil
}
