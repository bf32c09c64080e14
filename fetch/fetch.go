// Package fetch dereferences remote actor documents over the federation
// transport and caches them through the storage collaborator.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/crollins/chorus/activities"
	"github.com/crollins/chorus/models"
	"github.com/crollins/chorus/storage"
)

const maxActorDocSz = 1 << 20 // 1 MB

const acceptHeader = "application/activity+json, application/ld+json"

// Resolver resolves actor URIs to cached persons, fetching unknown actors
// from their home instance. Every remote fetch consumes one counter unit
// so chains of nested lookups stay bounded.
type Resolver struct {
	client  *http.Client
	persons storage.PersonStore
}

// NewResolver creates a Resolver around client. The client's timeout
// bounds each individual fetch.
func NewResolver(client *http.Client, persons storage.PersonStore) *Resolver {
	return &Resolver{
		client:  client,
		persons: persons,
	}
}

// ResolvePerson returns the cached person behind uri, fetching and caching
// the remote actor document when the person is unknown locally
func (r *Resolver) ResolvePerson(ctx context.Context, uri string, counter *activities.Counter) (*models.Person, error) {
	person, err := r.persons.PersonByActorURI(ctx, uri)
	if err == nil {
		return person, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	if err := counter.Incr(); err != nil {
		return nil, err
	}

	doc, err := r.fetchActor(ctx, uri)
	if err != nil {
		return nil, err
	}
	if doc.ID != uri {
		return nil, fmt.Errorf("%w: actor document id %q does not match %q", models.ErrMalformedEnvelope, doc.ID, uri)
	}

	fetched := doc.Person()
	return r.persons.UpsertPerson(ctx, &fetched)
}

func (r *Resolver) fetchActor(ctx context.Context, uri string) (*models.ActorDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("could not build actor fetch request: %v", err)
	}
	req.Header.Set("Accept", acceptHeader)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not fetch actor %s: %v", uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return nil, fmt.Errorf("actor %s: %w", uri, storage.ErrNotFound)
	}
	if resp.StatusCode > 399 {
		return nil, fmt.Errorf("could not fetch actor %s: status %d", uri, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxActorDocSz))
	if err != nil {
		return nil, fmt.Errorf("could not read actor document: %v", err)
	}

	var doc models.ActorDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("could not decode actor document for %s: %v", uri, err)
	}
	return &doc, nil
}
