package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"

	"github.com/crollins/chorus/activities"
	"github.com/crollins/chorus/models"
	"github.com/crollins/chorus/storage"
	"github.com/crollins/chorus/storage/mem"
)

type actorTransport struct {
	mu      sync.Mutex
	fetches int
	docs    map[string]string
}

func (a *actorTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if req.Method != "GET" {
		return nil, fmt.Errorf("actor fetches must be GETs")
	}
	if req.Header.Get("Accept") == "" {
		return nil, fmt.Errorf("actor fetches must send an Accept header")
	}

	a.fetches++

	doc, ok := a.docs[req.URL.String()]
	status := http.StatusOK
	if !ok {
		status = http.StatusNotFound
	}

	header := make(http.Header)
	header.Add("Content-Type", "application/activity+json")

	return &http.Response{
		Status:     http.StatusText(status),
		StatusCode: status,
		Proto:      req.Proto,
		ProtoMajor: req.ProtoMajor,
		ProtoMinor: req.ProtoMinor,
		Request:    req,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader([]byte(doc))),
	}, nil
}

func actorDoc(uri string) string {
	return fmt.Sprintf(`{
		"id": %q,
		"type": "Person",
		"preferredUsername": "alice",
		"inbox": %q,
		"endpoints": {"sharedInbox": "https://c.example/inbox"}
	}`, uri, uri+"/inbox")
}

func TestResolvePersonCached(t *testing.T) {
	t.Parallel()

	store := mem.NewStore()
	store.AddPerson(models.Person{
		Name:     "alice",
		ActorURI: "https://c.example/u/alice",
	})

	transport := &actorTransport{docs: map[string]string{}}
	resolver := NewResolver(&http.Client{Transport: transport}, store)

	counter := activities.NewCounter(10)
	person, err := resolver.ResolvePerson(context.Background(), "https://c.example/u/alice", counter)
	if err != nil {
		t.Errorf("cached resolve failed: %v", err)
		t.FailNow()
	}
	if person.Name != "alice" {
		t.Errorf("unexpected person %q", person.Name)
	}
	if transport.fetches != 0 {
		t.Errorf("cached resolve must not fetch, fetched %d times", transport.fetches)
	}
	if counter.Used() != 0 {
		t.Errorf("cached resolve must not consume lookups, used %d", counter.Used())
	}
}

func TestResolvePersonFetchesAndCaches(t *testing.T) {
	t.Parallel()

	store := mem.NewStore()
	transport := &actorTransport{docs: map[string]string{
		"https://c.example/u/alice": actorDoc("https://c.example/u/alice"),
	}}
	resolver := NewResolver(&http.Client{Transport: transport}, store)

	counter := activities.NewCounter(10)
	person, err := resolver.ResolvePerson(context.Background(), "https://c.example/u/alice", counter)
	if err != nil {
		t.Errorf("resolve failed: %v", err)
		t.FailNow()
	}

	if person.InboxURI != "https://c.example/u/alice/inbox" {
		t.Errorf("inbox not taken from actor document: %s", person.InboxURI)
	}
	if person.SharedInboxURI != "https://c.example/inbox" {
		t.Errorf("shared inbox not taken from actor document: %s", person.SharedInboxURI)
	}
	if counter.Used() != 1 {
		t.Errorf("fetch should consume one lookup, used %d", counter.Used())
	}

	// Second resolve hits the cache.
	if _, err := resolver.ResolvePerson(context.Background(), "https://c.example/u/alice", counter); err != nil {
		t.Errorf("second resolve failed: %v", err)
	}
	if transport.fetches != 1 {
		t.Errorf("expected a single fetch, got %d", transport.fetches)
	}
}

func TestResolvePersonCounterExhausted(t *testing.T) {
	t.Parallel()

	store := mem.NewStore()
	transport := &actorTransport{docs: map[string]string{
		"https://c.example/u/alice": actorDoc("https://c.example/u/alice"),
	}}
	resolver := NewResolver(&http.Client{Transport: transport}, store)

	_, err := resolver.ResolvePerson(context.Background(), "https://c.example/u/alice", activities.NewCounter(0))
	if !errors.Is(err, activities.ErrRecursionLimit) {
		t.Errorf("expected recursion limit error, got: %v", err)
	}
	if transport.fetches != 0 {
		t.Errorf("exhausted counter must prevent the fetch, fetched %d times", transport.fetches)
	}
}

func TestResolvePersonNotFound(t *testing.T) {
	t.Parallel()

	store := mem.NewStore()
	transport := &actorTransport{docs: map[string]string{}}
	resolver := NewResolver(&http.Client{Transport: transport}, store)

	_, err := resolver.ResolvePerson(context.Background(), "https://c.example/u/ghost", activities.NewCounter(10))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected not-found error, got: %v", err)
	}
}

func TestResolvePersonRejectsMismatchedDocument(t *testing.T) {
	t.Parallel()

	store := mem.NewStore()
	transport := &actorTransport{docs: map[string]string{
		"https://c.example/u/alice": actorDoc("https://evil.example/u/alice"),
	}}
	resolver := NewResolver(&http.Client{Transport: transport}, store)

	_, err := resolver.ResolvePerson(context.Background(), "https://c.example/u/alice", activities.NewCounter(10))
	if !errors.Is(err, models.ErrMalformedEnvelope) {
		t.Errorf("expected malformed document rejection, got: %v", err)
	}
}
