package controllers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/crollins/chorus/activities"
	"github.com/crollins/chorus/dedupe"
	"github.com/crollins/chorus/dispatch"
	"github.com/crollins/chorus/models"
	"github.com/crollins/chorus/notify"
	"github.com/crollins/chorus/storage"
	"github.com/crollins/chorus/storage/mem"
)

type stubResolver struct {
	store storage.PersonStore
}

func (r *stubResolver) ResolvePerson(ctx context.Context, uri string, counter *activities.Counter) (*models.Person, error) {
	person, err := r.store.PersonByActorURI(ctx, uri)
	if err == nil {
		return person, nil
	}
	if incrErr := counter.Incr(); incrErr != nil {
		return nil, incrErr
	}
	return nil, err
}

type stubQueue struct{}

func (q *stubQueue) SendToCommunity(ctx context.Context, activityID string, payload []byte, community *models.Community, extra []url.URL) error {
	return nil
}

func testLog() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(log)
}

func newInbox(t *testing.T) (*Inbox, *mem.Store) {
	t.Helper()

	store := mem.NewStore()
	deps := &activities.Deps{
		Scheme:   "https",
		Domain:   "a.example",
		Store:    store,
		Notifier: notify.NewMemNotifier(),
		Resolver: &stubResolver{store: store},
		Queue:    &stubQueue{},
	}
	dispatcher := dispatch.NewDispatcher(deps, dedupe.NewMemStore(), 10, nil, testLog())
	return NewInbox(dispatcher, testLog()), store
}

func seedCommunity(store *mem.Store) {
	community := store.AddCommunity(models.Community{
		Name:        "linux",
		Title:       "Linux",
		Description: "kernel talk",
		ActorURI:    "https://b.example/c/linux",
		Local:       true,
	})
	mod := store.AddPerson(models.Person{
		Name:     "mod1",
		ActorURI: "https://b.example/u/mod1",
	})
	store.AddMember(community.ID, mod.ID)
	store.AddModerator(community.ID, mod.ID)
}

func updateBody(actor string) []byte {
	return []byte(fmt.Sprintf(`{
		"@context": "https://www.w3.org/ns/activitystreams",
		"id": "https://b.example/activities/update/1",
		"actor": %q,
		"to": ["https://www.w3.org/ns/activitystreams#Public"],
		"cc": ["https://b.example/c/linux"],
		"type": "Update",
		"object": {
			"id": "https://b.example/c/linux",
			"type": "Group",
			"preferredUsername": "linux",
			"name": "GNU/Linux",
			"summary": "kernel talk"
		}
	}`, actor))
}

func postInbox(t *testing.T, inbox *Inbox, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "https://a.example/inbox", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/activity+json")
	resp := httptest.NewRecorder()
	inbox.ServeHTTP(resp, req)
	return resp
}

func TestInboxAccepted(t *testing.T) {
	t.Parallel()

	inbox, store := newInbox(t)
	seedCommunity(store)

	resp := postInbox(t, inbox, updateBody("https://b.example/u/mod1"))
	if resp.Code != http.StatusAccepted {
		t.Errorf("expected 202, got %d: %s", resp.Code, resp.Body.String())
	}

	community, err := store.CommunityByActorURI(context.Background(), "https://b.example/c/linux")
	if err != nil {
		t.Errorf("community lookup failed: %v", err)
		t.FailNow()
	}
	if community.Title != "GNU/Linux" {
		t.Errorf("accepted activity was not applied, title is %q", community.Title)
	}
}

func TestInboxUnsupportedType(t *testing.T) {
	t.Parallel()

	inbox, _ := newInbox(t)
	resp := postInbox(t, inbox, []byte(`{
		"id": "https://b.example/activities/follow/1",
		"actor": "https://b.example/u/mod1",
		"type": "Follow"
	}`))
	if resp.Code != http.StatusUnsupportedMediaType {
		t.Errorf("expected 415, got %d", resp.Code)
	}
}

func TestInboxMalformed(t *testing.T) {
	t.Parallel()

	inbox, _ := newInbox(t)
	resp := postInbox(t, inbox, []byte(`{"type": "Update", "id": "not a uri", "actor": ""}`))
	if resp.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.Code)
	}
}

// failingStore breaks community updates with an infrastructure error
type failingStore struct {
	*mem.Store
}

func (f *failingStore) UpdateCommunity(ctx context.Context, id int64, patch *models.CommunityPatch) (*models.Community, error) {
	return nil, fmt.Errorf("connection reset writing to communities relation")
}

func TestInboxInternalErrorNotLeaked(t *testing.T) {
	t.Parallel()

	store := mem.NewStore()
	seedCommunity(store)
	failing := &failingStore{Store: store}

	deps := &activities.Deps{
		Scheme:   "https",
		Domain:   "a.example",
		Store:    failing,
		Notifier: notify.NewMemNotifier(),
		Resolver: &stubResolver{store: failing},
		Queue:    &stubQueue{},
	}
	dispatcher := dispatch.NewDispatcher(deps, dedupe.NewMemStore(), 10, nil, testLog())
	inbox := NewInbox(dispatcher, testLog())

	resp := postInbox(t, inbox, updateBody("https://b.example/u/mod1"))
	if resp.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d: %s", resp.Code, resp.Body.String())
	}
	if strings.Contains(resp.Body.String(), "communities relation") {
		t.Errorf("storage error detail leaked to the peer: %s", resp.Body.String())
	}
}

func TestInboxForbidden(t *testing.T) {
	t.Parallel()

	inbox, store := newInbox(t)
	seedCommunity(store)
	store.AddPerson(models.Person{
		Name:     "user1",
		ActorURI: "https://b.example/u/user1",
	})

	// user1 exists but neither subscribes to nor moderates the community.
	resp := postInbox(t, inbox, updateBody("https://b.example/u/user1"))
	if resp.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d: %s", resp.Code, resp.Body.String())
	}
}
