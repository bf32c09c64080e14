package activities

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/crollins/chorus/models"
)

func TestDecodeActivityUnknownKind(t *testing.T) {
	t.Parallel()

	_, err := DecodeActivity([]byte(`{"type":"Move","id":"https://a.example/1","actor":"https://a.example/u/a"}`))
	if !errors.Is(err, ErrUnsupportedActivityType) {
		t.Errorf("expected unsupported activity type error, got: %v", err)
	}
}

func TestDecodeActivityDispatchesByType(t *testing.T) {
	t.Parallel()

	handler, err := DecodeActivity([]byte(`{
		"type": "Dislike",
		"id": "https://c.example/activities/dislike/9",
		"actor": "https://c.example/u/someone",
		"object": "https://b.example/post/42",
		"cc": ["https://b.example/c/linux"]
	}`))
	if err != nil {
		t.Errorf("could not decode dislike: %v", err)
		t.FailNow()
	}

	dislike, ok := handler.(*DislikePost)
	if !ok {
		t.Errorf("expected *DislikePost, got %T", handler)
		t.FailNow()
	}
	if dislike.Object != "https://b.example/post/42" {
		t.Errorf("unexpected object: %s", dislike.Object)
	}
}

func TestAnnounceReceiveAppliesInner(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	community, mod, _ := f.seedCommunity(t)
	events := f.notifier.Subscribe(4)

	inner := updateFrom(mod.ActorURI, community.ActorURI, "Linux Chat")
	object, err := json.Marshal(inner)
	if err != nil {
		t.Errorf("could not marshal inner activity: %v", err)
		t.FailNow()
	}

	announce := &Announce{
		Envelope: models.Envelope{
			ID:    "https://b.example/activities/announce/1",
			Actor: community.ActorURI,
		},
		To:     models.URIList{models.PublicURI},
		Object: object,
		Kind:   KindAnnounce,
	}

	counter := NewCounter(10)
	if err := announce.Verify(context.Background(), f.deps, counter); err != nil {
		t.Errorf("announce verify failed: %v", err)
		t.FailNow()
	}
	if err := announce.Receive(context.Background(), f.deps, counter); err != nil {
		t.Errorf("announce receive failed: %v", err)
		t.FailNow()
	}

	stored, _ := f.store.CommunityByID(context.Background(), community.ID)
	if stored.Title != "Linux Chat" {
		t.Errorf("inner update not applied, title is %q", stored.Title)
	}

	select {
	case <-events:
	default:
		t.Errorf("inner update should raise a notification")
	}
}

func TestAnnouncePreservesExtensions(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"type": "Announce",
		"id": "https://b.example/activities/announce/3",
		"actor": "https://b.example/c/linux",
		"to": ["https://www.w3.org/ns/activitystreams#Public"],
		"object": {"type": "Like", "id": "https://c.example/activities/like/1", "actor": "https://c.example/u/user1", "object": "https://b.example/post/1"},
		"cc": [],
		"audience": "https://b.example/c/linux"
	}`)

	handler, err := DecodeActivity(raw)
	if err != nil {
		t.Errorf("could not decode announce: %v", err)
		t.FailNow()
	}

	announce, ok := handler.(*Announce)
	if !ok {
		t.Errorf("expected *Announce, got %T", handler)
		t.FailNow()
	}
	if string(announce.Unparsed["audience"]) != `"https://b.example/c/linux"` {
		t.Errorf("audience extension was not preserved: %v", announce.Unparsed)
	}
	if _, parsed := announce.Unparsed["object"]; parsed {
		t.Errorf("object is a parsed field and must not appear in Unparsed")
	}

	out, err := json.Marshal(announce)
	if err != nil {
		t.Errorf("could not re-serialize announce: %v", err)
		t.FailNow()
	}
	var round map[string]json.RawMessage
	if err := json.Unmarshal(out, &round); err != nil {
		t.Errorf("re-serialized announce is not valid JSON: %v", err)
		t.FailNow()
	}
	if string(round["audience"]) != `"https://b.example/c/linux"` {
		t.Errorf("audience extension lost on re-serialization: %s", out)
	}
}

func TestAnnounceRejectsNestedAnnounce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	announce := &Announce{
		Envelope: models.Envelope{
			ID:    "https://b.example/activities/announce/1",
			Actor: "https://b.example/c/linux",
		},
		Object: json.RawMessage(`{"type":"Announce","id":"https://b.example/activities/announce/2","actor":"https://b.example/c/linux","object":{}}`),
		Kind:   KindAnnounce,
	}

	err := announce.Receive(context.Background(), f.deps, NewCounter(10))
	if !errors.Is(err, ErrUnsupportedActivityType) {
		t.Errorf("expected nested announce rejection, got: %v", err)
	}
}

func TestRebroadcastLocalCommunity(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	community, mod, _ := f.seedCommunity(t)

	update := updateFrom(mod.ActorURI, community.ActorURI, "Linux Chat")
	if err := Rebroadcast(context.Background(), f.deps, update); err != nil {
		t.Errorf("rebroadcast failed: %v", err)
		t.FailNow()
	}

	if len(f.queue.sends) != 1 {
		t.Errorf("expected 1 announce queued, got %d", len(f.queue.sends))
		t.FailNow()
	}

	var out Announce
	if err := json.Unmarshal(f.queue.sends[0].payload, &out); err != nil {
		t.Errorf("queued payload is not an announce: %v", err)
		t.FailNow()
	}
	if out.Actor != community.ActorURI {
		t.Errorf("announce should be authored by the community, got %s", out.Actor)
	}

	inner, err := DecodeActivity(out.Object)
	if err != nil {
		t.Errorf("announce object should decode: %v", err)
		t.FailNow()
	}
	if inner.Common().ID != update.ID {
		t.Errorf("announce should wrap the original activity, got %s", inner.Common().ID)
	}
}

func TestRebroadcastSkipsRemoteCommunity(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	community := f.store.AddCommunity(models.Community{
		Name:     "remote",
		ActorURI: "https://c.example/c/remote",
		Local:    false,
	})
	mod := f.store.AddPerson(models.Person{
		Name:     "cmod",
		ActorURI: "https://c.example/u/cmod",
	})
	f.store.AddMember(community.ID, mod.ID)

	update := updateFrom(mod.ActorURI, community.ActorURI, "Elsewhere")
	if err := Rebroadcast(context.Background(), f.deps, update); err != nil {
		t.Errorf("rebroadcast failed: %v", err)
	}

	if len(f.queue.sends) != 0 {
		t.Errorf("remote community must not be re-announced from here, got %d sends", len(f.queue.sends))
	}
}
