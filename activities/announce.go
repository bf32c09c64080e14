package activities

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/crollins/chorus/models"
	"github.com/crollins/chorus/storage"
)

// Announce wraps another activity for re-broadcast by a community to its
// followers. The wrapped activity is carried verbatim and goes through
// full verification on receipt.
type Announce struct {
	models.Envelope
	To     models.URIList  `json:"to"`
	Object json.RawMessage `json:"object"`
	CC     models.URIList  `json:"cc"`
	Kind   string          `json:"type"`
}

// BuildAnnounce wraps inner in an Announce authored by the community
func BuildAnnounce(deps *Deps, community *models.Community, inner Announcable) (*Announce, error) {
	id, err := generateActivityID(deps.Scheme, deps.Domain, KindAnnounce)
	if err != nil {
		return nil, err
	}

	object, err := json.Marshal(inner)
	if err != nil {
		return nil, fmt.Errorf("could not serialize announced activity: %v", err)
	}

	return &Announce{
		Envelope: models.Envelope{
			Context: models.DefaultContext,
			ID:      id,
			Actor:   community.ActorURI,
		},
		To:     models.URIList{models.PublicURI},
		Object: object,
		CC:     models.URIList{},
		Kind:   KindAnnounce,
	}, nil
}

// Rebroadcast re-announces a received announcable activity when its target
// community is hosted here. Remote-hosted targets are left to their own
// instance.
func Rebroadcast(ctx context.Context, deps *Deps, handler Handler) error {
	inner, ok := handler.(Announcable)
	if !ok {
		return nil
	}

	target := inner.target()
	if target == "" {
		return nil
	}

	community, err := deps.Store.CommunityByActorURI(ctx, target)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}
	if !community.Local {
		return nil
	}

	announce, err := BuildAnnounce(deps, community, inner)
	if err != nil {
		return err
	}
	return sendToCommunity(ctx, deps, announce, community, nil)
}

// Verify checks the envelope and that the wrapped payload is present
func (a *Announce) Verify(ctx context.Context, deps *Deps, counter *Counter) error {
	if err := verifyActivity(&a.Envelope); err != nil {
		return err
	}
	if len(a.Object) == 0 {
		return fmt.Errorf("%w: announce without object", models.ErrMalformedEnvelope)
	}
	return nil
}

// Receive unwraps the inner activity and runs it through its own verify
// and receive, sharing this activity's lookup counter
func (a *Announce) Receive(ctx context.Context, deps *Deps, counter *Counter) error {
	inner, err := DecodeActivity(a.Object)
	if err != nil {
		return err
	}
	if _, ok := inner.(*Announce); ok {
		return fmt.Errorf("%w: nested announce", ErrUnsupportedActivityType)
	}

	if err := inner.Verify(ctx, deps, counter); err != nil {
		return err
	}
	return inner.Receive(ctx, deps, counter)
}

// Common returns the shared envelope fields
func (a *Announce) Common() *models.Envelope {
	return &a.Envelope
}

func (a *Announce) UnmarshalJSON(data []byte) error {
	type alias Announce
	var al alias
	if err := json.Unmarshal(data, &al); err != nil {
		return err
	}
	*a = Announce(al)

	unparsed, err := models.ExtractUnparsed(data, commonKnown...)
	if err != nil {
		return err
	}
	a.Unparsed = unparsed
	return nil
}

func (a Announce) MarshalJSON() ([]byte, error) {
	type alias Announce
	return models.MergeUnparsed(alias(a), a.Unparsed)
}
