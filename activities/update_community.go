package activities

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/crollins/chorus/models"
	"github.com/crollins/chorus/notify"
)

// updateCommunityKnown lists the top-level wire fields UpdateCommunity
// parses itself; everything else is carried as unparsed extensions
var updateCommunityKnown = []string{"@context", "id", "actor", "to", "object", "cc", "type"}

// UpdateCommunity is received from a remote community moderator and
// updates the description or other fields of a local community.
type UpdateCommunity struct {
	models.Envelope
	To     models.URIList `json:"to"`
	Object models.Group   `json:"object"`
	CC     models.URIList `json:"cc"`
	Kind   string         `json:"type"`
}

// SendUpdateCommunity serializes the current local community row into an
// Update activity authored by actor and queues it to the community's
// followers. Fan-out is resolved by the delivery queue.
func SendUpdateCommunity(ctx context.Context, deps *Deps, community *models.Community, actor *models.Person) error {
	id, err := generateActivityID(deps.Scheme, deps.Domain, KindUpdate)
	if err != nil {
		return err
	}

	update := &UpdateCommunity{
		Envelope: models.Envelope{
			Context: models.DefaultContext,
			ID:      id,
			Actor:   actor.ActorURI,
		},
		To:     models.URIList{models.PublicURI},
		Object: models.GroupFromCommunity(community),
		CC:     models.URIList{community.ActorURI},
		Kind:   KindUpdate,
	}

	return sendToCommunity(ctx, deps, update, community, nil)
}

// Verify checks the envelope, that the actor subscribes to the target
// community, and that the actor moderates it
func (u *UpdateCommunity) Verify(ctx context.Context, deps *Deps, counter *Counter) error {
	if err := verifyActivity(&u.Envelope); err != nil {
		return err
	}
	if len(u.CC) == 0 {
		return fmt.Errorf("%w: community update without cc", models.ErrMalformedEnvelope)
	}
	if err := verifyPersonInCommunity(ctx, deps, u.Actor, u.CC[0], counter); err != nil {
		return err
	}
	return verifyModAction(ctx, deps, u.Actor, u.CC[0])
}

// Receive applies the received representation as a patch against the
// stored community and raises an edit notification. Re-applying the same
// update is a safe no-op on the final state.
func (u *UpdateCommunity) Receive(ctx context.Context, deps *Deps, counter *Counter) error {
	community, err := deps.Store.CommunityByActorURI(ctx, u.CC[0])
	if err != nil {
		return err
	}

	patch := u.Object.Patch()
	updated, err := deps.Store.UpdateCommunity(ctx, community.ID, &patch)
	if err != nil {
		return fmt.Errorf("could not update community %d: %w", community.ID, err)
	}

	deps.Notifier.Notify(ctx, notify.Event{
		Op:          notify.OpEditCommunity,
		EntityID:    updated.ID,
		CommunityID: updated.ID,
	})
	return nil
}

// Common returns the shared envelope fields
func (u *UpdateCommunity) Common() *models.Envelope {
	return &u.Envelope
}

func (u *UpdateCommunity) announcable() {}

func (u *UpdateCommunity) target() string {
	if len(u.CC) == 0 {
		return ""
	}
	return u.CC[0]
}

// UnmarshalJSON keeps unknown top-level fields so the activity can be
// re-serialized losslessly
func (u *UpdateCommunity) UnmarshalJSON(data []byte) error {
	type alias UpdateCommunity
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*u = UpdateCommunity(a)

	unparsed, err := models.ExtractUnparsed(data, updateCommunityKnown...)
	if err != nil {
		return err
	}
	u.Unparsed = unparsed
	return nil
}

// MarshalJSON splices preserved extension fields back into the output
func (u UpdateCommunity) MarshalJSON() ([]byte, error) {
	type alias UpdateCommunity
	return models.MergeUnparsed(alias(u), u.Unparsed)
}
