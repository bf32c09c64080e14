package activities

import (
	"context"
	"encoding/json"

	"github.com/crollins/chorus/models"
)

// DislikePost is a downvote on a post. Any valid remote actor may vote;
// there is no membership or moderator gate.
type DislikePost struct {
	models.Envelope
	To     models.URIList `json:"to"`
	Object string         `json:"object"`
	CC     models.URIList `json:"cc"`
	Kind   string         `json:"type"`
}

// Verify checks only the envelope and the actor's validity
func (d *DislikePost) Verify(ctx context.Context, deps *Deps, counter *Counter) error {
	if err := verifyActivity(&d.Envelope); err != nil {
		return err
	}
	return verifyActorValid(d.Actor)
}

// Receive applies the downvote through the shared vote routine
func (d *DislikePost) Receive(ctx context.Context, deps *Deps, counter *Counter) error {
	return likeOrDislikePost(ctx, deps, -1, d.Actor, d.Object, counter)
}

// Common returns the shared envelope fields
func (d *DislikePost) Common() *models.Envelope {
	return &d.Envelope
}

func (d *DislikePost) announcable() {}

func (d *DislikePost) target() string {
	if len(d.CC) == 0 {
		return ""
	}
	return d.CC[0]
}

func (d *DislikePost) UnmarshalJSON(data []byte) error {
	type alias DislikePost
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*d = DislikePost(a)

	unparsed, err := models.ExtractUnparsed(data, commonKnown...)
	if err != nil {
		return err
	}
	d.Unparsed = unparsed
	return nil
}

func (d DislikePost) MarshalJSON() ([]byte, error) {
	type alias DislikePost
	return models.MergeUnparsed(alias(d), d.Unparsed)
}
