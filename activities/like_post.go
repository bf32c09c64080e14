package activities

import (
	"context"
	"encoding/json"

	"github.com/crollins/chorus/models"
)

// LikePost is an upvote on a post, the +1 counterpart of DislikePost
type LikePost struct {
	models.Envelope
	To     models.URIList `json:"to"`
	Object string         `json:"object"`
	CC     models.URIList `json:"cc"`
	Kind   string         `json:"type"`
}

// Verify checks only the envelope and the actor's validity
func (l *LikePost) Verify(ctx context.Context, deps *Deps, counter *Counter) error {
	if err := verifyActivity(&l.Envelope); err != nil {
		return err
	}
	return verifyActorValid(l.Actor)
}

// Receive applies the upvote through the shared vote routine
func (l *LikePost) Receive(ctx context.Context, deps *Deps, counter *Counter) error {
	return likeOrDislikePost(ctx, deps, 1, l.Actor, l.Object, counter)
}

// Common returns the shared envelope fields
func (l *LikePost) Common() *models.Envelope {
	return &l.Envelope
}

func (l *LikePost) announcable() {}

func (l *LikePost) target() string {
	if len(l.CC) == 0 {
		return ""
	}
	return l.CC[0]
}

func (l *LikePost) UnmarshalJSON(data []byte) error {
	type alias LikePost
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*l = LikePost(a)

	unparsed, err := models.ExtractUnparsed(data, commonKnown...)
	if err != nil {
		return err
	}
	l.Unparsed = unparsed
	return nil
}

func (l LikePost) MarshalJSON() ([]byte, error) {
	type alias LikePost
	return models.MergeUnparsed(alias(l), l.Unparsed)
}
