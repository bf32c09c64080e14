package activities

import (
	"context"
	"fmt"

	"github.com/crollins/chorus/models"
	"github.com/crollins/chorus/notify"
)

// likeOrDislikePost applies a vote with the given signed score to the post
// behind postURI. This is the single place that enforces one effective
// vote per (actor, post): the storage write is an upsert, so a repeated or
// flipped vote replaces the previous one instead of stacking.
func likeOrDislikePost(ctx context.Context, deps *Deps, score int16, actorURI, postURI string, counter *Counter) error {
	person, err := deps.Resolver.ResolvePerson(ctx, actorURI, counter)
	if err != nil {
		return err
	}

	post, err := deps.Store.PostByApubURI(ctx, postURI)
	if err != nil {
		return err
	}

	vote := &models.PostVote{
		PersonID: person.ID,
		PostID:   post.ID,
		Score:    score,
	}
	if err := deps.Store.UpsertPostVote(ctx, vote); err != nil {
		return fmt.Errorf("could not record vote on post %d: %w", post.ID, err)
	}

	deps.Notifier.Notify(ctx, notify.Event{
		Op:          notify.OpCreatePostLike,
		EntityID:    post.ID,
		CommunityID: post.CommunityID,
	})
	return nil
}
