package activities

import (
	"context"
	"errors"
	"fmt"

	"github.com/crollins/chorus/models"
	"github.com/crollins/chorus/storage"
)

// verifyActivity checks the shared envelope invariants: required fields
// present, ids absolute, and the id minted under the actor's authority
func verifyActivity(env *models.Envelope) error {
	if err := env.Validate(); err != nil {
		return err
	}
	return verifyDomainsMatch(env.Actor, env.ID)
}

// verifyDomainsMatch checks that both URIs share one authority. An
// activity claiming an id outside its actor's instance is spoofed
// provenance and is rejected outright.
func verifyDomainsMatch(actor, id string) error {
	actorURL, err := models.ParseAbsoluteURI(actor)
	if err != nil {
		return fmt.Errorf("%w: actor: %v", models.ErrMalformedEnvelope, err)
	}
	idURL, err := models.ParseAbsoluteURI(id)
	if err != nil {
		return fmt.Errorf("%w: id: %v", models.ErrMalformedEnvelope, err)
	}
	if actorURL.Host != idURL.Host {
		return fmt.Errorf("%w: %s vs %s", ErrDomainMismatch, actorURL.Host, idURL.Host)
	}
	return nil
}

// verifyActorValid checks that the actor URI is dereferenceable over the
// federation transport
func verifyActorValid(actor string) error {
	u, err := models.ParseAbsoluteURI(actor)
	if err != nil {
		return fmt.Errorf("%w: actor: %v", models.ErrMalformedEnvelope, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: actor scheme %q", models.ErrMalformedEnvelope, u.Scheme)
	}
	return nil
}

// verifyPersonInCommunity checks that the actor is a known subscriber of
// the community behind communityURI. Resolving an unknown actor may cost
// one counter unit for the remote fetch.
func verifyPersonInCommunity(ctx context.Context, deps *Deps, actorURI, communityURI string, counter *Counter) error {
	person, err := deps.Resolver.ResolvePerson(ctx, actorURI, counter)
	if err != nil {
		return err
	}

	community, err := deps.Store.CommunityByActorURI(ctx, communityURI)
	if err != nil {
		return err
	}

	member, err := deps.Store.IsMember(ctx, community.ID, person.ID)
	if err != nil {
		return err
	}
	if !member {
		return fmt.Errorf("%w: %s in %s", ErrNotAMember, actorURI, communityURI)
	}
	return nil
}

// verifyModAction checks that the actor holds moderator rank in the
// community. Unknown actors and unknown communities fail closed.
func verifyModAction(ctx context.Context, deps *Deps, actorURI, communityURI string) error {
	person, err := deps.Store.PersonByActorURI(ctx, actorURI)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: unknown actor %s", ErrNotAuthorized, actorURI)
		}
		return err
	}

	community, err := deps.Store.CommunityByActorURI(ctx, communityURI)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: unknown community %s", ErrNotAuthorized, communityURI)
		}
		return err
	}

	mod, err := deps.Store.IsModerator(ctx, community.ID, person.ID)
	if err != nil {
		return err
	}
	if !mod {
		return fmt.Errorf("%w: %s in %s", ErrNotAuthorized, actorURI, communityURI)
	}
	return nil
}
