// Package storage defines the interfaces of the relational storage
// collaborator. Implementations must be atomic per call and report
// not-found distinctly from other failures.
package storage

import (
	"context"
	"errors"
	"net/url"

	"github.com/crollins/chorus/models"
)

// ErrNotFound is returned when the requested entity does not exist.
// Callers distinguish it from infrastructure failures with errors.Is.
var ErrNotFound = errors.New("entity not found")

// CommunityStore reads, caches, and updates community rows
type CommunityStore interface {
	// CommunityByActorURI resolves a community by its federation URI
	CommunityByActorURI(ctx context.Context, uri string) (*models.Community, error)

	// CommunityByID resolves a community by its local id
	CommunityByID(ctx context.Context, id int64) (*models.Community, error)

	// UpdateCommunity merges patch into the stored row and returns the
	// updated snapshot. Nil patch fields are left untouched.
	UpdateCommunity(ctx context.Context, id int64, patch *models.CommunityPatch) (*models.Community, error)

	// IsMember reports whether the person subscribes to the community
	IsMember(ctx context.Context, communityID, personID int64) (bool, error)

	// IsModerator reports whether the person holds moderator rank in the
	// community
	IsModerator(ctx context.Context, communityID, personID int64) (bool, error)

	// FollowerInboxes returns the delivery inboxes of the community's
	// remote followers, preferring an instance's shared inbox where one
	// is registered
	FollowerInboxes(ctx context.Context, communityID int64) ([]url.URL, error)

	// FollowerCount returns the number of registered followers of the
	// community
	FollowerCount(ctx context.Context, communityID int64) (int64, error)
}

// PersonStore reads and caches person rows
type PersonStore interface {
	// PersonByActorURI resolves a person by their federation URI
	PersonByActorURI(ctx context.Context, uri string) (*models.Person, error)

	// UpsertPerson inserts or refreshes a cached person keyed by actor
	// URI and returns the stored snapshot
	UpsertPerson(ctx context.Context, person *models.Person) (*models.Person, error)
}

// PostStore reads post rows
type PostStore interface {
	// PostByApubURI resolves a post by its federation URI
	PostByApubURI(ctx context.Context, uri string) (*models.Post, error)
}

// VoteStore writes post votes
type VoteStore interface {
	// UpsertPostVote records the single effective vote of a person on a
	// post, replacing any previous score
	UpsertPostVote(ctx context.Context, vote *models.PostVote) error
}

// Store is the full storage collaborator surface
type Store interface {
	CommunityStore
	PersonStore
	PostStore
	VoteStore
}
