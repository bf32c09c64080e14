package models

import "time"

// Community is a snapshot of a community row owned by the storage
// collaborator. ActorURI is its federation identity; ID is its local
// storage identity.
type Community struct {
	ID          int64
	Name        string
	Title       string
	Description string
	NSFW        bool
	// Icon and Banner are URLs hosted by the originating instance.
	// Remote assets are referenced, never mirrored.
	Icon   string
	Banner string

	ActorURI       string
	InboxURI       string
	SharedInboxURI string
	Local          bool
	Updated        time.Time
}

// Person is a snapshot of a person row. Remote persons are cached copies
// refreshed by the fetch layer.
type Person struct {
	ID             int64
	Name           string
	ActorURI       string
	InboxURI       string
	SharedInboxURI string
	Local          bool
	LastRefreshed  time.Time
}

// Post is a snapshot of a post row, addressed across instances by ApubURI.
type Post struct {
	ID          int64
	ApubURI     string
	CommunityID int64
	CreatorID   int64
	Name        string
}

// PostVote is the single effective vote of one person on one post.
// (PersonID, PostID) is unique; writing again replaces the score.
type PostVote struct {
	PersonID int64
	PostID   int64
	Score    int16
}

// CommunityPatch is a partial update of a community. Nil fields are left
// untouched when the patch is applied against the stored row.
type CommunityPatch struct {
	Name        *string
	Title       *string
	Description *string
	NSFW        *bool
	Icon        *string
	Banner      *string
}
