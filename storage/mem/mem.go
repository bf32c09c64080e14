// Package mem is an in-memory storage backend used for tests and
// single-node development runs.
package mem

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/crollins/chorus/models"
	"github.com/crollins/chorus/storage"
)

// Store holds all entities in process memory
type Store struct {
	communities map[int64]models.Community
	persons     map[int64]models.Person
	posts       map[int64]models.Post
	votes       map[voteKey]models.PostVote
	members     map[memberKey]bool
	moderators  map[memberKey]bool
	followers   map[int64][]url.URL

	nextID int64

	sync.RWMutex
}

type voteKey struct {
	personID, postID int64
}

type memberKey struct {
	communityID, personID int64
}

// NewStore returns an empty in-memory store
func NewStore() *Store {
	return &Store{
		communities: make(map[int64]models.Community),
		persons:     make(map[int64]models.Person),
		posts:       make(map[int64]models.Post),
		votes:       make(map[voteKey]models.PostVote),
		members:     make(map[memberKey]bool),
		moderators:  make(map[memberKey]bool),
		followers:   make(map[int64][]url.URL),
		nextID:      1,
	}
}

// AddCommunity seeds a community and returns its assigned id
func (s *Store) AddCommunity(c models.Community) *models.Community {
	s.Lock()
	defer s.Unlock()

	c.ID = s.nextID
	s.nextID++
	s.communities[c.ID] = c
	return &c
}

// AddPerson seeds a person and returns the stored snapshot
func (s *Store) AddPerson(p models.Person) *models.Person {
	s.Lock()
	defer s.Unlock()

	p.ID = s.nextID
	s.nextID++
	s.persons[p.ID] = p
	return &p
}

// AddPost seeds a post and returns the stored snapshot
func (s *Store) AddPost(p models.Post) *models.Post {
	s.Lock()
	defer s.Unlock()

	p.ID = s.nextID
	s.nextID++
	s.posts[p.ID] = p
	return &p
}

// AddMember marks a person as a subscriber of a community
func (s *Store) AddMember(communityID, personID int64) {
	s.Lock()
	defer s.Unlock()

	s.members[memberKey{communityID, personID}] = true
}

// AddModerator grants a person moderator rank in a community
func (s *Store) AddModerator(communityID, personID int64) {
	s.Lock()
	defer s.Unlock()

	s.moderators[memberKey{communityID, personID}] = true
}

// AddFollowerInbox registers a remote follower inbox for a community
func (s *Store) AddFollowerInbox(communityID int64, inbox url.URL) {
	s.Lock()
	defer s.Unlock()

	s.followers[communityID] = append(s.followers[communityID], inbox)
}

// CommunityByActorURI resolves a community by its federation URI
func (s *Store) CommunityByActorURI(ctx context.Context, uri string) (*models.Community, error) {
	s.RLock()
	defer s.RUnlock()

	for _, c := range s.communities {
		if c.ActorURI == uri {
			c := c
			return &c, nil
		}
	}
	return nil, fmt.Errorf("community %s: %w", uri, storage.ErrNotFound)
}

// CommunityByID resolves a community by its local id
func (s *Store) CommunityByID(ctx context.Context, id int64) (*models.Community, error) {
	s.RLock()
	defer s.RUnlock()

	c, ok := s.communities[id]
	if !ok {
		return nil, fmt.Errorf("community %d: %w", id, storage.ErrNotFound)
	}
	return &c, nil
}

// UpdateCommunity merges patch into the stored row
func (s *Store) UpdateCommunity(ctx context.Context, id int64, patch *models.CommunityPatch) (*models.Community, error) {
	s.Lock()
	defer s.Unlock()

	c, ok := s.communities[id]
	if !ok {
		return nil, fmt.Errorf("community %d: %w", id, storage.ErrNotFound)
	}

	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Title != nil {
		c.Title = *patch.Title
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	if patch.NSFW != nil {
		c.NSFW = *patch.NSFW
	}
	if patch.Icon != nil {
		c.Icon = *patch.Icon
	}
	if patch.Banner != nil {
		c.Banner = *patch.Banner
	}

	s.communities[id] = c
	return &c, nil
}

// IsMember reports whether the person subscribes to the community
func (s *Store) IsMember(ctx context.Context, communityID, personID int64) (bool, error) {
	s.RLock()
	defer s.RUnlock()

	return s.members[memberKey{communityID, personID}], nil
}

// IsModerator reports whether the person moderates the community
func (s *Store) IsModerator(ctx context.Context, communityID, personID int64) (bool, error) {
	s.RLock()
	defer s.RUnlock()

	return s.moderators[memberKey{communityID, personID}], nil
}

// FollowerInboxes lists the registered follower inboxes of a community
func (s *Store) FollowerInboxes(ctx context.Context, communityID int64) ([]url.URL, error) {
	s.RLock()
	defer s.RUnlock()

	inboxes := make([]url.URL, len(s.followers[communityID]))
	copy(inboxes, s.followers[communityID])
	return inboxes, nil
}

// FollowerCount returns the number of registered follower inboxes of a
// community
func (s *Store) FollowerCount(ctx context.Context, communityID int64) (int64, error) {
	s.RLock()
	defer s.RUnlock()

	return int64(len(s.followers[communityID])), nil
}

// PersonByActorURI resolves a person by their federation URI
func (s *Store) PersonByActorURI(ctx context.Context, uri string) (*models.Person, error) {
	s.RLock()
	defer s.RUnlock()

	for _, p := range s.persons {
		if p.ActorURI == uri {
			p := p
			return &p, nil
		}
	}
	return nil, fmt.Errorf("person %s: %w", uri, storage.ErrNotFound)
}

// UpsertPerson inserts or refreshes a cached person keyed by actor URI
func (s *Store) UpsertPerson(ctx context.Context, person *models.Person) (*models.Person, error) {
	s.Lock()
	defer s.Unlock()

	for id, p := range s.persons {
		if p.ActorURI == person.ActorURI {
			stored := *person
			stored.ID = id
			s.persons[id] = stored
			return &stored, nil
		}
	}

	stored := *person
	stored.ID = s.nextID
	s.nextID++
	s.persons[stored.ID] = stored
	return &stored, nil
}

// PostByApubURI resolves a post by its federation URI
func (s *Store) PostByApubURI(ctx context.Context, uri string) (*models.Post, error) {
	s.RLock()
	defer s.RUnlock()

	for _, p := range s.posts {
		if p.ApubURI == uri {
			p := p
			return &p, nil
		}
	}
	return nil, fmt.Errorf("post %s: %w", uri, storage.ErrNotFound)
}

// UpsertPostVote records the single effective vote of a person on a post
func (s *Store) UpsertPostVote(ctx context.Context, vote *models.PostVote) error {
	s.Lock()
	defer s.Unlock()

	s.votes[voteKey{vote.PersonID, vote.PostID}] = *vote
	return nil
}

// PostVotes returns all stored votes for a post, used by tests
func (s *Store) PostVotes(postID int64) []models.PostVote {
	s.RLock()
	defer s.RUnlock()

	votes := make([]models.PostVote, 0)
	for key, vote := range s.votes {
		if key.postID == postID {
			votes = append(votes, vote)
		}
	}
	return votes
}
