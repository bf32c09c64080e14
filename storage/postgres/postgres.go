// Package postgres provides Postgres-backed persistence for the
// federation core's entities.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crollins/chorus/models"
	"github.com/crollins/chorus/storage"
)

// Store provides Postgres-backed storage over a pgx connection pool
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const communityColumns = `id, name, title, description, nsfw, icon, banner, actor_uri, inbox_uri, shared_inbox_uri, local, updated`

func scanCommunity(row pgx.Row) (*models.Community, error) {
	var c models.Community
	err := row.Scan(
		&c.ID, &c.Name, &c.Title, &c.Description, &c.NSFW, &c.Icon, &c.Banner,
		&c.ActorURI, &c.InboxURI, &c.SharedInboxURI, &c.Local, &c.Updated,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CommunityByActorURI resolves a community by its federation URI
func (s *Store) CommunityByActorURI(ctx context.Context, uri string) (*models.Community, error) {
	query := fmt.Sprintf(`SELECT %s FROM communities WHERE actor_uri = $1`, communityColumns)

	c, err := scanCommunity(s.pool.QueryRow(ctx, query, uri))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("community %s: %w", uri, storage.ErrNotFound)
		}
		return nil, err
	}
	return c, nil
}

// CommunityByID resolves a community by its local id
func (s *Store) CommunityByID(ctx context.Context, id int64) (*models.Community, error) {
	query := fmt.Sprintf(`SELECT %s FROM communities WHERE id = $1`, communityColumns)

	c, err := scanCommunity(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("community %d: %w", id, storage.ErrNotFound)
		}
		return nil, err
	}
	return c, nil
}

// UpdateCommunity merges patch into the stored row and returns the
// updated snapshot. Nil patch fields keep their stored value.
func (s *Store) UpdateCommunity(ctx context.Context, id int64, patch *models.CommunityPatch) (*models.Community, error) {
	query := fmt.Sprintf(`UPDATE communities SET
            name = COALESCE($2, name),
            title = COALESCE($3, title),
            description = COALESCE($4, description),
            nsfw = COALESCE($5, nsfw),
            icon = COALESCE($6, icon),
            banner = COALESCE($7, banner),
            updated = now()
        WHERE id = $1
        RETURNING %s`, communityColumns)

	row := s.pool.QueryRow(ctx, query, id,
		patch.Name, patch.Title, patch.Description, patch.NSFW, patch.Icon, patch.Banner,
	)

	c, err := scanCommunity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("community %d: %w", id, storage.ErrNotFound)
		}
		return nil, err
	}
	return c, nil
}

// IsMember reports whether the person subscribes to the community
func (s *Store) IsMember(ctx context.Context, communityID, personID int64) (bool, error) {
	const query = `SELECT EXISTS (
        SELECT 1 FROM community_members WHERE community_id = $1 AND person_id = $2)`

	var member bool
	if err := s.pool.QueryRow(ctx, query, communityID, personID).Scan(&member); err != nil {
		return false, err
	}
	return member, nil
}

// IsModerator reports whether the person moderates the community
func (s *Store) IsModerator(ctx context.Context, communityID, personID int64) (bool, error) {
	const query = `SELECT EXISTS (
        SELECT 1 FROM community_moderators WHERE community_id = $1 AND person_id = $2)`

	var mod bool
	if err := s.pool.QueryRow(ctx, query, communityID, personID).Scan(&mod); err != nil {
		return false, err
	}
	return mod, nil
}

// FollowerInboxes lists the delivery inboxes of the community's remote
// followers. Followers on an instance with a shared inbox collapse to
// that one inbox.
func (s *Store) FollowerInboxes(ctx context.Context, communityID int64) ([]url.URL, error) {
	const query = `SELECT DISTINCT COALESCE(NULLIF(p.shared_inbox_uri, ''), p.inbox_uri)
        FROM community_followers f
        JOIN persons p ON p.id = f.person_id
        WHERE f.community_id = $1 AND NOT p.local`

	rows, err := s.pool.Query(ctx, query, communityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	inboxes := make([]url.URL, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("stored inbox %q is not a valid URL: %v", raw, err)
		}
		inboxes = append(inboxes, *u)
	}
	return inboxes, rows.Err()
}

// FollowerCount returns the number of registered followers of a community
func (s *Store) FollowerCount(ctx context.Context, communityID int64) (int64, error) {
	const query = `SELECT count(*) FROM community_followers WHERE community_id = $1`

	var count int64
	if err := s.pool.QueryRow(ctx, query, communityID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

const personColumns = `id, name, actor_uri, inbox_uri, shared_inbox_uri, local, last_refreshed`

func scanPerson(row pgx.Row) (*models.Person, error) {
	var p models.Person
	err := row.Scan(
		&p.ID, &p.Name, &p.ActorURI, &p.InboxURI, &p.SharedInboxURI, &p.Local, &p.LastRefreshed,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// PersonByActorURI resolves a person by their federation URI
func (s *Store) PersonByActorURI(ctx context.Context, uri string) (*models.Person, error) {
	query := fmt.Sprintf(`SELECT %s FROM persons WHERE actor_uri = $1`, personColumns)

	p, err := scanPerson(s.pool.QueryRow(ctx, query, uri))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("person %s: %w", uri, storage.ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

// UpsertPerson inserts or refreshes a cached person keyed by actor URI
func (s *Store) UpsertPerson(ctx context.Context, person *models.Person) (*models.Person, error) {
	query := fmt.Sprintf(`INSERT INTO persons (name, actor_uri, inbox_uri, shared_inbox_uri, local, last_refreshed)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (actor_uri) DO UPDATE SET
            name = EXCLUDED.name,
            inbox_uri = EXCLUDED.inbox_uri,
            shared_inbox_uri = EXCLUDED.shared_inbox_uri,
            last_refreshed = EXCLUDED.last_refreshed
        RETURNING %s`, personColumns)

	row := s.pool.QueryRow(ctx, query,
		person.Name, person.ActorURI, person.InboxURI, person.SharedInboxURI,
		person.Local, person.LastRefreshed,
	)
	return scanPerson(row)
}

// PostByApubURI resolves a post by its federation URI
func (s *Store) PostByApubURI(ctx context.Context, uri string) (*models.Post, error) {
	const query = `SELECT id, apub_uri, community_id, creator_id, name FROM posts WHERE apub_uri = $1`

	var p models.Post
	err := s.pool.QueryRow(ctx, query, uri).Scan(&p.ID, &p.ApubURI, &p.CommunityID, &p.CreatorID, &p.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("post %s: %w", uri, storage.ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

// UpsertPostVote records the single effective vote of a person on a post.
// (person_id, post_id) is the primary key, so a repeated vote replaces
// the previous score instead of inserting a second row.
func (s *Store) UpsertPostVote(ctx context.Context, vote *models.PostVote) error {
	const query = `INSERT INTO post_votes (person_id, post_id, score)
        VALUES ($1, $2, $3)
        ON CONFLICT (person_id, post_id) DO UPDATE SET score = EXCLUDED.score`

	_, err := s.pool.Exec(ctx, query, vote.PersonID, vote.PostID, vote.Score)
	return err
}
