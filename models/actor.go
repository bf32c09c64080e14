package models

import "time"

// ActorDocument is the wire shape of a dereferenced actor, covering the
// fields the core needs from remote person documents
type ActorDocument struct {
	ID                string          `json:"id"`
	Type              string          `json:"type"`
	PreferredUsername string          `json:"preferredUsername"`
	Inbox             string          `json:"inbox"`
	Endpoints         *GroupEndpoints `json:"endpoints,omitempty"`
}

// Person converts a fetched actor document into a cacheable person snapshot
func (d ActorDocument) Person() Person {
	p := Person{
		Name:          d.PreferredUsername,
		ActorURI:      d.ID,
		InboxURI:      d.Inbox,
		Local:         false,
		LastRefreshed: time.Now().UTC(),
	}
	if d.Endpoints != nil {
		p.SharedInboxURI = d.Endpoints.SharedInbox
	}
	return p
}
