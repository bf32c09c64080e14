package models

// Image is an attached image referenced by URL
type Image struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// GroupEndpoints carries the shared inbox of the instance hosting a group
type GroupEndpoints struct {
	SharedInbox string `json:"sharedInbox,omitempty"`
}

// Group is the wire representation of a community actor
type Group struct {
	ID                string          `json:"id"`
	Type              string          `json:"type"`
	PreferredUsername string          `json:"preferredUsername"`
	Name              string          `json:"name,omitempty"`
	Summary           string          `json:"summary,omitempty"`
	Sensitive         bool            `json:"sensitive"`
	Icon              *Image          `json:"icon,omitempty"`
	Image             *Image          `json:"image,omitempty"`
	Inbox             string          `json:"inbox,omitempty"`
	Endpoints         *GroupEndpoints `json:"endpoints,omitempty"`
}

// GroupFromCommunity serializes a local community row into its wire shape
func GroupFromCommunity(c *Community) Group {
	g := Group{
		ID:                c.ActorURI,
		Type:              "Group",
		PreferredUsername: c.Name,
		Name:              c.Title,
		Summary:           c.Description,
		Sensitive:         c.NSFW,
		Inbox:             c.InboxURI,
	}
	if c.Icon != "" {
		g.Icon = &Image{Type: "Image", URL: c.Icon}
	}
	if c.Banner != "" {
		g.Image = &Image{Type: "Image", URL: c.Banner}
	}
	if c.SharedInboxURI != "" {
		g.Endpoints = &GroupEndpoints{SharedInbox: c.SharedInboxURI}
	}
	return g
}

// Patch converts a received group representation into the partial update
// form applied against the stored community. Icon and banner stay remote
// URLs on the originating instance.
func (g Group) Patch() CommunityPatch {
	patch := CommunityPatch{
		Name:        &g.PreferredUsername,
		Title:       &g.Name,
		Description: &g.Summary,
		NSFW:        &g.Sensitive,
	}
	if g.Icon != nil {
		patch.Icon = &g.Icon.URL
	}
	if g.Image != nil {
		patch.Banner = &g.Image.URL
	}
	return patch
}
