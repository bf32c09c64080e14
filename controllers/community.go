package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi"

	"github.com/crollins/chorus/models"
	"github.com/crollins/chorus/storage"
)

// Community is the controller logic for community actor documents
type Community struct {
	Scheme, Domain string
	Store          storage.CommunityStore
	PubKeyPem      []byte
}

// NewCommunity creates a new Community controller
func NewCommunity(scheme, domain string, store storage.CommunityStore, pubKeyPem []byte) Community {
	return Community{
		Scheme:    scheme,
		Domain:    domain,
		Store:     store,
		PubKeyPem: pubKeyPem,
	}
}

func (c Community) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	actorURI := c.routeURL("/c/" + name).String()

	community, err := c.Store.CommunityByActorURI(r.Context(), actorURI)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	group := models.GroupFromCommunity(community)

	doc := map[string]interface{}{
		"@context":          json.RawMessage(models.DefaultContext),
		"id":                group.ID,
		"type":              group.Type,
		"preferredUsername": group.PreferredUsername,
		"name":              group.Name,
		"summary":           group.Summary,
		"sensitive":         group.Sensitive,
		"inbox":             group.Inbox,
		"followers":         group.ID + "/followers",
		"publicKey": map[string]string{
			"id":           group.ID + "#main-key",
			"owner":        group.ID,
			"publicKeyPem": string(c.PubKeyPem),
		},
	}
	if group.Icon != nil {
		doc["icon"] = group.Icon
	}
	if group.Image != nil {
		doc["image"] = group.Image
	}
	if group.Endpoints != nil {
		doc["endpoints"] = group.Endpoints
	}

	b, err := json.Marshal(doc)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/activity+json")
	if _, err := w.Write(b); err != nil {
		return
	}
}

// Followers serves the followers collection advertised by the actor
// document. Only the count is exposed; member identities stay private.
func (c Community) Followers(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	actorURI := c.routeURL("/c/" + name).String()

	community, err := c.Store.CommunityByActorURI(r.Context(), actorURI)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	count, err := c.Store.FollowerCount(r.Context(), community.ID)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	doc := map[string]interface{}{
		"@context":   json.RawMessage(models.DefaultContext),
		"id":         actorURI + "/followers",
		"type":       "OrderedCollection",
		"totalItems": count,
	}

	b, err := json.Marshal(doc)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/activity+json")
	if _, err := w.Write(b); err != nil {
		return
	}
}

func (c Community) routeURL(path string) *url.URL {
	return &url.URL{
		Scheme: c.Scheme,
		Host:   c.Domain,
		Path:   path,
	}
}
