package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
)

// PublicURI is the ActivityStreams marker for publicly addressed activities.
const PublicURI = "https://www.w3.org/ns/activitystreams#Public"

// DefaultContext is the JSON-LD context attached to locally minted activities.
var DefaultContext = json.RawMessage(`["https://www.w3.org/ns/activitystreams","https://w3id.org/security/v1"]`)

// ErrMalformedEnvelope is returned when an activity is missing required
// fields or carries ids that are not absolute URIs
var ErrMalformedEnvelope = errors.New("malformed activity envelope")

// Envelope holds the common fields every activity carries. Unparsed
// collects top-level extension fields we do not understand so they can be
// passed on losslessly if the activity is ever re-serialized.
type Envelope struct {
	Context json.RawMessage `json:"@context,omitempty"`
	ID      string          `json:"id"`
	Actor   string          `json:"actor"`

	Unparsed map[string]json.RawMessage `json:"-"`
}

// Validate checks that the envelope's required fields are present and that
// id and actor are absolute URIs
func (e *Envelope) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: activity id cannot be empty", ErrMalformedEnvelope)
	}
	if e.Actor == "" {
		return fmt.Errorf("%w: activity actor cannot be empty", ErrMalformedEnvelope)
	}
	if _, err := ParseAbsoluteURI(e.ID); err != nil {
		return fmt.Errorf("%w: id: %v", ErrMalformedEnvelope, err)
	}
	if _, err := ParseAbsoluteURI(e.Actor); err != nil {
		return fmt.Errorf("%w: actor: %v", ErrMalformedEnvelope, err)
	}
	return nil
}

// ParseAbsoluteURI parses raw and requires a scheme and a host
func ParseAbsoluteURI(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%q is not an absolute URI", raw)
	}
	return u, nil
}

// ExtractUnparsed returns the top-level fields of data that are not in the
// known list. An empty result is returned as nil so envelopes without
// extensions compare cleanly.
func ExtractUnparsed(data []byte, known ...string) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	for _, key := range known {
		delete(raw, key)
	}

	if len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

// MergeUnparsed marshals v and splices the unparsed extension fields back
// into the resulting object. Known fields always win over unparsed ones.
func MergeUnparsed(v interface{}, unparsed map[string]json.RawMessage) ([]byte, error) {
	known, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	if len(unparsed) == 0 {
		return known, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	for key, val := range unparsed {
		if _, ok := merged[key]; !ok {
			merged[key] = val
		}
	}

	return json.Marshal(merged)
}
