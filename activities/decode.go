package activities

import (
	"encoding/json"
	"fmt"
)

// commonKnown lists the top-level wire fields shared by every activity
// kind that parses no extras of its own; everything else is carried as
// unparsed extensions
var commonKnown = []string{"@context", "id", "actor", "to", "object", "cc", "type"}

// Activity type discriminants understood by this instance
const (
	KindUpdate   = "Update"
	KindLike     = "Like"
	KindDislike  = "Dislike"
	KindAnnounce = "Announce"
)

// DecodeActivity deserializes a raw activity payload into the handler for
// its kind. Unknown kinds are rejected here, before any verification runs.
func DecodeActivity(data []byte) (Handler, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("could not read activity type: %v", err)
	}

	var handler Handler
	switch probe.Type {
	case KindUpdate:
		handler = &UpdateCommunity{}
	case KindLike:
		handler = &LikePost{}
	case KindDislike:
		handler = &DislikePost{}
	case KindAnnounce:
		handler = &Announce{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedActivityType, probe.Type)
	}

	if err := json.Unmarshal(data, handler); err != nil {
		return nil, fmt.Errorf("could not decode %s activity: %v", probe.Type, err)
	}
	return handler, nil
}
