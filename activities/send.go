package activities

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/crollins/chorus/models"
)

// sendToCommunity serializes a locally authored activity and hands it to
// the delivery queue addressed to the community's followers plus extra.
// Delivery failures past this point never roll back the local state
// change that produced the activity.
func sendToCommunity(ctx context.Context, deps *Deps, activity Handler, community *models.Community, extra []url.URL) error {
	payload, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("could not serialize outbound activity: %v", err)
	}

	return deps.Queue.SendToCommunity(ctx, activity.Common().ID, payload, community, extra)
}
