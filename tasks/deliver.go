package tasks

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gofrs/uuid"
)

// Deliver is a task which delivers one serialized activity to one inbox
type Deliver struct {
	TaskID     uuid.UUID
	ActivityID string
	Activity   []byte
	Inbox      url.URL
	Client     *http.Client
	Signer     Signer
}

// ID returns the ID of the Deliver task
func (d *Deliver) ID() uuid.UUID {
	return d.TaskID
}

// Run posts the activity to the inbox, signed when a signer is configured
func (d *Deliver) Run(ctx context.Context) error {
	reader := bytes.NewReader(d.Activity)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.Inbox.String(), reader)
	if err != nil {
		return fmt.Errorf("could not build delivery request: %v", err)
	}
	req.Header.Set("Content-Type", "application/activity+json")
	req.Header.Set("Date", time.Now().UTC().Format(http.TimeFormat))

	if d.Signer != nil {
		if err := d.Signer.SignRequest(req, d.Activity); err != nil {
			return fmt.Errorf("could not sign delivery request: %v", err)
		}
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDeliveryFailure, d.Inbox.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode > 399 {
		return fmt.Errorf("%w: %s returned status %d", ErrDeliveryFailure, d.Inbox.Host, resp.StatusCode)
	}
	return nil
}
