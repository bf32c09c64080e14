package activities

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gofrs/uuid"
)

// generateActivityID mints a fresh, dereferenceable activity id under this
// instance's authority, unique per activity
func generateActivityID(scheme, domain, kind string) (string, error) {
	token, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("could not generate activity id token: %v", err)
	}

	u := url.URL{
		Scheme: scheme,
		Host:   domain,
		Path:   fmt.Sprintf("/activities/%s/%s", strings.ToLower(kind), token),
	}
	return u.String(), nil
}
