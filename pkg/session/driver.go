package session

import (
	"context"
	"net/http"
	"strings"
)

// Driver persists the encoded store of a session under its id.
//
// Read reports found=false, not an error, for unknown ids and for records that
// cannot be verified. Destroy and Touch on unknown ids are no-ops. Write of an
// empty payload ("" or "{}") removes the record; custom drivers should follow
// the same rule.
type Driver interface {
	Read(ctx context.Context, id string) (data string, found bool, err error)
	Write(ctx context.Context, id, data string) error
	Destroy(ctx context.Context, id string) error
	Touch(ctx context.Context, id string) error
}

// DriverFactory builds the driver for one request.
type DriverFactory func(cfg Resolved, w http.ResponseWriter, r *http.Request) (Driver, error)

// Signer binds a payload to a purpose. *cookie.Manager implements it.
type Signer interface {
	Sign(value, purpose string) (string, error)
	Unsign(signed, purpose string) (string, error)
}

func isEmptyPayload(data string) bool {
	data = strings.TrimSpace(data)
	return data == "" || data == "{}"
}
