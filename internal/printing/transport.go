package printing

import (
	"context"
	"errors"

	"restaurant_pos_backend/pkg/utils"
)

// ErrTransportFailure wraps every error returned by a Transport.
var ErrTransportFailure = errors.New("print transport failure")

// Transport delivers an opaque print job to a named printer queue. It does
// not wait for the printer; a nil error only means the job was handed off.
type Transport interface {
	Send(ctx context.Context, printer string, payload []byte) error
}

// LogTransport drops jobs after logging them. It is used when no broker is
// configured so that order flows still work on a bare workstation.
type LogTransport struct{}

func (LogTransport) Send(_ context.Context, printer string, payload []byte) error {
	utils.LogDebug("Print job discarded (no print broker configured)", map[string]interface{}{
		"printer": printer,
		"bytes":   len(payload),
	})
	return nil
}
