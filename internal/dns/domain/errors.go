package domain

import "errors"

// Error kinds shared by the codec, the DoH transport and the configuration
// loader. Wrap them with fmt.Errorf("context: %w", ErrX) and match with
// errors.Is.
var (
	// ErrMalformedRecord means a record or record payload had too few bytes
	// or an invalid fixed-size field.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrProtocol means the header does not describe the kind of message
	// expected (e.g. a query where a response was required).
	ErrProtocol = errors.New("protocol error")

	// ErrTransport means the HTTPS exchange with the upstream failed.
	ErrTransport = errors.New("transport error")

	// ErrConfig means the startup configuration is invalid.
	ErrConfig = errors.New("configuration error")
)
