package contactgraph

import "errors"

var (
	ErrGraphUnavailable = errors.New("contact graph unavailable")
	ErrUnknownBackend   = errors.New("unknown contact graph backend")
)
