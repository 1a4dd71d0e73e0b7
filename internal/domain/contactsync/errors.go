package contactsync

import "errors"

var (
	ErrQueueEmpty       = errors.New("no contact sync job available")
	ErrQueueUnavailable = errors.New("contact sync queue unavailable")
)
