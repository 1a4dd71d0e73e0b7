package pagination

import "errors"

var (
	ErrInvalidCursor  = errors.New("invalid pagination cursor")
	ErrForbidden      = errors.New("list is only visible to its owner")
	ErrUnknownList    = errors.New("unknown list")
	ErrTransientStore = errors.New("list store temporarily unavailable")
)
