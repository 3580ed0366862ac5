package service

import "errors"

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrParentNotFound  = errors.New("parent comment not found")
	ErrNotOwner        = errors.New("you don't have permission to modify this resource")
	ErrInvalidDate     = errors.New("invalid date, expected YYYY-MM-DD")

	// ErrClassifierUnavailable aborts the whole create/update: a comment is
	// never persisted without a definitive moderation verdict.
	ErrClassifierUnavailable = errors.New("moderation classifier unavailable")

	// ErrTreeConflict surfaces after the internal retries were exhausted;
	// the client may safely retry the request.
	ErrTreeConflict = errors.New("comment tree was modified concurrently")

	ErrNameInUse          = errors.New("username already in use")
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)
