package notification

import "errors"

// ErrStatusNotFound signals that the caller referenced a notification that
// does not belong to this (tenant, user), or that state has desynced.
var ErrStatusNotFound = errors.New("notification status not found for this user")

// ErrInvalidRequest signals a creation request missing required fields.
var ErrInvalidRequest = errors.New("userId, type and title are required")
