package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrUnknownKind     = errors.New("unknown opportunity kind")
	ErrRateLimited     = errors.New("rate limited")
	ErrWSDisconnect    = errors.New("websocket disconnected")
	ErrLockHeld        = errors.New("lock already held")
	ErrPositionLimit   = errors.New("position limit reached")
	ErrExposureLimit   = errors.New("exposure limit reached")
	ErrInsufficientCap = errors.New("insufficient capital")
)
