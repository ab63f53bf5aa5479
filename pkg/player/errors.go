package player

import "errors"

var (
	// ErrStopped is returned by commands issued after Stop. A stopped
	// player cannot be restarted.
	ErrStopped = errors.New("player: stopped")

	// ErrNoSession is returned by commands that require a loaded
	// source.
	ErrNoSession = errors.New("player: no source loaded")

	// ErrInvalidSeekTarget is returned by Seek for negative positions.
	// Positions past the end are clamped, not rejected.
	ErrInvalidSeekTarget = errors.New("player: negative seek target")
)
