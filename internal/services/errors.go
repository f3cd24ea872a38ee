// Package services defines the dispatch pipeline: token resolution, outbox
// writes, the per-kind event watchers and the dispatcher, plus the ingestion
// use-cases upstream writers call. This file centralizes common service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// Translation into HTTP status codes is performed at the handler layer.
package services

import "errors"

var (
	// ErrRecordNotFound indicates that the requested source or outbox record
	// does not exist.
	ErrRecordNotFound = errors.New("record not found")

	// ErrInvalidEvent is returned when an ingested record lacks a field the
	// pipeline cannot work without (e.g. the recipient id).
	ErrInvalidEvent = errors.New("invalid event")

	// ErrInvalidState is returned for an unknown delivery state filter.
	ErrInvalidState = errors.New("invalid delivery state")
)
