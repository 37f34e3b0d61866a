package domain

import "errors"

var (
	// ErrSchema marks a feed whose required identifier columns cannot be
	// located or renamed. Fatal: aggregation cannot start without it.
	ErrSchema = errors.New("feed schema error")

	// ErrReconciliation marks a metric that is wholly unavailable after
	// coalescing primary and fallback feeds. Fatal: framing cannot recover
	// from an all-missing target column.
	ErrReconciliation = errors.New("reconciliation error")
)
