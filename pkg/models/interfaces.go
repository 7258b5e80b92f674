package models

import "context"

// PlatformResolver defines the interface for platform-specific resolution
// orchestrators. Resolve drives the platform's strategy chain sequentially
// and returns the first winning outcome or a terminal failure; it never
// returns a Go error for ordinary extraction misses.
type PlatformResolver interface {
	// Resolve runs the strategy chain against the classified target
	Resolve(ctx context.Context, target CanonicalTarget) *ResolutionResult

	// GetName returns the platform name
	GetName() Platform
}

// CounterStore is the injected rate-limit counter. Increment records one
// request for the key and reports whether it is still within the allowed
// budget for the current window.
type CounterStore interface {
	Increment(key string) bool
}

// ShareResolver converts an opaque platform share URL into a canonical,
// directly fetchable URL. Implementations fail over to returning the input
// unchanged rather than erroring.
type ShareResolver interface {
	ResolveShareURL(ctx context.Context, rawURL string) string
}
