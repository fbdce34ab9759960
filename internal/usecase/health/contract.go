package health

import "context"

// EngineChecker reports whether the recommendation engine can serve traffic.
type EngineChecker interface {
	Ready() bool
}

// CachePinger checks forecast cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}
