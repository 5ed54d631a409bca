package health

import "context"

// CachePinger checks fetch cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// DocumentCounter reports the size of the current document snapshot.
type DocumentCounter interface {
	Count() int
}
