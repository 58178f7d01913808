package client

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrStale is returned for a response overtaken by a newer request.
var ErrStale = errors.New("client: stale response")

// Sequencer tags requests with increasing tokens so that only the newest
// response is applied, e.g. for list queries refetched on every filter change.
type Sequencer struct {
	latest atomic.Uint64
}

// Next issues a new token, invalidating all earlier ones.
func (s *Sequencer) Next() uint64 {
	return s.latest.Add(1)
}

// IsLatest reports whether token is still the newest.
func (s *Sequencer) IsLatest(token uint64) bool {
	return s.latest.Load() == token
}

// Latest runs fetch under a fresh token. It returns ErrStale when another
// call was started before fetch returned; the fetched value is discarded.
func Latest[T any](ctx context.Context, seq *Sequencer, fetch func(context.Context) (T, error)) (T, error) {
	token := seq.Next()
	v, err := fetch(ctx)
	if !seq.IsLatest(token) {
		var zero T
		return zero, ErrStale
	}
	return v, err
}
