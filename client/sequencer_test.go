package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatest_DiscardsOvertakenResponse(t *testing.T) {
	var seq Sequencer
	release := make(chan struct{})
	started := make(chan struct{})

	type result struct {
		value string
		err   error
	}
	slow := make(chan result, 1)
	go func() {
		v, err := Latest(context.Background(), &seq, func(context.Context) (string, error) {
			close(started)
			<-release
			return "first", nil
		})
		slow <- result{v, err}
	}()

	<-started
	v, err := Latest(context.Background(), &seq, func(context.Context) (string, error) {
		return "second", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "second", v)

	close(release)
	got := <-slow
	assert.ErrorIs(t, got.err, ErrStale)
	assert.Empty(t, got.value)
}

func TestSequencer_IsLatest(t *testing.T) {
	var seq Sequencer
	a := seq.Next()
	assert.True(t, seq.IsLatest(a))
	b := seq.Next()
	assert.False(t, seq.IsLatest(a))
	assert.True(t, seq.IsLatest(b))
}
