package forecasts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestGuardNewerCancelsOlder(t *testing.T) {
	g := NewRequestGuard()

	ctx1, t1 := g.Begin(context.Background(), "client-a:climate")
	ctx2, t2 := g.Begin(context.Background(), "client-a:climate")

	assert.ErrorIs(t, ctx1.Err(), context.Canceled)
	assert.NoError(t, ctx2.Err())
	assert.False(t, t1.IsLatest())
	assert.True(t, t2.IsLatest())

	var committed []string
	assert.False(t, t1.Commit(func() { committed = append(committed, "old") }))
	assert.True(t, t2.Commit(func() { committed = append(committed, "new") }))
	assert.Equal(t, []string{"new"}, committed)

	t1.Done()
	assert.Equal(t, 1, g.Len(), "a stale Done leaves the newer request registered")
	t2.Done()
	assert.Equal(t, 0, g.Len())
	assert.ErrorIs(t, ctx2.Err(), context.Canceled)
}

func TestRequestGuardKeysAreIndependent(t *testing.T) {
	g := NewRequestGuard()

	ctxA, ta := g.Begin(context.Background(), "client-a:climate")
	_, tb := g.Begin(context.Background(), "client-b:climate")
	defer ta.Done()
	defer tb.Done()

	assert.NoError(t, ctxA.Err())
	assert.True(t, ta.IsLatest())
	assert.True(t, tb.IsLatest())
}

func TestRequestGuardParentCancellation(t *testing.T) {
	g := NewRequestGuard()
	parent, cancel := context.WithCancel(context.Background())

	ctx, tk := g.Begin(parent, "k")
	defer tk.Done()
	cancel()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
