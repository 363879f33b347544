package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go-dashboard/internal/features/commands"
	"go-dashboard/internal/features/events"
	"go-dashboard/pkg/objref"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(testOptions(testBackend()))
	var observed atomic.Int32
	m.Observe(func(e events.Event) {
		if e.Type == events.DashboardRenamed {
			observed.Add(1)
		}
	})

	first, err := m.Open(context.Background(), objref.IDRef("dash"))
	require.NoError(t, err)
	second, err := m.Open(context.Background(), objref.URIRef("/gdc/md/dash"))
	require.NoError(t, err)
	assert.Len(t, m.IDs(), 2)

	got, err := m.Get(first.ID())
	require.NoError(t, err)
	assert.Same(t, first, got)

	_, err = second.DispatchAndWait(context.Background(), commands.Rename("renamed"))
	require.NoError(t, err)
	assert.Equal(t, int32(1), observed.Load())

	require.NoError(t, m.Close(first.ID()))
	_, err = m.Get(first.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Close(first.ID()), ErrNotFound)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.CloseAll(ctx))
	assert.Empty(t, m.IDs())

	_, err = second.Dispatch(commands.Rename("late"))
	assert.ErrorIs(t, err, ErrDisposed)
}

func TestManagerOpenFailure(t *testing.T) {
	m := NewManager(testOptions(testBackend()))
	_, err := m.Open(context.Background(), objref.IDRef("missing"))
	assert.Error(t, err)
	assert.Empty(t, m.IDs())
}
