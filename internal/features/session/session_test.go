package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go-dashboard/internal/backend/inmemory"
	"go-dashboard/internal/features/commands"
	"go-dashboard/internal/features/events"
	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBackend() *inmemory.Backend {
	return inmemory.New(inmemory.Fixtures{
		Dashboards: []models.Dashboard{{
			Identity: objref.Identity{Identifier: "dash", URI: inmemory.URIPrefix + "dash"},
			Title:    "Sales",
		}},
		DateFilterConfig: models.DateFilterConfig{
			AllTime: models.DateFilterOption{LocalIdentifier: "allTime", Visible: true},
		},
	})
}

func testOptions(b *inmemory.Backend) Options {
	return Options{
		Workspace: b.Workspace("ws"),
		Dashboard: objref.IDRef("dash"),
		Resolver:  objref.PrefixResolver(inmemory.URIPrefix),
	}
}

type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func (l *eventLog) add(e events.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) terminal() []events.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []events.Event
	for _, e := range l.events {
		if events.IsTerminal(e) {
			out = append(out, e)
		}
	}
	return out
}

func openSession(t *testing.T, opts Options) *Session {
	t.Helper()
	s, err := New(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(s.Dispose)
	return s
}

func TestNewInitializesDashboard(t *testing.T) {
	log := &eventLog{}
	opts := testOptions(testBackend())
	opts.OnEvent = log.add

	s := openSession(t, opts)

	assert.NotEmpty(t, s.ID())
	assert.Equal(t, "Sales", s.State().Meta.Title)
	assert.Equal(t, "dash", s.Dashboard().Identifier)

	terminal := log.terminal()
	require.Len(t, terminal, 1)
	assert.Equal(t, events.DashboardInitialized, terminal[0].Type)
	assert.Equal(t, s.ID(), terminal[0].Ctx.SessionID)
}

func TestNewFailsForMissingDashboard(t *testing.T) {
	opts := testOptions(testBackend())
	opts.Dashboard = objref.IDRef("missing")

	_, err := New(context.Background(), opts)
	var cmdErr *events.CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, events.ReasonUserError, cmdErr.Reason)
}

func TestNewRequiresWorkspace(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.Error(t, err)
}

func TestCommandsRunInDispatchOrder(t *testing.T) {
	log := &eventLog{}
	s := openSession(t, testOptions(testBackend()))
	s.OnEvent(log.add)

	var ids []string
	for i := 0; i < 20; i++ {
		id, err := s.Dispatch(commands.Rename(fmt.Sprintf("title %d", i)))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	last, err := s.DispatchAndWait(context.Background(), commands.Rename("final"))
	require.NoError(t, err)
	assert.Equal(t, events.DashboardRenamed, last.Type)

	terminal := log.terminal()
	require.Len(t, terminal, len(ids)+1)
	for i, id := range ids {
		assert.Equal(t, id, terminal[i].CorrelationID)
	}
	assert.Equal(t, "final", s.State().Meta.Title)
}

func TestDispatchKeepsGivenCorrelationID(t *testing.T) {
	s := openSession(t, testOptions(testBackend()))

	id, err := s.Dispatch(commands.Rename("x", "my-id"))
	require.NoError(t, err)
	assert.Equal(t, "my-id", id)

	evt, err := s.DispatchAndWait(context.Background(), commands.Rename("y", "other-id"))
	require.NoError(t, err)
	assert.Equal(t, "other-id", evt.CorrelationID)
}

func TestDispatchAndWaitReturnsFailuresAsEvents(t *testing.T) {
	s := openSession(t, testOptions(testBackend()))

	evt, err := s.DispatchAndWait(context.Background(), commands.RemoveSection(3))
	require.NoError(t, err)
	assert.Equal(t, events.CommandFailed, evt.Type)

	evt, err = s.DispatchAndWait(context.Background(), commands.Command{Type: "GDC.DASH/CMD.NOPE"})
	require.NoError(t, err)
	assert.Equal(t, events.CommandRejected, evt.Type)
}

func TestSubscribeReceivesEvents(t *testing.T) {
	s := openSession(t, testOptions(testBackend()))
	ch, cancel := s.Subscribe(16)
	defer cancel()

	_, err := s.DispatchAndWait(context.Background(), commands.Rename("renamed", "c1"))
	require.NoError(t, err)

	var got []string
	timeout := time.After(time.Second)
	for len(got) < 2 {
		select {
		case e := <-ch:
			got = append(got, e.Type)
		case <-timeout:
			t.Fatalf("received only %v", got)
		}
	}
	assert.Equal(t, []string{events.CommandStarted, events.DashboardRenamed}, got)
}

func TestDispose(t *testing.T) {
	s, err := New(context.Background(), testOptions(testBackend()))
	require.NoError(t, err)
	ch, _ := s.Subscribe(4)

	s.Dispose()
	s.Dispose()

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("session did not stop")
	}

	_, err = s.Dispatch(commands.Rename("late"))
	assert.ErrorIs(t, err, ErrDisposed)
	_, err = s.DispatchAndWait(context.Background(), commands.Rename("late"))
	assert.ErrorIs(t, err, ErrDisposed)

	_, open := <-ch
	assert.False(t, open)
}

func TestSessionsAreIndependent(t *testing.T) {
	b := testBackend()
	a := openSession(t, testOptions(b))
	c := openSession(t, testOptions(b))

	_, err := a.DispatchAndWait(context.Background(), commands.Rename("only a"))
	require.NoError(t, err)

	assert.Equal(t, "only a", a.State().Meta.Title)
	assert.Equal(t, "Sales", c.State().Meta.Title)
	assert.NotEqual(t, a.ID(), c.ID())
}
