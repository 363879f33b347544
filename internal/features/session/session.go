package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-dashboard/internal/backend"
	"go-dashboard/internal/features/commands"
	"go-dashboard/internal/features/events"
	"go-dashboard/internal/features/export"
	"go-dashboard/internal/features/handlers"
	"go-dashboard/internal/features/plugin"
	"go-dashboard/internal/features/queries"
	"go-dashboard/internal/features/store"
	"go-dashboard/pkg/objref"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrDisposed = errors.New("session is disposed")

type Options struct {
	Workspace backend.Workspace
	// Dashboard to open; zero starts a new, empty dashboard.
	Dashboard objref.ObjRef
	Resolver  objref.Resolver
	Logger    *zap.Logger
	Plugins   *plugin.Registry
	Handlers  *handlers.Registry
	Exporter  export.ExportService
	Scheduler handlers.ExportScheduler

	// CommandTimeout bounds a single command; zero means no limit.
	CommandTimeout time.Duration
	// OnEvent observes every event from the first one on.
	OnEvent func(events.Event)
	ID      string
	Now     func() time.Time
}

// Session owns the state of one open dashboard. Commands run one at a time
// in the order they were dispatched.
type Session struct {
	id      string
	env     *handlers.Env
	handler *handlers.Registry
	logger  *zap.Logger
	timeout time.Duration
	bus     *bus

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	wake   chan struct{}

	mu       sync.Mutex
	inbox    []commands.Command
	waiters  map[string][]chan events.Event
	disposed bool
}

// New opens a session and initializes it. When initialization fails the
// session is disposed and the failure returned.
func New(ctx context.Context, opts Options) (*Session, error) {
	if opts.Workspace == nil {
		return nil, errors.New("session needs a workspace")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Handlers == nil {
		opts.Handlers = handlers.DefaultRegistry()
	}
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}

	logger := opts.Logger.With(zap.String("session", opts.ID), zap.String("dashboard", opts.Dashboard.String()))
	s := &Session{
		id:      opts.ID,
		handler: opts.Handlers,
		logger:  logger,
		timeout: opts.CommandTimeout,
		bus:     newBus(logger),
		done:    make(chan struct{}),
		wake:    make(chan struct{}, 1),
		waiters: make(map[string][]chan events.Event),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	env := &handlers.Env{
		Store:        store.New(),
		Workspace:    opts.Workspace,
		Logger:       logger,
		Plugins:      opts.Plugins,
		Exporter:     opts.Exporter,
		Scheduler:    opts.Scheduler,
		BaseResolver: opts.Resolver,
		Dashboard:    opts.Dashboard,
		SessionID:    opts.ID,
		Now:          opts.Now,
		Sink:         s.bus.publish,
	}
	env.Queries = queries.New(opts.Workspace, env.Resolver(), env)
	s.env = env
	if opts.OnEvent != nil {
		s.bus.listen(opts.OnEvent)
	}

	go s.loop()

	evt, err := s.DispatchAndWait(ctx, commands.InitializeDashboard())
	if err != nil {
		s.Dispose()
		return nil, err
	}
	if evt.Type != events.DashboardInitialized {
		s.Dispose()
		return nil, failure(evt)
	}
	logger.Info("Session opened")
	return s, nil
}

func (s *Session) ID() string { return s.id }

// Dashboard is the ref the session works on, updated once a new dashboard is saved.
func (s *Session) Dashboard() objref.ObjRef { return s.env.Context().Dashboard }

// State is the current immutable state snapshot.
func (s *Session) State() *store.State { return s.env.Store.State() }

func (s *Session) Queries() *queries.Queries { return s.env.Queries }

func (s *Session) Resolver() objref.Resolver { return s.env.Resolver() }

// Dispatch queues cmd and returns its correlation id, generating one when
// cmd has none.
func (s *Session) Dispatch(cmd commands.Command) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return "", ErrDisposed
	}
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = uuid.NewString()
	}
	s.inbox = append(s.inbox, cmd)
	s.notify()
	return cmd.CorrelationID, nil
}

// DispatchAndWait queues cmd and waits for its terminal event. Command
// failures come back as events, not errors.
func (s *Session) DispatchAndWait(ctx context.Context, cmd commands.Command) (events.Event, error) {
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = uuid.NewString()
	}
	ch := make(chan events.Event, 1)

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return events.Event{}, ErrDisposed
	}
	s.waiters[cmd.CorrelationID] = append(s.waiters[cmd.CorrelationID], ch)
	s.inbox = append(s.inbox, cmd)
	s.notify()
	s.mu.Unlock()

	select {
	case evt, ok := <-ch:
		if !ok {
			return events.Event{}, ErrDisposed
		}
		return evt, nil
	case <-ctx.Done():
		s.dropWaiter(cmd.CorrelationID, ch)
		return events.Event{}, ctx.Err()
	}
}

// Subscribe delivers every following event on the returned channel until
// cancel is called or the session is disposed.
func (s *Session) Subscribe(buffer int) (<-chan events.Event, func()) {
	return s.bus.subscribe(buffer)
}

// OnEvent calls fn for every following event on the session goroutine.
func (s *Session) OnEvent(fn func(events.Event)) (cancel func()) {
	return s.bus.listen(fn)
}

// Dispose stops the session. Queued commands are dropped and their waiters
// get ErrDisposed. It does not wait for a running command; use Done for that.
func (s *Session) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	s.inbox = nil
	s.mu.Unlock()

	s.cancel()
	s.notify()
}

// Done is closed once the session goroutine has exited after Dispose.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Session) loop() {
	defer s.shutdown()
	for {
		cmd, ok := s.next()
		if !ok {
			select {
			case <-s.wake:
				continue
			case <-s.ctx.Done():
				return
			}
		}
		evt := s.process(cmd)
		s.resolve(cmd.CorrelationID, evt)
	}
}

func (s *Session) next() (commands.Command, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || len(s.inbox) == 0 {
		return commands.Command{}, false
	}
	cmd := s.inbox[0]
	s.inbox[0] = commands.Command{}
	s.inbox = s.inbox[1:]
	return cmd, true
}

func (s *Session) process(cmd commands.Command) events.Event {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.handler.Process(ctx, s.env, cmd)
}

func (s *Session) resolve(correlationID string, evt events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	waiting := s.waiters[correlationID]
	if len(waiting) == 0 {
		return
	}
	waiting[0] <- evt
	if len(waiting) == 1 {
		delete(s.waiters, correlationID)
	} else {
		s.waiters[correlationID] = waiting[1:]
	}
}

func (s *Session) dropWaiter(correlationID string, ch chan events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	waiting := s.waiters[correlationID]
	for i, w := range waiting {
		if w == ch {
			waiting = append(waiting[:i:i], waiting[i+1:]...)
			break
		}
	}
	if len(waiting) == 0 {
		delete(s.waiters, correlationID)
	} else {
		s.waiters[correlationID] = waiting
	}
}

func (s *Session) shutdown() {
	s.mu.Lock()
	for id, waiting := range s.waiters {
		for _, ch := range waiting {
			close(ch)
		}
		delete(s.waiters, id)
	}
	s.mu.Unlock()

	s.bus.close()
	s.logger.Info("Session disposed")
	close(s.done)
}

// failure turns a COMMAND.FAILED or COMMAND.REJECTED event back into an error.
func failure(evt events.Event) error {
	switch p := evt.Payload.(type) {
	case events.CommandFailedPayload:
		return &events.CommandError{Reason: p.Reason, Message: p.Message}
	case events.CommandRejectedPayload:
		return fmt.Errorf("%w: %s", commands.ErrUnknownCommand, p.CommandType)
	}
	return fmt.Errorf("unexpected event %s", evt.Type)
}
