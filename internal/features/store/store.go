package store

import (
	"errors"
	"fmt"
	"maps"
	"sync"

	"go-dashboard/internal/models"

	"github.com/tiendc/go-deepcopy"
)

const maxUndoEntries = 50

var ErrUnknownAction = errors.New("unknown store action")

type Listener func(s *State, batch []Action)

// Store owns the dashboard state of one session. Every dispatched batch is
// applied to a private copy and swapped in at once, so readers and listeners
// only ever see whole batches.
type Store struct {
	mu        sync.Mutex
	state     *State
	version   uint64
	listeners map[int]Listener
	nextID    int
}

func New() *Store {
	return &Store{
		state:     emptyState(),
		listeners: make(map[int]Listener),
	}
}

// State returns the current snapshot. Callers must treat it as read-only.
func (s *Store) State() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Dispatch applies the batch atomically. On error nothing is applied.
func (s *Store) Dispatch(batch ...Action) error {
	if len(batch) == 0 {
		return nil
	}

	s.mu.Lock()
	current := s.state
	working, err := Clone(current)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to copy state: %w", err)
	}

	if err := applyBatch(working, current, batch); err != nil {
		s.mu.Unlock()
		return err
	}

	s.state = working
	s.version++
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(working, batch)
	}
	return nil
}

// Preview returns the state the batch would produce without committing it.
func Preview(current *State, batch ...Action) (*State, error) {
	working, err := Clone(current)
	if err != nil {
		return nil, fmt.Errorf("failed to copy state: %w", err)
	}
	if err := applyBatch(working, current, batch); err != nil {
		return nil, err
	}
	return working, nil
}

func applyBatch(working, previous *State, batch []Action) error {
	if meta := undoMeta(batch); meta != nil {
		pushUndo(working, previous, meta)
	}
	for _, a := range batch {
		r, ok := reducers[a.Type]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownAction, a.Type)
		}
		if err := r(working, a); err != nil {
			return fmt.Errorf("%s: %w", a.Type, err)
		}
	}
	return nil
}

// Clone copies a snapshot so reducers can mutate it. Slices that reducers edit in
// place are deep-copied; the rest is only ever replaced wholesale and is shared.
// Undo entries point at older immutable snapshots and are shared as well.
func Clone(src *State) (*State, error) {
	dst := *src

	var layout LayoutState
	if err := deepcopy.Copy(&layout, LayoutState{
		Sections: src.Layout.Sections,
		Widgets:  src.Layout.Widgets,
		Nested:   src.Layout.Nested,
	}); err != nil {
		return nil, err
	}
	layout.Undo = append([]UndoEntry(nil), src.Layout.Undo...)
	dst.Layout = layout

	var filters []models.FilterContextItem
	if err := deepcopy.Copy(&filters, src.FilterContext.Filters); err != nil {
		return nil, err
	}
	dst.FilterContext.Filters = filters

	dst.Insights.ByKey = maps.Clone(src.Insights.ByKey)
	dst.Alerts.Items = append([]models.Automation(nil), src.Alerts.Items...)
	dst.UI = UIState{
		InvalidDrills:             maps.Clone(src.UI.InvalidDrills),
		InvalidCustomURLDrillArgs: maps.Clone(src.UI.InvalidCustomURLDrillArgs),
		Loading:                   maps.Clone(src.UI.Loading),
	}

	ensureMaps(&dst)
	return &dst, nil
}

func ensureMaps(s *State) {
	if s.Layout.Widgets == nil {
		s.Layout.Widgets = map[string]models.Widget{}
	}
	if s.Layout.Nested == nil {
		s.Layout.Nested = map[string][]SectionState{}
	}
	if s.Insights.ByKey == nil {
		s.Insights.ByKey = map[string]models.Insight{}
	}
	if s.UI.InvalidDrills == nil {
		s.UI.InvalidDrills = map[string][]models.Drill{}
	}
	if s.UI.InvalidCustomURLDrillArgs == nil {
		s.UI.InvalidCustomURLDrillArgs = map[string][]InvalidCustomURLParameter{}
	}
	if s.UI.Loading == nil {
		s.UI.Loading = map[string]bool{}
	}
}

func undoMeta(batch []Action) *UndoMeta {
	for _, a := range batch {
		if a.Undo != nil {
			return a.Undo
		}
	}
	return nil
}

// pushUndo records the pre-batch layout. The previous snapshot is immutable so
// its slices can be referenced directly.
func pushUndo(working, previous *State, meta *UndoMeta) {
	entry := UndoEntry{
		Command:  meta.Command,
		Sections: previous.Layout.Sections,
		Widgets:  previous.Layout.Widgets,
		Nested:   previous.Layout.Nested,
	}
	working.Layout.Undo = append(working.Layout.Undo, entry)
	if len(working.Layout.Undo) > maxUndoEntries {
		working.Layout.Undo = working.Layout.Undo[len(working.Layout.Undo)-maxUndoEntries:]
	}
}
