package queries

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"
)

type Status string

const (
	StatusNotQueried Status = "notQueried"
	StatusPending    Status = "pending"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

var ErrUnknownQuery = errors.New("unknown query type")

// Entry is what selectors see of one cached query.
type Entry[R any] struct {
	Status Status
	Result R
	Err    error
}

// Service caches the results of one query type by a key derived only from the
// query arguments. Concurrent identical queries share one underlying call.
// Safe for concurrent use.
type Service[Q any, R any] struct {
	queryType string
	impl      func(ctx context.Context, q Q) (R, error)
	cacheKey  func(q Q) string

	mu         sync.Mutex
	entries    map[string]*Entry[R]
	generation uint64
	group      singleflight.Group
}

func NewService[Q any, R any](queryType string, impl func(ctx context.Context, q Q) (R, error), cacheKey func(q Q) string) *Service[Q, R] {
	return &Service[Q, R]{
		queryType: queryType,
		impl:      impl,
		cacheKey:  cacheKey,
		entries:   make(map[string]*Entry[R]),
	}
}

func (s *Service[Q, R]) QueryType() string {
	return s.queryType
}

// Query returns the cached result or runs the query. Successful and pending
// entries are reused; errored entries are retried. A cancelled run leaves no
// entry behind.
func (s *Service[Q, R]) Query(ctx context.Context, q Q) (R, error) {
	key := s.cacheKey(q)
	for {
		s.mu.Lock()
		if e, ok := s.entries[key]; ok && e.Status == StatusSuccess {
			s.mu.Unlock()
			return e.Result, nil
		}
		if e, ok := s.entries[key]; !ok || e.Status != StatusPending {
			s.entries[key] = &Entry[R]{Status: StatusPending}
		}
		gen := s.generation
		s.mu.Unlock()

		ch := s.group.DoChan(s.flightKey(gen, key), func() (any, error) {
			return s.run(ctx, gen, key, q)
		})

		select {
		case <-ctx.Done():
			var zero R
			return zero, ctx.Err()
		case res := <-ch:
			if res.Err != nil && isCancellation(res.Err) && ctx.Err() == nil {
				// another caller owned the run and gave up; take over
				continue
			}
			if res.Err != nil {
				var zero R
				return zero, res.Err
			}
			return res.Val.(R), nil
		}
	}
}

func (s *Service[Q, R]) run(ctx context.Context, gen uint64, key string, q Q) (R, error) {
	result, err := s.impl(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return result, err
	}
	switch {
	case err != nil && isCancellation(err):
		delete(s.entries, key)
	case err != nil:
		s.entries[key] = &Entry[R]{Status: StatusError, Err: err}
	default:
		s.entries[key] = &Entry[R]{Status: StatusSuccess, Result: result}
	}
	return result, err
}

func (s *Service[Q, R]) flightKey(gen uint64, key string) string {
	return fmt.Sprintf("%d/%s", gen, key)
}

func (s *Service[Q, R]) Status(q Q) Entry[R] {
	return s.StatusByKey(s.cacheKey(q))
}

func (s *Service[Q, R]) StatusByKey(key string) Entry[R] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		return *e
	}
	return Entry[R]{Status: StatusNotQueried}
}

// Reset drops every entry. Runs still in flight finish but are not stored.
func (s *Service[Q, R]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.entries = make(map[string]*Entry[R])
}

func (s *Service[Q, R]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

type resettable interface {
	QueryType() string
	Reset()
}

// Cache groups the query services of one session so they can be reset together.
type Cache struct {
	mu       sync.Mutex
	services map[string]resettable
}

func NewCache() *Cache {
	return &Cache{services: make(map[string]resettable)}
}

func (c *Cache) Register(s resettable) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[s.QueryType()] = s
}

func (c *Cache) Reset(queryType string) error {
	c.mu.Lock()
	s, ok := c.services[queryType]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuery, queryType)
	}
	s.Reset()
	return nil
}

func (c *Cache) ResetAll() {
	c.mu.Lock()
	services := make([]resettable, 0, len(c.services))
	for _, s := range c.services {
		services = append(services, s)
	}
	c.mu.Unlock()
	for _, s := range services {
		s.Reset()
	}
}

func (c *Cache) Types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.services))
	for t := range c.services {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
