package automation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go-dashboard/internal/backend"
	"go-dashboard/internal/features/export"
	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var ErrNotScheduled = errors.New("automation is not scheduled")

const jobTimeout = 2 * time.Minute

// ScheduledEntry describes one registered scheduled export.
type ScheduledEntry struct {
	Automation objref.ObjRef `json:"automation"`
	Title      string        `json:"title"`
	Dashboard  objref.ObjRef `json:"dashboard"`
	Cron       string        `json:"cron"`
	Timezone   string        `json:"timezone,omitempty"`
	Next       time.Time     `json:"next"`
}

// SchedulerService fires scheduled exports of the workspace: each run
// renders the dashboard to XLSX, hands it to the delivery and records the run.
type SchedulerService interface {
	Start(ctx context.Context) error
	Stop()
	Add(a models.Automation) error
	Remove(ref objref.ObjRef)
	RunNow(ctx context.Context, ref objref.ObjRef) error
	Entries() []ScheduledEntry
}

type SchedulerServiceImpl struct {
	workspace backend.Workspace
	exporter  export.ExportService
	delivery  Delivery
	logger    *zap.Logger
	now       func() time.Time

	scheduler  *cron.Cron
	jobEntries map[string]jobEntry
	mu         sync.RWMutex
}

type jobEntry struct {
	id         cron.EntryID
	automation models.Automation
}

func NewSchedulerService(ws backend.Workspace, exporter export.ExportService, delivery Delivery, logger *zap.Logger) SchedulerService {
	return newScheduler(ws, exporter, delivery, logger)
}

func newScheduler(ws backend.Workspace, exporter export.ExportService, delivery Delivery, logger *zap.Logger) *SchedulerServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchedulerServiceImpl{
		workspace:  ws,
		exporter:   exporter,
		delivery:   delivery,
		logger:     logger.Named("scheduler"),
		now:        func() time.Time { return time.Now().UTC() },
		scheduler:  cron.New(),
		jobEntries: make(map[string]jobEntry),
	}
}

// Start registers every scheduled export the backend knows and starts firing them.
func (s *SchedulerServiceImpl) Start(ctx context.Context) error {
	s.logger.Info("Starting export scheduler", zap.String("workspace", s.workspace.ID()))
	items, err := s.workspace.Automations().ListScheduled(ctx)
	if err != nil {
		return fmt.Errorf("failed to load scheduled exports: %w", err)
	}
	for _, a := range items {
		if err := s.Add(a); err != nil {
			s.logger.Warn("Skipping scheduled export", zap.String("automation", a.Identity.Ref().String()), zap.Error(err))
		}
	}
	s.scheduler.Start()
	return nil
}

func (s *SchedulerServiceImpl) Stop() {
	ctx := s.scheduler.Stop()
	<-ctx.Done()
	s.logger.Info("Export scheduler stopped")
}

// Add registers a, replacing an earlier registration of the same automation.
func (s *SchedulerServiceImpl) Add(a models.Automation) error {
	if a.Type != models.AutomationScheduledExport || a.Schedule == nil {
		return fmt.Errorf("automation %s is not a scheduled export", a.Identity.Ref())
	}
	key := entryKey(a.Identity)
	if key == "" {
		return errors.New("scheduled export has no identity")
	}
	sched, err := parseSchedule(*a.Schedule)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.jobEntries[key]; ok {
		s.scheduler.Remove(old.id)
	}
	id := s.scheduler.Schedule(sched, cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if err := s.fire(ctx, key); err != nil {
			s.logger.Error("Scheduled export failed", zap.String("automation", key), zap.Error(err))
		}
	}))
	s.jobEntries[key] = jobEntry{id: id, automation: a}
	s.logger.Debug("Registered scheduled export", zap.String("automation", key), zap.String("cron", a.Schedule.Cron))
	return nil
}

func (s *SchedulerServiceImpl) Remove(ref objref.ObjRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.jobEntries {
		if entry.automation.Identity.Matches(ref, nil) {
			s.scheduler.Remove(entry.id)
			delete(s.jobEntries, key)
		}
	}
}

// RunNow fires a registered export immediately, outside its schedule.
func (s *SchedulerServiceImpl) RunNow(ctx context.Context, ref objref.ObjRef) error {
	key, ok := s.lookup(ref)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotScheduled, ref)
	}
	return s.fire(ctx, key)
}

func (s *SchedulerServiceImpl) Entries() []ScheduledEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ScheduledEntry, 0, len(s.jobEntries))
	for _, entry := range s.jobEntries {
		a := entry.automation
		next := s.scheduler.Entry(entry.id).Next
		if next.IsZero() {
			next, _ = NextRun(*a.Schedule, s.now())
		}
		out = append(out, ScheduledEntry{
			Automation: a.Identity.Ref(),
			Title:      a.Title,
			Dashboard:  a.Dashboard,
			Cron:       a.Schedule.Cron,
			Timezone:   a.Schedule.Timezone,
			Next:       next,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Next.Equal(out[j].Next) {
			return out[i].Next.Before(out[j].Next)
		}
		return out[i].Automation.String() < out[j].Automation.String()
	})
	return out
}

func (s *SchedulerServiceImpl) lookup(ref objref.ObjRef) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for key, entry := range s.jobEntries {
		if entry.automation.Identity.Matches(ref, nil) {
			return key, true
		}
	}
	return "", false
}

// fire runs the export against the latest stored version of the automation.
// An automation deleted in the meantime is unregistered instead.
func (s *SchedulerServiceImpl) fire(ctx context.Context, key string) error {
	s.mu.RLock()
	entry, ok := s.jobEntries[key]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotScheduled, key)
	}
	ref := entry.automation.Identity.Ref()

	latest, err := s.latest(ctx, entry.automation.Identity)
	if errors.Is(err, backend.ErrNotFound) {
		s.logger.Info("Scheduled export no longer exists", zap.String("automation", key))
		s.Remove(ref)
		return nil
	}
	if err != nil {
		return err
	}

	started := s.now()
	doc, err := s.workspace.Dashboards().Get(ctx, latest.Dashboard)
	if err != nil {
		return fmt.Errorf("failed to load dashboard %s: %w", latest.Dashboard, err)
	}
	content, name, err := s.exporter.DashboardXLSX(doc, latest.Title)
	if err != nil {
		return fmt.Errorf("failed to export dashboard %s: %w", latest.Dashboard, err)
	}
	if err := s.delivery.Deliver(ctx, Export{
		Automation: latest,
		Dashboard:  doc.Title,
		FileName:   name,
		Content:    content,
	}); err != nil {
		return err
	}

	next, err := NextRun(*latest.Schedule, started)
	if err != nil {
		return err
	}
	if err := s.workspace.Automations().RecordRun(ctx, ref, started, next); err != nil {
		s.logger.Warn("Failed to record scheduled export run", zap.String("automation", key), zap.Error(err))
	}
	s.logger.Info("Scheduled export delivered",
		zap.String("automation", key),
		zap.String("file", name),
		zap.Time("next_run", next),
	)
	return nil
}

func (s *SchedulerServiceImpl) latest(ctx context.Context, id objref.Identity) (models.Automation, error) {
	items, err := s.workspace.Automations().ListScheduled(ctx)
	if err != nil {
		return models.Automation{}, fmt.Errorf("failed to load scheduled exports: %w", err)
	}
	for _, a := range items {
		if a.Identity == id || (id.Identifier != "" && a.Identifier == id.Identifier) || (id.URI != "" && a.URI == id.URI) {
			return a, nil
		}
	}
	return models.Automation{}, backend.ErrNotFound
}

func entryKey(id objref.Identity) string {
	if id.Identifier != "" {
		return id.Identifier
	}
	return id.URI
}
