package audit

import (
	"context"
	"sync"
	"time"

	"go-dashboard/internal/features/events"
	"go-dashboard/pkg/objref"

	"go.uber.org/zap"
)

const writeTimeout = 5 * time.Second

type AuditService interface {
	// Observe queues a session event; only successful terminal events are kept.
	Observe(evt events.Event)
	ListLogs(ctx context.Context, dashboard objref.ObjRef, page, limit int64) ([]AuditLog, error)
	Start()
	Stop()
}

type AuditServiceImpl struct {
	Repo   AuditRepository
	logger *zap.Logger

	queue chan AuditLog
	wg    sync.WaitGroup
	once  sync.Once
}

func NewAuditService(repo AuditRepository, logger *zap.Logger) AuditService {
	return newAuditService(repo, logger, 1000)
}

func newAuditService(repo AuditRepository, logger *zap.Logger, buffer int) *AuditServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditServiceImpl{
		Repo:   repo,
		logger: logger.Named("audit"),
		queue:  make(chan AuditLog, buffer),
	}
}

// Key is how a dashboard ref is stored in the log, identifier preferred.
func Key(ref objref.ObjRef) string {
	if ref.Identifier != "" {
		return ref.Identifier
	}
	return ref.URI
}

func (s *AuditServiceImpl) Observe(evt events.Event) {
	if !events.IsTerminal(evt) || evt.Type == events.CommandFailed || evt.Type == events.CommandRejected {
		return
	}
	log := AuditLog{
		EventType:     evt.Type,
		CorrelationID: evt.CorrelationID,
		Workspace:     evt.Ctx.WorkspaceID,
		Dashboard:     Key(evt.Ctx.Dashboard),
		SessionID:     evt.Ctx.SessionID,
		Timestamp:     evt.Timestamp,
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now().UTC()
	}
	select {
	case s.queue <- log:
	default:
		s.logger.Warn("Audit queue full, dropping entry", zap.String("event", evt.Type), zap.String("correlation_id", evt.CorrelationID))
	}
}

// Start runs the writer. Stop drains what was queued before returning.
func (s *AuditServiceImpl) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for log := range s.queue {
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			if err := s.Repo.Create(ctx, log); err != nil {
				s.logger.Error("Failed to write audit log", zap.String("event", log.EventType), zap.Error(err))
			}
			cancel()
		}
	}()
}

func (s *AuditServiceImpl) Stop() {
	s.once.Do(func() { close(s.queue) })
	s.wg.Wait()
}

func (s *AuditServiceImpl) ListLogs(ctx context.Context, dashboard objref.ObjRef, page, limit int64) ([]AuditLog, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit
	return s.Repo.List(ctx, Key(dashboard), limit, offset)
}
