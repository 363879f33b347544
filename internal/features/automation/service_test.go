package automation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-dashboard/internal/backend/inmemory"
	"go-dashboard/internal/features/export"
	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingDelivery struct {
	mu      sync.Mutex
	exports []Export
	err     error
}

func (d *recordingDelivery) Deliver(ctx context.Context, e Export) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.exports = append(d.exports, e)
	return nil
}

func (d *recordingDelivery) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.exports)
}

func weekly(id string) models.Automation {
	return models.Automation{
		Identity:   objref.Identity{Identifier: id, URI: inmemory.URIPrefix + id},
		Type:       models.AutomationScheduledExport,
		Title:      "Weekly " + id,
		Dashboard:  objref.IDRef("dash"),
		Schedule:   &models.Schedule{Cron: "0 8 * * 1"},
		Recipients: []string{"sales@example.com"},
	}
}

func newTestScheduler(t *testing.T, automations ...models.Automation) (*SchedulerServiceImpl, *inmemory.Backend, *recordingDelivery) {
	t.Helper()
	b := inmemory.New(inmemory.Fixtures{
		Dashboards: []models.Dashboard{{
			Identity: objref.Identity{Identifier: "dash", URI: inmemory.URIPrefix + "dash"},
			Title:    "Sales",
		}},
		Automations: automations,
	})
	delivery := &recordingDelivery{}
	s := newScheduler(b.Workspace("ws"), export.NewExportService(), delivery, zap.NewNop())
	s.now = func() time.Time { return time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC) }
	return s, b, delivery
}

func TestSchedulerStartRegistersStoredExports(t *testing.T) {
	s, _, _ := newTestScheduler(t, weekly("auto.a"), weekly("auto.b"))
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	entries := s.Entries()
	require.Len(t, entries, 2)
	var ids []string
	for _, e := range entries {
		ids = append(ids, e.Automation.Identifier)
		assert.Equal(t, "0 8 * * 1", e.Cron)
		assert.False(t, e.Next.IsZero())
	}
	assert.ElementsMatch(t, []string{"auto.a", "auto.b"}, ids)
}

func TestSchedulerAddReplacesAndRemoves(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	a := weekly("auto.a")
	require.NoError(t, s.Add(a))
	a.Schedule = &models.Schedule{Cron: "0 9 * * *"}
	require.NoError(t, s.Add(a))

	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "0 9 * * *", entries[0].Cron)

	s.Remove(objref.URIRef(inmemory.URIPrefix + "auto.a"))
	assert.Empty(t, s.Entries())
}

func TestSchedulerAddRejects(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	alert := weekly("auto.a")
	alert.Type = models.AutomationAlert
	assert.Error(t, s.Add(alert))

	broken := weekly("auto.b")
	broken.Schedule = &models.Schedule{Cron: "sometimes"}
	assert.ErrorIs(t, s.Add(broken), ErrInvalidSchedule)

	anonymous := weekly("")
	anonymous.URI = ""
	assert.Error(t, s.Add(anonymous))

	assert.Empty(t, s.Entries())
}

func TestSchedulerRunNowDeliversAndRecordsRun(t *testing.T) {
	stored := weekly("auto.a")
	s, b, delivery := newTestScheduler(t, stored)
	require.NoError(t, s.Add(stored))

	require.NoError(t, s.RunNow(context.Background(), objref.IDRef("auto.a")))

	require.Equal(t, 1, delivery.count())
	e := delivery.exports[0]
	assert.Equal(t, "Sales", e.Dashboard)
	assert.NotEmpty(t, e.FileName)
	assert.NotEmpty(t, e.Content)
	assert.Equal(t, []string{"sales@example.com"}, e.Automation.Recipients)
	assert.Equal(t, 1, b.Calls("automations.recordRun"))

	items, err := b.Workspace("ws").Automations().ListScheduled(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].LastRun)
	require.NotNil(t, items[0].NextRun)
	assert.True(t, items[0].NextRun.Equal(time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC)), "got %s", items[0].NextRun)
}

func TestSchedulerRunNowUsesLatestVersion(t *testing.T) {
	stored := weekly("auto.a")
	s, b, delivery := newTestScheduler(t, stored)
	require.NoError(t, s.Add(stored))

	changed := stored
	changed.Recipients = []string{"boss@example.com"}
	_, err := b.Workspace("ws").Automations().Update(context.Background(), changed)
	require.NoError(t, err)

	require.NoError(t, s.RunNow(context.Background(), objref.IDRef("auto.a")))
	require.Equal(t, 1, delivery.count())
	assert.Equal(t, []string{"boss@example.com"}, delivery.exports[0].Automation.Recipients)
}

func TestSchedulerDropsDeletedExport(t *testing.T) {
	stored := weekly("auto.a")
	s, b, delivery := newTestScheduler(t, stored)
	require.NoError(t, s.Add(stored))
	require.NoError(t, b.Workspace("ws").Automations().Delete(context.Background(), stored.Ref()))

	require.NoError(t, s.RunNow(context.Background(), objref.IDRef("auto.a")))
	assert.Zero(t, delivery.count())
	assert.Empty(t, s.Entries())
}

func TestSchedulerRunNowErrors(t *testing.T) {
	stored := weekly("auto.a")
	s, b, delivery := newTestScheduler(t, stored)
	require.NoError(t, s.Add(stored))

	err := s.RunNow(context.Background(), objref.IDRef("auto.missing"))
	assert.ErrorIs(t, err, ErrNotScheduled)

	delivery.err = errors.New("mailbox full")
	err = s.RunNow(context.Background(), objref.IDRef("auto.a"))
	assert.ErrorContains(t, err, "mailbox full")
	assert.Zero(t, b.Calls("automations.recordRun"))
}
