package handlers

import (
	"context"
	"errors"
	"testing"

	"go-dashboard/internal/features/commands"
	"go-dashboard/internal/features/events"
	"go-dashboard/internal/features/plugin"
	"go-dashboard/internal/features/store"
	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func terminalEvents(evts []events.Event) []events.Event {
	var out []events.Event
	for _, e := range evts {
		if events.IsTerminal(e) {
			out = append(out, e)
		}
	}
	return out
}

func TestProcessEmitsExactlyOneTerminalEvent(t *testing.T) {
	tests := []struct {
		name     string
		cmd      commands.Command
		terminal string
		started  bool
	}{
		{name: "success", cmd: commands.Rename("Quarterly"), started: true},
		{name: "failure", cmd: commands.RemoveAttributeFiltersCmd([]string{"f.missing"}), terminal: events.CommandFailed, started: true},
		{name: "unknown", cmd: commands.Command{Type: "GDC.DASH/CMD.DOES_NOT_EXIST"}, terminal: events.CommandRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.cmd.CorrelationID = "corr-" + tt.name

			evt := h.run(tt.cmd)
			if tt.terminal != "" {
				assert.Equal(t, tt.terminal, evt.Type)
			}

			recorded := h.recorded(tt.cmd.CorrelationID)
			terminal := terminalEvents(recorded)
			require.Len(t, terminal, 1)
			assert.Equal(t, evt.Type, terminal[0].Type)
			assert.Equal(t, evt.Type, recorded[len(recorded)-1].Type)
			assert.Equal(t, tt.started, recorded[0].Type == events.CommandStarted)
		})
	}
}

func TestProcessRecoversPanickingHandler(t *testing.T) {
	h := newHarness(t)
	h.registry.Register("GDC.DASH/CMD.TEST.PANIC", func(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
		panic("boom")
	})

	evt := h.run(commands.Command{Type: "GDC.DASH/CMD.TEST.PANIC"})
	assert.Equal(t, events.ReasonInternalError, failureReason(t, evt))
}

func TestRemovingMissingObjectsLeavesStateUntouched(t *testing.T) {
	tests := []struct {
		name string
		cmd  commands.Command
	}{
		{name: "alert", cmd: commands.RemoveAlertsCmd([]objref.ObjRef{objref.IDRef("no-such-alert")})},
		{name: "widget", cmd: commands.RemoveItemByWidgetRef(objref.IDRef("no-such-widget"), false)},
		{name: "filter", cmd: commands.RemoveAttributeFiltersCmd([]string{"f.state", "no-such-filter"})},
		{name: "section", cmd: commands.RemoveSection(7)},
		{name: "drills", cmd: commands.RemoveDrills(objref.IDRef("w.insight"), []string{"m1"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			before := snapshot(t, h.state())

			evt := h.run(tt.cmd)

			assert.Equal(t, events.ReasonUserError, failureReason(t, evt))
			assert.Equal(t, before, snapshot(t, h.state()))
		})
	}
}

func TestModifyDrillsIsIdempotent(t *testing.T) {
	h := newHarness(t)
	target := objref.IDRef("ins.orders")
	drill := models.Drill{
		Type:            models.DrillToInsight,
		LocalIdentifier: "d1",
		Transition:      models.TransitionPopUp,
		Origin:          models.DrillOrigin{Type: models.DrillFromMeasure, LocalIdentifier: "m1"},
		Target:          &target,
	}

	first := h.mustSucceed(commands.ModifyDrills(objref.IDRef("w.insight"), []models.Drill{drill}))
	afterFirst := h.widget("w.insight").Drills

	second := h.mustSucceed(commands.ModifyDrills(objref.IDRef("w.insight"), []models.Drill{drill}))
	afterSecond := h.widget("w.insight").Drills

	require.Len(t, afterFirst, 1)
	assert.Equal(t, afterFirst, afterSecond)

	p1 := first.Payload.(events.DrillsModifiedPayload)
	p2 := second.Payload.(events.DrillsModifiedPayload)
	assert.Len(t, p1.Added, 1)
	assert.Empty(t, p2.Added)
	assert.Empty(t, p2.Updated)
}

func TestModifyDrillsRejectsUnknownOrigin(t *testing.T) {
	h := newHarness(t)
	target := objref.IDRef("ins.orders")
	drill := models.Drill{
		Type:       models.DrillToInsight,
		Transition: models.TransitionPopUp,
		Origin:     models.DrillOrigin{Type: models.DrillFromMeasure, LocalIdentifier: "m9"},
		Target:     &target,
	}

	evt := h.run(commands.ModifyDrills(objref.IDRef("w.insight"), []models.Drill{drill}))
	assert.Equal(t, events.ReasonUserError, failureReason(t, evt))
	assert.Empty(t, h.widget("w.insight").Drills)
}

func TestSetAttributeFilterParentsRejectsCycles(t *testing.T) {
	over := func(attr string) models.ParentOver {
		return models.ParentOver{Attributes: []objref.ObjRef{objref.IDRef(attr)}}
	}

	t.Run("two filters", func(t *testing.T) {
		h := newHarness(t)
		evt := h.run(commands.SetAttributeFilterParentsCmd("f.state", []models.AttributeFilterParent{
			{FilterLocalIdentifier: "f.city", Over: over("attr.state")},
		}))
		assert.Equal(t, events.ReasonUserError, failureReason(t, evt))
		assert.Empty(t, h.filter("f.state").FilterElementsBy)
	})

	t.Run("three filters", func(t *testing.T) {
		h := newHarness(t)
		h.mustSucceed(commands.SetAttributeFilterParentsCmd("f.location", []models.AttributeFilterParent{
			{FilterLocalIdentifier: "f.city", Over: over("attr.city")},
		}))

		evt := h.run(commands.SetAttributeFilterParentsCmd("f.state", []models.AttributeFilterParent{
			{FilterLocalIdentifier: "f.location", Over: over("attr.location")},
		}))
		assert.Equal(t, events.ReasonUserError, failureReason(t, evt))
		assert.Empty(t, h.filter("f.state").FilterElementsBy)
	})

	t.Run("self", func(t *testing.T) {
		h := newHarness(t)
		evt := h.run(commands.SetAttributeFilterParentsCmd("f.state", []models.AttributeFilterParent{
			{FilterLocalIdentifier: "f.state", Over: over("attr.state")},
		}))
		assert.Equal(t, events.ReasonUserError, failureReason(t, evt))
	})
}

func TestSetAttributeFilterParentsOverSharedAttribute(t *testing.T) {
	h := newHarness(t)
	cmd := commands.SetAttributeFilterParentsCmd("f.city", []models.AttributeFilterParent{
		{FilterLocalIdentifier: "f.state", Over: models.ParentOver{Attributes: []objref.ObjRef{objref.IDRef("attr.location")}}},
	}, "corr-parents")

	evt := h.mustSucceed(cmd)
	assert.Equal(t, events.AttributeFilterParentChanged, evt.Type)

	var types []string
	for _, e := range h.recorded("corr-parents") {
		types = append(types, e.Type)
	}
	assert.Contains(t, types, events.FilterContextChanged)

	parents := h.filter("f.city").FilterElementsBy
	require.Len(t, parents, 1)
	assert.Equal(t, "f.state", parents[0].FilterLocalIdentifier)
	require.Len(t, parents[0].Over.Attributes, 1)
	assert.True(t, objref.Equal(objref.IDRef("attr.location"), parents[0].Over.Attributes[0], h.env.Resolver()))
}

func TestSetAttributeFilterParentsUnknownAttribute(t *testing.T) {
	h := newHarness(t)
	evt := h.run(commands.SetAttributeFilterParentsCmd("f.city", []models.AttributeFilterParent{
		{FilterLocalIdentifier: "f.state", Over: models.ParentOver{Attributes: []objref.ObjRef{objref.IDRef("attr.nope")}}},
	}))
	assert.Equal(t, events.ReasonUserError, failureReason(t, evt))
}

func TestKPIDateFilterMustBeAvailableForMeasure(t *testing.T) {
	h := newHarness(t)

	evt := h.run(commands.ChangeKPIFilterSettings(objref.IDRef("kpi.revenue"), commands.EnableDateFilter(objref.IDRef("created_date"))))
	assert.Equal(t, events.ReasonUserError, failureReason(t, evt))

	evt = h.mustSucceed(commands.ChangeKPIFilterSettings(objref.IDRef("kpi.orders"), commands.EnableDateFilter(objref.IDRef("created_date"))))
	p, ok := evt.Payload.(events.WidgetFilterSettingsChangedPayload)
	require.True(t, ok)
	require.NotNil(t, p.DateDatasetForFiltering)
	assert.Equal(t, "created_date", p.DateDatasetForFiltering.Identifier)

	w := h.widget("kpi.orders")
	require.NotNil(t, w.DateDataSet)
	assert.True(t, objref.Equal(objref.IDRef("created_date"), *w.DateDataSet, h.env.Resolver()))
}

func TestDisableDateFilterClearsDataset(t *testing.T) {
	h := newHarness(t)
	h.mustSucceed(commands.ChangeKPIFilterSettings(objref.IDRef("kpi.revenue"), commands.DisableDateFilter()))
	assert.Nil(t, h.widget("kpi.revenue").DateDataSet)
}

func alertOn(widget objref.ObjRef) models.Automation {
	return models.Automation{
		Title:      "Revenue drop",
		Widget:     &widget,
		Alert:      &models.AlertCondition{MeasureLocalIdentifier: "m1", Operator: models.AlertLessThan, Threshold: 100},
		Recipients: []string{"ops@example.com"},
	}
}

func TestAlertRefsMatchAcrossForms(t *testing.T) {
	removeBy := map[string]func(models.Automation) objref.ObjRef{
		"identifier": func(a models.Automation) objref.ObjRef { return objref.IDRef(a.Identifier) },
		"uri":        func(a models.Automation) objref.ObjRef { return objref.URIRef(a.URI) },
	}

	for name, ref := range removeBy {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			evt := h.mustSucceed(commands.CreateAlertCmd(alertOn(objref.URIRef("/gdc/md/kpi.revenue"))))
			created := evt.Payload.(events.AutomationPayload).Automation
			require.NotEmpty(t, created.Identifier)
			require.NotEmpty(t, created.URI)
			assert.Equal(t, models.AutomationAlert, created.Type)

			evt = h.mustSucceed(commands.RemoveAlertsCmd([]objref.ObjRef{ref(created)}))
			assert.Equal(t, events.AlertsRemoved, evt.Type)
			removed := evt.Payload.(events.AutomationsRemovedPayload).Removed
			require.Len(t, removed, 1)
			assert.Equal(t, created.Identity, removed[0].Identity)
			assert.Empty(t, store.SelectAutomationsOfType(h.state(), models.AutomationAlert))
			assert.Equal(t, 1, h.backend.Calls("automations.delete"))
		})
	}
}

func TestCreateAlertValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *models.Automation)
	}{
		{name: "missing widget", mutate: func(a *models.Automation) {
			ref := objref.IDRef("no-such-widget")
			a.Widget = &ref
		}},
		{name: "rich text widget", mutate: func(a *models.Automation) {
			ref := objref.IDRef("w.text")
			a.Widget = &ref
		}},
		{name: "bad operator", mutate: func(a *models.Automation) { a.Alert.Operator = "ABOUT" }},
		{name: "no condition", mutate: func(a *models.Automation) { a.Alert = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			alert := alertOn(objref.IDRef("kpi.revenue"))
			tt.mutate(&alert)

			evt := h.run(commands.CreateAlertCmd(alert))
			assert.Equal(t, events.ReasonUserError, failureReason(t, evt))
			assert.Zero(t, h.backend.Calls("automations.create"))
		})
	}
}

func TestUpdateAlertKeepsIdentity(t *testing.T) {
	h := newHarness(t)
	evt := h.mustSucceed(commands.CreateAlertCmd(alertOn(objref.IDRef("kpi.revenue"))))
	created := evt.Payload.(events.AutomationPayload).Automation

	changed := created
	changed.Title = "Revenue spike"
	changed.Alert = &models.AlertCondition{MeasureLocalIdentifier: "m1", Operator: models.AlertGreaterThan, Threshold: 500}
	evt = h.mustSucceed(commands.UpdateAlertCmd(changed))
	assert.Equal(t, events.AlertUpdated, evt.Type)

	stored, ok := store.SelectAutomationByRef(h.state(), created.Ref(), nil)
	require.True(t, ok)
	assert.Equal(t, created.Identity, stored.Identity)
	assert.Equal(t, "Revenue spike", stored.Title)
	assert.Equal(t, models.AlertGreaterThan, stored.Alert.Operator)
}

func TestScheduledEmails(t *testing.T) {
	h := newHarness(t)
	export := models.Automation{
		Title:      "Weekly sales",
		Schedule:   &models.Schedule{Cron: "0 8 * * 1", Timezone: "Europe/Prague"},
		Recipients: []string{"sales@example.com"},
	}

	evt := h.mustSucceed(commands.CreateScheduledEmailCmd(export))
	assert.Equal(t, events.ScheduledEmailCreated, evt.Type)
	created := evt.Payload.(events.AutomationPayload).Automation
	assert.Equal(t, models.AutomationScheduledExport, created.Type)
	assert.Equal(t, []string{"XLSX"}, created.ExportFormats)
	assert.Equal(t, "email", created.NotificationChannel)
	require.NotNil(t, created.NextRun)
	require.Len(t, h.scheduler.added, 1)
	assert.Equal(t, created.Identity, h.scheduler.added[0].Identity)

	evt = h.mustSucceed(commands.RemoveScheduledEmailsCmd([]objref.ObjRef{created.Ref()}))
	assert.Equal(t, events.ScheduledEmailsRemoved, evt.Type)
	require.Len(t, h.scheduler.removed, 1)
	assert.Empty(t, store.SelectAutomationsOfType(h.state(), models.AutomationScheduledExport))
}

func TestScheduledEmailValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *models.Automation)
	}{
		{name: "invalid cron", mutate: func(a *models.Automation) { a.Schedule.Cron = "every monday" }},
		{name: "unknown timezone", mutate: func(a *models.Automation) { a.Schedule.Timezone = "Mars/Olympus" }},
		{name: "no schedule", mutate: func(a *models.Automation) { a.Schedule = nil }},
		{name: "no recipients", mutate: func(a *models.Automation) { a.Recipients = nil }},
		{name: "bad recipient", mutate: func(a *models.Automation) { a.Recipients = []string{"sales"} }},
		{name: "pdf", mutate: func(a *models.Automation) { a.ExportFormats = []string{"PDF"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			export := models.Automation{
				Schedule:   &models.Schedule{Cron: "0 8 * * 1"},
				Recipients: []string{"sales@example.com"},
			}
			tt.mutate(&export)

			evt := h.run(commands.CreateScheduledEmailCmd(export))
			assert.Equal(t, events.ReasonUserError, failureReason(t, evt))
			assert.Empty(t, h.scheduler.added)
		})
	}
}

func TestRemoveAlertsKeepsWhatTheBackendRefused(t *testing.T) {
	boom := errors.New("delete refused")

	tests := []struct {
		name      string
		setup     func(h *harness)
		succeeded bool
		remaining int
	}{
		{
			name: "second delete fails",
			setup: func(h *harness) {
				h.backend.OnCall("automations.delete", func() { h.backend.FailOn("automations.delete", boom) })
			},
			succeeded: true,
			remaining: 1,
		},
		{
			name:      "every delete fails",
			setup:     func(h *harness) { h.backend.FailOn("automations.delete", boom) },
			remaining: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			first := h.mustSucceed(commands.CreateAlertCmd(alertOn(objref.IDRef("kpi.revenue")))).Payload.(events.AutomationPayload).Automation
			second := h.mustSucceed(commands.CreateAlertCmd(alertOn(objref.IDRef("kpi.orders")))).Payload.(events.AutomationPayload).Automation
			tt.setup(h)

			evt := h.run(commands.RemoveAlertsCmd([]objref.ObjRef{first.Ref(), second.Ref()}))
			remaining := store.SelectAutomationsOfType(h.state(), models.AutomationAlert)
			assert.Len(t, remaining, tt.remaining)
			if !tt.succeeded {
				assert.Equal(t, events.ReasonInternalError, failureReason(t, evt))
				return
			}
			require.Equal(t, events.AlertsRemoved, evt.Type)
			p := evt.Payload.(events.AutomationsRemovedPayload)
			require.Len(t, p.Removed, 1)
			assert.Equal(t, first.Identity, p.Removed[0].Identity)
			assert.Equal(t, []objref.ObjRef{second.Ref()}, p.Failed)
			assert.Equal(t, second.Identity, remaining[0].Identity)
		})
	}
}

func TestRemovingAlertWithScheduledEmailCommandFails(t *testing.T) {
	h := newHarness(t)
	evt := h.mustSucceed(commands.CreateAlertCmd(alertOn(objref.IDRef("kpi.revenue"))))
	created := evt.Payload.(events.AutomationPayload).Automation

	evt = h.run(commands.RemoveScheduledEmailsCmd([]objref.ObjRef{created.Ref()}))
	assert.Equal(t, events.ReasonUserError, failureReason(t, evt))
	assert.Len(t, store.SelectAutomationsOfType(h.state(), models.AutomationAlert), 1)
}

func TestUndoLayoutChanges(t *testing.T) {
	h := newHarness(t)
	original := store.SelectLayout(h.state())

	h.mustSucceed(commands.AddSection(-1, &models.SectionHeader{Title: "Extra"}, nil))
	h.mustSucceed(commands.ChangeSectionHeader(0, models.SectionHeader{Title: "Top KPIs"}, false))
	require.Len(t, store.SelectLayout(h.state()).Sections, 3)
	assert.Equal(t, 2, store.SelectUndoCount(h.state()))

	evt := h.mustSucceed(commands.UndoLayout(2))
	assert.Equal(t, events.LayoutChangesUndone, evt.Type)
	restored := store.SelectLayout(h.state())
	require.Len(t, restored.Sections, len(original.Sections))
	for i := range original.Sections {
		assert.Equal(t, original.Sections[i].Header, restored.Sections[i].Header)
		assert.Len(t, restored.Sections[i].Items, len(original.Sections[i].Items))
	}
	assert.Zero(t, store.SelectUndoCount(h.state()))

	evt = h.run(commands.UndoLayout(1))
	assert.Equal(t, events.ReasonUserError, failureReason(t, evt))
}

func TestUndoLayoutKeepsLaterWidgetEdits(t *testing.T) {
	h := newHarness(t)
	sections := len(store.SelectLayout(h.state()).Sections)

	h.mustSucceed(commands.AddSection(-1, &models.SectionHeader{Title: "Extra"}, nil))
	h.mustSucceed(commands.ChangeKPIHeader(objref.IDRef("kpi.orders"), "Renamed KPI"))
	h.mustSucceed(commands.ChangeKPIFilterSettings(objref.IDRef("kpi.orders"), commands.IgnoreAttributeFilter(objref.IDRef("label.state"))))

	evt := h.mustSucceed(commands.UndoLayout(1))
	p := evt.Payload.(events.LayoutChangesUndonePayload)
	assert.Equal(t, []string{commands.AddLayoutSection}, p.Undone)
	assert.Len(t, store.SelectLayout(h.state()).Sections, sections)
	assert.Equal(t, "Renamed KPI", h.widget("kpi.orders").Title)
	assert.Len(t, h.widget("kpi.orders").IgnoredFilters, 1)
}

func TestUndoLayoutRestoresRemovedWidgets(t *testing.T) {
	h := newHarness(t)
	h.mustSucceed(commands.RemoveSection(1))
	_, _, ok := store.SelectWidgetByRef(h.state(), objref.IDRef("w.text"), h.env.Resolver())
	require.False(t, ok)

	h.mustSucceed(commands.UndoLayout(1))
	assert.Equal(t, "w.text", h.widget("w.text").Identifier)
}

func TestUndoLayoutIsOneBatch(t *testing.T) {
	h := newHarness(t)
	target := objref.IDRef("ins.orders")
	drill := models.Drill{
		Type:            models.DrillToInsight,
		LocalIdentifier: "d1",
		Transition:      models.TransitionPopUp,
		Origin:          models.DrillOrigin{Type: models.DrillFromMeasure, LocalIdentifier: "m1"},
		Target:          &target,
	}
	h.mustSucceed(commands.ModifyDrills(objref.IDRef("w.insight"), []models.Drill{drill}))
	h.mustSucceed(commands.AddSection(-1, &models.SectionHeader{Title: "Extra"}, nil))

	var batches [][]store.Action
	unsubscribe := h.env.Store.Subscribe(func(_ *store.State, batch []store.Action) {
		batches = append(batches, batch)
	})
	defer unsubscribe()

	h.mustSucceed(commands.UndoLayout(1))
	require.Len(t, batches, 1)
	types := make([]string, 0, len(batches[0]))
	for _, a := range batches[0] {
		types = append(types, a.Type)
	}
	assert.Equal(t, store.LayoutUndo, types[0])
	assert.Contains(t, types, store.UISetInvalidDrills)
}

func TestDashboardLoadIsAllOrNothing(t *testing.T) {
	boom := errors.New("backend down")

	t.Run("initialize", func(t *testing.T) {
		h := newHarness(t)
		h.env.Store = store.New()
		h.env.Queries.Cache.ResetAll()
		h.backend.FailOn("insights.get", boom)

		evt := h.run(commands.InitializeDashboard())
		assert.Equal(t, events.ReasonInternalError, failureReason(t, evt))
		assert.Zero(t, h.env.Store.Version())
		assert.Nil(t, h.state().Persisted)
	})

	t.Run("reset", func(t *testing.T) {
		h := newHarness(t)
		h.mustSucceed(commands.ChangeSectionHeader(0, models.SectionHeader{Title: "Edited"}, false))
		h.env.Queries.Cache.ResetAll()
		h.backend.FailOn("insights.get", boom)
		version := h.env.Store.Version()

		evt := h.run(commands.Reset())
		assert.Equal(t, events.ReasonInternalError, failureReason(t, evt))
		assert.Equal(t, version, h.env.Store.Version())
		assert.Equal(t, "Edited", store.SelectLayout(h.state()).Sections[0].Header.Title)
	})
}

func TestRemoveWidgetByRef(t *testing.T) {
	h := newHarness(t)
	h.mustSucceed(commands.RemoveItemByWidgetRef(objref.URIRef("/gdc/md/kpi.orders"), false))

	_, _, ok := store.SelectWidgetByRef(h.state(), objref.IDRef("kpi.orders"), h.env.Resolver())
	assert.False(t, ok)
	assert.Len(t, store.SelectLayout(h.state()).Sections[0].Items, 2)
}

func TestPluginCommandWithoutRegistry(t *testing.T) {
	h := newHarness(t)
	evt := h.run(commands.Command{Type: "GDC.DASH/CMD.PLUGIN.NOPE"})
	assert.Equal(t, events.CommandRejected, evt.Type)

	_, err := runPlugin(context.Background(), h.env, commands.Command{Type: "GDC.DASH/CMD.PLUGIN.NOPE"})
	require.Error(t, err)
	assert.Equal(t, events.ReasonNotSupported, events.AsCommandError(err).Reason)
}

const describeDashboard = `
result = {
	title: dashboard.title,
	label: payload.label
}
`

func TestPluginCommandRunsThroughProcess(t *testing.T) {
	h := newHarness(t)
	h.env.Plugins = plugin.NewRegistry(nil)
	require.NoError(t, h.env.Plugins.Register(plugin.CustomCommand{Name: "describe", Script: describeDashboard}))

	cmd := commands.Command{
		Type:          plugin.CommandType("describe"),
		Payload:       map[string]any{"label": "weekly"},
		CorrelationID: "plugin-1",
	}
	evt := h.run(cmd)
	require.Equal(t, plugin.EventType("describe"), evt.Type, "%+v", evt.Payload)

	done, ok := evt.Payload.(plugin.DonePayload)
	require.True(t, ok)
	result, ok := done.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, h.state().Meta.Title, result["title"])
	assert.Equal(t, "weekly", result["label"])

	recorded := h.recorded("plugin-1")
	require.Len(t, recorded, 2)
	assert.Equal(t, events.CommandStarted, recorded[0].Type)
	assert.Equal(t, plugin.EventType("describe"), recorded[1].Type)
	for _, e := range recorded {
		assert.Equal(t, "plugin-1", e.CorrelationID)
	}
}
