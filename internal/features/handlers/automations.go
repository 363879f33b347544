package handlers

import (
	"context"
	"strings"

	"go-dashboard/internal/features/automation"
	"go-dashboard/internal/features/commands"
	"go-dashboard/internal/features/events"
	"go-dashboard/internal/features/store"
	"go-dashboard/internal/features/validation"
	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"

	"go.uber.org/zap"
)

const exportFormatXLSX = "XLSX"

// savedDashboardRef is the ref automations are attached to. Automations of a
// dashboard that was never saved would point nowhere.
func savedDashboardRef(s *store.State) (objref.ObjRef, error) {
	if s.Meta.Identifier == "" && s.Meta.URI == "" {
		return objref.ObjRef{}, events.InvalidArgs("dashboard must be saved before automations can be attached")
	}
	return s.Meta.Identity.Ref(), nil
}

func validateAlert(s *store.State, res objref.Resolver, a models.Automation) error {
	if a.Alert == nil {
		return events.InvalidArgs("alert condition is required")
	}
	if strings.TrimSpace(a.Alert.MeasureLocalIdentifier) == "" {
		return events.InvalidArgs("alert condition needs a measure")
	}
	if !a.Alert.Operator.Valid() {
		return events.InvalidArgs("unknown alert operator %q", a.Alert.Operator)
	}
	if a.Widget == nil || a.Widget.IsZero() {
		return events.InvalidArgs("alert must target a widget")
	}
	_, _, err := validation.ValidateExistingWidget(s, *a.Widget, res, models.WidgetKPI, models.WidgetInsight)
	return err
}

func createAlert(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	p, err := payload[commands.CreateAutomationPayload](cmd)
	if err != nil {
		return events.Event{}, err
	}
	alert := p.Automation
	alert.Type = models.AutomationAlert
	alert.Identity = objref.Identity{}
	alert.Schedule = nil

	s := env.Store.State()
	dashboard, err := savedDashboardRef(s)
	if err != nil {
		return events.Event{}, err
	}
	if err := validateAlert(s, env.Resolver(), alert); err != nil {
		return events.Event{}, err
	}
	alert.Dashboard = dashboard

	created, err := env.Workspace.Automations().Create(ctx, alert)
	if err != nil {
		return events.Event{}, events.Internal(err, "failed to create alert")
	}
	if err := dispatch(env, store.NewAction(store.AlertsAdd, store.PutAutomation{Automation: created})); err != nil {
		return events.Event{}, err
	}
	return events.New(events.AlertCreated, events.AutomationPayload{Automation: created}), nil
}

func updateAlert(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	p, err := payload[commands.UpdateAutomationPayload](cmd)
	if err != nil {
		return events.Event{}, err
	}
	alert := p.Automation

	s := env.Store.State()
	res := env.Resolver()
	existing, ok := store.SelectAutomationByRef(s, alert.Identity.Ref(), res)
	if !ok || existing.Type != models.AutomationAlert {
		return events.Event{}, events.InvalidArgs("alert %s does not exist", alert.Identity.Ref())
	}
	alert.Identity = existing.Identity
	alert.Type = models.AutomationAlert
	alert.Dashboard = existing.Dashboard
	alert.Schedule = nil
	alert.CreatedAt = existing.CreatedAt
	if err := validateAlert(s, res, alert); err != nil {
		return events.Event{}, err
	}

	updated, err := env.Workspace.Automations().Update(ctx, alert)
	if err != nil {
		return events.Event{}, events.Internal(err, "failed to update alert %s", alert.Identity.Ref())
	}

	if _, ok := store.SelectAutomationByRef(env.Store.State(), existing.Identity.Ref(), nil); !ok {
		return events.Event{}, events.Internal(nil, "alert %s disappeared while it was updated", existing.Identity.Ref())
	}
	updated.Identity = existing.Identity
	if err := dispatch(env, store.NewAction(store.AlertsUpdate, store.PutAutomation{Automation: updated})); err != nil {
		return events.Event{}, err
	}
	return events.New(events.AlertUpdated, events.AutomationPayload{Automation: updated}), nil
}

func removeAlerts(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	removed, failed, err := removeAutomations(ctx, env, cmd, models.AutomationAlert)
	if err != nil {
		return events.Event{}, err
	}
	return events.New(events.AlertsRemoved, events.AutomationsRemovedPayload{Removed: removed, Failed: failed}), nil
}

func removeScheduledEmails(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	removed, failed, err := removeAutomations(ctx, env, cmd, models.AutomationScheduledExport)
	if err != nil {
		return events.Event{}, err
	}
	if env.Scheduler != nil {
		for _, a := range removed {
			env.Scheduler.Remove(a.Identity.Ref())
		}
	}
	return events.New(events.ScheduledEmailsRemoved, events.AutomationsRemovedPayload{Removed: removed, Failed: failed}), nil
}

// removeAutomations deletes every referenced automation of kind. All refs must
// resolve before anything is deleted. Only automations the backend actually
// deleted leave the state; the command fails only when none could be deleted.
func removeAutomations(ctx context.Context, env *Env, cmd commands.Command, kind models.AutomationType) (removed []models.Automation, failed []objref.ObjRef, err error) {
	p, err := payload[commands.RemoveAutomationsPayload](cmd)
	if err != nil {
		return nil, nil, err
	}
	if len(p.Refs) == 0 {
		return nil, nil, events.InvalidArgs("no automations to remove")
	}

	s := env.Store.State()
	res := env.Resolver()
	var targets []models.Automation
	seen := map[objref.Identity]bool{}
	for _, ref := range p.Refs {
		a, ok := store.SelectAutomationByRef(s, ref, res)
		if !ok || a.Type != kind {
			return nil, nil, events.InvalidArgs("%s %s does not exist", kind, ref)
		}
		if !seen[a.Identity] {
			seen[a.Identity] = true
			targets = append(targets, a)
		}
	}

	var failure error
	for _, a := range targets {
		if err := env.Workspace.Automations().Delete(ctx, a.Identity.Ref()); err != nil {
			env.logger().Warn("Failed to remove automation",
				zap.String("kind", string(kind)),
				zap.String("automation", a.Identity.Ref().String()),
				zap.Error(err),
			)
			if failure == nil {
				failure = events.Internal(err, "failed to remove %s %s", kind, a.Identity.Ref())
			}
			failed = append(failed, a.Identity.Ref())
			continue
		}
		removed = append(removed, a)
	}
	if len(removed) == 0 {
		return nil, nil, failure
	}

	ids := make([]objref.Identity, 0, len(removed))
	for _, a := range removed {
		ids = append(ids, a.Identity)
	}
	if err := dispatch(env, store.NewAction(store.AlertsRemove, store.RemoveAutomations{Identities: ids})); err != nil {
		return nil, nil, err
	}
	return removed, failed, nil
}

func createScheduledEmail(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	p, err := payload[commands.CreateAutomationPayload](cmd)
	if err != nil {
		return events.Event{}, err
	}
	export := p.Automation
	export.Type = models.AutomationScheduledExport
	export.Identity = objref.Identity{}
	export.Alert = nil

	s := env.Store.State()
	dashboard, err := savedDashboardRef(s)
	if err != nil {
		return events.Event{}, err
	}
	if export.Schedule == nil {
		return events.Event{}, events.InvalidArgs("scheduled email needs a schedule")
	}
	if err := automation.ValidateSchedule(*export.Schedule); err != nil {
		return events.Event{}, events.InvalidArgs("%v", err)
	}
	if len(export.Recipients) == 0 {
		return events.Event{}, events.InvalidArgs("scheduled email needs at least one recipient")
	}
	for _, r := range export.Recipients {
		if !strings.Contains(r, "@") {
			return events.Event{}, events.InvalidArgs("recipient %q is not an email address", r)
		}
	}
	if len(export.ExportFormats) == 0 {
		export.ExportFormats = []string{exportFormatXLSX}
	}
	for _, f := range export.ExportFormats {
		if !strings.EqualFold(f, exportFormatXLSX) {
			return events.Event{}, events.InvalidArgs("unsupported export format %q", f)
		}
	}
	if export.Widget != nil && !export.Widget.IsZero() {
		if _, _, err := validation.ValidateExistingWidget(s, *export.Widget, env.Resolver()); err != nil {
			return events.Event{}, err
		}
	}
	if export.NotificationChannel == "" {
		export.NotificationChannel = "email"
	}
	export.Dashboard = dashboard
	next, err := automation.NextRun(*export.Schedule, env.now())
	if err != nil {
		return events.Event{}, events.InvalidArgs("%v", err)
	}
	export.NextRun = &next

	created, err := env.Workspace.Automations().Create(ctx, export)
	if err != nil {
		return events.Event{}, events.Internal(err, "failed to create scheduled email")
	}
	if err := dispatch(env, store.NewAction(store.AlertsAdd, store.PutAutomation{Automation: created})); err != nil {
		return events.Event{}, err
	}
	if env.Scheduler != nil {
		if err := env.Scheduler.Add(created); err != nil {
			env.logger().Warn("Scheduled email was not registered", zap.String("automation", created.Identity.Ref().String()), zap.Error(err))
		}
	}
	return events.New(events.ScheduledEmailCreated, events.AutomationPayload{Automation: created}), nil
}
