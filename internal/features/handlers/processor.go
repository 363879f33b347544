package handlers

import (
	"context"
	"fmt"
	"sort"

	"go-dashboard/internal/features/commands"
	"go-dashboard/internal/features/events"
	"go-dashboard/internal/features/store"

	"go.uber.org/zap"
)

// HandlerFunc runs one command and returns its success event. Failures are
// returned as errors and turned into COMMAND.FAILED by the processor.
type HandlerFunc func(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error)

type Registry struct {
	handlers map[string]HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{handlers: map[string]HandlerFunc{}}
}

// DefaultRegistry knows every built-in command.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(commands.Initialize, initializeDashboard)
	r.Register(commands.RenameDashboard, renameDashboard)
	r.Register(commands.ResetDashboard, resetDashboard)
	r.Register(commands.SaveDashboard, saveDashboard)
	r.Register(commands.ExportDashboardXLSX, exportDashboardXLSX)
	r.Register(commands.RefreshCatalog, refreshCatalog)
	r.Register(commands.ResetQueryCache, resetQueryCache)

	r.Register(commands.ChangeDateFilterSelection, changeDateFilterSelection)
	r.Register(commands.AddAttributeFilter, addAttributeFilter)
	r.Register(commands.RemoveAttributeFilters, removeAttributeFilters)
	r.Register(commands.MoveAttributeFilter, moveAttributeFilter)
	r.Register(commands.ChangeAttributeFilterSelection, changeAttributeFilterSelection)
	r.Register(commands.SetAttributeFilterParents, setAttributeFilterParents)

	r.Register(commands.AddLayoutSection, addSection)
	r.Register(commands.MoveLayoutSection, moveSection)
	r.Register(commands.RemoveLayoutSection, removeSection)
	r.Register(commands.ChangeLayoutSectionHeader, changeSectionHeader)
	r.Register(commands.AddSectionItems, addSectionItems)
	r.Register(commands.MoveSectionItem, moveSectionItem)
	r.Register(commands.RemoveSectionItem, removeSectionItem)
	r.Register(commands.RemoveSectionItemByWidgetRef, removeSectionItemByWidgetRef)
	r.Register(commands.ReplaceSectionItem, replaceSectionItem)
	r.Register(commands.UndoLayoutChanges, undoLayoutChanges)

	r.Register(commands.ChangeKPIWidgetHeader, changeKPIHeader)
	r.Register(commands.ChangeKPIWidgetMeasure, changeKPIMeasure)
	r.Register(commands.ChangeKPIWidgetComparison, changeKPIComparison)
	r.Register(commands.ChangeKPIWidgetFilterSettings, changeKPIFilterSettings)

	r.Register(commands.ChangeInsightWidgetHeader, changeInsightHeader)
	r.Register(commands.ChangeInsightWidgetProperties, changeInsightProperties)
	r.Register(commands.ChangeInsightWidgetFilterSettings, changeInsightFilterSettings)
	r.Register(commands.ModifyDrillsForInsightWidget, modifyDrills)
	r.Register(commands.RemoveDrillsForInsightWidget, removeDrills)

	r.Register(commands.ChangeRichTextWidgetContent, changeRichTextContent)

	r.Register(commands.CreateAlert, createAlert)
	r.Register(commands.UpdateAlert, updateAlert)
	r.Register(commands.RemoveAlerts, removeAlerts)
	r.Register(commands.CreateScheduledEmail, createScheduledEmail)
	r.Register(commands.RemoveScheduledEmails, removeScheduledEmails)

	return r
}

func (r *Registry) Register(cmdType string, h HandlerFunc) {
	r.handlers[cmdType] = h
}

func (r *Registry) Lookup(cmdType string) (HandlerFunc, bool) {
	h, ok := r.handlers[cmdType]
	return h, ok
}

func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Process runs cmd to completion and returns its terminal event. Exactly one
// terminal event reaches the sink per call.
func (r *Registry) Process(ctx context.Context, env *Env, cmd commands.Command) events.Event {
	log := env.logger().With(
		zap.String("command", cmd.Type),
		zap.String("correlation_id", cmd.CorrelationID),
	)

	h, ok := r.Lookup(cmd.Type)
	if !ok && env.Plugins != nil && env.Plugins.Has(cmd.Type) {
		h, ok = runPlugin, true
	}
	if !ok {
		log.Warn("Rejected unknown command")
		return env.Emit(cmd, events.New(events.CommandRejected, events.CommandRejectedPayload{CommandType: cmd.Type}))
	}

	env.Emit(cmd, events.New(events.CommandStarted, events.CommandStartedPayload{CommandType: cmd.Type}))
	log.Debug("Command started")

	evt, err := run(ctx, env, h, cmd)
	if err == nil && (evt.Type == "" || !events.IsTerminal(evt)) {
		err = events.Internal(nil, "handler for %s returned no terminal event", cmd.Type)
	}
	if err != nil {
		cmdErr := events.AsCommandError(err)
		switch cmdErr.Reason {
		case events.ReasonInternalError:
			log.Error("Command failed", zap.Error(cmdErr))
		default:
			log.Warn("Command failed", zap.String("reason", string(cmdErr.Reason)), zap.String("message", cmdErr.Message))
		}
		return env.Emit(cmd, events.Failed(cmd.Type, cmdErr))
	}

	log.Info("Command succeeded", zap.String("event", evt.Type))
	return env.Emit(cmd, evt)
}

func run(ctx context.Context, env *Env, h HandlerFunc, cmd commands.Command) (evt events.Event, err error) {
	defer func() {
		if p := recover(); p != nil {
			evt = events.Event{}
			err = events.Internal(fmt.Errorf("panic: %v", p), "handler for %s crashed", cmd.Type)
		}
	}()
	return h(ctx, env, cmd)
}

// payload extracts the typed payload of cmd, accepting values and pointers.
func payload[T any](cmd commands.Command) (T, error) {
	switch p := cmd.Payload.(type) {
	case T:
		return p, nil
	case *T:
		if p != nil {
			return *p, nil
		}
	}
	var zero T
	return zero, events.InvalidArgs("unexpected payload %T for %s", cmd.Payload, cmd.Type)
}

// dispatch applies the batch. The store only rejects shape violations the
// handler should have caught, so those are internal errors.
func dispatch(env *Env, batch ...store.Action) error {
	if err := env.Store.Dispatch(batch...); err != nil {
		return events.Internal(err, "failed to apply state change")
	}
	return nil
}
