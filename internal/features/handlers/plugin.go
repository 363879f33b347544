package handlers

import (
	"context"

	"go-dashboard/internal/features/commands"
	"go-dashboard/internal/features/events"
	"go-dashboard/internal/features/store"
)

// runPlugin handles command types registered by plugins. Scripts only read
// the dashboard; their result travels in the done event.
func runPlugin(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	if env.Plugins == nil {
		return events.Event{}, events.NotSupported("plugins are not enabled")
	}
	evtType, done, err := env.Plugins.Run(ctx, cmd.Type, cmd.Payload, store.SelectDocument(env.Store.State()))
	if err != nil {
		return events.Event{}, err
	}
	return events.New(evtType, done), nil
}
