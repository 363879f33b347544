package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go-dashboard/internal/features/commands"
	"go-dashboard/internal/features/events"
	"go-dashboard/internal/models"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"go.uber.org/zap"
)

const (
	CommandPrefix = "PLUGIN/CMD."
	EventPrefix   = "PLUGIN/EVT."

	scriptExt = ".tengo"
)

// Modules a plugin script may import.
var scriptModules = []string{"fmt", "math", "text", "times", "json", "enum"}

var validName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.]*$`)

// CustomCommand is a command type implemented by a tengo script. The script
// sees the globals payload and dashboard, and reports back through result.
// Assigning failure rejects the command as a user error.
type CustomCommand struct {
	Name   string
	Script string
}

// DonePayload is carried by the event of a successful plugin command.
type DonePayload struct {
	Command string `json:"command"`
	Result  any    `json:"result"`
}

type compiledCommand struct {
	name     string
	compiled *tengo.Compiled
}

type Registry struct {
	mu       sync.RWMutex
	commands map[string]*compiledCommand
	logger   *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{commands: map[string]*compiledCommand{}, logger: logger}
}

func CommandType(name string) string {
	return CommandPrefix + strings.ToUpper(name)
}

func EventType(name string) string {
	return EventPrefix + strings.ToUpper(name) + ".DONE"
}

// Register compiles the script and makes its command type decodable.
func (r *Registry) Register(cmd CustomCommand) error {
	if !validName.MatchString(cmd.Name) {
		return fmt.Errorf("invalid plugin command name %q", cmd.Name)
	}

	script := tengo.NewScript([]byte(cmd.Script))
	script.SetImports(stdlib.GetModuleMap(scriptModules...))
	for _, global := range []string{"payload", "dashboard", "result", "failure"} {
		if err := script.Add(global, nil); err != nil {
			return err
		}
	}

	compiled, err := script.Compile()
	if err != nil {
		return fmt.Errorf("failed to compile plugin %s: %w", cmd.Name, err)
	}

	cmdType := CommandType(cmd.Name)
	r.mu.Lock()
	r.commands[cmdType] = &compiledCommand{name: strings.ToUpper(cmd.Name), compiled: compiled}
	r.mu.Unlock()

	commands.RegisterPayload[map[string]any](cmdType)
	r.logger.Info("Registered plugin command", zap.String("type", cmdType))
	return nil
}

// LoadDir registers every *.tengo file in dir, named after the file.
func (r *Registry) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != scriptExt {
			continue
		}
		src, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return loaded, err
		}
		name := strings.TrimSuffix(entry.Name(), scriptExt)
		if err := r.Register(CustomCommand{Name: name, Script: string(src)}); err != nil {
			return loaded, err
		}
		loaded++
	}
	return loaded, nil
}

func (r *Registry) Has(cmdType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.commands[cmdType]
	return ok
}

func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.commands))
	for t := range r.commands {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Run executes the script behind cmdType against a copy of its compiled state
// and returns the event type and payload to emit.
func (r *Registry) Run(ctx context.Context, cmdType string, payload any, doc models.Dashboard) (string, DonePayload, error) {
	r.mu.RLock()
	cmd, ok := r.commands[cmdType]
	r.mu.RUnlock()
	if !ok {
		return "", DonePayload{}, events.NotSupported("no plugin handles %s", cmdType)
	}

	input, err := normalize(payload)
	if err != nil {
		return "", DonePayload{}, events.InvalidArgs("plugin payload is not an object: %v", err)
	}

	run := cmd.compiled.Clone()
	if err := run.Set("payload", input); err != nil {
		return "", DonePayload{}, events.Internal(err, "failed to pass payload to plugin %s", cmd.name)
	}
	if err := run.Set("dashboard", dashboardView(doc)); err != nil {
		return "", DonePayload{}, events.Internal(err, "failed to pass dashboard to plugin %s", cmd.name)
	}

	if err := run.RunContext(ctx); err != nil {
		return "", DonePayload{}, events.Internal(err, "plugin %s failed to run", cmd.name)
	}

	if failure := run.Get("failure"); !failure.IsUndefined() {
		return "", DonePayload{}, events.InvalidArgs("plugin %s: %s", cmd.name, failure.String())
	}
	result := run.Get("result")
	if result.IsUndefined() {
		return "", DonePayload{}, events.Internal(nil, "plugin %s did not set a result", cmd.name)
	}

	return EventType(cmd.name), DonePayload{Command: cmdType, Result: result.Value()}, nil
}

// normalize turns any payload into the plain maps and slices tengo accepts.
func normalize(payload any) (map[string]any, error) {
	if payload == nil {
		return map[string]any{}, nil
	}
	if m, ok := payload.(map[string]any); ok && m != nil {
		return m, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func dashboardView(doc models.Dashboard) map[string]any {
	widgets := []any{}
	var walk func(layout models.Layout)
	walk = func(layout models.Layout) {
		for _, section := range layout.Sections {
			for _, item := range section.Items {
				if item.Widget == nil {
					continue
				}
				widgets = append(widgets, map[string]any{
					"identifier": item.Widget.Identifier,
					"type":       string(item.Widget.Type),
					"title":      item.Widget.Title,
				})
				if item.Widget.Layout != nil {
					walk(*item.Widget.Layout)
				}
			}
		}
	}
	walk(doc.Layout)

	filters := []any{}
	for _, item := range doc.FilterContext.Filters {
		switch {
		case item.DateFilter != nil:
			filters = append(filters, map[string]any{
				"kind":        "date",
				"type":        string(item.DateFilter.Type),
				"granularity": string(item.DateFilter.Granularity),
			})
		case item.AttributeFilter != nil:
			af := item.AttributeFilter
			elements := make([]any, 0, len(af.Elements.Values)+len(af.Elements.URIs))
			for _, v := range af.Elements.Values {
				elements = append(elements, v)
			}
			for _, v := range af.Elements.URIs {
				elements = append(elements, v)
			}
			filters = append(filters, map[string]any{
				"kind":            "attribute",
				"localIdentifier": af.LocalIdentifier,
				"displayForm":     af.DisplayForm.Identifier,
				"negative":        af.NegativeSelection,
				"elements":        elements,
			})
		}
	}

	return map[string]any{
		"identifier": doc.Identifier,
		"title":      doc.Title,
		"widgets":    widgets,
		"filters":    filters,
	}
}
