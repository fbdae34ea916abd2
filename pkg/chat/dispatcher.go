package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// SendAction is the action plain (non-slash) input is routed to.
const SendAction = "send"

var (
	// ErrUnknownAction is returned for a /name with no registered handler.
	ErrUnknownAction = errors.New("unknown action")

	// ErrQuit is returned by the built-in /exit action.
	ErrQuit = errors.New("quit")
)

// Handler runs an action. arg is the input after the action name,
// trimmed, or the whole input for the send action.
type Handler func(ctx context.Context, arg string) error

// Action describes a registered action.
type Action struct {
	Name string
	Help string
}

// Dispatcher routes user input to registered actions. It is not safe for
// concurrent registration; register everything before dispatching.
type Dispatcher struct {
	handlers map[string]Handler
	actions  []Action
}

// NewDispatcher returns a dispatcher with /exit registered.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{handlers: make(map[string]Handler)}
	d.Register("exit", "leave the conversation", func(context.Context, string) error {
		return ErrQuit
	})
	return d
}

// Register binds name to h, replacing any earlier handler.
func (d *Dispatcher) Register(name, help string, h Handler) {
	if _, ok := d.handlers[name]; !ok {
		d.actions = append(d.actions, Action{Name: name, Help: help})
	} else {
		for i := range d.actions {
			if d.actions[i].Name == name {
				d.actions[i].Help = help
			}
		}
	}
	d.handlers[name] = h
}

// Actions lists registered actions in registration order, without send.
func (d *Dispatcher) Actions() []Action {
	out := make([]Action, 0, len(d.actions))
	for _, a := range d.actions {
		if a.Name != SendAction {
			out = append(out, a)
		}
	}
	return out
}

// Dispatch parses input and runs the matching handler. Blank input is a
// no-op. "/name arg" runs name with arg; anything else runs send.
func (d *Dispatcher) Dispatch(ctx context.Context, input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}

	name, arg := SendAction, input
	if rest, ok := strings.CutPrefix(input, "/"); ok {
		name, arg, _ = strings.Cut(rest, " ")
		arg = strings.TrimSpace(arg)
	}

	h, ok := d.handlers[name]
	if !ok {
		if name == SendAction {
			return fmt.Errorf("%w: no send handler", ErrUnknownAction)
		}
		return fmt.Errorf("%w: /%s", ErrUnknownAction, name)
	}
	return h(ctx, arg)
}
