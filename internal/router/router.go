// Package router turns one command into one response. It consults the intent
// classifier when configured, falls back to ordered keyword rules, and finally
// to the conversation capability. Errors and panics from modules never escape Route.
package router

import (
	"context"
	"errors"
	"fmt"

	"specter/internal/capability"
	"specter/internal/conversation"
	"specter/internal/logger"
	"specter/pkg/spectertypes"

	"github.com/charmbracelet/log"
)

// Classifier is the subset of intent.Classifier the router needs.
type Classifier interface {
	Classify(ctx context.Context, command string) (spectertypes.Intent, error)
}

// Options configures a Router.
type Options struct {
	Registry   *capability.Registry
	Classifier Classifier // nil disables classification
	UserName   string     // used by the static conversation fallback
}

// Router dispatches commands to capability modules.
type Router struct {
	registry   *capability.Registry
	classifier Classifier
	userName   string
	log        *log.Logger
}

// New creates a router. A nil registry is treated as empty.
func New(opts Options) *Router {
	registry := opts.Registry
	if registry == nil {
		registry = capability.NewRegistry()
	}
	return &Router{
		registry:   registry,
		classifier: opts.Classifier,
		userName:   opts.UserName,
		log:        logger.NewStyledLogger("Router"),
	}
}

// ErrorResponse formats a module failure for the user.
func ErrorResponse(err error) string {
	return "Sorry, I encountered an error: " + err.Error()
}

// Route returns the response for a non-empty trimmed command. It never panics.
func (r *Router) Route(ctx context.Context, command string) (response string) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("Recovered panic while routing", "command", logger.Redact(command), "panic", p)
			response = ErrorResponse(fmt.Errorf("unexpected error: %v", p))
		}
	}()

	if r.classifier != nil {
		if out, handled := r.routeClassified(ctx, command); handled {
			return out
		}
	}

	if slot, ok := MatchKeywords(command); ok {
		r.log.Debug("Keyword rule matched", "slot", slot)
		return r.handle(ctx, slot, command)
	}

	return r.converse(ctx, command)
}

// routeClassified handles FunctionCall intents that name a known function.
// Anything else is left to the keyword rules.
func (r *Router) routeClassified(ctx context.Context, command string) (string, bool) {
	intent, err := r.classifier.Classify(ctx, command)
	if err != nil {
		r.log.Debug("Classifier unavailable, using keyword rules", "error", err)
		return "", false
	}
	if !intent.IsFunctionCall() {
		return "", false
	}

	spec, ok := spectertypes.LookupFunction(intent.Function)
	if !ok {
		r.log.Warn("Classifier named unknown function", "function", intent.Function)
		return "", false
	}

	r.log.Debug("Dispatching classified function", "function", spec.Name, "reason", intent.Reason)
	return r.invoke(ctx, spec, command, intent.Params), true
}

func (r *Router) invoke(ctx context.Context, spec spectertypes.FunctionSpec, command string, params map[string]string) string {
	module, err := r.registry.Lookup(spec.Slot)
	if err != nil {
		return unavailableResponse(err)
	}

	if spec.Primary && len(params) == 0 {
		return respond(module.Handle(ctx, command))
	}

	invoker, ok := module.(spectertypes.Invoker)
	if !ok {
		return respond(module.Handle(ctx, command))
	}

	args := make(map[string]string, len(params)+1)
	for k, v := range params {
		args[k] = v
	}
	args["command"] = command

	out, err := invoker.Invoke(ctx, spec.Function, args)
	if errors.Is(err, spectertypes.ErrUnsupportedFunction) {
		r.log.Debug("Module does not expose function, using Handle", "function", spec.Name)
		return respond(module.Handle(ctx, command))
	}
	return respond(out, err)
}

func (r *Router) handle(ctx context.Context, slot spectertypes.Slot, command string) string {
	module, err := r.registry.Lookup(slot)
	if err != nil {
		return unavailableResponse(err)
	}
	return respond(module.Handle(ctx, command))
}

func (r *Router) converse(ctx context.Context, command string) string {
	module, err := r.registry.Lookup(spectertypes.SlotConversation)
	if err != nil {
		return conversation.StaticReply(command, r.userName)
	}
	return respond(module.Handle(ctx, command))
}

func respond(out string, err error) string {
	if err != nil {
		logger.Error("Capability failed", "error", err)
		return ErrorResponse(err)
	}
	return out
}

func unavailableResponse(err error) string {
	var unavailable *capability.UnavailableError
	if errors.As(err, &unavailable) {
		return unavailable.Message()
	}
	return err.Error()
}
