// Package oracle holds the kind-specific computations jobs ask for.
// Handlers are leaf functions: they know nothing about payment or the job
// lifecycle, they just turn params into a result (or an error).
package oracle

import (
	"context"
	"fmt"

	"github.com/charonlabs/charon/pkg/errors"
	"github.com/charonlabs/charon/pkg/structs"
)

// Handler computes the result for one job kind.
type Handler interface {
	// Kind this handler serves.
	Kind() structs.Kind

	// Execute runs the computation. It may be slow (network round trips);
	// callers run it off the request path and bound it with ctx.
	Execute(ctx context.Context, j *structs.Job) (*structs.Result, error)
}

// Registry maps job kinds to their handlers.
type Registry struct {
	handlers map[structs.Kind]Handler
}

// NewRegistry returns a Registry over the given handlers.
func NewRegistry(handlers ...Handler) *Registry {
	r := &Registry{handlers: map[structs.Kind]Handler{}}
	for _, h := range handlers {
		r.handlers[h.Kind()] = h
	}
	return r
}

// Default returns a Registry with the standard handlers for all kinds.
func Default() *Registry {
	return NewRegistry(NewRandom(), NewPrice(), NewWebhook())
}

// Get returns the handler for the given kind.
func (r *Registry) Get(kind structs.Kind) (Handler, error) {
	h, ok := r.handlers[kind]
	if !ok {
		return nil, fmt.Errorf("%w no handler for kind %s", errors.ErrNotSupported, kind)
	}
	return h, nil
}

// Kinds returns all kinds this registry can execute.
func (r *Registry) Kinds() []structs.Kind {
	kinds := []structs.Kind{}
	for k := range r.handlers {
		kinds = append(kinds, k)
	}
	return kinds
}
