package work

import (
	"context"
	"fmt"
	"time"

	srvErrors "github.com/godispatch/core/pkg/errors"
)

// DefaultLifetime replaces a non-positive lifetime on time-limited items.
const DefaultLifetime = time.Minute

// Invoker is a single schedulable unit of execution.
type Invoker interface {
	Invoke(ctx context.Context) (any, error)
}

// DataCarrier is implemented by items bound to a payload.
type DataCarrier interface {
	Data() any
}

// Lifetimed is implemented by items that carry their own execution deadline.
type Lifetimed interface {
	Lifetime() time.Duration
}

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc func(ctx context.Context) (any, error)

func (f InvokerFunc) Invoke(ctx context.Context) (any, error) {
	return f(ctx)
}

// ValueAction consumes a payload of type T.
type ValueAction[T any] interface {
	Invoke(ctx context.Context, data T) (any, error)
}

type ValueActionFunc[T any] func(ctx context.Context, data T) (any, error)

func (f ValueActionFunc[T]) Invoke(ctx context.Context, data T) (any, error) {
	return f(ctx, data)
}

type plain struct {
	fn func(ctx context.Context) error
}

// Func wraps a cancellation-aware function.
func Func(fn func(ctx context.Context) error) (Invoker, error) {
	if fn == nil {
		return nil, srvErrors.NewArgumentRequiredError("fn")
	}
	return &plain{fn: fn}, nil
}

// Action wraps a zero-argument action. The action does not observe cancellation.
func Action(action func()) (Invoker, error) {
	if action == nil {
		return nil, srvErrors.NewArgumentRequiredError("action")
	}
	return &plain{fn: func(context.Context) error {
		action()
		return nil
	}}, nil
}

func (p *plain) Invoke(ctx context.Context) (any, error) {
	return nil, p.fn(ctx)
}

// Value binds an immutable payload to the action that consumes it.
type Value[T any] struct {
	action ValueAction[T]
	data   T
}

func NewValue[T any](action ValueAction[T], data T) (*Value[T], error) {
	if IsNil(action) {
		return nil, srvErrors.NewArgumentRequiredError("action")
	}
	return &Value[T]{action: action, data: data}, nil
}

func (v *Value[T]) Invoke(ctx context.Context) (any, error) {
	return v.action.Invoke(ctx, v.data)
}

func (v *Value[T]) Data() any {
	return v.data
}

func (v *Value[T]) String() string {
	return fmt.Sprintf("value[%T]", v.data)
}

// ValueLifetime is a payload-bound item with its own execution deadline.
type ValueLifetime[T any] struct {
	Value[T]
	lifetime time.Duration
}

func NewValueLifetime[T any](action ValueAction[T], data T, lifetime time.Duration) (*ValueLifetime[T], error) {
	if IsNil(action) {
		return nil, srvErrors.NewArgumentRequiredError("action")
	}
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	return &ValueLifetime[T]{
		Value:    Value[T]{action: action, data: data},
		lifetime: lifetime,
	}, nil
}

func (v *ValueLifetime[T]) Lifetime() time.Duration {
	return v.lifetime
}

// IsNil reports whether an action interface is nil or holds a nil function.
func IsNil[T any](action ValueAction[T]) bool {
	if action == nil {
		return true
	}
	if fn, ok := action.(ValueActionFunc[T]); ok {
		return fn == nil
	}
	return false
}
