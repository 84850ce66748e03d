// Package guard implements composable authorization guards for resolver
// fields. Guards form an ordered chain evaluated once per request;
// evaluation is strictly sequential and short-circuits on the first
// denial. Order matters: earlier guards may attach derived state to the
// request context that later guards consume.
package guard

import (
	"fmt"

	"github.com/gqlkit/relay/gqlctx"
)

// ReasonInternal is the denial reason used when a guard fails
// unexpectedly. It is deliberately generic so internal failures leak
// nothing about the guarded field.
const ReasonInternal = "internal guard error"

// Decision is the outcome of a guard check. A denial is a normal negative
// result, not an error: callers can always distinguish "not authorized"
// from "system failure".
type Decision struct {
	// Allowed reports whether the check passed.
	Allowed bool

	// Reason describes a denial. Empty for allowed decisions.
	Reason string

	// Err carries the underlying cause when a guard failed internally.
	// It is never surfaced to clients directly; Reason stays generic.
	Err error
}

// Allow returns a passing decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a failing decision with the given reason.
func Deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Guard is a named authorization predicate over a request context. Its
// only permitted side effect is writing the context's scratch map.
type Guard interface {
	// Name identifies the guard, for diagnostics.
	Name() string

	// Check evaluates the guard against one request.
	Check(rc *gqlctx.Context) Decision
}

type funcGuard struct {
	name string
	fn   func(rc *gqlctx.Context) Decision
}

func (g *funcGuard) Name() string                      { return g.name }
func (g *funcGuard) Check(rc *gqlctx.Context) Decision { return g.fn(rc) }

// Func adapts a plain function into a named Guard.
func Func(name string, fn func(rc *gqlctx.Context) Decision) Guard {
	return &funcGuard{name: name, fn: fn}
}

// Chain is an ordered sequence of guards. Construct one per resolver
// field at schema build time; a Chain is stateless afterwards and safe to
// share across concurrent requests.
type Chain []Guard

// Evaluate runs the chain in order, returning the first denial without
// invoking any guard after it. An empty chain allows: absence of
// restriction is not an error. A panicking guard denies with
// ReasonInternal — fail closed, never open.
func (c Chain) Evaluate(rc *gqlctx.Context) Decision {
	for _, g := range c {
		if d := check(g, rc); !d.Allowed {
			return d
		}
	}
	return Allow()
}

func check(g Guard, rc *gqlctx.Context) (d Decision) {
	defer func() {
		if r := recover(); r != nil {
			d = Decision{
				Reason: ReasonInternal,
				Err:    fmt.Errorf("guard %q panicked: %v", g.Name(), r),
			}
		}
	}()
	return g.Check(rc)
}
