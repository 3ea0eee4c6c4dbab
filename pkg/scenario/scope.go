package scenario

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

// A ReleaseFunc undoes an acquisition made by a scenario.
type ReleaseFunc func(ctx context.Context) error

type release struct {
	name string
	fn   ReleaseFunc
}

// A Scope collects the releases of a single scenario and runs them in reverse order
// of registration when the scenario ends, whatever the outcome.
type Scope struct {
	log      logr.Logger
	releases []release
	closed   bool
}

// NewScope returns an empty scope.
func NewScope(log logr.Logger) *Scope {
	return &Scope{log: log}
}

// Defer registers `fn` to run when the scope closes.
func (s *Scope) Defer(name string, fn ReleaseFunc) {
	s.releases = append(s.releases, release{name: name, fn: fn})
}

// Close runs all registered releases, last registered first. Every release runs even if
// an earlier one fails, and the failures are returned as an aggregate.
// Releases run even if `ctx` is already cancelled.
func (s *Scope) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true

	ctx = context.WithoutCancel(ctx)

	var errs []error
	for i := len(s.releases) - 1; i >= 0; i-- {
		r := s.releases[i]
		if err := runRelease(ctx, r); err != nil {
			s.log.Error(err, "Release failed", "release", r.name)
			errs = append(errs, fmt.Errorf("%s: %w", r.name, err))
			continue
		}
		s.log.V(1).Info("Released", "release", r.name)
	}
	s.releases = nil
	return utilerrors.NewAggregate(errs)
}

func runRelease(ctx context.Context, r release) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return r.fn(ctx)
}
