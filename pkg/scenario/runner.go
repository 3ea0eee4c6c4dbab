// Package scenario runs the conformance scenarios of filesystem profiles against a
// fixture block device, comparing what UDisks2 reports with what the system shows.
package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/klog/v2"

	"github.com/awslabs/udisks-conformance/pkg/profile"
)

// A Status is the outcome of a scenario.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// A Result is the outcome of a single scenario for a single profile.
type Result struct {
	Profile  string        `json:"profile"`
	Scenario string        `json:"scenario"`
	Status   Status        `json:"status"`
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"duration"`
}

func (r Result) String() string {
	if r.Reason == "" {
		return fmt.Sprintf("%s/%s: %s", r.Profile, r.Scenario, r.Status)
	}
	return fmt.Sprintf("%s/%s: %s: %s", r.Profile, r.Scenario, r.Status, r.Reason)
}

// Runner runs scenarios one after another. Only one scenario touches the fixture device at a time.
type Runner struct {
	Env *Env
	Log logr.Logger
	// Only restricts the profiles run, empty runs all.
	Only sets.Set[string]
}

// NewRunner returns a [Runner] for a validated `env`, logging through klog.
func NewRunner(env *Env) (*Runner, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	return &Runner{Env: env, Log: klog.Background().WithName("scenario")}, nil
}

// RunAll runs [Battery] for each of `profiles` followed by [NegativeBattery] as [Failsystem].
func (r *Runner) RunAll(ctx context.Context, profiles []profile.Profile) []Result {
	var results []Result
	for _, p := range profiles {
		if !r.Selected(p.Name) {
			continue
		}
		results = append(results, r.RunProfile(ctx, p, Battery())...)
	}
	if r.Selected(Failsystem.Name) {
		results = append(results, r.RunProfile(ctx, Failsystem, NegativeBattery(profiles))...)
	}
	return results
}

// Selected returns whether the profile `name` passes the [Runner.Only] filter.
func (r *Runner) Selected(name string) bool {
	return r.Only.Len() == 0 || r.Only.Has(name)
}

// RunProfile runs `scenarios` for `p`.
func (r *Runner) RunProfile(ctx context.Context, p profile.Profile, scenarios []Scenario) []Result {
	results := make([]Result, 0, len(scenarios))
	for _, s := range scenarios {
		if ctx.Err() != nil {
			results = append(results, Result{Profile: p.Name, Scenario: s.Name, Status: StatusSkipped, Reason: ctx.Err().Error()})
			continue
		}
		results = append(results, r.Run(ctx, p, s))
	}
	return results
}

// Run runs a single scenario for `p`. A failure is terminal for this scenario only:
// its releases run and the error is reported in the result.
func (r *Runner) Run(ctx context.Context, p profile.Profile, s Scenario) Result {
	log := r.Log.WithValues("profile", p.Name, "scenario", s.Name)
	result := Result{Profile: p.Name, Scenario: s.Name}

	scope := NewScope(log)
	c := &Case{
		Env:     r.Env,
		Profile: p,
		Dev:     r.Env.Client.BlockDevice(r.Env.Device),
		Log:     log,
		scope:   scope,
	}

	if s.Precondition != nil {
		if reason := s.Precondition(c); reason != "" {
			log.Info("Skipped", "reason", reason)
			result.Status = StatusSkipped
			result.Reason = reason
			return result
		}
	}

	log.Info("Running")
	start := time.Now()
	runErr := runScenario(ctx, s, c)
	releaseErr := scope.Close(ctx)
	result.Duration = time.Since(start)

	switch {
	case runErr != nil && releaseErr != nil:
		result.Status = StatusFailed
		result.Reason = fmt.Sprintf("%v (releases also failed: %v)", runErr, releaseErr)
	case runErr != nil:
		result.Status = StatusFailed
		result.Reason = runErr.Error()
	case releaseErr != nil:
		result.Status = StatusFailed
		result.Reason = fmt.Sprintf("releases failed: %v", releaseErr)
	default:
		result.Status = StatusPassed
	}

	if result.Status == StatusFailed {
		log.Info("Failed", "reason", result.Reason, "duration", result.Duration)
	} else {
		log.Info("Passed", "duration", result.Duration)
	}
	return result
}

func runScenario(ctx context.Context, s Scenario, c *Case) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return s.Run(ctx, c)
}

// Failed returns whether any of `results` failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if r.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Summary counts `results` per status.
func Summary(results []Result) map[Status]int {
	summary := map[Status]int{StatusPassed: 0, StatusFailed: 0, StatusSkipped: 0}
	for _, r := range results {
		summary[r.Status]++
	}
	return summary
}
