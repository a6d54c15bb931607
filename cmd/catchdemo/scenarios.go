package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel"

	"github.com/jsamuelsen11/go-catcher/pkg/catcher"
)

// scenario is one demonstration callback. counter is shared state the
// callback may mutate before it panics.
type scenario struct {
	name string
	run  func(counter *int)
}

var scenarios = []scenario{
	{name: "noop", run: func(*int) {}},
	{name: "raise", run: func(*int) {
		catcher.Raise("IndexOutOfBounds", "index out of bounds")
	}},
	{name: "mutate", run: func(counter *int) {
		*counter++
		panic("mutated then failed")
	}},
	{name: "index", run: func(counter *int) {
		items := []int{1, 2, 3}
		*counter = items[len(items)+*counter]
	}},
	{name: "nil-map", run: func(*int) {
		var seen map[string]bool
		seen["x"] = true
	}},
}

// outcome is what runScenario observed for one scenario.
type outcome struct {
	Name      string
	OK        bool
	PassedOut bool
	Counter   int
	Err       error
}

// selectScenarios returns the scenarios named in names, or all of them when
// names is empty.
func selectScenarios(names []string) ([]scenario, error) {
	if len(names) == 0 {
		return scenarios, nil
	}

	selected := make([]scenario, 0, len(names))
	for _, name := range names {
		idx := slices.IndexFunc(scenarios, func(s scenario) bool { return s.name == name })
		if idx < 0 {
			return nil, fmt.Errorf("unknown scenario %q", name)
		}
		selected = append(selected, scenarios[idx])
	}
	return selected, nil
}

// runScenario runs s under c. Panics that c passes through are caught by a
// bare outer boundary so one scenario cannot stop the others.
func runScenario(ctx context.Context, c *catcher.Catcher, s scenario) outcome {
	ctx, span := otel.Tracer("catchdemo").Start(ctx, "scenario "+s.name)
	defer span.End()

	out := outcome{Name: s.name}

	var inner catcher.Result
	outer := catcher.Catch(func() {
		inner = c.CatchContext(ctx, func() { s.run(&out.Counter) })
	})

	if !outer.OK() {
		out.PassedOut = true
		out.Err = outer.Err()
		return out
	}

	out.OK = inner.OK()
	out.Err = inner.Err()
	return out
}

func runScenarios(ctx context.Context, c *catcher.Catcher, selected []scenario, w io.Writer, logger *slog.Logger) []outcome {
	outcomes := make([]outcome, 0, len(selected))
	for _, s := range selected {
		out := runScenario(ctx, c, s)
		outcomes = append(outcomes, out)

		status := "ok"
		switch {
		case out.PassedOut:
			status = "passed through"
		case !out.OK:
			status = "trapped"
		}
		if out.Err != nil {
			fmt.Fprintf(w, "%-8s %-14s counter=%d err=%v\n", out.Name, status, out.Counter, out.Err)
		} else {
			fmt.Fprintf(w, "%-8s %-14s counter=%d\n", out.Name, status, out.Counter)
		}

		logger.DebugContext(ctx, "scenario finished",
			slog.String("scenario", out.Name),
			slog.String("status", status),
		)
	}
	return outcomes
}
