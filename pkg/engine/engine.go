// Package engine orchestrates full reconciliation runs: it plans every
// requested template up front, executes plans with bounded parallelism,
// and records every satisfied target in the ledger. Templates whose target
// sets overlap are serialized against each other so two plans never race
// on the same path.
package engine

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/templink/templink/pkg/executor"
	"github.com/templink/templink/pkg/ledger"
	"github.com/templink/templink/pkg/logging"
	"github.com/templink/templink/pkg/planner"
	"github.com/templink/templink/pkg/types"
)

// DefaultMaxParallel bounds concurrent template applications when the
// caller does not configure a limit.
const DefaultMaxParallel = 4

// Engine coordinates planner, executor, and ledger for batch runs.
type Engine struct {
	planner     *planner.Planner
	executor    *executor.Executor
	ledger      *ledger.Ledger
	maxParallel int
	log         zerolog.Logger
}

// New creates an Engine. maxParallel values below 1 fall back to
// DefaultMaxParallel.
func New(p *planner.Planner, e *executor.Executor, l *ledger.Ledger, maxParallel int) *Engine {
	if maxParallel < 1 {
		maxParallel = DefaultMaxParallel
	}
	return &Engine{
		planner:     p,
		executor:    e,
		ledger:      l,
		maxParallel: maxParallel,
		log:         logging.GetLogger("engine"),
	}
}

// Request describes one batch run over a set of templates.
type Request struct {
	Templates []*types.Template
	PlanOpts  planner.Options
	ExecOpts  executor.Options
}

// TemplateResult is the per-template outcome of a batch run.
type TemplateResult struct {
	Template *types.Template
	Plan     *types.Plan
	Result   *executor.Result

	// Entry is the updated ledger entry, nil when nothing was recorded.
	Entry *types.LedgerEntry

	// Err is set when planning failed or the run was cancelled; execution
	// failures are reported inside Result instead.
	Err error
}

// Mutated reports whether this template changed the filesystem. A run
// that only confirmed identical targets refreshes the ledger but does
// not mutate.
func (r *TemplateResult) Mutated() bool {
	if r.Result == nil {
		return false
	}
	for _, outcome := range r.Result.Outcomes {
		switch outcome.Status {
		case types.StatusCreated, types.StatusOverwritten:
			return true
		}
	}
	return false
}

// Run plans every template, then executes the plans. Planning failures
// exclude only the affected template. Results are returned in request
// order regardless of execution order.
func (eng *Engine) Run(ctx context.Context, req Request) ([]*TemplateResult, error) {
	results := make([]*TemplateResult, len(req.Templates))

	var runnable []*TemplateResult
	for i, tmpl := range req.Templates {
		res := &TemplateResult{Template: tmpl}
		results[i] = res

		plan, err := eng.planner.Plan(tmpl, req.PlanOpts)
		if err != nil {
			eng.log.Warn().Err(err).Str("template", tmpl.Name).Msg("Planning failed")
			res.Err = err
			continue
		}
		res.Plan = plan
		runnable = append(runnable, res)
	}

	groups := groupByOverlap(runnable)
	eng.log.Debug().
		Int("templates", len(runnable)).
		Int("groups", len(groups)).
		Int("max_parallel", eng.maxParallel).
		Msg("Executing plan groups")

	sem := make(chan struct{}, eng.maxParallel)
	var wg sync.WaitGroup
	for _, group := range groups {
		wg.Add(1)
		go func(group []*TemplateResult) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			// Plans inside a group share target paths and run in order.
			for _, res := range group {
				eng.runOne(ctx, res, req.ExecOpts)
			}
		}(group)
	}
	wg.Wait()

	return results, ctx.Err()
}

func (eng *Engine) runOne(ctx context.Context, res *TemplateResult, opts executor.Options) {
	result, err := eng.executor.Apply(ctx, res.Plan, opts)
	res.Result = result
	if err != nil {
		res.Err = err
		return
	}

	if opts.DryRun || len(result.Artifacts) == 0 {
		return
	}

	entry, err := eng.ledger.Record(res.Template.Name, res.Template.Scope, result.Artifacts)
	if err != nil {
		// The mutations are on disk; surface the bookkeeping failure
		// without discarding the execution result.
		eng.log.Error().Err(err).Str("template", res.Template.Name).Msg("Ledger update failed")
		res.Err = err
		return
	}
	res.Entry = entry
}

// groupByOverlap partitions plans into groups whose target path sets are
// disjoint across groups. Overlap is transitive: if A overlaps B and B
// overlaps C, all three land in one group.
func groupByOverlap(plans []*TemplateResult) [][]*TemplateResult {
	var groups [][]*TemplateResult
	var groupTargets []map[string]struct{}

	for _, res := range plans {
		targets := res.Plan.TargetPaths()

		merged := -1
		for i := 0; i < len(groups); i++ {
			if !overlaps(groupTargets[i], targets) {
				continue
			}
			if merged == -1 {
				groups[i] = append(groups[i], res)
				for t := range targets {
					groupTargets[i][t] = struct{}{}
				}
				merged = i
			} else {
				// res bridges two previously disjoint groups.
				groups[merged] = append(groups[merged], groups[i]...)
				for t := range groupTargets[i] {
					groupTargets[merged][t] = struct{}{}
				}
				groups = append(groups[:i], groups[i+1:]...)
				groupTargets = append(groupTargets[:i], groupTargets[i+1:]...)
				i--
			}
		}

		if merged == -1 {
			groups = append(groups, []*TemplateResult{res})
			set := make(map[string]struct{}, len(targets))
			for t := range targets {
				set[t] = struct{}{}
			}
			groupTargets = append(groupTargets, set)
		}
	}

	return groups
}

func overlaps(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for t := range a {
		if _, ok := b[t]; ok {
			return true
		}
	}
	return false
}
