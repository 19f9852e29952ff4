package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/careops-labs/careboard/pkg/core"
)

const (
	// DefaultTimeout bounds one scenario run end to end, snapshot
	// included.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxConcurrent caps simultaneous solves; the simplex is
	// CPU-bound and must not starve interactive refreshes.
	DefaultMaxConcurrent = 4
)

// SnapshotSource supplies current demand counts by running query text.
// The dispatcher satisfies it.
type SnapshotSource interface {
	ExecuteQueryText(ctx context.Context, queryText string, filters core.GlobalFilterSet) core.ExecutionResult
}

// Config holds bridge collaborators and tuning.
type Config struct {
	Snapshots     SnapshotSource
	Solver        Solver
	Timeout       time.Duration
	MaxConcurrent int64
	Logger        *slog.Logger
}

// Bridge runs scenarios: Snapshotting, then Solving, then one of the
// terminal statuses. Every failure is reported as a structured
// ScenarioResult; Run never returns an error or panics outward.
type Bridge struct {
	snapshots SnapshotSource
	solver    Solver
	timeout   time.Duration
	sem       *semaphore.Weighted
	logger    *slog.Logger
}

// New creates a Bridge. A nil Solver selects the simplex solver.
func New(cfg Config) *Bridge {
	if cfg.Solver == nil {
		cfg.Solver = &SimplexSolver{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Bridge{
		snapshots: cfg.Snapshots,
		solver:    cfg.Solver,
		timeout:   cfg.Timeout,
		sem:       semaphore.NewWeighted(cfg.MaxConcurrent),
		logger:    cfg.Logger,
	}
}

// Run executes one scenario. Failures are terminal for this run and
// never retried; the caller decides whether to resubmit.
func (b *Bridge) Run(ctx context.Context, req core.ScenarioRequest) core.ScenarioResult {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	if strings.TrimSpace(req.DemandSourceSQL) == "" {
		return errorResult("demand_source_sql is required")
	}

	b.logger.Debug("scenario snapshotting")
	snap := b.snapshots.ExecuteQueryText(ctx, req.DemandSourceSQL, nil)
	if snap.Failed() {
		return errorResult("demand snapshot failed: %s", snap.Error)
	}
	demand, err := demandFromResult(snap)
	if err != nil {
		return errorResult("demand snapshot: %v", err)
	}
	if len(demand) == 0 {
		return core.ScenarioResult{Status: core.ScenarioOptimal, Message: "snapshot returned no demand"}
	}

	problem, err := BuildProblem(demand, req)
	if err != nil {
		return errorResult("%v", err)
	}

	if err := b.sem.Acquire(ctx, 1); err != nil {
		return errorResult("scenario timed out waiting for a solver slot")
	}
	defer b.sem.Release(1)

	b.logger.Debug("scenario solving",
		"services", len(problem.Services), "units", len(problem.Units))
	sol, err := b.solve(ctx, problem)
	switch {
	case errors.Is(err, ErrInfeasible):
		return core.ScenarioResult{
			Status:  core.ScenarioInfeasible,
			Message: "user constraints are contradictory",
		}
	case ctx.Err() != nil:
		return errorResult("scenario timed out after %s", b.timeout)
	case err != nil:
		b.logger.Error("solver failed", "error", err)
		return errorResult("solver failed: %v", err)
	}

	if shortfalls := problem.Shortfalls(sol.X); len(shortfalls) > 0 {
		return core.ScenarioResult{
			Status:  core.ScenarioInfeasible,
			Message: diagnoseShortfall(req.Capacity, problem, shortfalls),
		}
	}

	assignments := problem.Assignments(sol.X)
	if err := problem.Verify(assignments); err != nil {
		b.logger.Error("solution failed verification", "error", err)
		return errorResult("solution failed verification: %v", err)
	}
	return core.ScenarioResult{Assignments: assignments, Status: core.ScenarioOptimal}
}

// solve runs the solver off the caller's goroutine so a timeout
// abandons the solve instead of blocking on it. An abandoned simplex
// keeps running to completion; the semaphore slot is held until then.
func (b *Bridge) solve(ctx context.Context, p *Problem) (*Solution, error) {
	type answer struct {
		sol *Solution
		err error
	}
	done := make(chan answer, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- answer{err: fmt.Errorf("solver panicked: %v", r)}
			}
		}()
		sol, err := b.solver.Solve(p)
		done <- answer{sol: sol, err: err}
	}()
	select {
	case a := <-done:
		return a.sol, a.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// demandFromResult reads per-service demand counts from a snapshot.
// Columns named service/count are preferred in any case; otherwise
// the first column is the service and the second the count. Counts
// for a repeated service accumulate.
func demandFromResult(res core.ExecutionResult) (map[string]int, error) {
	if len(res.Columns) < 2 {
		return nil, fmt.Errorf("snapshot needs a service column and a count column, got %d columns", len(res.Columns))
	}
	svcCol, cntCol := 0, 1
	for i, name := range res.Columns {
		switch strings.ToLower(name) {
		case "service":
			svcCol = i
		case "count":
			cntCol = i
		}
	}
	demand := make(map[string]int, len(res.Rows))
	for i, row := range res.Rows {
		svc, ok := row[svcCol].(string)
		if !ok || svc == "" {
			return nil, fmt.Errorf("row %d: service is not a string", i)
		}
		n, err := toCount(row[cntCol])
		if err != nil {
			return nil, fmt.Errorf("row %d (%s): %w", i, svc, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("row %d (%s): negative demand %d", i, svc, n)
		}
		demand[svc] += n
	}
	return demand, nil
}

func toCount(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("demand count %v is not an integer", n)
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("demand count %q is not an integer", n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("demand count has unsupported type %T", v)
	}
}

func diagnoseShortfall(capacity map[string]int, p *Problem, shortfalls map[string]int) string {
	totalDemand := 0
	for _, d := range p.targets {
		totalDemand += d
	}
	totalCap := 0
	for _, c := range capacity {
		totalCap += c
	}
	short := make([]string, 0, len(shortfalls))
	for _, svc := range sortedKeys(shortfalls) {
		short = append(short, fmt.Sprintf("%s short by %d", svc, shortfalls[svc]))
	}
	return fmt.Sprintf("demand exceeds assignable capacity: %s (total demand %d, total capacity %d)",
		strings.Join(short, ", "), totalDemand, totalCap)
}

func errorResult(format string, args ...any) core.ScenarioResult {
	return core.ScenarioResult{
		Status:  core.ScenarioError,
		Message: fmt.Sprintf(format, args...),
	}
}
