package scenario

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careops-labs/careboard/internal/testutil"
	"github.com/careops-labs/careboard/pkg/core"
)

// fakeSnapshots returns a canned demand snapshot for any query text.
type fakeSnapshots struct {
	result core.ExecutionResult
}

func (f fakeSnapshots) ExecuteQueryText(context.Context, string, core.GlobalFilterSet) core.ExecutionResult {
	return f.result
}

func demandSnapshot(demand map[string]int) fakeSnapshots {
	res := core.ExecutionResult{Columns: []string{"service", "count"}}
	for _, svc := range sortedKeys(demand) {
		res.Rows = append(res.Rows, core.Row{svc, int64(demand[svc])})
	}
	return fakeSnapshots{result: res}
}

func newTestBridge(t *testing.T, snapshots SnapshotSource) *Bridge {
	t.Helper()
	return New(Config{
		Snapshots: snapshots,
		Logger:    testutil.NewTestLogger(t),
	})
}

func totalsByService(assignments []core.Assignment) map[string]int {
	out := make(map[string]int)
	for _, a := range assignments {
		out[a.Service] += a.PatientCount
	}
	return out
}

func totalsByUnit(assignments []core.Assignment) map[string]int {
	out := make(map[string]int)
	for _, a := range assignments {
		out[a.Unit] += a.PatientCount
	}
	return out
}

func TestRun_InfeasibleWhenDemandExceedsCapacity(t *testing.T) {
	b := newTestBridge(t, demandSnapshot(map[string]int{"CARD": 15}))

	res := b.Run(context.Background(), core.ScenarioRequest{
		DemandSourceSQL: "SELECT service, count(*) FROM visits GROUP BY service",
		Capacity:        map[string]int{"ICU": 2, "MedSurg": 10},
	})

	assert.Equal(t, core.ScenarioInfeasible, res.Status)
	assert.Empty(t, res.Assignments)
	assert.Contains(t, res.Message, "CARD short by 3")
	assert.Contains(t, res.Message, "total capacity 12")
}

func TestRun_OptimalFillsDemand(t *testing.T) {
	b := newTestBridge(t, demandSnapshot(map[string]int{"CARD": 8}))

	res := b.Run(context.Background(), core.ScenarioRequest{
		DemandSourceSQL: "SELECT service, count(*) FROM visits GROUP BY service",
		Capacity:        map[string]int{"ICU": 2, "MedSurg": 10},
	})

	require.Equal(t, core.ScenarioOptimal, res.Status, res.Message)
	byService := totalsByService(res.Assignments)
	assert.Equal(t, 8, byService["CARD"])
	for unit, total := range totalsByUnit(res.Assignments) {
		cap := map[string]int{"ICU": 2, "MedSurg": 10}[unit]
		assert.LessOrEqual(t, total, cap, "unit %s over capacity", unit)
	}
}

func TestRun_MultipleServices(t *testing.T) {
	b := newTestBridge(t, demandSnapshot(map[string]int{"CARD": 5, "NEURO": 4, "ORTHO": 3}))

	res := b.Run(context.Background(), core.ScenarioRequest{
		DemandSourceSQL: "SELECT service, count(*) FROM visits GROUP BY service",
		Capacity:        map[string]int{"ICU": 4, "MedSurg": 6, "Tele": 2},
	})

	require.Equal(t, core.ScenarioOptimal, res.Status, res.Message)
	byService := totalsByService(res.Assignments)
	assert.Equal(t, map[string]int{"CARD": 5, "NEURO": 4, "ORTHO": 3}, byService)
	byUnit := totalsByUnit(res.Assignments)
	assert.LessOrEqual(t, byUnit["ICU"], 4)
	assert.LessOrEqual(t, byUnit["MedSurg"], 6)
	assert.LessOrEqual(t, byUnit["Tele"], 2)
}

func TestRun_AffinitySteersPlacement(t *testing.T) {
	b := newTestBridge(t, demandSnapshot(map[string]int{"CARD": 8}))

	res := b.Run(context.Background(), core.ScenarioRequest{
		DemandSourceSQL:   "SELECT service, count(*) FROM visits GROUP BY service",
		Capacity:          map[string]int{"ICU": 2, "MedSurg": 10},
		AffinityOverrides: map[string]map[string]float64{"CARD": {"ICU": 5}},
	})

	require.Equal(t, core.ScenarioOptimal, res.Status, res.Message)
	icu := 0
	for _, a := range res.Assignments {
		if a.Unit == "ICU" {
			icu = a.PatientCount
		}
	}
	assert.Equal(t, 2, icu, "preferred unit should fill to capacity")
}

func TestRun_ServiceMaxRelaxesDemand(t *testing.T) {
	// Demand 15 does not fit, but capping CARD at 10 lowers the
	// demand target to something the units can absorb.
	b := newTestBridge(t, demandSnapshot(map[string]int{"CARD": 15}))
	max := 10

	res := b.Run(context.Background(), core.ScenarioRequest{
		DemandSourceSQL: "SELECT service, count(*) FROM visits GROUP BY service",
		Capacity:        map[string]int{"ICU": 2, "MedSurg": 10},
		Constraints: []core.Constraint{
			{Type: core.ConstraintService, Scope: "CARD", Max: &max},
		},
	})

	require.Equal(t, core.ScenarioOptimal, res.Status, res.Message)
	assert.Equal(t, 10, totalsByService(res.Assignments)["CARD"])
}

func TestRun_PairConstraint(t *testing.T) {
	b := newTestBridge(t, demandSnapshot(map[string]int{"CARD": 8}))
	max := 1

	res := b.Run(context.Background(), core.ScenarioRequest{
		DemandSourceSQL: "SELECT service, count(*) FROM visits GROUP BY service",
		Capacity:        map[string]int{"ICU": 2, "MedSurg": 10},
		Constraints: []core.Constraint{
			{Type: core.ConstraintPair, Scope: "CARD/ICU", Max: &max},
		},
	})

	require.Equal(t, core.ScenarioOptimal, res.Status, res.Message)
	for _, a := range res.Assignments {
		if a.Service == "CARD" && a.Unit == "ICU" {
			assert.LessOrEqual(t, a.PatientCount, 1)
		}
	}
	assert.Equal(t, 8, totalsByService(res.Assignments)["CARD"])
}

func TestRun_ContradictoryMinConstraint(t *testing.T) {
	b := newTestBridge(t, demandSnapshot(map[string]int{"CARD": 2}))
	min := 5

	res := b.Run(context.Background(), core.ScenarioRequest{
		DemandSourceSQL: "SELECT service, count(*) FROM visits GROUP BY service",
		Capacity:        map[string]int{"ICU": 10},
		Constraints: []core.Constraint{
			// At least 5 in ICU, but only 2 patients exist.
			{Type: core.ConstraintUnit, Scope: "ICU", Min: &min},
		},
	})

	assert.Equal(t, core.ScenarioInfeasible, res.Status)
	assert.Empty(t, res.Assignments)
}

func TestRun_UnknownConstraintScope(t *testing.T) {
	b := newTestBridge(t, demandSnapshot(map[string]int{"CARD": 2}))
	max := 1

	res := b.Run(context.Background(), core.ScenarioRequest{
		DemandSourceSQL: "SELECT service, count(*) FROM visits GROUP BY service",
		Capacity:        map[string]int{"ICU": 10},
		Constraints: []core.Constraint{
			{Type: core.ConstraintUnit, Scope: "Nonexistent", Max: &max},
		},
	})

	assert.Equal(t, core.ScenarioError, res.Status)
	assert.Contains(t, res.Message, "Nonexistent")
}

func TestRun_SnapshotErrorIsTerminal(t *testing.T) {
	b := newTestBridge(t, fakeSnapshots{result: core.ErrorResult("statement of kind DELETE is not allowed")})

	res := b.Run(context.Background(), core.ScenarioRequest{
		DemandSourceSQL: "DELETE FROM visits",
		Capacity:        map[string]int{"ICU": 2},
	})

	assert.Equal(t, core.ScenarioError, res.Status)
	assert.Contains(t, res.Message, "not allowed")
	assert.Empty(t, res.Assignments)
}

func TestRun_MalformedSnapshot(t *testing.T) {
	tests := []struct {
		name   string
		result core.ExecutionResult
	}{
		{
			name:   "single column",
			result: core.ExecutionResult{Columns: []string{"service"}, Rows: []core.Row{{"CARD"}}},
		},
		{
			name: "non-numeric count",
			result: core.ExecutionResult{
				Columns: []string{"service", "count"},
				Rows:    []core.Row{{"CARD", "many"}},
			},
		},
		{
			name: "negative count",
			result: core.ExecutionResult{
				Columns: []string{"service", "count"},
				Rows:    []core.Row{{"CARD", int64(-1)}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBridge(t, fakeSnapshots{result: tt.result})
			res := b.Run(context.Background(), core.ScenarioRequest{
				DemandSourceSQL: "SELECT 1, 2",
				Capacity:        map[string]int{"ICU": 2},
			})
			assert.Equal(t, core.ScenarioError, res.Status)
		})
	}
}

func TestRun_EmptySnapshotIsOptimal(t *testing.T) {
	b := newTestBridge(t, fakeSnapshots{result: core.ExecutionResult{Columns: []string{"service", "count"}}})

	res := b.Run(context.Background(), core.ScenarioRequest{
		DemandSourceSQL: "SELECT service, count(*) FROM visits GROUP BY service",
		Capacity:        map[string]int{"ICU": 2},
	})

	assert.Equal(t, core.ScenarioOptimal, res.Status)
	assert.Empty(t, res.Assignments)
}

func TestRun_DemandColumnsRecognizedByName(t *testing.T) {
	// Columns reversed relative to the default convention.
	snap := fakeSnapshots{result: core.ExecutionResult{
		Columns: []string{"Count", "Service"},
		Rows:    []core.Row{{int64(3), "CARD"}},
	}}
	b := newTestBridge(t, snap)

	res := b.Run(context.Background(), core.ScenarioRequest{
		DemandSourceSQL: "SELECT count(*), service FROM visits GROUP BY service",
		Capacity:        map[string]int{"ICU": 5},
	})

	require.Equal(t, core.ScenarioOptimal, res.Status, res.Message)
	assert.Equal(t, 3, totalsByService(res.Assignments)["CARD"])
}

type slowSolver struct{ delay time.Duration }

func (s *slowSolver) Solve(p *Problem) (*Solution, error) {
	time.Sleep(s.delay)
	return (&SimplexSolver{}).Solve(p)
}

func TestRun_Timeout(t *testing.T) {
	b := New(Config{
		Snapshots: demandSnapshot(map[string]int{"CARD": 2}),
		Solver:    &slowSolver{delay: 2 * time.Second},
		Timeout:   50 * time.Millisecond,
		Logger:    testutil.NewTestLogger(t),
	})

	start := time.Now()
	res := b.Run(context.Background(), core.ScenarioRequest{
		DemandSourceSQL: "SELECT service, count(*) FROM visits GROUP BY service",
		Capacity:        map[string]int{"ICU": 5},
	})

	assert.Equal(t, core.ScenarioError, res.Status)
	assert.Contains(t, res.Message, "timed out")
	assert.Less(t, time.Since(start), time.Second)
}

func TestBuildProblem_NegativeCapacity(t *testing.T) {
	_, err := BuildProblem(map[string]int{"CARD": 1}, core.ScenarioRequest{
		Capacity: map[string]int{"ICU": -1},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative")
}

func TestSimplexSolver_DirectSolve(t *testing.T) {
	p, err := BuildProblem(map[string]int{"CARD": 3}, core.ScenarioRequest{
		Capacity: map[string]int{"ICU": 5},
	})
	require.NoError(t, err)

	sol, err := (&SimplexSolver{}).Solve(p)
	require.NoError(t, err)
	assert.Empty(t, p.Shortfalls(sol.X))
	assignments := p.Assignments(sol.X)
	require.Len(t, assignments, 1)
	assert.Equal(t, core.Assignment{Service: "CARD", Unit: "ICU", PatientCount: 3}, assignments[0])
	require.NoError(t, p.Verify(assignments))
}
