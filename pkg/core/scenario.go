package core

// ScenarioStatus is the terminal state of one optimization run.
type ScenarioStatus string

// ScenarioStatus constants for optimization outcomes.
const (
	// ScenarioOptimal means the solver found an assignment satisfying
	// all demand and capacity constraints.
	ScenarioOptimal ScenarioStatus = "Optimal"

	// ScenarioInfeasible means the constraint set is contradictory;
	// valid input, no solution. Not a fault.
	ScenarioInfeasible ScenarioStatus = "Infeasible"

	// ScenarioError means the snapshot query or the solver failed.
	ScenarioError ScenarioStatus = "Error"
)

// ConstraintType scopes a user-supplied linear bound.
type ConstraintType string

// ConstraintType constants for scenario constraints.
const (
	// ConstraintUnit bounds the total assigned to one unit
	// (scope = unit name).
	ConstraintUnit ConstraintType = "unit"

	// ConstraintService bounds the total assigned for one service
	// (scope = service name). A max bound below snapshot demand
	// explicitly relaxes the demand-satisfaction requirement for that
	// service.
	ConstraintService ConstraintType = "service"

	// ConstraintPair bounds a single (service, unit) assignment
	// (scope = "service/unit").
	ConstraintPair ConstraintType = "pair"
)

// Constraint is one user-supplied linear bound applied on top of the
// capacity and demand constraints.
type Constraint struct {
	Type  ConstraintType `json:"type"`
	Scope string         `json:"scope"`
	Min   *int           `json:"min,omitempty"`
	Max   *int           `json:"max,omitempty"`
}

// ScenarioRequest is one what-if optimization run: a demand snapshot
// source, per-unit capacities, optional extra constraints and an
// optional affinity override matrix (service -> unit -> weight) that
// biases the objective toward preferred placements.
type ScenarioRequest struct {
	DemandSourceSQL   string                        `json:"demand_source_sql"`
	Capacity          map[string]int                `json:"capacity_parameters"`
	Constraints       []Constraint                  `json:"constraints,omitempty"`
	AffinityOverrides map[string]map[string]float64 `json:"affinity_overrides,omitempty"`
}

// Assignment is one (service, unit, count) cell of a scenario solution.
// Field names on the wire match the simulation endpoint contract.
type Assignment struct {
	Service      string `json:"Service"`
	Unit         string `json:"Unit"`
	PatientCount int    `json:"Patient_Count"`
}

// ScenarioResult reports one scenario run. Assignments are present only
// when Status is ScenarioOptimal; Infeasible and Error runs never carry
// partial assignments.
type ScenarioResult struct {
	Assignments []Assignment   `json:"assignments"`
	Status      ScenarioStatus `json:"status"`
	Message     string         `json:"message,omitempty"`
}
