package core

// AgentSpec describes one independently invoked analysis stage. Specs are
// created at process start from a static registry and never mutated; treat
// every field as read-only after construction.
type AgentSpec struct {
	// Name is the unique identifier used for registry lookup ("PastAgent").
	Name string

	// Role is the slot the agent's result occupies in the aggregated
	// Result ("past", "present", "future", "integration").
	Role string

	// Template is the base prompt text the composer expands with the
	// request inputs and optional context block.
	Template string

	// ExpectedFields lists the top-level fields a well-formed response
	// must contain. Used for validation after parsing; a missing field
	// is logged but never aborts the run.
	ExpectedFields []string

	// SummaryField names the field whose value feeds the synthesis
	// context ("analysis_summary" for the past role, etc.). Empty for
	// specs whose output is terminal.
	SummaryField string
}
