package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/prism/core"
)

// Agent names resolvable through the default registry.
const (
	PastAgent        = "PastAgent"
	PresentAgent     = "PresentAgent"
	FutureAgent      = "FutureAgent"
	IntegrationAgent = "IntegrationAgent"
	SentimentAgent   = "SentimentAgent"
)

// Roles occupied by the built-in agents in the aggregated result.
const (
	RolePast        = "past"
	RolePresent     = "present"
	RoleFuture      = "future"
	RoleIntegration = "integration"
)

const pastTemplate = `You analyze the user's emotional history. Look at the text below and
identify formative events, recurring emotional patterns, triggers and the
coping strategies the user has relied on.

User input:
{inputs}

Related memories from earlier conversations:
{context}

Return a JSON object with exactly these fields:
{
  "analysis_summary": "two or three sentences summarizing the emotional history",
  "key_events": ["list of formative events mentioned or implied"],
  "dominant_emotions": ["recurring emotions, strongest first"],
  "triggers": ["situations or themes that set these emotions off"],
  "coping_strategies": ["strategies the user already uses"],
  "confidence": 0.0
}`

const presentTemplate = `You assess the user's current emotional state. Read the text below and
describe what the user feels right now, what they need, and how intense the
state is.

User input:
{inputs}

Related memories from earlier conversations:
{context}

Return a JSON object with exactly these fields:
{
  "state_summary": "two or three sentences describing the current state",
  "current_emotions": ["emotions present right now, strongest first"],
  "intensity": 0,
  "needs": ["what the user needs at this moment"],
  "confidence": 0.0
}`

const futureTemplate = `You project the user's emotional trajectory. Based on the text below,
sketch the likely scenarios ahead and what would help the user steer toward
the better ones.

User input:
{inputs}

Related memories from earlier conversations:
{context}

Return a JSON object with exactly these fields:
{
  "projection_summary": "two or three sentences on the likely trajectory",
  "likely_scenarios": ["plausible near-term scenarios"],
  "opportunities": ["openings for positive change"],
  "recommendations": ["concrete steps the user can take"],
  "confidence": 0.0
}`

const integrationTemplate = `You integrate three independent analyses of the same person: their
emotional past, their present state and their projected future. Weave them
into one coherent picture and practical guidance. Where an analysis failed
or is missing, work with what remains.

Agent summaries:
{context}

Original user input:
{inputs}

Return a JSON object with exactly these fields:
{
  "integrated_summary": "three or four sentences tying past, present and future together",
  "insights": ["cross-cutting observations the individual analyses missed"],
  "guidance": ["prioritized, actionable guidance"],
  "confidence": 0.0
}`

const sentimentTemplate = `Classify the overall sentiment of the text below.

Text:
{inputs}

Return a JSON object with exactly these fields:
{
  "sentiment": "positive, negative, neutral or mixed",
  "score": 0.0,
  "rationale": "one sentence explaining the classification"
}`

// jsonOnlyInstruction is appended to every composed prompt so that even
// chat-tuned models answer with bare JSON.
const jsonOnlyInstruction = "Respond with a single JSON object only. No prose, no markdown fences, no explanation outside the JSON."

// Registry resolves agent names to their specs and composes prompts. The
// zero value is unusable; construct via NewRegistry or Default.
type Registry struct {
	specs map[string]core.AgentSpec
	// fanout preserves registration order for the concurrently invoked
	// analysis agents.
	fanout []string
}

// NewRegistry creates a registry holding the given specs. Specs whose role is
// neither integration nor empty are recorded as fan-out agents in order.
func NewRegistry(specs ...core.AgentSpec) *Registry {
	r := &Registry{specs: make(map[string]core.AgentSpec, len(specs))}
	for _, s := range specs {
		r.specs[s.Name] = s
		if s.Role != "" && s.Role != RoleIntegration {
			r.fanout = append(r.fanout, s.Name)
		}
	}
	return r
}

// Default returns a registry with the built-in past, present, future,
// integration and sentiment agents.
func Default() *Registry {
	return NewRegistry(
		core.AgentSpec{
			Name:           PastAgent,
			Role:           RolePast,
			Template:       pastTemplate,
			ExpectedFields: []string{"analysis_summary", "key_events", "dominant_emotions", "triggers", "coping_strategies", "confidence"},
			SummaryField:   "analysis_summary",
		},
		core.AgentSpec{
			Name:           PresentAgent,
			Role:           RolePresent,
			Template:       presentTemplate,
			ExpectedFields: []string{"state_summary", "current_emotions", "intensity", "needs", "confidence"},
			SummaryField:   "state_summary",
		},
		core.AgentSpec{
			Name:           FutureAgent,
			Role:           RoleFuture,
			Template:       futureTemplate,
			ExpectedFields: []string{"projection_summary", "likely_scenarios", "opportunities", "recommendations", "confidence"},
			SummaryField:   "projection_summary",
		},
		core.AgentSpec{
			Name:           IntegrationAgent,
			Role:           RoleIntegration,
			Template:       integrationTemplate,
			ExpectedFields: []string{"integrated_summary", "insights", "guidance", "confidence"},
			SummaryField:   "integrated_summary",
		},
		core.AgentSpec{
			Name:           SentimentAgent,
			Template:       sentimentTemplate,
			ExpectedFields: []string{"sentiment", "score", "rationale"},
		},
	)
}

// Get resolves an agent spec by name.
func (r *Registry) Get(name string) (core.AgentSpec, error) {
	spec, ok := r.specs[name]
	if !ok {
		return core.AgentSpec{}, fmt.Errorf("%w: %q", core.ErrUnknownAgent, name)
	}
	return spec, nil
}

// FanOut returns the specs of the concurrently invoked analysis agents in
// registration order.
func (r *Registry) FanOut() []core.AgentSpec {
	specs := make([]core.AgentSpec, 0, len(r.fanout))
	for _, name := range r.fanout {
		specs = append(specs, r.specs[name])
	}
	return specs
}

// Compose expands the named agent's template with the request inputs and the
// optional context block, then appends the JSON-only instruction. Identical
// arguments always yield identical prompts.
func (r *Registry) Compose(agentName string, inputs map[string]string, ctx Context) (string, error) {
	spec, err := r.Get(agentName)
	if err != nil {
		return "", err
	}

	prompt := strings.NewReplacer(
		"{inputs}", renderInputs(inputs),
		"{context}", renderContext(ctx),
	).Replace(spec.Template)

	return prompt + "\n\n" + jsonOnlyInstruction, nil
}

// renderInputs lists the populated input fields sorted by name.
func renderInputs(inputs map[string]string) string {
	if len(inputs) == 0 {
		return "(empty)"
	}
	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	written := 0
	for _, k := range keys {
		if inputs[k] == "" {
			continue
		}
		if written > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%s: %s", k, inputs[k])
		written++
	}
	if written == 0 {
		return "(empty)"
	}
	return sb.String()
}
