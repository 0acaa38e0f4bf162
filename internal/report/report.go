// Package report builds the human-facing transcript of an analysis run: the
// stepwise proof log spec.md §4.5/§4.6 calls for at every labeled
// checkpoint, and the re-emission helpers SPEC_FULL.md supplements
// (print_simplified_as_input_format / dot_output). It implements
// pkg/driver.Recorder so the driver's fixpoint loop can log its own
// progress without importing this package.
package report

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mmjb/LoAT/pkg/its"
)

// Entry is one labeled checkpoint of the proof log: the transformation name
// and a snapshot of the live rule count at that point (a full store dump
// per step would dwarf most analyses; the count is enough to see where the
// graph actually shrank).
type Entry struct {
	Step      string
	RuleCount int
}

// ProofLog is a stepwise transcript of every named checkpoint a
// pkg/driver.Driver passes through, stamped with a run ID so that proof
// logs from concurrent or repeated runs (e.g. in CI) are distinguishable.
type ProofLog struct {
	RunID   string
	Entries []Entry
}

// NewProofLog starts a fresh, uniquely-stamped proof log.
func NewProofLog() *ProofLog {
	return &ProofLog{RunID: uuid.New().String()}
}

// Step implements pkg/driver.Recorder.
func (p *ProofLog) Step(name string, s *its.Store) {
	p.Entries = append(p.Entries, Entry{Step: name, RuleCount: len(s.AllRuleIndices())})
}

// String renders the transcript as a human-readable, line-per-checkpoint
// trace headed by the run ID.
func (p *ProofLog) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "proof log (run %s)\n", p.RunID)
	for i, e := range p.Entries {
		fmt.Fprintf(&b, "  %2d. %-32s  %d live rule(s)\n", i+1, e.Step, e.RuleCount)
	}
	return b.String()
}

// RenderCTS renders the store as a CTS-style listing (spec.md §6),
// implementing SPEC_FULL.md's print_simplified_as_input_format option: a
// (VAR ...) section with the program variables and a (RULES ...) section
// with one line per rule. Locations are printed as locN without parameter
// lists and updates as xI:=expr pairs, so internal/parse does not accept
// the output; GOAL/STARTTERM are not reconstructible from a simplified
// store and are omitted.
func RenderCTS(s *its.Store) string {
	var b strings.Builder

	b.WriteString("(VAR")
	for _, v := range s.Variables() {
		if v.Kind == its.Program {
			fmt.Fprintf(&b, " %s", v.Name)
		}
	}
	b.WriteString(")\n\n(RULES\n")

	for _, idx := range s.AllRuleIndices() {
		r := s.Rule(idx)
		fmt.Fprintf(&b, "  loc%d -{ %s }> %s  [%s]\n", r.Source, r.Cost, renderRhs(r), r.Guard)
	}
	b.WriteString(")\n")
	return b.String()
}

func renderRhs(r its.Rule) string {
	parts := make([]string, len(r.Rhs.Branches))
	for i, br := range r.Rhs.Branches {
		parts[i] = fmt.Sprintf("loc%d(%s)", br.Target, renderUpdate(br.Update))
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "Com_" + fmt.Sprint(len(parts)) + "(" + strings.Join(parts, ", ") + ")"
}

func renderUpdate(u its.Update) string {
	parts := make([]string, 0, len(u))
	for v, e := range u {
		parts = append(parts, fmt.Sprintf("x%d:=%s", v, e))
	}
	return strings.Join(parts, ", ")
}

// RenderDot renders one Graphviz snapshot of the store, implementing
// SPEC_FULL.md's dot_output option. step labels the snapshot (e.g. the
// checkpoint name it was taken after) in the graph's title.
func RenderDot(s *its.Store, step string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph its {\n  label=%q;\n", step)

	for _, loc := range s.Locations() {
		shape := "circle"
		if loc == s.InitialLocation() {
			shape = "doublecircle"
		}
		fmt.Fprintf(&b, "  loc%d [shape=%s];\n", loc, shape)
	}

	for _, idx := range s.AllRuleIndices() {
		r := s.Rule(idx)
		for _, br := range r.Rhs.Branches {
			fmt.Fprintf(&b, "  loc%d -> loc%d [label=%q];\n", r.Source, br.Target, fmt.Sprintf("%s | cost %s", idx, r.Cost))
		}
	}
	b.WriteString("}\n")
	return b.String()
}
