// Package its implements the Rule Store: the mutable graph of locations and
// rules that every other component reads and mutates through this package's
// interface (spec.md §4.1).
package its

import "strconv"

// VarKind distinguishes program variables (bound by rule left-hand sides)
// from temporaries (nondeterministic, unconstrained except by guards).
type VarKind uint8

// The two variable kinds named in spec.md §3.
const (
	Program VarKind = iota
	Temporary
)

// Variable is an entry in a Store's variable registry: a unique index, a
// name, and a kind.
type Variable struct {
	Index int
	Name  string
	Kind  VarKind
}

// IsTemporary reports whether this variable is a temporary.
func (v Variable) IsTemporary() bool { return v.Kind == Temporary }

// variables holds a Store's variable registry. It is a field on Store (not a
// package-level singleton) so that multiple analyses can run independently in
// the same process, per DESIGN NOTES §9 of the specification.
type variables struct {
	entries []Variable
	byName  map[string]int
}

func newVariables() *variables {
	return &variables{byName: map[string]int{}}
}

// declare registers a new variable with the given name and kind. The name
// must not already be registered.
func (vs *variables) declare(name string, kind VarKind) Variable {
	idx := len(vs.entries)
	v := Variable{Index: idx, Name: name, Kind: kind}
	vs.entries = append(vs.entries, v)
	vs.byName[name] = idx
	return v
}

// fresh mints a new temporary variable with a name derived from basename,
// guaranteed not to collide with any existing variable.
func (vs *variables) fresh(basename string) Variable {
	name := basename
	for i := 0; ; i++ {
		if _, exists := vs.byName[name]; !exists {
			break
		}
		name = basenameSuffixed(basename, i)
	}
	return vs.declare(name, Temporary)
}

func basenameSuffixed(basename string, i int) string {
	return basename + "_" + strconv.Itoa(i)
}

func (vs *variables) get(idx int) Variable { return vs.entries[idx] }

func (vs *variables) lookup(name string) (Variable, bool) {
	idx, ok := vs.byName[name]
	if !ok {
		return Variable{}, false
	}
	return vs.entries[idx], true
}

func (vs *variables) all() []Variable {
	out := make([]Variable, len(vs.entries))
	copy(out, vs.entries)
	return out
}
