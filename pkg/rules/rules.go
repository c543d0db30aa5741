// Package rules holds the declarative rule-table representation the matcher
// and emitter are parameterized by. Nothing in here knows about any concrete
// target; a target is one parsed table plus its registered structured
// actions and predicates.
package rules

import (
	"github.com/neanderx/nxcc/pkg/ir"
)

// NT is a table-scoped nonterminal index. 0 is never a valid nonterminal.
type NT int

// Pattern is a tree of terminals with nonterminal leaves. Leaf iff NT != 0.
type Pattern struct {
	NT   NT
	Key  ir.Key
	Kids []*Pattern
}

// Leaves appends the pattern's nonterminal leaves in left-to-right order,
// paired with the subject-tree nodes they bind to when matched against n.
// It assumes the pattern structurally matches n.
func (p *Pattern) Leaves(n *ir.Node, out []Binding) []Binding {
	if p.NT != 0 {
		return append(out, Binding{NT: p.NT, Node: n})
	}
	for i, k := range p.Kids {
		out = k.Leaves(n.Kids[i], out)
	}
	return out
}

// Binding pairs a nonterminal leaf with the subject node it matched.
type Binding struct {
	NT   NT
	Node *ir.Node
}

// Predicate is a rule side-condition evaluated on the node the rule's root
// matched. A false result prices the rule out entirely.
type Predicate func(n *ir.Node) bool

// Action is what a rule does when the emitter applies it. Exactly two kinds
// exist; both run strictly after the rule's children have been emitted.
type Action interface{ isAction() }

// TextTemplate is an assembly fragment with substitution markers:
//
//	%a    node operand (constant value, symbol name, frame slot, label)
//	%0..  expansion of the i-th nonterminal leaf; %0+k displaces the
//	      operand by k bytes (multi-precision access)
//	%L    a local label unique to this application
//	%%    a literal percent sign
type TextTemplate string

func (TextTemplate) isAction() {}

// StructuredEmit is a named Go action for rules whose output depends on
// emitter state (frame slots, argument cleanup, epilogue wiring).
type StructuredEmit struct {
	Name string
	Fn   EmitFunc
}

func (StructuredEmit) isAction() {}

// EmitFunc receives the matched node, the nodes its nonterminal leaves
// bound, and their already-produced expansions, left to right.
type EmitFunc func(e Emitter, n *ir.Node, kids []*ir.Node, vals []string)

// Emitter is the slice of the emission engine structured actions may touch.
type Emitter interface {
	// Print writes instruction lines into the current function body.
	Print(format string, args ...any)
	// SpillSlot returns the FP-relative offset of sym's slot for the
	// current activation, allocating it on first use.
	SpillSlot(sym *ir.Symbol, size int) int
	// LocalLabel returns a fresh backend-local label.
	LocalLabel() string
	// EpilogueLabel names the current function's shared epilogue.
	EpilogueLabel() string
}

// Rule is one rewrite: Lhs <- Pattern at Cost, guarded by Pred, performing
// Action. Index is declaration order and breaks cost ties (lowest wins).
type Rule struct {
	Index   int
	Lhs     NT
	Pattern *Pattern
	Cost    int
	Pred    Predicate
	Action  Action

	// PredName keeps the grammar spelling for diagnostics.
	PredName string
}

// Chain reports whether the rule is a nonterminal-to-nonterminal rewrite.
func (r *Rule) Chain() bool { return r.Pattern.NT != 0 }

// Table is a parsed rule table.
type Table struct {
	Start    NT
	names    []string // index 1..len
	instr    map[NT]bool
	Rules    []*Rule
	direct   map[ir.Key][]*Rule
	chains   map[NT][]*Rule
	maxDepth int
}

// NTCount returns the number of nonterminals (valid indices are 1..NTCount).
func (t *Table) NTCount() int { return len(t.names) }

func (t *Table) NTName(nt NT) string {
	if nt >= 1 && int(nt) <= len(t.names) {
		return t.names[nt-1]
	}
	return "?"
}

// Instr reports whether expansions of nt stream instructions (as opposed to
// producing operand text consumed by a parent template).
func (t *Table) Instr(nt NT) bool { return t.instr[nt] }

// Direct returns the non-chain rules rooted at the given terminal, in
// declaration order.
func (t *Table) Direct(k ir.Key) []*Rule { return t.direct[k] }

// Chains returns the chain rules consuming the given nonterminal.
func (t *Table) Chains(src NT) []*Rule { return t.chains[src] }

func (t *Table) intern(name string) NT {
	for i, n := range t.names {
		if n == name {
			return NT(i + 1)
		}
	}
	t.names = append(t.names, name)
	return NT(len(t.names))
}

func (t *Table) add(r *Rule) {
	r.Index = len(t.Rules)
	t.Rules = append(t.Rules, r)
	if r.Chain() {
		t.chains[r.Pattern.NT] = append(t.chains[r.Pattern.NT], r)
		return
	}
	t.direct[r.Pattern.Key] = append(t.direct[r.Pattern.Key], r)
}
