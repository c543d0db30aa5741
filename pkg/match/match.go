// Package match implements bottom-up cost-labeling of IR trees over a rule
// table: classic BURS-style dynamic programming. The labeler is independent
// of any target; all target knowledge lives in the table it is given.
package match

import (
	"fmt"
	"math"

	"github.com/neanderx/nxcc/pkg/ir"
	"github.com/neanderx/nxcc/pkg/rules"
)

// Infinite is the cost of an unmatched (nonterminal, node) pair.
const Infinite = math.MaxInt32

// state records, per nonterminal, the cheapest known derivation of a node.
type state struct {
	cost []int32
	rule []*rules.Rule
}

// Labeler labels trees against one table. Labelings accumulate until Reset;
// callers discard them once a function has been emitted.
type Labeler struct {
	tab    *rules.Table
	states map[*ir.Node]*state
}

func New(tab *rules.Table) *Labeler {
	return &Labeler{tab: tab, states: map[*ir.Node]*state{}}
}

// Reset drops all labelings.
func (l *Labeler) Reset() { l.states = map[*ir.Node]*state{} }

// Label computes the minimal-cost derivation of every nonterminal at every
// node of the tree, children before parents. Safe to call on an already
// labeled tree.
func (l *Labeler) Label(n *ir.Node) {
	if n == nil || l.states[n] != nil {
		return
	}
	l.Label(n.Kids[0])
	l.Label(n.Kids[1])

	nnt := l.tab.NTCount() + 1
	st := &state{cost: make([]int32, nnt), rule: make([]*rules.Rule, nnt)}
	for i := range st.cost {
		st.cost[i] = Infinite
	}
	l.states[n] = st

	for _, r := range l.tab.Direct(n.Key()) {
		if !l.matches(r.Pattern, n) {
			continue
		}
		if r.Pred != nil && !r.Pred(n) {
			continue
		}
		c := int64(r.Cost)
		for _, b := range r.Pattern.Leaves(n, nil) {
			c += int64(l.cost(b.Node, b.NT))
			if c >= Infinite {
				c = Infinite
				break
			}
		}
		l.record(n, st, r.Lhs, int32(c), r)
	}
}

// record installs a cheaper derivation and closes over chain rules. Strict
// improvement only, so of equal-cost alternatives the first declared wins.
func (l *Labeler) record(n *ir.Node, st *state, nt rules.NT, c int32, r *rules.Rule) {
	if c >= st.cost[nt] {
		return
	}
	st.cost[nt] = c
	st.rule[nt] = r
	for _, ch := range l.tab.Chains(nt) {
		if ch.Pred != nil && !ch.Pred(n) {
			continue
		}
		cc := int64(c) + int64(ch.Cost)
		if cc < Infinite {
			l.record(n, st, ch.Lhs, int32(cc), ch)
		}
	}
}

// matches checks structural (terminal) agreement; nonterminal leaves match
// any subtree, their feasibility is priced in by the leaf-cost sum.
func (l *Labeler) matches(p *rules.Pattern, n *ir.Node) bool {
	if p.NT != 0 {
		return n != nil
	}
	if n == nil || n.Key() != p.Key {
		return false
	}
	kids := 0
	if n.Kids[0] != nil {
		kids++
	}
	if n.Kids[1] != nil {
		kids++
	}
	if kids != len(p.Kids) {
		return false
	}
	for i, kp := range p.Kids {
		if !l.matches(kp, n.Kids[i]) {
			return false
		}
	}
	return true
}

func (l *Labeler) cost(n *ir.Node, nt rules.NT) int32 {
	if st := l.states[n]; st != nil {
		return st.cost[nt]
	}
	return Infinite
}

// Cost returns the minimal derivation cost of nt at n, or Infinite.
func (l *Labeler) Cost(n *ir.Node, nt rules.NT) int { return int(l.cost(n, nt)) }

// Rule returns the chosen rule deriving nt at n, or nil if none matched.
func (l *Labeler) Rule(n *ir.Node, nt rules.NT) *rules.Rule {
	if st := l.states[n]; st != nil {
		return st.rule[nt]
	}
	return nil
}

// Check verifies the tree is coverable from the goal nonterminal. The
// returned error names the offending terminal so a selection hole is a
// diagnostic, never a silent miscompile.
func (l *Labeler) Check(n *ir.Node, goal rules.NT) error {
	r := l.Rule(n, goal)
	if r == nil {
		return fmt.Errorf("no rule derives %s from %s",
			l.tab.NTName(goal), n.Key())
	}
	if r.Chain() {
		return l.Check(n, r.Pattern.NT)
	}
	for _, b := range r.Pattern.Leaves(n, nil) {
		if err := l.Check(b.Node, b.NT); err != nil {
			return err
		}
	}
	return nil
}
