// Package neander describes the NEANDER-X target: the rule table, the
// structured actions and predicates it references, and the runtime text
// that surrounds generated code.
package neander

import (
	"fmt"

	"github.com/neanderx/nxcc/pkg/config"
	"github.com/neanderx/nxcc/pkg/emit"
	"github.com/neanderx/nxcc/pkg/ir"
	"github.com/neanderx/nxcc/pkg/rules"
)

// Target builds the machine description under the given configuration.
// The indexed-ops feature splices in the X-indexed addressing rules.
func Target(cfg *config.Config) (*emit.Target, error) {
	src := grammarBase
	if cfg.IsFeatureEnabled(config.FeatIndexedOps) {
		src += grammarIndexed
	}
	tab, err := rules.Parse(src, actions(), predicates())
	if err != nil {
		return nil, fmt.Errorf("neander rule table: %w", err)
	}
	return &emit.Target{
		Table:   tab,
		Header:  fmt.Sprintf(header, "_"+cfg.Entry),
		Helpers: helpers,
	}, nil
}

func predicates() map[string]rules.Predicate {
	return map[string]rules.Predicate{
		"size1": func(n *ir.Node) bool { return n.Size == 1 },
		"size2": func(n *ir.Node) bool { return n.Size == 2 },
		"size4": func(n *ir.Node) bool { return n.Size == 4 },
		"cvf1":  func(n *ir.Node) bool { return n.FromSize == 1 },
		"cvf1s": func(n *ir.Node) bool { return n.FromSize == 1 && n.FromClass == ir.ClassI },
		"cvf1u": func(n *ir.Node) bool { return n.FromSize == 1 && n.FromClass != ir.ClassI },
		"cvf2":  func(n *ir.Node) bool { return n.FromSize == 2 },
		"cvf2s": func(n *ir.Node) bool { return n.FromSize == 2 && n.FromClass == ir.ClassI },
		"cvf2u": func(n *ir.Node) bool { return n.FromSize == 2 && n.FromClass != ir.ClassI },
		"cvf4":  func(n *ir.Node) bool { return n.FromSize == 4 },
	}
}

func actions() map[string]rules.EmitFunc {
	return map[string]rules.EmitFunc{
		"spill":    spill,
		"reload":   reload,
		"call":     call,
		"call4":    call4,
		"callptr":  callptr,
		"callptr4": callptr4,
		"ret":      ret,
	}
}

// spill stores the value in the machine registers into the temporary's
// frame slot. The slot is allocated on first use, so it is private to the
// current activation.
func spill(e rules.Emitter, n *ir.Node, _ []*ir.Node, _ []string) {
	off := e.SpillSlot(n.Kids[0].Sym(), int(n.Size))
	switch n.Size {
	case 1:
		e.Print("STA %d,FP", off)
	case 2:
		e.Print("STA %d,FP\nTYA\nSTA %d,FP", off, off+1)
	case 4:
		e.Print("STA %d,FP\nPOP\nSTA %d,FP\nPOP\nSTA %d,FP\nPOP\nSTA %d,FP",
			off, off+1, off+2, off+3)
	}
}

func reload(e rules.Emitter, n *ir.Node, _ []*ir.Node, _ []string) {
	off := e.SpillSlot(n.Kids[0].Sym(), int(n.Size))
	switch n.Size {
	case 1:
		e.Print("LDA %d,FP", off)
	case 2:
		e.Print("LDA %d,FP\nTAY\nLDA %d,FP", off+1, off)
	case 4:
		e.Print("LDA %d,FP\nPUSH\nLDA %d,FP\nPUSH\nLDA %d,FP\nPUSH\nLDA %d,FP",
			off+3, off+2, off+1, off)
	}
}

// call emits a direct call and pops the arguments the statement pushed.
func call(e rules.Emitter, n *ir.Node, _ []*ir.Node, vals []string) {
	e.Print("CALL %s", vals[0])
	if n.ArgBytes > 0 {
		e.Print("ADDSP %d", n.ArgBytes)
	}
}

// call4 is call for 4-byte results, which come back through _ret4 and are
// re-staged into the register convention immediately.
func call4(e rules.Emitter, n *ir.Node, kids []*ir.Node, vals []string) {
	call(e, n, kids, vals)
	e.Print("LDA _ret4+3\nPUSH\nLDA _ret4+2\nPUSH\nLDA _ret4+1\nPUSH\nLDA _ret4")
}

// callptr calls through a pointer value in Y:AC.
func callptr(e rules.Emitter, n *ir.Node, _ []*ir.Node, _ []string) {
	e.Print("STA _ptr\nTYA\nSTA _ptr+1\nCALL (_ptr)")
	if n.ArgBytes > 0 {
		e.Print("ADDSP %d", n.ArgBytes)
	}
}

func callptr4(e rules.Emitter, n *ir.Node, kids []*ir.Node, vals []string) {
	callptr(e, n, kids, vals)
	e.Print("LDA _ret4+3\nPUSH\nLDA _ret4+2\nPUSH\nLDA _ret4+1\nPUSH\nLDA _ret4")
}

// ret routes the return value into the convention and jumps to the shared
// epilogue. 4-byte values go through _ret4; the caller consumes it before
// any other call can clobber it.
func ret(e rules.Emitter, n *ir.Node, _ []*ir.Node, _ []string) {
	if n.Size == 4 {
		e.Print("STA _ret4\nPOP\nSTA _ret4+1\nPOP\nSTA _ret4+2\nPOP\nSTA _ret4+3")
	}
	e.Print("JMP %s", e.EpilogueLabel())
}
