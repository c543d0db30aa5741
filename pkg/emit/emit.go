// Package emit is the code-emission engine: it walks labeled IR trees and
// streams assembly for the rules the matcher chose. One recursive path
// serves both template and structured rules; a rule's children are always
// emitted before its own action runs, left child first, so the evaluation
// protocol encoded in the templates (left operand staged, right operand
// live) holds by construction.
package emit

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/neanderx/nxcc/pkg/config"
	"github.com/neanderx/nxcc/pkg/ir"
	"github.com/neanderx/nxcc/pkg/match"
	"github.com/neanderx/nxcc/pkg/rules"
)

// Target bundles what the engine needs to know about one machine: its rule
// table and the program header/runtime text surrounding generated code.
type Target struct {
	Table   *rules.Table
	Header  string // program preamble: org, entry stub, scratch words
	Helpers string // runtime support routines
}

// Segment directive spellings.
const (
	SegText   = ".text"
	SegData   = ".data"
	SegBSS    = ".bss"
	SegRodata = ".rodata"
)

type strLit struct {
	label string
	data  string
}

// Emitter implements the compiler-driver callback surface: program begin
// and end, segment selection, symbol and data definition, and function
// emission. Callers invoke it in front-to-back program order.
type Emitter struct {
	cfg *config.Config
	tgt *Target
	lab *match.Labeler

	out     strings.Builder
	seg     string
	labelID int

	strs     map[uint64]*strLit
	strOrder []*strLit

	// per-function state; body is buffered so the frame size is known
	// before the prologue is written
	fn    *ir.Func
	body  *strings.Builder
	frame int
	slots map[*ir.Symbol]int
	epi   string
}

func New(cfg *config.Config, tgt *Target) *Emitter {
	return &Emitter{
		cfg:  cfg,
		tgt:  tgt,
		lab:  match.New(tgt.Table),
		strs: map[uint64]*strLit{},
	}
}

// Output returns everything emitted so far.
func (e *Emitter) Output() *bytes.Buffer {
	return bytes.NewBufferString(e.out.String())
}

// ProgBegin writes the program preamble and runtime support text.
func (e *Emitter) ProgBegin() {
	fmt.Fprintf(&e.out, "; %s\n; generated by nxcc\n", e.cfg.ModuleName)
	e.out.WriteString(e.tgt.Header)
	e.out.WriteString(e.tgt.Helpers)
}

// ProgEnd flushes deferred data (interned string literals) and closes the
// program.
func (e *Emitter) ProgEnd() {
	if len(e.strOrder) > 0 {
		e.Segment(SegRodata)
		for _, s := range e.strOrder {
			fmt.Fprintf(&e.out, "%s:\n", s.label)
			e.defStringBytes(s.data)
		}
	}
	e.out.WriteString("; end\n")
}

// Segment selects an output segment. Re-selecting the current segment is a
// no-op so interleaved definitions do not spray duplicate directives.
func (e *Emitter) Segment(seg string) {
	if e.seg == seg {
		return
	}
	e.seg = seg
	fmt.Fprintf(&e.out, "%s\n", seg)
}

// DefSymbol fixes the assembler spelling of a symbol.
func (e *Emitter) DefSymbol(s *ir.Symbol) {
	switch s.Class {
	case ir.ClassGlobal, ir.ClassStatic, ir.ClassExtern:
		s.AsmName = "_" + s.Name
	case ir.ClassLabel:
		if s.AsmName == "" {
			s.AsmName = "_L" + s.Name
		}
	}
}

// Export announces a symbol visible to other modules.
func (e *Emitter) Export(s *ir.Symbol) {
	fmt.Fprintf(&e.out, ".global %s\n", s.Emitted())
}

// Import announces a symbol defined elsewhere.
func (e *Emitter) Import(s *ir.Symbol) {
	fmt.Fprintf(&e.out, ".extern %s\n", s.Emitted())
}

// Global starts the definition of a data symbol in the current segment.
func (e *Emitter) Global(s *ir.Symbol) {
	fmt.Fprintf(&e.out, "%s:\n", s.Emitted())
}

// Space reserves n zeroed bytes.
func (e *Emitter) Space(n int) {
	fmt.Fprintf(&e.out, "    .space %d\n", n)
}

// DefConst emits one integer constant of the given byte size.
func (e *Emitter) DefConst(size int, v int64) {
	switch size {
	case 1:
		fmt.Fprintf(&e.out, "    .byte %d\n", uint8(v))
	case 2:
		fmt.Fprintf(&e.out, "    .word %d\n", uint16(v))
	case 4:
		fmt.Fprintf(&e.out, "    .word %d\n", uint16(v))
		fmt.Fprintf(&e.out, "    .word %d\n", uint16(uint32(v)>>16))
	}
}

// DefAddress emits a pointer-sized reference to another symbol.
func (e *Emitter) DefAddress(s *ir.Symbol) {
	fmt.Fprintf(&e.out, "    .word %s\n", s.Emitted())
}

// DefString emits string data at the current location.
func (e *Emitter) DefString(data string) {
	e.defStringBytes(data)
}

func (e *Emitter) defStringBytes(data string) {
	for i := 0; i < len(data); i += 8 {
		end := i + 8
		if end > len(data) {
			end = len(data)
		}
		parts := make([]string, 0, 8)
		for _, b := range []byte(data[i:end]) {
			parts = append(parts, strconv.Itoa(int(b)))
		}
		fmt.Fprintf(&e.out, "    .byte %s\n", strings.Join(parts, ","))
	}
	fmt.Fprintf(&e.out, "    .byte 0\n")
}

// InternString returns a rodata label for the literal, reusing the label of
// a previously interned identical literal. Data is flushed at ProgEnd.
func (e *Emitter) InternString(data string) string {
	if !e.cfg.IsFeatureEnabled(config.FeatInternStrings) {
		s := &strLit{label: fmt.Sprintf("_Lstr%d", len(e.strOrder)), data: data}
		e.strOrder = append(e.strOrder, s)
		return s.label
	}
	h := xxhash.Sum64String(data)
	if s, ok := e.strs[h]; ok && s.data == data {
		return s.label
	}
	s := &strLit{label: fmt.Sprintf("_Lstr%x", h), data: data}
	e.strs[h] = s
	e.strOrder = append(e.strOrder, s)
	return s.label
}

func pad(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

// Function emits one function: parameter offsets, frame layout, prologue,
// the labeled statement forest, epilogue. Parameter k sits at
// 4 + sum of padded sizes of the parameters before it; locals and spill
// slots grow downward from FP-2 in order of first use.
func (e *Emitter) Function(f *ir.Func) error {
	e.fn = f
	e.body = &strings.Builder{}
	e.frame = 0
	e.slots = map[*ir.Symbol]int{}
	e.epi = e.LocalLabel()
	defer func() {
		e.fn = nil
		e.body = nil
		e.lab.Reset()
	}()

	off := 4
	for _, p := range f.Params {
		p.Offset = off
		p.AsmName = fmt.Sprintf("%d,FP", off)
		off += pad(p.Size, 2)
	}
	for _, l := range f.Locals {
		e.frame += pad(l.Size, 2)
		l.Offset = -e.frame
		l.AsmName = fmt.Sprintf("%d,FP", l.Offset)
	}

	for _, n := range f.Body {
		e.lab.Label(n)
		if err := e.lab.Check(n, e.tgt.Table.Start); err != nil {
			return fmt.Errorf("%s: %w", f.Sym.Name, err)
		}
		if e.cfg.IsFeatureEnabled(config.FeatAsmComments) {
			fmt.Fprintf(e.body, "; %s\n", n.Key())
		}
		e.exp(n, e.tgt.Table.Start)
	}

	e.Segment(SegText)
	fmt.Fprintf(&e.out, "%s:\n", f.Sym.Emitted())
	e.out.WriteString("    PUSH_FP\n    TSF\n")
	if e.frame > 0 {
		fmt.Fprintf(&e.out, "    ADDSP -%d\n", e.frame)
	}
	e.out.WriteString(e.body.String())
	fmt.Fprintf(&e.out, "%s:\n", e.epi)
	e.out.WriteString("    TFS\n    POP_FP\n    RET\n")
	return nil
}

// FrameSize reports the bytes of locals and spill slots the last emitted
// function reserved below FP.
func (e *Emitter) FrameSize() int { return e.frame }

// exp emits the derivation of nt at n and returns its expansion text.
// Children first, left to right; instruction-class rules stream their code
// and expand to the accumulator, operand-class rules expand to text only.
func (e *Emitter) exp(n *ir.Node, nt rules.NT) string {
	r := e.lab.Rule(n, nt)
	var kids []*ir.Node
	var vals []string
	if r.Chain() {
		kids = []*ir.Node{n}
		vals = []string{e.exp(n, r.Pattern.NT)}
	} else {
		for _, b := range r.Pattern.Leaves(n, nil) {
			kids = append(kids, b.Node)
			vals = append(vals, e.exp(b.Node, b.NT))
		}
	}
	switch a := r.Action.(type) {
	case rules.TextTemplate:
		s := e.expand(string(a), n, vals)
		if e.tgt.Table.Instr(r.Lhs) {
			e.write(s)
			return "AC"
		}
		return s
	case rules.StructuredEmit:
		a.Fn(e, n, kids, vals)
		if e.tgt.Table.Instr(r.Lhs) {
			return "AC"
		}
		return ""
	}
	return ""
}

// expand substitutes template markers; see rules.TextTemplate.
func (e *Emitter) expand(t string, n *ir.Node, vals []string) string {
	var b strings.Builder
	var local string
	for i := 0; i < len(t); i++ {
		if t[i] != '%' || i+1 == len(t) {
			b.WriteByte(t[i])
			continue
		}
		i++
		switch c := t[i]; {
		case c == '%':
			b.WriteByte('%')
		case c == 'a':
			b.WriteString(e.operand(n))
		case c == 'L':
			if local == "" {
				local = e.LocalLabel()
			}
			b.WriteString(local)
		case c >= '0' && c <= '9':
			v := vals[c-'0']
			if i+1 < len(t) && t[i+1] == '+' {
				j := i + 2
				for j < len(t) && t[j] >= '0' && t[j] <= '9' {
					j++
				}
				d, _ := strconv.Atoi(t[i+2 : j])
				v = displace(v, d)
				i = j - 1
			}
			b.WriteString(v)
		default:
			b.WriteString("%" + string(c))
		}
	}
	return b.String()
}

func (e *Emitter) operand(n *ir.Node) string {
	if n.Operand == nil {
		return ""
	}
	return n.Operand.String()
}

// displace rewrites an operand to address k bytes past it, preserving the
// addressing form: "12,FP" becomes "14,FP", "_x" becomes "_x+2".
func displace(v string, k int) string {
	if k == 0 {
		return v
	}
	if i := strings.LastIndex(v, ",FP"); i >= 0 {
		if n, err := strconv.Atoi(v[:i]); err == nil {
			return fmt.Sprintf("%d,FP", n+k)
		}
	}
	if n, err := strconv.Atoi(v); err == nil {
		return strconv.Itoa(n + k)
	}
	if i := strings.LastIndexByte(v, '+'); i > 0 {
		if n, err := strconv.Atoi(v[i+1:]); err == nil {
			return fmt.Sprintf("%s+%d", v[:i], n+k)
		}
	}
	return fmt.Sprintf("%s+%d", v, k)
}

// write streams expanded instruction text into the function body, one line
// per instruction, labels at column zero.
func (e *Emitter) write(s string) {
	for _, line := range strings.Split(s, "\n") {
		if line == "" {
			continue
		}
		if strings.HasSuffix(line, ":") {
			fmt.Fprintf(e.body, "%s\n", line)
			continue
		}
		fmt.Fprintf(e.body, "    %s\n", line)
	}
}

// Print implements rules.Emitter for structured actions.
func (e *Emitter) Print(format string, args ...any) {
	e.write(fmt.Sprintf(format, args...))
}

// SpillSlot implements rules.Emitter: the FP-relative slot of a front-end
// temporary for the current activation, allocated on first use. Slots live
// in the frame, so recursive activations never share them.
func (e *Emitter) SpillSlot(sym *ir.Symbol, size int) int {
	if off, ok := e.slots[sym]; ok {
		return off
	}
	e.frame += pad(size, 2)
	off := -e.frame
	e.slots[sym] = off
	return off
}

// LocalLabel implements rules.Emitter.
func (e *Emitter) LocalLabel() string {
	e.labelID++
	return fmt.Sprintf("_X%d", e.labelID)
}

// EpilogueLabel implements rules.Emitter.
func (e *Emitter) EpilogueLabel() string { return e.epi }
