package emit

import (
	"strings"
	"testing"

	"github.com/neanderx/nxcc/pkg/config"
	"github.com/neanderx/nxcc/pkg/ir"
	"github.com/neanderx/nxcc/pkg/rules"
)

// A minimal accumulator grammar; enough shape to drive the engine without
// dragging in a full machine description.
const miniGrammar = `
%start stmt
%instr stmt reg

stmt: ASGNI1(addr,reg) "STA %0" 1
stmt: RETV "#ret" 1
addr: ADDRGP2 "%a" 0
con:  CNSTI1 "%a" 0
reg:  CNSTI1 "LDI %a" 1
reg:  ADDI1(reg,con) "ADI %1" 1
`

func miniTarget(t *testing.T) *Target {
	t.Helper()
	acts := map[string]rules.EmitFunc{
		"ret": func(e rules.Emitter, n *ir.Node, kids []*ir.Node, vals []string) {
			e.Print("JMP %s", e.EpilogueLabel())
		},
	}
	tab, err := rules.Parse(miniGrammar, acts, nil)
	if err != nil {
		t.Fatal(err)
	}
	return &Target{Table: tab}
}

func newTestEmitter(t *testing.T) *Emitter {
	t.Helper()
	cfg := config.NewConfig()
	cfg.ModuleName = "test"
	return New(cfg, miniTarget(t))
}

func global(name string) *ir.Symbol {
	return &ir.Symbol{Name: name, Class: ir.ClassGlobal}
}

func cnst(v int64) *ir.Node {
	n := ir.NewNode(ir.OpCnst, 1, ir.ClassI)
	n.Operand = &ir.Const{Value: v}
	return n
}

func addrg(s *ir.Symbol) *ir.Node {
	n := ir.NewNode(ir.OpAddrG, 2, ir.ClassP)
	n.Operand = &ir.SymRef{Sym: s}
	return n
}

func TestChildrenEmitBeforeParentLeftFirst(t *testing.T) {
	e := newTestEmitter(t)
	g := global("g")
	e.DefSymbol(g)

	root := ir.NewNode(ir.OpAsgn, 1, ir.ClassI, addrg(g),
		ir.NewNode(ir.OpAdd, 1, ir.ClassI, cnst(5), cnst(3)))
	fsym := global("f")
	e.DefSymbol(fsym)
	if err := e.Function(&ir.Func{Sym: fsym, Body: []*ir.Node{root}}); err != nil {
		t.Fatal(err)
	}

	out := e.Output().String()
	ldi := strings.Index(out, "LDI 5")
	adi := strings.Index(out, "ADI 3")
	sta := strings.Index(out, "STA _g")
	if ldi < 0 || adi < 0 || sta < 0 {
		t.Fatalf("missing instructions in:\n%s", out)
	}
	if !(ldi < adi && adi < sta) {
		t.Errorf("emission order wrong (LDI@%d ADI@%d STA@%d):\n%s", ldi, adi, sta, out)
	}
}

func TestFrameShapeAndOffsets(t *testing.T) {
	e := newTestEmitter(t)
	fsym := global("f")
	e.DefSymbol(fsym)

	p1 := &ir.Symbol{Name: "a", Class: ir.ClassParam, Size: 1}
	p2 := &ir.Symbol{Name: "b", Class: ir.ClassParam, Size: 2}
	p3 := &ir.Symbol{Name: "c", Class: ir.ClassParam, Size: 4}
	l1 := &ir.Symbol{Name: "x", Class: ir.ClassLocal, Size: 2}
	l2 := &ir.Symbol{Name: "y", Class: ir.ClassLocal, Size: 1}
	f := &ir.Func{
		Sym:    fsym,
		Params: []*ir.Symbol{p1, p2, p3},
		Locals: []*ir.Symbol{l1, l2},
	}
	if err := e.Function(f); err != nil {
		t.Fatal(err)
	}

	// params at 4 plus the padded sizes of everything before them
	for _, tc := range []struct {
		sym  *ir.Symbol
		off  int
		name string
	}{
		{p1, 4, "4,FP"}, {p2, 6, "6,FP"}, {p3, 8, "8,FP"},
		{l1, -2, "-2,FP"}, {l2, -4, "-4,FP"},
	} {
		if tc.sym.Offset != tc.off || tc.sym.AsmName != tc.name {
			t.Errorf("%s: offset %d asm %q, want %d %q",
				tc.sym.Name, tc.sym.Offset, tc.sym.AsmName, tc.off, tc.name)
		}
	}
	if e.FrameSize() != 4 {
		t.Errorf("frame = %d, want 4", e.FrameSize())
	}

	out := e.Output().String()
	for _, want := range []string{"_f:", "PUSH_FP", "TSF", "ADDSP -4", "TFS", "POP_FP", "RET"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestNoFrameAdjustWhenEmpty(t *testing.T) {
	e := newTestEmitter(t)
	fsym := global("f")
	e.DefSymbol(fsym)
	if err := e.Function(&ir.Func{Sym: fsym}); err != nil {
		t.Fatal(err)
	}
	if out := e.Output().String(); strings.Contains(out, "ADDSP") {
		t.Errorf("frameless function adjusts SP:\n%s", out)
	}
}

func TestStructuredActionTargetsEpilogue(t *testing.T) {
	e := newTestEmitter(t)
	fsym := global("f")
	e.DefSymbol(fsym)
	ret := ir.NewNode(ir.OpRet, 0, ir.ClassV)
	if err := e.Function(&ir.Func{Sym: fsym, Body: []*ir.Node{ret}}); err != nil {
		t.Fatal(err)
	}
	out := e.Output().String()
	if !strings.Contains(out, "JMP _X1") || !strings.Contains(out, "_X1:") {
		t.Errorf("return does not jump to the epilogue label:\n%s", out)
	}
}

func TestStructuredExpansionFollowsClass(t *testing.T) {
	// structured actions stream through Print, so only instruction-class
	// rules expand to the accumulator; operand-class ones expand to nothing
	acts := map[string]rules.EmitFunc{
		"put":  func(e rules.Emitter, n *ir.Node, kids []*ir.Node, vals []string) {},
		"mark": func(e rules.Emitter, n *ir.Node, kids []*ir.Node, vals []string) {},
	}
	tab, err := rules.Parse(`
%start s
%instr s
s:    CNSTI1 "#put" 1
cell: CNSTI1 "#mark" 0
`, acts, nil)
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.NewConfig()
	e := New(cfg, &Target{Table: tab})
	e.body = &strings.Builder{}

	n := cnst(7)
	e.lab.Label(n)
	var s, cell rules.NT
	for i := 1; i <= tab.NTCount(); i++ {
		switch tab.NTName(rules.NT(i)) {
		case "s":
			s = rules.NT(i)
		case "cell":
			cell = rules.NT(i)
		}
	}
	if got := e.exp(n, s); got != "AC" {
		t.Errorf("instruction-class structured rule expanded to %q, want AC", got)
	}
	if got := e.exp(n, cell); got != "" {
		t.Errorf("operand-class structured rule expanded to %q, want empty", got)
	}
}

func TestFunctionReportsSelectionHole(t *testing.T) {
	e := newTestEmitter(t)
	fsym := global("f")
	e.DefSymbol(fsym)
	mul := ir.NewNode(ir.OpMul, 1, ir.ClassI, cnst(2), cnst(3))
	root := ir.NewNode(ir.OpAsgn, 1, ir.ClassI, addrg(global("g")), mul)
	err := e.Function(&ir.Func{Sym: fsym, Body: []*ir.Node{root}})
	if err == nil {
		t.Fatal("uncoverable body accepted")
	}
	if !strings.Contains(err.Error(), "f:") || !strings.Contains(err.Error(), "no rule derives") {
		t.Errorf("error = %v", err)
	}
}

func TestSpillSlotsAreStablePerSymbol(t *testing.T) {
	e := newTestEmitter(t)
	e.slots = map[*ir.Symbol]int{}
	t1 := &ir.Symbol{Name: "t1", Class: ir.ClassTemp}
	t2 := &ir.Symbol{Name: "t2", Class: ir.ClassTemp}
	if off := e.SpillSlot(t1, 1); off != -2 {
		t.Errorf("first slot = %d, want -2", off)
	}
	if off := e.SpillSlot(t2, 2); off != -4 {
		t.Errorf("second slot = %d, want -4", off)
	}
	if off := e.SpillSlot(t1, 1); off != -2 {
		t.Errorf("repeated use moved the slot to %d", off)
	}
	if e.frame != 4 {
		t.Errorf("frame = %d, want 4", e.frame)
	}
}

func TestExpandMarkers(t *testing.T) {
	e := newTestEmitter(t)
	n := cnst(42)

	if got := e.expand("LDI %a", n, nil); got != "LDI 42" {
		t.Errorf("%%a: %q", got)
	}
	if got := e.expand("ADD %0+2", n, []string{"4,FP"}); got != "ADD 6,FP" {
		t.Errorf("%%0+k: %q", got)
	}
	if got := e.expand("100%%", n, nil); got != "100%" {
		t.Errorf("%%%%: %q", got)
	}
}

func TestLocalLabelSharedWithinOneApplication(t *testing.T) {
	e := newTestEmitter(t)
	n := cnst(0)
	first := e.expand("JZ %L\nNOT\n%L:", n, nil)
	lines := strings.Split(first, "\n")
	lbl := strings.TrimPrefix(lines[0], "JZ ")
	if lines[2] != lbl+":" {
		t.Errorf("labels differ within one application: %q", first)
	}
	second := e.expand("JZ %L\nNOT\n%L:", n, nil)
	if strings.Contains(second, lbl+":") {
		t.Errorf("second application reused label %s: %q", lbl, second)
	}
}

func TestDisplace(t *testing.T) {
	cases := []struct {
		in   string
		k    int
		want string
	}{
		{"12,FP", 2, "14,FP"},
		{"-4,FP", 2, "-2,FP"},
		{"_x", 2, "_x+2"},
		{"_x+4", 2, "_x+6"},
		{"10", 3, "13"},
		{"_x", 0, "_x"},
	}
	for _, tc := range cases {
		if got := displace(tc.in, tc.k); got != tc.want {
			t.Errorf("displace(%q, %d) = %q, want %q", tc.in, tc.k, got, tc.want)
		}
	}
}

func TestSegmentDirectiveNotRepeated(t *testing.T) {
	e := newTestEmitter(t)
	e.Segment(SegData)
	e.Segment(SegData)
	e.Segment(SegText)
	out := e.Output().String()
	if strings.Count(out, SegData) != 1 || strings.Count(out, SegText) != 1 {
		t.Errorf("duplicate segment directives:\n%s", out)
	}
}

func TestInternStringDedup(t *testing.T) {
	e := newTestEmitter(t)
	a := e.InternString("hello")
	b := e.InternString("hello")
	c := e.InternString("world")
	if a != b {
		t.Errorf("identical literals got labels %s and %s", a, b)
	}
	if a == c {
		t.Errorf("distinct literals share label %s", a)
	}

	e.ProgEnd()
	out := e.Output().String()
	if strings.Count(out, a+":") != 1 {
		t.Errorf("literal %s flushed %d times:\n%s", a, strings.Count(out, a+":"), out)
	}
	if !strings.Contains(out, SegRodata) {
		t.Errorf("literals not placed in %s:\n%s", SegRodata, out)
	}
}

func TestInternStringOrdinalMode(t *testing.T) {
	cfg := config.NewConfig()
	cfg.SetFeature(config.FeatInternStrings, false)
	e := New(cfg, miniTarget(t))
	a := e.InternString("hello")
	b := e.InternString("hello")
	if a != "_Lstr0" || b != "_Lstr1" {
		t.Errorf("ordinal labels = %s, %s", a, b)
	}
}
