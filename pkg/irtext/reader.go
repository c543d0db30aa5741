// Package irtext reads the textual IR form front ends deliver (.nxir): an
// S-expression program of data definitions and functions whose bodies are
// statement trees in the folded terminal spelling (ASGNI2, INDIRU1, ...).
package irtext

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/neanderx/nxcc/pkg/config"
	"github.com/neanderx/nxcc/pkg/ir"
	"github.com/neanderx/nxcc/pkg/util"
)

// Program is one read translation unit. Items preserve source order; the
// compile pass replays them against the emitter in that order.
type Program struct {
	Module string
	Items  []Item

	// every symbol the reader created, for spelling assignment
	Syms []*ir.Symbol
}

type Item interface{ isItem() }

type Extern struct {
	Sym *ir.Symbol
	Pos util.Pos
}

type Export struct {
	Sym *ir.Symbol
	Pos util.Pos
}

// Data is an initialized definition or, with nil Inits, a zeroed reservation.
type Data struct {
	Sym   *ir.Symbol
	Inits []Init
	Pos   util.Pos
}

type InitKind int

const (
	InitByte InitKind = iota
	InitWord
	InitLong
	InitAddr
	InitString
	InitSpace
)

type Init struct {
	Kind InitKind
	Vals []int64
	Sym  *ir.Symbol
	Str  string
}

type FuncItem struct {
	Fn  *ir.Func
	Pos util.Pos
}

func (*Extern) isItem()   {}
func (*Export) isItem()   {}
func (*Data) isItem()     {}
func (*FuncItem) isItem() {}

// lexer is a rune scanner over one source file. It produces parens, atoms
// and string literals; ';' starts a line comment.
type lexer struct {
	source    []rune
	fileIndex int
	pos       int
	line      int
	column    int
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokLParen
	tokRParen
	tokAtom
	tokString
)

type token struct {
	kind tokKind
	text string
	pos  util.Pos
}

func newLexer(source []rune, fileIndex int) *lexer {
	return &lexer{source: source, fileIndex: fileIndex, line: 1, column: 1}
}

func (l *lexer) at() util.Pos {
	return util.Pos{FileIndex: l.fileIndex, Line: l.line, Column: l.column, Len: 1}
}

func (l *lexer) peek() rune {
	if l.pos >= len(l.source) {
		return 0
	}
	return l.source[l.pos]
}

func (l *lexer) advance() rune {
	ch := l.source[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

func (l *lexer) skip() {
	for l.pos < len(l.source) {
		switch ch := l.peek(); {
		case unicode.IsSpace(ch):
			l.advance()
		case ch == ';':
			for l.pos < len(l.source) && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skip()
	pos := l.at()
	if l.pos >= len(l.source) {
		return token{kind: tokEOF, pos: pos}, nil
	}
	switch ch := l.peek(); {
	case ch == '(':
		l.advance()
		return token{kind: tokLParen, pos: pos}, nil
	case ch == ')':
		l.advance()
		return token{kind: tokRParen, pos: pos}, nil
	case ch == '"':
		l.advance()
		var b strings.Builder
		for {
			if l.pos >= len(l.source) {
				return token{}, fmt.Errorf("%d:%d: unterminated string", pos.Line, pos.Column)
			}
			c := l.advance()
			if c == '"' {
				break
			}
			if c == '\\' {
				switch e := l.advance(); e {
				case 'n':
					c = '\n'
				case 't':
					c = '\t'
				case '0':
					c = 0
				case '"', '\\':
					c = e
				default:
					return token{}, fmt.Errorf("%d:%d: bad escape \\%c", pos.Line, pos.Column, e)
				}
			}
			b.WriteRune(c)
		}
		pos.Len = l.column - pos.Column
		return token{kind: tokString, text: b.String(), pos: pos}, nil
	default:
		var b strings.Builder
		for l.pos < len(l.source) {
			c := l.peek()
			if unicode.IsSpace(c) || c == '(' || c == ')' || c == ';' {
				break
			}
			b.WriteRune(l.advance())
		}
		pos.Len = l.column - pos.Column
		return token{kind: tokAtom, text: b.String(), pos: pos}, nil
	}
}

// sexp is one parsed expression: an atom/string leaf or a list.
type sexp struct {
	atom   string
	isStr  bool
	isList bool
	list   []*sexp
	pos    util.Pos
}

func (s *sexp) head() string {
	if s.isList && len(s.list) > 0 && !s.list[0].isList {
		return s.list[0].atom
	}
	return ""
}

func parseSexp(l *lexer) (*sexp, error) {
	tok, err := l.next()
	if err != nil {
		return nil, err
	}
	return parseSexpFrom(l, tok)
}

func parseSexpFrom(l *lexer, tok token) (*sexp, error) {
	switch tok.kind {
	case tokEOF:
		return nil, nil
	case tokAtom:
		return &sexp{atom: tok.text, pos: tok.pos}, nil
	case tokString:
		return &sexp{atom: tok.text, isStr: true, pos: tok.pos}, nil
	case tokRParen:
		return nil, fmt.Errorf("%d:%d: unexpected ')'", tok.pos.Line, tok.pos.Column)
	}
	s := &sexp{isList: true, pos: tok.pos}
	for {
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		if t.kind == tokRParen {
			return s, nil
		}
		if t.kind == tokEOF {
			return nil, fmt.Errorf("%d:%d: unclosed '('", tok.pos.Line, tok.pos.Column)
		}
		kid, err := parseSexpFrom(l, t)
		if err != nil {
			return nil, err
		}
		s.list = append(s.list, kid)
	}
}

// reader interprets the sexp forms. Globals, functions and labels share one
// program-wide namespace; params, locals and temporaries are per function.
type reader struct {
	cfg     *config.Config
	prog    *Program
	globals map[string]*ir.Symbol
	labels  map[string]*ir.Symbol
	defined map[string]bool // label definitions seen

	// current function scope
	scope map[string]*ir.Symbol
	fn    *ir.Func
}

// Read parses one .nxir source. fileIndex is the util source-file record
// index used for diagnostics.
func Read(cfg *config.Config, src string, fileIndex int) (*Program, error) {
	r := &reader{
		cfg:     cfg,
		prog:    &Program{},
		globals: map[string]*ir.Symbol{},
		labels:  map[string]*ir.Symbol{},
		defined: map[string]bool{},
	}
	l := newLexer([]rune(src), fileIndex)
	for {
		s, err := parseSexp(l)
		if err != nil {
			return nil, err
		}
		if s == nil {
			return r.prog, nil
		}
		if err := r.item(s); err != nil {
			return nil, err
		}
	}
}

func (r *reader) errf(s *sexp, format string, args ...any) error {
	return fmt.Errorf("%d:%d: %s", s.pos.Line, s.pos.Column, fmt.Sprintf(format, args...))
}

func (r *reader) newSym(name string, class ir.StorageClass) *ir.Symbol {
	sym := &ir.Symbol{Name: name, Class: class}
	r.prog.Syms = append(r.prog.Syms, sym)
	return sym
}

// global returns the program-scope symbol for name, creating an
// external-by-default one on first reference.
func (r *reader) global(name string) *ir.Symbol {
	if sym, ok := r.globals[name]; ok {
		return sym
	}
	sym := r.newSym(name, ir.ClassGlobal)
	r.globals[name] = sym
	return sym
}

func (r *reader) label(name string) *ir.Symbol {
	if sym, ok := r.labels[name]; ok {
		return sym
	}
	sym := r.newSym(name, ir.ClassLabel)
	r.labels[name] = sym
	return sym
}

func (r *reader) item(s *sexp) error {
	if !s.isList || len(s.list) == 0 {
		return r.errf(s, "expected a top-level form")
	}
	switch s.head() {
	case "module":
		if len(s.list) != 2 {
			return r.errf(s, "module wants a name")
		}
		r.prog.Module = s.list[1].atom
	case "extern":
		if len(s.list) != 2 {
			return r.errf(s, "extern wants a name")
		}
		sym := r.global(s.list[1].atom)
		sym.Class = ir.ClassExtern
		r.prog.Items = append(r.prog.Items, &Extern{Sym: sym, Pos: s.pos})
	case "export":
		if len(s.list) != 2 {
			return r.errf(s, "export wants a name")
		}
		r.prog.Items = append(r.prog.Items, &Export{Sym: r.global(s.list[1].atom), Pos: s.pos})
	case "bss":
		if len(s.list) != 3 {
			return r.errf(s, "bss wants a name and a size")
		}
		size, err := strconv.Atoi(s.list[2].atom)
		if err != nil || size <= 0 {
			return r.errf(s, "bad bss size %q", s.list[2].atom)
		}
		sym := r.global(s.list[1].atom)
		sym.Size = size
		r.prog.Items = append(r.prog.Items, &Data{Sym: sym, Pos: s.pos})
	case "data":
		return r.data(s)
	case "func":
		return r.function(s)
	default:
		return r.errf(s, "unknown form %q", s.head())
	}
	return nil
}

func (r *reader) data(s *sexp) error {
	if len(s.list) < 3 {
		return r.errf(s, "data wants a name and initializers")
	}
	d := &Data{Sym: r.global(s.list[1].atom), Pos: s.pos}
	for _, is := range s.list[2:] {
		if !is.isList || len(is.list) < 1 {
			return r.errf(is, "expected an initializer")
		}
		var init Init
		switch is.head() {
		case "byte", "word", "long":
			switch is.head() {
			case "byte":
				init.Kind = InitByte
			case "word":
				init.Kind = InitWord
			case "long":
				init.Kind = InitLong
			}
			for _, v := range is.list[1:] {
				n, err := strconv.ParseInt(v.atom, 0, 64)
				if err != nil {
					return r.errf(v, "bad integer %q", v.atom)
				}
				init.Vals = append(init.Vals, n)
			}
		case "addr":
			if len(is.list) != 2 {
				return r.errf(is, "addr wants a symbol")
			}
			init.Kind = InitAddr
			init.Sym = r.global(is.list[1].atom)
		case "string":
			if len(is.list) != 2 || !is.list[1].isStr {
				return r.errf(is, "string wants one literal")
			}
			init.Kind = InitString
			init.Str = is.list[1].atom
		case "space":
			if len(is.list) != 2 {
				return r.errf(is, "space wants a size")
			}
			n, err := strconv.Atoi(is.list[1].atom)
			if err != nil || n <= 0 {
				return r.errf(is, "bad space size %q", is.list[1].atom)
			}
			init.Kind = InitSpace
			init.Vals = []int64{int64(n)}
		default:
			return r.errf(is, "unknown initializer %q", is.head())
		}
		d.Inits = append(d.Inits, init)
	}
	r.prog.Items = append(r.prog.Items, d)
	return nil
}

// function reads (func name (params (n size)...) (locals (n size)...) stmt...).
func (r *reader) function(s *sexp) error {
	if len(s.list) < 4 {
		return r.errf(s, "func wants a name, params and locals")
	}
	sym := r.global(s.list[1].atom)
	fn := &ir.Func{Sym: sym}
	r.fn = fn
	r.scope = map[string]*ir.Symbol{}
	defer func() { r.fn, r.scope = nil, nil }()

	params, locals := s.list[2], s.list[3]
	if params.head() != "params" || locals.head() != "locals" {
		return r.errf(s, "func wants (params ...) then (locals ...)")
	}
	var err error
	if fn.Params, err = r.vars(params, ir.ClassParam); err != nil {
		return err
	}
	if fn.Locals, err = r.vars(locals, ir.ClassLocal); err != nil {
		return err
	}
	for _, stmt := range s.list[4:] {
		n, err := r.node(stmt)
		if err != nil {
			return err
		}
		fn.Body = append(fn.Body, n)
	}
	r.prog.Items = append(r.prog.Items, &FuncItem{Fn: fn, Pos: s.pos})
	return nil
}

func (r *reader) vars(s *sexp, class ir.StorageClass) ([]*ir.Symbol, error) {
	var out []*ir.Symbol
	for _, v := range s.list[1:] {
		if !v.isList || len(v.list) != 2 {
			return nil, r.errf(v, "expected (name size)")
		}
		size, err := strconv.Atoi(v.list[1].atom)
		if err != nil || size <= 0 {
			return nil, r.errf(v, "bad size %q", v.list[1].atom)
		}
		name := v.list[0].atom
		if _, dup := r.scope[name]; dup {
			return nil, r.errf(v, "duplicate declaration of %q", name)
		}
		sym := r.newSym(name, class)
		sym.Size = size
		r.scope[name] = sym
		out = append(out, sym)
	}
	return out, nil
}

// local resolves a function-scope name: a declared param/local, or a
// temporary created on first use.
func (r *reader) local(name string, class ir.StorageClass) *ir.Symbol {
	if sym, ok := r.scope[name]; ok {
		return sym
	}
	sym := r.newSym(name, class)
	r.scope[name] = sym
	return sym
}

// node reads one tree. The head atom is a folded terminal key; the argument
// shape depends on its operator.
func (r *reader) node(s *sexp) (*ir.Node, error) {
	if !s.isList || len(s.list) == 0 || s.list[0].isList {
		return nil, r.errf(s, "expected a tree node")
	}
	key, err := ir.ParseKey(s.list[0].atom)
	if err != nil {
		return nil, r.errf(s, "%v", err)
	}
	n := &ir.Node{Op: key.Op, Size: key.Size, Class: key.Class}
	args := s.list[1:]

	kids := func(want int) error {
		if len(args) != want {
			return r.errf(s, "%s wants %d operands, got %d", key, want, len(args))
		}
		for i, a := range args {
			kid, err := r.node(a)
			if err != nil {
				return err
			}
			n.Kids[i] = kid
		}
		return nil
	}

	switch key.Op {
	case ir.OpAddrG:
		if len(args) != 1 {
			return nil, r.errf(s, "%s wants a symbol", key)
		}
		name := args[0].atom
		if sym, ok := r.labels[name]; ok {
			n.Operand = &ir.SymRef{Sym: sym}
		} else {
			n.Operand = &ir.SymRef{Sym: r.global(name)}
		}
	case ir.OpAddrF, ir.OpAddrL:
		if len(args) != 1 {
			return nil, r.errf(s, "%s wants a symbol", key)
		}
		sym, ok := r.scope[args[0].atom]
		if !ok {
			return nil, r.errf(s, "undeclared %q", args[0].atom)
		}
		n.Operand = &ir.SymRef{Sym: sym}
	case ir.OpVReg:
		if len(args) != 1 {
			return nil, r.errf(s, "%s wants a temporary name", key)
		}
		n.Operand = &ir.SymRef{Sym: r.local(args[0].atom, ir.ClassTemp)}
	case ir.OpCnst:
		if len(args) != 1 {
			return nil, r.errf(s, "%s wants a value", key)
		}
		v, err := strconv.ParseInt(args[0].atom, 0, 64)
		if err != nil {
			return nil, r.errf(s, "bad constant %q", args[0].atom)
		}
		n.Operand = &ir.Const{Value: v}
	case ir.OpCvt:
		if len(args) != 3 {
			return nil, r.errf(s, "%s wants fromsize, fromclass and a kid", key)
		}
		fs, err := strconv.Atoi(args[0].atom)
		if err != nil {
			return nil, r.errf(s, "bad source size %q", args[0].atom)
		}
		n.FromSize = int8(fs)
		switch args[1].atom {
		case "I":
			n.FromClass = ir.ClassI
		case "U":
			n.FromClass = ir.ClassU
		case "P":
			n.FromClass = ir.ClassP
		default:
			return nil, r.errf(s, "bad source class %q", args[1].atom)
		}
		kid, err := r.node(args[2])
		if err != nil {
			return nil, err
		}
		n.Kids[0] = kid
	case ir.OpCall:
		if len(args) != 2 {
			return nil, r.errf(s, "%s wants argbytes and a callee", key)
		}
		ab, err := strconv.Atoi(args[0].atom)
		if err != nil || ab < 0 {
			return nil, r.errf(s, "bad argbytes %q", args[0].atom)
		}
		n.ArgBytes = ab
		kid, err := r.node(args[1])
		if err != nil {
			return nil, err
		}
		n.Kids[0] = kid
	case ir.OpLabel:
		if len(args) != 1 {
			return nil, r.errf(s, "%s wants a label", key)
		}
		name := args[0].atom
		if r.defined[name] {
			return nil, r.errf(s, "duplicate label %q", name)
		}
		r.defined[name] = true
		n.Operand = &ir.SymRef{Sym: r.label(name)}
	case ir.OpEq, ir.OpNe, ir.OpLt, ir.OpLe, ir.OpGt, ir.OpGe:
		if len(args) != 3 {
			return nil, r.errf(s, "%s wants a label and two operands", key)
		}
		n.Operand = &ir.SymRef{Sym: r.label(args[0].atom)}
		for i, a := range args[1:] {
			kid, err := r.node(a)
			if err != nil {
				return nil, err
			}
			n.Kids[i] = kid
		}
	case ir.OpJump:
		if len(args) != 1 {
			return nil, r.errf(s, "%s wants a target", key)
		}
		if !args[0].isList {
			target := ir.NewNode(ir.OpAddrG, 2, ir.ClassP)
			target.Operand = &ir.SymRef{Sym: r.label(args[0].atom)}
			n.Kids[0] = target
		} else if err := kids(1); err != nil {
			return nil, err
		}
	case ir.OpRet:
		if key.Class == ir.ClassV {
			if len(args) != 0 {
				return nil, r.errf(s, "RETV takes no operand")
			}
		} else if err := kids(1); err != nil {
			return nil, err
		}
	case ir.OpIndir, ir.OpBCom, ir.OpNeg, ir.OpArg:
		if err := kids(1); err != nil {
			return nil, err
		}
	case ir.OpAsgn, ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpBAnd, ir.OpBOr, ir.OpBXor:
		if err := kids(2); err != nil {
			return nil, err
		}
	case ir.OpDiv, ir.OpMod:
		if err := kids(2); err != nil {
			return nil, err
		}
		if v, ok := n.Kids[1].ConstValue(); ok && v == 0 {
			util.Warn(r.cfg, config.WarnDivZero, s.pos, "division by constant zero")
		}
	case ir.OpLsh, ir.OpRsh:
		if err := kids(2); err != nil {
			return nil, err
		}
		if v, ok := n.Kids[1].ConstValue(); ok && (v < 0 || v >= int64(key.Size)*8) {
			util.Warn(r.cfg, config.WarnShiftRange, s.pos,
				"shift count %d outside 0..%d", v, int(key.Size)*8-1)
		}
	default:
		return nil, r.errf(s, "%s cannot appear in a tree", key)
	}
	return n, nil
}
