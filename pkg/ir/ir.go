package ir

import (
	"fmt"
	"strings"
)

// Op is a front-end tree operator. Together with a size and a signedness
// class it forms the terminal vocabulary the rule tables are written over.
type Op int

const (
	OpNone Op = iota
	OpAddrG    // address of a global/static symbol
	OpAddrF    // address of a formal parameter
	OpAddrL    // address of a local
	OpCnst
	OpIndir
	OpAsgn
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpBAnd
	OpBOr
	OpBXor
	OpBCom
	OpNeg
	OpLsh
	OpRsh
	OpCvt // widen/narrow; FromSize/FromClass describe the source
	OpArg
	OpCall
	OpRet
	OpJump
	OpLabel
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpVReg // front-end temporary; the emitter assigns it a frame slot
)

var opNames = [...]string{
	OpNone: "NONE", OpAddrG: "ADDRG", OpAddrF: "ADDRF", OpAddrL: "ADDRL",
	OpCnst: "CNST", OpIndir: "INDIR", OpAsgn: "ASGN", OpAdd: "ADD",
	OpSub: "SUB", OpMul: "MUL", OpDiv: "DIV", OpMod: "MOD", OpBAnd: "BAND",
	OpBOr: "BOR", OpBXor: "BXOR", OpBCom: "BCOM", OpNeg: "NEG", OpLsh: "LSH",
	OpRsh: "RSH", OpCvt: "CVT", OpArg: "ARG", OpCall: "CALL", OpRet: "RET",
	OpJump: "JUMP", OpLabel: "LABEL", OpEq: "EQ", OpNe: "NE", OpLt: "LT",
	OpLe: "LE", OpGt: "GT", OpGe: "GE", OpVReg: "VREG",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Class is the signedness dimension of a terminal key.
type Class int

const (
	ClassV Class = iota // void (statements, labels, jumps)
	ClassI              // signed integer
	ClassU              // unsigned integer
	ClassP              // pointer
)

func (c Class) String() string {
	switch c {
	case ClassI:
		return "I"
	case ClassU:
		return "U"
	case ClassP:
		return "P"
	}
	return "V"
}

// Key identifies a terminal: operator, byte size and signedness class as
// three separate dimensions. Size is 0 for void terminals.
type Key struct {
	Op    Op
	Size  int8
	Class Class
}

// String renders the conventional folded spelling (ADDI2, INDIRU1, JUMPV)
// used in rule-table text and diagnostics.
func (k Key) String() string {
	if k.Class == ClassV {
		return k.Op.String() + "V"
	}
	return fmt.Sprintf("%s%s%d", k.Op, k.Class, k.Size)
}

// ParseKey is the inverse of Key.String. It accepts the folded spelling
// the grammar text is written in.
func ParseKey(s string) (Key, error) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	name, digits := s[:i], s[i:]
	var k Key
	if strings.HasSuffix(name, "V") && digits == "" {
		k.Class = ClassV
		name = name[:len(name)-1]
	} else {
		switch {
		case strings.HasSuffix(name, "I"):
			k.Class = ClassI
		case strings.HasSuffix(name, "U"):
			k.Class = ClassU
		case strings.HasSuffix(name, "P"):
			k.Class = ClassP
		default:
			return Key{}, fmt.Errorf("terminal %q: missing class suffix", s)
		}
		name = name[:len(name)-1]
		if digits == "" {
			return Key{}, fmt.Errorf("terminal %q: missing size suffix", s)
		}
		n := 0
		for _, d := range digits {
			n = n*10 + int(d-'0')
		}
		k.Size = int8(n)
	}
	for op, opName := range opNames {
		if opName == name {
			k.Op = Op(op)
			return k, nil
		}
	}
	return Key{}, fmt.Errorf("terminal %q: unknown operator %q", s, name)
}

// Operand is the value attached to a leaf or call node.
type Operand interface {
	isOperand()
	String() string
}

type Const struct{ Value int64 }
type SymRef struct{ Sym *Symbol }

func (c *Const) isOperand()  {}
func (s *SymRef) isOperand() {}

func (c *Const) String() string  { return fmt.Sprintf("%d", c.Value) }
func (s *SymRef) String() string { return s.Sym.Emitted() }

// Node is one front-end tree node. Kids[1] is nil for unary operators,
// both kids are nil for leaves.
type Node struct {
	Op      Op
	Size    int8
	Class   Class
	Kids    [2]*Node
	Operand Operand

	// Cvt source description.
	FromSize  int8
	FromClass Class

	// Call bookkeeping supplied by the front end: total bytes its ARG
	// statements pushed. The caller-cleanup sequence pops exactly this.
	ArgBytes int
}

// Key returns the node's terminal key. VReg nodes are normalized to a
// single spelling (VREGP2) so one pair of grammar rules covers every
// temporary width; Node.Size still carries the stored width.
func (n *Node) Key() Key {
	if n.Op == OpVReg {
		return Key{Op: OpVReg, Size: 2, Class: ClassP}
	}
	return Key{Op: n.Op, Size: n.Size, Class: n.Class}
}

// ConstValue returns the integer operand of a constant-bearing node.
func (n *Node) ConstValue() (int64, bool) {
	if c, ok := n.Operand.(*Const); ok {
		return c.Value, true
	}
	return 0, false
}

// Sym returns the symbol operand, or nil.
func (n *Node) Sym() *Symbol {
	if s, ok := n.Operand.(*SymRef); ok {
		return s.Sym
	}
	return nil
}

func NewNode(op Op, size int8, class Class, kids ...*Node) *Node {
	n := &Node{Op: op, Size: size, Class: class}
	for i, k := range kids {
		if i < 2 {
			n.Kids[i] = k
		}
	}
	return n
}
