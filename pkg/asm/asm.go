// Package asm assembles NEANDER-X assembly into a flat 64 KiB memory
// image. Two passes: the first lays out addresses and collects labels, the
// second encodes. Every instruction occupies four bytes: opcode, mode byte
// (mode in the low three bits, indirect displacement above), and a 16-bit
// little-endian operand.
package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/neanderx/nxcc/pkg/sim"
)

var zeroOperandOps = map[string]byte{
	"NOP":     sim.OpNOP,
	"HLT":     sim.OpHLT,
	"NOT":     sim.OpNOT,
	"NEG":     sim.OpNEG,
	"SHL":     sim.OpSHL,
	"SHR":     sim.OpSHR,
	"ASR":     sim.OpASR,
	"ROL":     sim.OpROL,
	"ROR":     sim.OpROR,
	"INC":     sim.OpINC,
	"DEC":     sim.OpDEC,
	"TAX":     sim.OpTAX,
	"TXA":     sim.OpTXA,
	"TAY":     sim.OpTAY,
	"TYA":     sim.OpTYA,
	"PUSH":    sim.OpPUSH,
	"POP":     sim.OpPOP,
	"PUSH_FP": sim.OpPUSHFP,
	"POP_FP":  sim.OpPOPFP,
	"TSF":     sim.OpTSF,
	"TFS":     sim.OpTFS,
	"RET":     sim.OpRET,
	"MUL":     sim.OpMUL,
	"DIV":     sim.OpDIV,
	"MOD":     sim.OpMOD,
}

var memoryOps = map[string]byte{
	"LDA": sim.OpLDA,
	"STA": sim.OpSTA,
	"ADD": sim.OpADD,
	"ADC": sim.OpADC,
	"SUB": sim.OpSUB,
	"SBC": sim.OpSBC,
	"AND": sim.OpAND,
	"OR":  sim.OpOR,
	"XOR": sim.OpXOR,
	"CMP": sim.OpCMP,
}

var immediateOps = map[string]byte{
	"LDI":   sim.OpLDI,
	"ADDSP": sim.OpADDSP,
}

var frameOps = map[string]byte{
	"LFA": sim.OpLFA,
}

var jumpOps = map[string]byte{
	"JMP":  sim.OpJMP,
	"JZ":   sim.OpJZ,
	"JNZ":  sim.OpJNZ,
	"JN":   sim.OpJN,
	"JC":   sim.OpJC,
	"JNC":  sim.OpJNC,
	"JLE":  sim.OpJLE,
	"JGT":  sim.OpJGT,
	"JGE":  sim.OpJGE,
	"JBE":  sim.OpJBE,
	"JA":   sim.OpJA,
	"CALL": sim.OpCALL,
}

// segment directives are layout markers only; a single location counter
// runs through the whole program.
var segmentDirectives = map[string]bool{
	".text":   true,
	".data":   true,
	".bss":    true,
	".rodata": true,
}

// Program is an assembled memory image.
type Program struct {
	Mem     []byte // 64 KiB
	Symbols map[string]uint16
}

type Assembler struct {
	symbols map[string]uint16
}

type parsedLine struct {
	lineNo   int
	labels   []string
	mnemonic string
	rest     string
}

func NewAssembler() *Assembler {
	return &Assembler{symbols: make(map[string]uint16)}
}

func Assemble(src string) (*Program, error) {
	return NewAssembler().Assemble(src)
}

func (a *Assembler) Assemble(src string) (*Program, error) {
	lines := strings.Split(src, "\n")
	if err := a.pass1(lines); err != nil {
		return nil, err
	}
	return a.pass2(lines)
}

func parseLine(raw string, lineNo int) parsedLine {
	p := parsedLine{lineNo: lineNo}
	line := raw
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	for {
		i := strings.IndexByte(line, ':')
		if i < 0 || !isLabel(line[:i]) {
			break
		}
		p.labels = append(p.labels, line[:i])
		line = strings.TrimSpace(line[i+1:])
	}
	if line == "" {
		return p
	}
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		p.mnemonic, p.rest = line[:i], strings.TrimSpace(line[i+1:])
	} else {
		p.mnemonic = line
	}
	return p
}

func isLabel(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
			continue
		}
		if i > 0 && c >= '0' && c <= '9' {
			continue
		}
		return false
	}
	return true
}

// size returns the byte length a parsed line contributes, or the new
// location for .org.
func size(p parsedLine, lineNo int) (adv uint32, org int64, err error) {
	m := p.mnemonic
	switch {
	case m == "":
		return 0, -1, nil
	case m == ".org":
		v, err := strconv.ParseInt(p.rest, 0, 32)
		if err != nil || v < 0 || v > 0xFFFF {
			return 0, -1, fmt.Errorf("line %d: bad .org %q", lineNo, p.rest)
		}
		return 0, v, nil
	case segmentDirectives[m], m == ".global", m == ".extern":
		return 0, -1, nil
	case m == ".byte":
		return uint32(len(strings.Split(p.rest, ","))), -1, nil
	case m == ".word":
		return 2, -1, nil
	case m == ".space":
		v, err := strconv.ParseInt(p.rest, 0, 32)
		if err != nil || v < 0 {
			return 0, -1, fmt.Errorf("line %d: bad .space %q", lineNo, p.rest)
		}
		return uint32(v), -1, nil
	case strings.HasPrefix(m, "."):
		return 0, -1, fmt.Errorf("line %d: unknown directive %s", lineNo, m)
	default:
		return sim.InstrBytes, -1, nil
	}
}

func (a *Assembler) pass1(lines []string) error {
	var addr uint32
	for i, raw := range lines {
		lineNo := i + 1
		p := parseLine(raw, lineNo)
		for _, lbl := range p.labels {
			if _, dup := a.symbols[lbl]; dup {
				return fmt.Errorf("line %d: duplicate label %q", lineNo, lbl)
			}
			a.symbols[lbl] = uint16(addr)
		}
		adv, org, err := size(p, lineNo)
		if err != nil {
			return err
		}
		if org >= 0 {
			addr = uint32(org)
			continue
		}
		addr += adv
		if addr > 0x10000 {
			return fmt.Errorf("line %d: program exceeds addressable memory", lineNo)
		}
	}
	return nil
}

func (a *Assembler) pass2(lines []string) (*Program, error) {
	prog := &Program{Mem: make([]byte, 0x10000), Symbols: a.symbols}
	var addr uint32
	for i, raw := range lines {
		lineNo := i + 1
		p := parseLine(raw, lineNo)
		if p.mnemonic == "" {
			continue
		}
		n, err := a.encode(prog.Mem, addr, p)
		if err != nil {
			return nil, err
		}
		addr = n
	}
	return prog, nil
}

// encode writes one line's bytes at addr and returns the next address.
func (a *Assembler) encode(mem []byte, addr uint32, p parsedLine) (uint32, error) {
	m := p.mnemonic
	switch {
	case m == ".org":
		v, _ := strconv.ParseInt(p.rest, 0, 32)
		return uint32(v), nil
	case segmentDirectives[m], m == ".global", m == ".extern":
		return addr, nil
	case m == ".byte":
		for _, f := range strings.Split(p.rest, ",") {
			v, err := a.eval(strings.TrimSpace(f), p.lineNo)
			if err != nil {
				return 0, err
			}
			mem[addr] = byte(v)
			addr++
		}
		return addr, nil
	case m == ".word":
		v, err := a.eval(p.rest, p.lineNo)
		if err != nil {
			return 0, err
		}
		mem[addr] = byte(v)
		mem[addr+1] = byte(v >> 8)
		return addr + 2, nil
	case m == ".space":
		v, _ := strconv.ParseInt(p.rest, 0, 32)
		return addr + uint32(v), nil
	}

	var op, mode byte
	var val uint16
	var err error
	switch {
	case zeroOperandOps[m] != 0 || m == "NOP":
		op, mode = zeroOperandOps[m], sim.ModeNone
		if p.rest != "" {
			return 0, fmt.Errorf("line %d: %s takes no operand", p.lineNo, m)
		}
	case immediateOps[m] != 0:
		op = immediateOps[m]
		v, err := a.eval(p.rest, p.lineNo)
		if err != nil {
			return 0, err
		}
		mode, val = sim.ModeImm, uint16(v)
	case frameOps[m] != 0:
		op = frameOps[m]
		mode, val, err = a.operand(p.rest, p.lineNo)
		if err != nil {
			return 0, err
		}
		if mode != sim.ModeFP {
			return 0, fmt.Errorf("line %d: %s wants a frame operand", p.lineNo, m)
		}
	case memoryOps[m] != 0:
		op = memoryOps[m]
		mode, val, err = a.operand(p.rest, p.lineNo)
		if err != nil {
			return 0, err
		}
	case jumpOps[m] != 0:
		op = jumpOps[m]
		mode, val, err = a.operand(p.rest, p.lineNo)
		if err != nil {
			return 0, err
		}
		if mm := mode & 7; mm != sim.ModeAbs && mm != sim.ModeInd {
			return 0, fmt.Errorf("line %d: bad %s target %q", p.lineNo, m, p.rest)
		}
	default:
		return 0, fmt.Errorf("line %d: unknown instruction %q", p.lineNo, m)
	}
	mem[addr] = op
	mem[addr+1] = mode
	mem[addr+2] = byte(val)
	mem[addr+3] = byte(val >> 8)
	return addr + sim.InstrBytes, nil
}

// operand classifies a memory operand: (sym), (sym)+k, off,FP, sym,X, or a
// plain address expression.
func (a *Assembler) operand(s string, lineNo int) (byte, uint16, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, fmt.Errorf("line %d: missing operand", lineNo)
	}
	if s[0] == '(' {
		close := strings.IndexByte(s, ')')
		if close < 0 {
			return 0, 0, fmt.Errorf("line %d: unbalanced parens in %q", lineNo, s)
		}
		v, err := a.eval(s[1:close], lineNo)
		if err != nil {
			return 0, 0, err
		}
		disp := int64(0)
		if rest := strings.TrimSpace(s[close+1:]); rest != "" {
			if !strings.HasPrefix(rest, "+") {
				return 0, 0, fmt.Errorf("line %d: bad indirect suffix %q", lineNo, rest)
			}
			disp, err = strconv.ParseInt(strings.TrimSpace(rest[1:]), 0, 8)
			if err != nil || disp < 0 || disp > 31 {
				return 0, 0, fmt.Errorf("line %d: bad indirect displacement %q", lineNo, rest)
			}
		}
		return sim.ModeInd | byte(disp)<<3, uint16(v), nil
	}
	if rest, ok := strings.CutSuffix(s, ",FP"); ok {
		v, err := a.eval(rest, lineNo)
		if err != nil {
			return 0, 0, err
		}
		return sim.ModeFP, uint16(int16(v)), nil
	}
	if rest, ok := strings.CutSuffix(s, ",X"); ok {
		v, err := a.eval(rest, lineNo)
		if err != nil {
			return 0, 0, err
		}
		return sim.ModeIdx, uint16(v), nil
	}
	v, err := a.eval(s, lineNo)
	if err != nil {
		return 0, 0, err
	}
	return sim.ModeAbs, uint16(v), nil
}

// eval evaluates an operand expression: numbers, symbols, sym+k, sym-k, and
// the byte-extraction functions lo(), hi(), b2(), b3().
func (a *Assembler) eval(s string, lineNo int) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("line %d: empty expression", lineNo)
	}
	for fn, shift := range map[string]uint{"lo(": 0, "hi(": 8, "b2(": 16, "b3(": 24} {
		if strings.HasPrefix(s, fn) && strings.HasSuffix(s, ")") {
			v, err := a.eval(s[len(fn):len(s)-1], lineNo)
			if err != nil {
				return 0, err
			}
			return v >> shift & 0xFF, nil
		}
	}
	// split on the last top-level + or -, keeping a leading sign attached
	for i := len(s) - 1; i > 0; i-- {
		if c := s[i]; c == '+' || c == '-' {
			if strings.ContainsAny(s[:i], "(") {
				break
			}
			l, err := a.eval(s[:i], lineNo)
			if err != nil {
				return 0, err
			}
			r, err := a.eval(s[i+1:], lineNo)
			if err != nil {
				return 0, err
			}
			if c == '-' {
				return l - r, nil
			}
			return l + r, nil
		}
	}
	if v, err := strconv.ParseInt(s, 0, 64); err == nil {
		return v, nil
	}
	if v, ok := a.symbols[s]; ok {
		return int64(v), nil
	}
	return 0, fmt.Errorf("line %d: undefined symbol %q", lineNo, s)
}
