// Package sim is a NEANDER-X machine simulator. It executes the uniform
// 4-byte instruction encoding the assembler produces: opcode, addressing
// mode (with a small displacement packed in the high bits), and a 16-bit
// operand, little-endian.
package sim

import "fmt"

// Opcodes.
const (
	OpNOP byte = iota
	OpHLT
	OpLDA
	OpSTA
	OpLDI
	OpADD
	OpADC
	OpSUB
	OpSBC
	OpAND
	OpOR
	OpXOR
	OpCMP
	OpNOT
	OpNEG
	OpSHL
	OpSHR
	OpASR
	OpROL
	OpROR
	OpINC
	OpDEC
	OpTAX
	OpTXA
	OpTAY
	OpTYA
	OpPUSH
	OpPOP
	OpPUSHFP
	OpPOPFP
	OpTSF
	OpTFS
	OpADDSP
	OpLFA
	OpCALL
	OpRET
	OpJMP
	OpJZ
	OpJNZ
	OpJN
	OpJC
	OpJNC
	OpJLE
	OpJGT
	OpJGE
	OpJBE
	OpJA
	OpMUL
	OpDIV
	OpMOD
)

// Addressing modes. The mode byte packs the mode in its low three bits and
// an indirect displacement in the remaining five.
const (
	ModeNone byte = iota
	ModeImm
	ModeAbs
	ModeFP
	ModeIdx
	ModeInd
)

const InstrBytes = 4

// CPU is one machine instance. The accumulator AC carries every value;
// X and Y are transfer targets only. SP and FP are 16-bit; the stack grows
// down.
type CPU struct {
	Mem [65536]byte

	AC, X, Y   byte
	PC, SP, FP uint16
	N, Z, C    bool

	Halted bool
	Cycles int
}

func New() *CPU { return &CPU{} }

// Load copies a memory image and resets execution state. The stack pointer
// and frame pointer start at stackTop; execution starts at pc.
func (c *CPU) Load(image []byte, pc, stackTop uint16) {
	copy(c.Mem[:], image)
	c.PC = pc
	c.SP = stackTop
	c.FP = stackTop
	c.AC, c.X, c.Y = 0, 0, 0
	c.N, c.Z, c.C = false, false, false
	c.Halted = false
	c.Cycles = 0
}

// Mem16 reads a little-endian word.
func (c *CPU) Mem16(addr uint16) uint16 {
	return uint16(c.Mem[addr]) | uint16(c.Mem[addr+1])<<8
}

// Mem32 reads a little-endian 4-byte value.
func (c *CPU) Mem32(addr uint16) uint32 {
	return uint32(c.Mem16(addr)) | uint32(c.Mem16(addr+2))<<16
}

func (c *CPU) setMem16(addr, v uint16) {
	c.Mem[addr] = byte(v)
	c.Mem[addr+1] = byte(v >> 8)
}

func (c *CPU) push(v byte) {
	c.SP--
	c.Mem[c.SP] = v
}

func (c *CPU) pop() byte {
	v := c.Mem[c.SP]
	c.SP++
	return v
}

func (c *CPU) push16(v uint16) {
	c.SP -= 2
	c.setMem16(c.SP, v)
}

func (c *CPU) pop16() uint16 {
	v := c.Mem16(c.SP)
	c.SP += 2
	return v
}

func (c *CPU) setNZ(v byte) byte {
	c.N = v&0x80 != 0
	c.Z = v == 0
	return v
}

// ea resolves the effective address for memory-operand instructions.
func (c *CPU) ea(mode byte, operand uint16) (uint16, error) {
	disp := uint16(mode >> 3)
	switch mode & 7 {
	case ModeAbs:
		return operand, nil
	case ModeFP:
		return c.FP + operand, nil // operand is two's-complement
	case ModeIdx:
		return operand + uint16(c.X), nil
	case ModeInd:
		return c.Mem16(operand) + disp, nil
	}
	return 0, fmt.Errorf("bad addressing mode %d at PC %04X", mode&7, c.PC)
}

// Step executes one instruction.
func (c *CPU) Step() error {
	if c.Halted {
		return nil
	}
	op := c.Mem[c.PC]
	mode := c.Mem[c.PC+1]
	operand := c.Mem16(c.PC + 2)
	c.PC += InstrBytes
	c.Cycles++

	load := func() (byte, error) {
		if mode&7 == ModeImm {
			return byte(operand), nil
		}
		a, err := c.ea(mode, operand)
		if err != nil {
			return 0, err
		}
		return c.Mem[a], nil
	}

	switch op {
	case OpNOP:
	case OpHLT:
		c.Halted = true
	case OpLDA, OpLDI:
		v, err := load()
		if err != nil {
			return err
		}
		c.AC = c.setNZ(v)
	case OpSTA:
		a, err := c.ea(mode, operand)
		if err != nil {
			return err
		}
		c.Mem[a] = c.AC
	case OpADD, OpADC:
		v, err := load()
		if err != nil {
			return err
		}
		carry := uint16(0)
		if op == OpADC && c.C {
			carry = 1
		}
		sum := uint16(c.AC) + uint16(v) + carry
		c.C = sum > 0xFF
		c.AC = c.setNZ(byte(sum))
	case OpSUB, OpSBC:
		v, err := load()
		if err != nil {
			return err
		}
		borrow := uint16(0)
		if op == OpSBC && c.C {
			borrow = 1
		}
		diff := uint16(c.AC) - uint16(v) - borrow
		c.C = diff > 0xFF // borrow out
		c.AC = c.setNZ(byte(diff))
	case OpCMP:
		v, err := load()
		if err != nil {
			return err
		}
		diff := uint16(c.AC) - uint16(v)
		c.C = diff > 0xFF
		c.setNZ(byte(diff))
	case OpAND:
		v, err := load()
		if err != nil {
			return err
		}
		c.AC = c.setNZ(c.AC & v)
	case OpOR:
		v, err := load()
		if err != nil {
			return err
		}
		c.AC = c.setNZ(c.AC | v)
	case OpXOR:
		v, err := load()
		if err != nil {
			return err
		}
		c.AC = c.setNZ(c.AC ^ v)
	case OpNOT:
		c.AC = c.setNZ(^c.AC)
	case OpNEG:
		c.AC = c.setNZ(-c.AC)
	case OpSHL:
		c.C = c.AC&0x80 != 0
		c.AC = c.setNZ(c.AC << 1)
	case OpSHR:
		c.C = c.AC&1 != 0
		c.AC = c.setNZ(c.AC >> 1)
	case OpASR:
		c.C = c.AC&1 != 0
		c.AC = c.setNZ(c.AC>>1 | c.AC&0x80)
	case OpROL:
		in := byte(0)
		if c.C {
			in = 1
		}
		c.C = c.AC&0x80 != 0
		c.AC = c.setNZ(c.AC<<1 | in)
	case OpROR:
		in := byte(0)
		if c.C {
			in = 0x80
		}
		c.C = c.AC&1 != 0
		c.AC = c.setNZ(c.AC>>1 | in)
	case OpINC:
		c.AC = c.setNZ(c.AC + 1)
	case OpDEC:
		c.AC = c.setNZ(c.AC - 1)
	case OpTAX:
		c.X = c.setNZ(c.AC)
	case OpTXA:
		c.AC = c.setNZ(c.X)
	case OpTAY:
		c.Y = c.setNZ(c.AC)
	case OpTYA:
		c.AC = c.setNZ(c.Y)
	case OpPUSH:
		c.push(c.AC)
	case OpPOP:
		c.AC = c.setNZ(c.pop())
	case OpPUSHFP:
		c.push16(c.FP)
	case OpPOPFP:
		c.FP = c.pop16()
	case OpTSF:
		c.FP = c.SP
	case OpTFS:
		c.SP = c.FP
	case OpADDSP:
		c.SP += operand // two's-complement
	case OpLFA:
		a := c.FP + operand
		c.Y = byte(a >> 8)
		c.AC = c.setNZ(byte(a))
	case OpCALL:
		a, err := c.ea(mode, operand)
		if err != nil {
			return err
		}
		c.push16(c.PC)
		c.PC = a
	case OpRET:
		c.PC = c.pop16()
	case OpJMP, OpJZ, OpJNZ, OpJN, OpJC, OpJNC, OpJLE, OpJGT, OpJGE, OpJBE, OpJA:
		taken := false
		switch op {
		case OpJMP:
			taken = true
		case OpJZ:
			taken = c.Z
		case OpJNZ:
			taken = !c.Z
		case OpJN:
			taken = c.N
		case OpJC:
			taken = c.C
		case OpJNC:
			taken = !c.C
		case OpJLE:
			taken = c.N || c.Z
		case OpJGT:
			taken = !c.N && !c.Z
		case OpJGE:
			taken = !c.N
		case OpJBE:
			taken = c.C || c.Z
		case OpJA:
			taken = !c.C && !c.Z
		}
		if taken {
			a, err := c.ea(mode, operand)
			if err != nil {
				return err
			}
			c.PC = a
		}
	case OpMUL:
		p := uint16(c.AC) * uint16(c.X)
		c.Y = byte(p >> 8)
		c.AC = c.setNZ(byte(p))
	case OpDIV:
		if c.X == 0 {
			c.Y = c.AC
			c.AC = c.setNZ(0)
			break
		}
		q, r := c.AC/c.X, c.AC%c.X
		c.Y = r
		c.AC = c.setNZ(q)
	case OpMOD:
		if c.X == 0 {
			c.setNZ(c.AC)
			break
		}
		c.AC = c.setNZ(c.AC % c.X)
	default:
		return fmt.Errorf("illegal opcode %d at PC %04X", op, c.PC-InstrBytes)
	}
	return nil
}

// Run steps until HLT or the cycle cap, whichever first. Exceeding the cap
// is an error so runaway programs fail loudly.
func (c *CPU) Run(maxCycles int) error {
	for !c.Halted {
		if c.Cycles >= maxCycles {
			return fmt.Errorf("no HLT after %d cycles at PC %04X", c.Cycles, c.PC)
		}
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}
