package sim_test

import (
	"strings"
	"testing"

	"github.com/neanderx/nxcc/pkg/asm"
	"github.com/neanderx/nxcc/pkg/sim"
)

func runSrc(t *testing.T, src string) *sim.CPU {
	t.Helper()
	prog, err := asm.Assemble(".org 0\n" + src)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	cpu := sim.New()
	cpu.Load(prog.Mem, 0, 0xFE00)
	if err := cpu.Run(10_000); err != nil {
		t.Fatalf("run: %v", err)
	}
	return cpu
}

func TestAddCarryChain(t *testing.T) {
	cpu := runSrc(t, `
    LDI 200
    ADD k
    HLT
k:  .byte 100
`)
	if cpu.AC != 44 {
		t.Errorf("200+100: AC = %d, want 44", cpu.AC)
	}
	if !cpu.C {
		t.Error("200+100: carry not set")
	}

	// LDI preserves carry, so ADC picks it up for the next byte.
	cpu = runSrc(t, `
    LDI 200
    ADD k
    LDI 0
    ADC zero
    HLT
k:    .byte 100
zero: .byte 0
`)
	if cpu.AC != 1 {
		t.Errorf("high byte after carry: AC = %d, want 1", cpu.AC)
	}
}

func TestSubBorrow(t *testing.T) {
	cpu := runSrc(t, `
    LDI 5
    SUB k
    HLT
k:  .byte 10
`)
	if cpu.AC != 251 {
		t.Errorf("5-10: AC = %d, want 251", cpu.AC)
	}
	if !cpu.C {
		t.Error("5-10: borrow not set")
	}

	cpu = runSrc(t, `
    LDI 10
    SUB k
    HLT
k:  .byte 5
`)
	if cpu.C {
		t.Error("10-5: borrow set")
	}
}

func TestShiftAndRotateCarry(t *testing.T) {
	cpu := runSrc(t, `
    LDI 129
    SHL
    ROL
    HLT
`)
	// SHL: 0x81 -> 0x02, C=1; ROL shifts the carry back in: 0x05, C=0.
	if cpu.AC != 5 {
		t.Errorf("SHL;ROL of 0x81: AC = %#02x, want 0x05", cpu.AC)
	}
	if cpu.C {
		t.Error("SHL;ROL of 0x81: carry still set")
	}

	cpu = runSrc(t, `
    LDI 1
    SHR
    ROR
    HLT
`)
	// SHR: 0x01 -> 0x00, C=1; ROR brings it in at the top: 0x80.
	if cpu.AC != 0x80 {
		t.Errorf("SHR;ROR of 0x01: AC = %#02x, want 0x80", cpu.AC)
	}
}

func TestArithmeticShiftKeepsSign(t *testing.T) {
	cpu := runSrc(t, `
    LDI 130
    ASR
    HLT
`)
	if cpu.AC != 193 {
		t.Errorf("ASR of 0x82: AC = %#02x, want 0xC1", cpu.AC)
	}
}

func TestStackPushPop(t *testing.T) {
	cpu := runSrc(t, `
    LDI 7
    PUSH
    LDI 0
    POP
    HLT
`)
	if cpu.AC != 7 {
		t.Errorf("PUSH/POP: AC = %d, want 7", cpu.AC)
	}
	if cpu.SP != 0xFE00 {
		t.Errorf("SP = %04X, want FE00", cpu.SP)
	}
}

func TestCallAndReturn(t *testing.T) {
	cpu := runSrc(t, `
    CALL sub
    HLT
sub:
    LDI 33
    RET
`)
	if cpu.AC != 33 {
		t.Errorf("CALL/RET: AC = %d, want 33", cpu.AC)
	}
	if cpu.SP != 0xFE00 {
		t.Errorf("SP = %04X after return, want FE00", cpu.SP)
	}
}

func TestFrameRelativeAddressing(t *testing.T) {
	cpu := runSrc(t, `
    PUSH_FP
    TSF
    ADDSP -2
    LDI 9
    STA -1,FP
    LDI 0
    LDA -1,FP
    HLT
`)
	if cpu.AC != 9 {
		t.Errorf("FP-relative store/load: AC = %d, want 9", cpu.AC)
	}
	if cpu.FP != 0xFE00-2 {
		t.Errorf("FP = %04X, want %04X", cpu.FP, 0xFE00-2)
	}
}

func TestLoadFrameAddress(t *testing.T) {
	cpu := runSrc(t, `
    PUSH_FP
    TSF
    LFA -4,FP
    HLT
`)
	got := uint16(cpu.Y)<<8 | uint16(cpu.AC)
	if got != cpu.FP-4 {
		t.Errorf("LFA -4: Y:AC = %04X, want %04X", got, cpu.FP-4)
	}
}

func TestIndirectWithDisplacement(t *testing.T) {
	cpu := runSrc(t, `
    LDA (ptr)+1
    HLT
ptr:  .word data
data: .byte 11,22
`)
	if cpu.AC != 22 {
		t.Errorf("(ptr)+1: AC = %d, want 22", cpu.AC)
	}
}

func TestIndexedAddressing(t *testing.T) {
	cpu := runSrc(t, `
    LDI 2
    TAX
    LDA tab,X
    HLT
tab: .byte 5,6,7
`)
	if cpu.AC != 7 {
		t.Errorf("tab,X: AC = %d, want 7", cpu.AC)
	}
}

func TestMultiply(t *testing.T) {
	cpu := runSrc(t, `
    LDI 3
    TAX
    LDI 200
    MUL
    HLT
`)
	if got := uint16(cpu.Y)<<8 | uint16(cpu.AC); got != 600 {
		t.Errorf("200*3 = %d, want 600", got)
	}
}

func TestDivideByZero(t *testing.T) {
	cpu := runSrc(t, `
    LDI 0
    TAX
    LDI 9
    DIV
    HLT
`)
	if cpu.AC != 0 || cpu.Y != 9 {
		t.Errorf("9/0: AC=%d Y=%d, want AC=0 Y=9", cpu.AC, cpu.Y)
	}

	cpu = runSrc(t, `
    LDI 0
    TAX
    LDI 9
    MOD
    HLT
`)
	if cpu.AC != 9 {
		t.Errorf("9%%0: AC = %d, want 9", cpu.AC)
	}
}

func TestStorePreservesFlags(t *testing.T) {
	cpu := runSrc(t, `
    LDI 0
    STA k
    JZ ok
    LDI 1
    HLT
ok: LDI 42
    HLT
k:  .byte 0
`)
	if cpu.AC != 42 {
		t.Errorf("JZ after STA: AC = %d, want 42", cpu.AC)
	}
}

func TestDecrementWraps(t *testing.T) {
	cpu := runSrc(t, `
    LDI 0
    DEC
    HLT
`)
	if cpu.AC != 255 || !cpu.N {
		t.Errorf("0-1: AC=%d N=%v, want 255 true", cpu.AC, cpu.N)
	}
}

func TestRunCycleCap(t *testing.T) {
	prog, err := asm.Assemble(".org 0\nloop: JMP loop\n")
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	cpu := sim.New()
	cpu.Load(prog.Mem, 0, 0xFE00)
	err = cpu.Run(10)
	if err == nil {
		t.Fatal("infinite loop terminated")
	}
	if !strings.Contains(err.Error(), "no HLT") {
		t.Errorf("unexpected error: %v", err)
	}
}
