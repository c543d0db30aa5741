package neander

import (
	"strings"
	"testing"

	"github.com/neanderx/nxcc/pkg/asm"
	"github.com/neanderx/nxcc/pkg/config"
	"github.com/neanderx/nxcc/pkg/emit"
	"github.com/neanderx/nxcc/pkg/irtext"
	"github.com/neanderx/nxcc/pkg/sim"
	"github.com/neanderx/nxcc/pkg/util"
)

func compileSource(t *testing.T, cfg *config.Config, src string) string {
	t.Helper()
	util.SetSourceFiles(nil)
	idx := util.AddSourceFile("test.nxir", src)
	prog, err := irtext.Read(cfg, src, idx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	tgt, err := Target(cfg)
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	out, err := irtext.Compile(cfg, emit.New(cfg, tgt), prog)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return out.String()
}

func runConfigured(t *testing.T, cfg *config.Config, src string) *sim.CPU {
	t.Helper()
	text := compileSource(t, cfg, src)
	prog, err := asm.Assemble(text)
	if err != nil {
		t.Fatalf("assemble: %v\n%s", err, text)
	}
	cpu := sim.New()
	cpu.Load(prog.Mem[:], 0, cfg.StackTop)
	if err := cpu.Run(1_000_000); err != nil {
		t.Fatalf("run: %v\n%s", err, text)
	}
	return cpu
}

func run(t *testing.T, src string) *sim.CPU {
	t.Helper()
	cfg := config.NewConfig()
	if err := cfg.SetTarget("neanderx"); err != nil {
		t.Fatal(err)
	}
	cfg.ModuleName = "test"
	return runConfigured(t, cfg, src)
}

func TestSubtractGlobals(t *testing.T) {
	cpu := run(t, `
(module t)
(data a (byte 10))
(data b (byte 3))
(func main (params) (locals)
  (RETI1 (SUBI1 (INDIRI1 (ADDRGP2 a)) (INDIRI1 (ADDRGP2 b)))))
`)
	if cpu.AC != 7 {
		t.Errorf("a-b: AC = %d, want 7", cpu.AC)
	}
}

func TestAddLocalToItself(t *testing.T) {
	cpu := run(t, `
(module t)
(func main (params) (locals (x 1))
  (ASGNI1 (ADDRLP2 x) (CNSTI1 4))
  (RETI1 (ADDI1 (INDIRI1 (ADDRLP2 x)) (INDIRI1 (ADDRLP2 x)))))
`)
	if cpu.AC != 8 {
		t.Errorf("x+x: AC = %d, want 8", cpu.AC)
	}
}

func TestCharParameters(t *testing.T) {
	// Arguments go out rightmost first; each char argument is padded to a
	// full stack slot, so the callee sees a at FP+4 and b at FP+6.
	cpu := run(t, `
(module t)
(func add (params (a 1) (b 1)) (locals)
  (RETI1 (ADDI1 (INDIRI1 (ADDRFP2 a)) (INDIRI1 (ADDRFP2 b)))))
(func main (params) (locals)
  (ARGI1 (CNSTI1 3))
  (ARGI1 (CNSTI1 5))
  (RETI1 (CALLI1 4 (ADDRGP2 add))))
`)
	if cpu.AC != 8 {
		t.Errorf("add(5,3): AC = %d, want 8", cpu.AC)
	}
}

func TestRecursiveFactorial(t *testing.T) {
	// The call result is carried across the multiply in a temporary; its
	// slot lives in the frame, so five live activations never collide.
	cpu := run(t, `
(module t)
(func fact (params (n 1)) (locals)
  (GTI1 L1 (INDIRI1 (ADDRFP2 n)) (CNSTI1 1))
  (RETI1 (CNSTI1 1))
  (LABELV L1)
  (ARGI1 (SUBI1 (INDIRI1 (ADDRFP2 n)) (CNSTI1 1)))
  (ASGNI1 (VREGP2 t) (CALLI1 2 (ADDRGP2 fact)))
  (RETI1 (MULI1 (INDIRI1 (ADDRFP2 n)) (INDIRI1 (VREGP2 t)))))
(func main (params) (locals)
  (ARGI1 (CNSTI1 5))
  (RETI1 (CALLI1 2 (ADDRGP2 fact))))
`)
	if cpu.AC != 120 {
		t.Errorf("fact(5): AC = %d, want 120", cpu.AC)
	}
}

func TestWordAddCarries(t *testing.T) {
	cpu := run(t, `
(module t)
(func main (params) (locals)
  (RETI2 (ADDI2 (CNSTI2 255) (CNSTI2 1))))
`)
	if cpu.Y != 1 || cpu.AC != 0 {
		t.Errorf("0x00FF+0x0001: Y:AC = %02X:%02X, want 01:00", cpu.Y, cpu.AC)
	}
}

func TestWordSubtractBorrows(t *testing.T) {
	cpu := run(t, `
(module t)
(func main (params) (locals)
  (RETI2 (SUBI2 (CNSTI2 256) (CNSTI2 1))))
`)
	if cpu.Y != 0 || cpu.AC != 255 {
		t.Errorf("0x0100-0x0001: Y:AC = %02X:%02X, want 00:FF", cpu.Y, cpu.AC)
	}
}

func TestWordMultiply(t *testing.T) {
	cpu := run(t, `
(module t)
(func main (params) (locals)
  (RETU2 (MULU2 (CNSTU2 123) (CNSTU2 45))))
`)
	got := uint16(cpu.Y)<<8 | uint16(cpu.AC)
	if got != 5535 {
		t.Errorf("123*45 = %d, want 5535", got)
	}
}

func TestWordDivideAndModulus(t *testing.T) {
	cpu := run(t, `
(module t)
(func main (params) (locals)
  (RETU2 (DIVU2 (CNSTU2 5535) (CNSTU2 45))))
`)
	if got := uint16(cpu.Y)<<8 | uint16(cpu.AC); got != 123 {
		t.Errorf("5535/45 = %d, want 123", got)
	}

	cpu = run(t, `
(module t)
(func main (params) (locals)
  (RETU2 (MODU2 (CNSTU2 1000) (CNSTU2 47))))
`)
	if got := uint16(cpu.Y)<<8 | uint16(cpu.AC); got != 1000%47 {
		t.Errorf("1000%%47 = %d, want %d", got, 1000%47)
	}
}

func TestSignedWordDivision(t *testing.T) {
	cpu := run(t, `
(module t)
(func main (params) (locals)
  (RETI2 (DIVI2 (CNSTI2 -7) (CNSTI2 2))))
`)
	if got := int16(uint16(cpu.Y)<<8 | uint16(cpu.AC)); got != -3 {
		t.Errorf("-7/2 = %d, want -3", got)
	}

	cpu = run(t, `
(module t)
(func main (params) (locals)
  (RETI2 (MODI2 (CNSTI2 -7) (CNSTI2 2))))
`)
	if got := int16(uint16(cpu.Y)<<8 | uint16(cpu.AC)); got != -1 {
		t.Errorf("-7%%2 = %d, want -1", got)
	}
}

func TestSignedByteDivision(t *testing.T) {
	cpu := run(t, `
(module t)
(func main (params) (locals)
  (RETI1 (DIVI1 (CNSTI1 -7) (CNSTI1 2))))
`)
	if got := int8(cpu.AC); got != -3 {
		t.Errorf("-7/2 = %d, want -3", got)
	}
}

func TestUnsignedDivideByZero(t *testing.T) {
	cpu := run(t, `
(module t)
(func main (params) (locals)
  (RETU1 (DIVU1 (CNSTU1 5) (CNSTU1 0))))
`)
	if cpu.AC != 0 {
		t.Errorf("5/0: AC = %d, want 0", cpu.AC)
	}

	cpu = run(t, `
(module t)
(func main (params) (locals)
  (RETU2 (DIVU2 (CNSTU2 500) (CNSTU2 0))))
`)
	if got := uint16(cpu.Y)<<8 | uint16(cpu.AC); got != 0 {
		t.Errorf("500/0 = %d, want 0", got)
	}
}

func TestShifts(t *testing.T) {
	// Shift by constant one is the inline SHL/ROL pair.
	cpu := run(t, `
(module t)
(func main (params) (locals)
  (RETU2 (LSHU2 (CNSTU2 384) (CNSTU2 1))))
`)
	if got := uint16(cpu.Y)<<8 | uint16(cpu.AC); got != 768 {
		t.Errorf("0x0180<<1 = %#04x, want 0x0300", got)
	}

	// Any other count goes through the runtime loop.
	cpu = run(t, `
(module t)
(func main (params) (locals)
  (RETU2 (LSHU2 (CNSTU2 3) (CNSTU2 5))))
`)
	if got := uint16(cpu.Y)<<8 | uint16(cpu.AC); got != 96 {
		t.Errorf("3<<5 = %d, want 96", got)
	}

	cpu = run(t, `
(module t)
(func main (params) (locals)
  (RETI2 (RSHI2 (CNSTI2 -16) (CNSTI2 2))))
`)
	if got := int16(uint16(cpu.Y)<<8 | uint16(cpu.AC)); got != -4 {
		t.Errorf("-16>>2 = %d, want -4", got)
	}
}

func TestByteShiftLoop(t *testing.T) {
	cpu := run(t, `
(module t)
(func main (params) (locals (n 1))
  (ASGNI1 (ADDRLP2 n) (CNSTI1 3))
  (RETU1 (LSHU1 (CNSTU1 5) (INDIRI1 (ADDRLP2 n)))))
`)
	if cpu.AC != 40 {
		t.Errorf("5<<3: AC = %d, want 40", cpu.AC)
	}
}

func TestConversions(t *testing.T) {
	cpu := run(t, `
(module t)
(func main (params) (locals)
  (RETI2 (CVTI2 1 I (CNSTI1 -6))))
`)
	if got := int16(uint16(cpu.Y)<<8 | uint16(cpu.AC)); got != -6 {
		t.Errorf("sign-extend -6: got %d", got)
	}

	cpu = run(t, `
(module t)
(func main (params) (locals)
  (RETU2 (CVTU2 1 U (CNSTU1 200))))
`)
	if got := uint16(cpu.Y)<<8 | uint16(cpu.AC); got != 200 {
		t.Errorf("zero-extend 200: got %d", got)
	}

	cpu = run(t, `
(module t)
(func main (params) (locals)
  (RETI1 (CVTI1 2 I (CNSTI2 511))))
`)
	if cpu.AC != 255 {
		t.Errorf("truncate 511: AC = %d, want 255", cpu.AC)
	}
}

func TestWhileLoopSum(t *testing.T) {
	cpu := run(t, `
(module t)
(func main (params) (locals (sum 1) (i 1))
  (ASGNI1 (ADDRLP2 sum) (CNSTI1 0))
  (ASGNI1 (ADDRLP2 i) (CNSTI1 1))
  (LABELV top)
  (GTI1 done (INDIRI1 (ADDRLP2 i)) (CNSTI1 5))
  (ASGNI1 (ADDRLP2 sum) (ADDI1 (INDIRI1 (ADDRLP2 sum)) (INDIRI1 (ADDRLP2 i))))
  (ASGNI1 (ADDRLP2 i) (ADDI1 (INDIRI1 (ADDRLP2 i)) (CNSTI1 1)))
  (JUMPV top)
  (LABELV done)
  (RETI1 (INDIRI1 (ADDRLP2 sum))))
`)
	if cpu.AC != 15 {
		t.Errorf("sum 1..5: AC = %d, want 15", cpu.AC)
	}
}

func TestStoreThroughPointer(t *testing.T) {
	cpu := run(t, `
(module t)
(bss buf 4)
(func main (params) (locals (p 2))
  (ASGNP2 (ADDRLP2 p) (ADDRGP2 buf))
  (ASGNI1 (INDIRP2 (ADDRLP2 p)) (CNSTI1 42))
  (RETI1 (INDIRI1 (ADDRGP2 buf))))
`)
	if cpu.AC != 42 {
		t.Errorf("*p = 42: AC = %d, want 42", cpu.AC)
	}
}

func TestWordGlobalLoad(t *testing.T) {
	cpu := run(t, `
(module t)
(data w (word 258))
(func main (params) (locals)
  (RETU2 (INDIRU2 (ADDRGP2 w))))
`)
	if got := uint16(cpu.Y)<<8 | uint16(cpu.AC); got != 258 {
		t.Errorf("load w: got %d, want 258", got)
	}
}

func TestLongAddPropagatesCarry(t *testing.T) {
	// 0x00FFFFFF + 1 = 0x01000000; the interesting byte is the highest one.
	cpu := run(t, `
(module t)
(bss g 4)
(func main (params) (locals)
  (ASGNI4 (ADDRGP2 g) (ADDI4 (CNSTI4 16777215) (CNSTI4 1)))
  (RETU1 (INDIRU1 (ADDP2 (ADDRGP2 g) (CNSTP2 3)))))
`)
	if cpu.AC != 1 {
		t.Errorf("byte 3 of 0x00FFFFFF+1: AC = %d, want 1", cpu.AC)
	}
}

func TestLongCompare(t *testing.T) {
	cpu := run(t, `
(module t)
(func main (params) (locals)
  (LTI4 yes (CNSTI4 -100000) (CNSTI4 3))
  (RETI1 (CNSTI1 0))
  (LABELV yes)
  (RETI1 (CNSTI1 1)))
`)
	if cpu.AC != 1 {
		t.Errorf("-100000 < 3: AC = %d, want 1", cpu.AC)
	}
}

func TestUnsignedCompareUsesBorrow(t *testing.T) {
	// 0x80 is above 0x7F unsigned even though it is negative signed.
	cpu := run(t, `
(module t)
(func main (params) (locals)
  (GTU1 yes (CNSTU1 128) (CNSTU1 127))
  (RETI1 (CNSTI1 0))
  (LABELV yes)
  (RETI1 (CNSTI1 1)))
`)
	if cpu.AC != 1 {
		t.Errorf("128 >u 127: AC = %d, want 1", cpu.AC)
	}

	cpu = run(t, `
(module t)
(func main (params) (locals)
  (LTI1 yes (CNSTI1 -3) (CNSTI1 2))
  (RETI1 (CNSTI1 0))
  (LABELV yes)
  (RETI1 (CNSTI1 1)))
`)
	if cpu.AC != 1 {
		t.Errorf("-3 <s 2: AC = %d, want 1", cpu.AC)
	}
}

func TestIndexedArrayAccess(t *testing.T) {
	src := `
(module t)
(data tab (byte 10 20 30 40))
(func main (params) (locals (i 1))
  (ASGNI1 (ADDRLP2 i) (CNSTI1 2))
  (ASGNU1 (ADDP2 (ADDRGP2 tab) (CVTP2 1 U (INDIRU1 (ADDRLP2 i)))) (CNSTU1 99))
  (RETU1 (INDIRU1 (ADDP2 (ADDRGP2 tab) (CVTP2 1 U (INDIRU1 (ADDRLP2 i)))))))
`
	cpu := run(t, src)
	if cpu.AC != 99 {
		t.Errorf("tab[2] after store: AC = %d, want 99", cpu.AC)
	}

	// The pointer-arithmetic fallback must agree when the fast path is off.
	cfg := config.NewConfig()
	if err := cfg.SetTarget("neanderx"); err != nil {
		t.Fatal(err)
	}
	cfg.SetFeature(config.FeatIndexedOps, false)
	cpu = runConfigured(t, cfg, src)
	if cpu.AC != 99 {
		t.Errorf("tab[2] without indexed ops: AC = %d, want 99", cpu.AC)
	}
}

func TestIndexedFeatureChangesCode(t *testing.T) {
	src := `
(module t)
(data tab (byte 1 2 3))
(func main (params) (locals)
  (RETU1 (INDIRU1 (ADDP2 (ADDRGP2 tab) (CNSTP2 1)))))
`
	cfg := config.NewConfig()
	if err := cfg.SetTarget("neanderx"); err != nil {
		t.Fatal(err)
	}
	on := compileSource(t, cfg, src)
	if !strings.Contains(on, "LDA _tab,X") {
		t.Errorf("indexed-ops on: no X-indexed load emitted:\n%s", on)
	}

	cfg.SetFeature(config.FeatIndexedOps, false)
	off := compileSource(t, cfg, src)
	if strings.Contains(off, ",X") {
		t.Errorf("indexed-ops off: X-indexed code still emitted:\n%s", off)
	}
}

func TestVoidCallAndGlobalSideEffect(t *testing.T) {
	cpu := run(t, `
(module t)
(bss flag 1)
(func poke (params) (locals)
  (ASGNI1 (ADDRGP2 flag) (CNSTI1 77))
  (RETV))
(func main (params) (locals)
  (CALLV 0 (ADDRGP2 poke))
  (RETI1 (INDIRI1 (ADDRGP2 flag))))
`)
	if cpu.AC != 77 {
		t.Errorf("after poke(): AC = %d, want 77", cpu.AC)
	}
}

func TestCallThroughFunctionPointer(t *testing.T) {
	cpu := run(t, `
(module t)
(data fp (addr nine))
(func nine (params) (locals)
  (RETI1 (CNSTI1 9)))
(func main (params) (locals)
  (RETI1 (CALLI1 0 (INDIRP2 (ADDRGP2 fp)))))
`)
	if cpu.AC != 9 {
		t.Errorf("(*fp)(): AC = %d, want 9", cpu.AC)
	}
}

func TestLongReturnValue(t *testing.T) {
	// 4-byte results travel through the return staging area and are
	// consumed by the caller before anything can clobber it.
	cpu := run(t, `
(module t)
(bss g 4)
(func big (params) (locals)
  (RETI4 (CNSTI4 16909060)))
(func main (params) (locals)
  (ASGNI4 (ADDRGP2 g) (CALLI4 0 (ADDRGP2 big)))
  (RETU1 (INDIRU1 (ADDP2 (ADDRGP2 g) (CNSTP2 3)))))
`)
	if cpu.AC != 1 {
		t.Errorf("byte 3 of 0x01020304: AC = %d, want 1", cpu.AC)
	}
}

func TestNegateAndComplement(t *testing.T) {
	cpu := run(t, `
(module t)
(func main (params) (locals)
  (RETI2 (NEGI2 (CNSTI2 1234))))
`)
	if got := int16(uint16(cpu.Y)<<8 | uint16(cpu.AC)); got != -1234 {
		t.Errorf("-1234: got %d", got)
	}

	cpu = run(t, `
(module t)
(func main (params) (locals)
  (RETU1 (BCOMU1 (CNSTU1 15))))
`)
	if cpu.AC != 0xF0 {
		t.Errorf("^0x0F: AC = %#02x, want 0xF0", cpu.AC)
	}
}

func TestPrologueAndFrameShape(t *testing.T) {
	cfg := config.NewConfig()
	if err := cfg.SetTarget("neanderx"); err != nil {
		t.Fatal(err)
	}
	text := compileSource(t, cfg, `
(module t)
(func f (params (a 1) (b 2)) (locals (x 2) (y 1))
  (RETI1 (INDIRI1 (ADDRFP2 a))))
`)
	for _, want := range []string{
		"_f:",
		"PUSH_FP",
		"TSF",
		"ADDSP -4", // x padded to 2, y padded to 2
		"LDA 4,FP", // first parameter
		"TFS",
		"POP_FP",
		"RET",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
}
