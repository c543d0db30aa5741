package irtext

import (
	"strings"
	"testing"

	"github.com/neanderx/nxcc/pkg/config"
	"github.com/neanderx/nxcc/pkg/emit"
	"github.com/neanderx/nxcc/pkg/rules"
)

func TestCompileReplaysItemsInOrder(t *testing.T) {
	cfg := config.NewConfig()
	tab, err := rules.Parse("%start stmt\n%instr stmt\nstmt: RETV \"RET\" 1\n", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	p := read(t, `
(module demo)
(extern putc)
(export main)
(bss buf 16)
(data tab (byte 1 2) (word 258) (addr buf) (string "hi") (space 4))
(func main (params) (locals) (RETV))
`)
	out, err := Compile(cfg, emit.New(cfg, &emit.Target{Table: tab}), p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ModuleName != "demo" {
		t.Errorf("module name = %q", cfg.ModuleName)
	}

	text := out.String()
	wants := []string{
		"; demo",
		".extern _putc",
		".global _main",
		".bss",
		"_buf:",
		".space 16",
		".data",
		"_tab:",
		".byte 1",
		".byte 2",
		".word 258",
		".word _buf",
		".byte 104,105",
		".byte 0",
		".space 4",
		".text",
		"_main:",
		"RET",
	}
	at := 0
	for _, w := range wants {
		i := strings.Index(text[at:], w)
		if i < 0 {
			t.Fatalf("missing or out of order: %q after offset %d in:\n%s", w, at, text)
		}
		at += i + len(w)
	}
}

func TestCompileRejectsUncoverableFunction(t *testing.T) {
	cfg := config.NewConfig()
	tab, err := rules.Parse("%start stmt\n%instr stmt\nstmt: RETV \"RET\" 1\n", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	p := read(t, "(func f (params) (locals) (RETI1 (CNSTI1 1)))")
	_, err = Compile(cfg, emit.New(cfg, &emit.Target{Table: tab}), p)
	if err == nil || !strings.Contains(err.Error(), "no rule derives") {
		t.Errorf("got %v", err)
	}
}
