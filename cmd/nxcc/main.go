package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/neanderx/nxcc/pkg/asm"
	"github.com/neanderx/nxcc/pkg/cli"
	"github.com/neanderx/nxcc/pkg/config"
	"github.com/neanderx/nxcc/pkg/emit"
	"github.com/neanderx/nxcc/pkg/irtext"
	"github.com/neanderx/nxcc/pkg/neander"
	"github.com/neanderx/nxcc/pkg/sim"
	"github.com/neanderx/nxcc/pkg/util"
)

const runCycleCap = 5_000_000

func main() {
	app := cli.NewApp("nxcc")
	app.Synopsis = "[options] <input.nxir>"
	app.Description = "Code generator for the NEANDER-X single-accumulator machine. " +
		"Reads textual IR, selects instructions with a cost-driven tree matcher " +
		"and writes NEANDER-X assembly."

	var (
		outFile  string
		target   string
		run      bool
		watch    bool
		pedantic bool
		wFlags   []string
		fFlags   []string
	)

	fs := app.FlagSet
	fs.String(&outFile, "output", "o", "out.s", "file", "Place the assembly output into <file>.")
	fs.String(&target, "target", "t", "neanderx", "target", "Select the target machine profile.")
	fs.Bool(&run, "run", "r", false, "Assemble the output and run it in the simulator.")
	fs.Bool(&watch, "watch", "", false, "Stay running and recompile whenever the input changes.")
	fs.Bool(&pedantic, "pedantic", "", false, "Issue all warnings demanded by a strict reading of the ABI.")
	fs.Prefix(&wFlags, "W", "warning", "Enable a warning; -Wno-<warning> disables, -Wall toggles all.")
	fs.Prefix(&fFlags, "F", "feature", "Enable a code generation feature; -Fno-<feature> disables.")

	cfg := config.NewConfig()
	app.Sections = []cli.Section{
		warningSection(cfg),
		featureSection(cfg),
	}

	app.Action = func(args []string) error {
		if pedantic {
			cfg.SetWarning(config.WarnPedantic, true)
		}
		if err := cfg.SetTarget(target); err != nil {
			util.Fatal("%v", err)
		}
		cfg.ProcessFlags(func(fn func(name string)) {
			for _, w := range wFlags {
				fn("W" + w)
			}
			for _, f := range fFlags {
				fn("F" + f)
			}
		})
		if len(args) != 1 {
			util.Fatal("expected exactly one input file")
		}
		input := args[0]
		if watch {
			return watchLoop(cfg, input, outFile, run)
		}
		if err := compile(cfg, input, outFile, run); err != nil {
			util.Fatal("%v", err)
		}
		return nil
	}

	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

func warningSection(cfg *config.Config) cli.Section {
	sec := cli.Section{Title: "Warnings", Intro: "Toggled with -W<warning> and -Wno-<warning>."}
	for _, info := range cfg.Warnings {
		name := info.Name
		if !info.Enabled {
			name += " (off)"
		}
		sec.Entries = append(sec.Entries, [2]string{name, info.Description})
	}
	return sec
}

func featureSection(cfg *config.Config) cli.Section {
	sec := cli.Section{Title: "Features", Intro: "Toggled with -F<feature> and -Fno-<feature>."}
	for _, info := range cfg.Features {
		name := info.Name
		if !info.Enabled {
			name += " (off)"
		}
		sec.Entries = append(sec.Entries, [2]string{name, info.Description})
	}
	return sec
}

func compile(cfg *config.Config, input, outFile string, run bool) error {
	content, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	util.SetSourceFiles(nil)
	idx := util.AddSourceFile(input, string(content))
	cfg.ModuleName = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))

	prog, err := irtext.Read(cfg, string(content), idx)
	if err != nil {
		return fmt.Errorf("%s:%v", input, err)
	}
	tgt, err := neander.Target(cfg)
	if err != nil {
		return err
	}
	out, err := irtext.Compile(cfg, emit.New(cfg, tgt), prog)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outFile, out.Bytes(), 0o644); err != nil {
		return err
	}
	if !run {
		return nil
	}

	image, err := asm.Assemble(out.String())
	if err != nil {
		return err
	}
	cpu := sim.New()
	cpu.Load(image.Mem, 0, cfg.StackTop)
	if err := cpu.Run(runCycleCap); err != nil {
		return err
	}
	fmt.Printf("halted after %d cycles, AC=%d Y=%d\n", cpu.Cycles, cpu.AC, cpu.Y)
	return nil
}

// watchLoop recompiles on every write to the input file. Compile errors are
// reported and waited out instead of killing the session.
func watchLoop(cfg *config.Config, input, outFile string, run bool) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	// watch the directory: editors replace files, which drops a watch
	// registered on the file itself
	if err := w.Add(filepath.Dir(input)); err != nil {
		return err
	}

	recompile := func() {
		if err := compile(cfg, input, outFile, run); err != nil {
			fmt.Fprintf(os.Stderr, "nxcc: %v\n", err)
			return
		}
		fmt.Printf("wrote %s\n", outFile)
	}
	recompile()

	want, _ := filepath.Abs(input)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name, _ := filepath.Abs(ev.Name)
			if name != want {
				continue
			}
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) {
				recompile()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "nxcc: watch: %v\n", err)
		}
	}
}
