package config

import (
	"fmt"
	"strings"
)

type Feature int

const (
	FeatIndexedOps Feature = iota
	FeatInternStrings
	FeatAsmComments
	FeatCount
)

type Warning int

const (
	WarnLargeFrame Warning = iota
	WarnDivZero
	WarnShiftRange
	WarnPedantic
	WarnExtra
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

type Config struct {
	Features   map[Feature]Info
	Warnings   map[Warning]Info
	FeatureMap map[string]Feature
	WarningMap map[string]Warning

	ModuleName string
	Entry      string // symbol CALLed by the reset stub

	// Target properties. NEANDER-X is byte-granular with 16-bit
	// addresses; arguments are padded to the stack slot size.
	CharSize  int
	IntSize   int
	LongSize  int
	PtrSize   int
	StackSlot int
	StackTop  uint16

	// Frames larger than this trip the large-frame warning.
	FrameWarnLimit int
}

func NewConfig() *Config {
	cfg := &Config{
		Features:   make(map[Feature]Info),
		Warnings:   make(map[Warning]Info),
		FeatureMap: make(map[string]Feature),
		WarningMap: make(map[string]Warning),

		Entry:          "main",
		CharSize:       1,
		IntSize:        2,
		LongSize:       4,
		PtrSize:        2,
		StackSlot:      2,
		StackTop:       0xFE00,
		FrameWarnLimit: 120,
	}

	features := map[Feature]Info{
		FeatIndexedOps:    {"indexed-ops", true, "Use X-indexed addressing for constant-base array access."},
		FeatInternStrings: {"intern-strings", true, "Share one rodata label between identical string literals."},
		FeatAsmComments:   {"asm-comments", false, "Annotate emitted code with per-statement IR comments."},
	}

	warnings := map[Warning]Info{
		WarnLargeFrame: {"large-frame", true, "Warn when a function frame outgrows the configured limit."},
		WarnDivZero:    {"div-zero", true, "Warn on division or modulus by a constant zero."},
		WarnShiftRange: {"shift-range", true, "Warn on shifts by a constant wider than the operand."},
		WarnPedantic:   {"pedantic", false, "Issue all warnings demanded by the strict reading of the ABI."},
		WarnExtra:      {"extra", true, "Enable extra miscellaneous warnings."},
	}

	cfg.Features, cfg.Warnings = features, warnings
	for ft, info := range features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}

	return cfg
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

// SetTarget selects the target profile. Only the NEANDER-X profile exists
// today; the hook is where word sizes would switch for a second table.
func (c *Config) SetTarget(name string) error {
	switch name {
	case "", "neanderx":
		c.CharSize, c.IntSize, c.LongSize, c.PtrSize = 1, 2, 4, 2
		c.StackSlot = 2
	default:
		return fmt.Errorf("unsupported target '%s'. Supported: 'neanderx'", name)
	}
	return nil
}

func (c *Config) applyFlag(flag string) {
	trimmed := strings.TrimPrefix(flag, "-")
	isNo := strings.HasPrefix(trimmed, "Wno-") || strings.HasPrefix(trimmed, "Fno-")
	enable := !isNo

	var name string
	var isWarning bool

	switch {
	case strings.HasPrefix(trimmed, "W"):
		name = strings.TrimPrefix(trimmed, "W")
		if isNo {
			name = strings.TrimPrefix(name, "no-")
		}
		isWarning = true
	case strings.HasPrefix(trimmed, "F"):
		name = strings.TrimPrefix(trimmed, "F")
		if isNo {
			name = strings.TrimPrefix(name, "no-")
		}
	default:
		name = trimmed
		isWarning = true
	}

	if name == "all" && isWarning {
		for i := Warning(0); i < WarnCount; i++ {
			if i != WarnPedantic {
				c.SetWarning(i, enable)
			}
		}
		return
	}

	if name == "pedantic" && isWarning {
		c.SetWarning(WarnPedantic, true)
		return
	}

	if isWarning {
		if w, ok := c.WarningMap[name]; ok {
			c.SetWarning(w, enable)
		}
	} else {
		if f, ok := c.FeatureMap[name]; ok {
			c.SetFeature(f, enable)
		}
	}
}

func (c *Config) ProcessFlags(visitFlag func(fn func(name string))) {
	visitFlag(func(name string) {
		if name == "Wall" || name == "Wno-all" || name == "pedantic" {
			c.applyFlag("-" + name)
		}
	})
	visitFlag(func(name string) {
		if name != "Wall" && name != "Wno-all" && name != "pedantic" {
			c.applyFlag("-" + name)
		}
	})
}
