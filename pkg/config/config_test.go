package config

import (
	"strings"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := NewConfig()
	if !cfg.IsFeatureEnabled(FeatIndexedOps) {
		t.Error("indexed-ops not on by default")
	}
	if !cfg.IsFeatureEnabled(FeatInternStrings) {
		t.Error("intern-strings not on by default")
	}
	if cfg.IsFeatureEnabled(FeatAsmComments) {
		t.Error("asm-comments on by default")
	}
	if cfg.IsWarningEnabled(WarnPedantic) {
		t.Error("pedantic on by default")
	}
	if cfg.PtrSize != 2 || cfg.IntSize != 2 || cfg.LongSize != 4 {
		t.Errorf("word sizes: ptr %d int %d long %d", cfg.PtrSize, cfg.IntSize, cfg.LongSize)
	}
}

func TestFeatureAndWarningFlags(t *testing.T) {
	cfg := NewConfig()

	cfg.applyFlag("-Fno-indexed-ops")
	if cfg.IsFeatureEnabled(FeatIndexedOps) {
		t.Error("-Fno-indexed-ops did not disable the feature")
	}
	cfg.applyFlag("-Findexed-ops")
	if !cfg.IsFeatureEnabled(FeatIndexedOps) {
		t.Error("-Findexed-ops did not re-enable the feature")
	}

	cfg.applyFlag("-Wno-div-zero")
	if cfg.IsWarningEnabled(WarnDivZero) {
		t.Error("-Wno-div-zero did not disable the warning")
	}

	cfg.applyFlag("-Wno-all")
	if cfg.IsWarningEnabled(WarnLargeFrame) || cfg.IsWarningEnabled(WarnExtra) {
		t.Error("-Wno-all left warnings enabled")
	}

	cfg.applyFlag("-pedantic")
	if !cfg.IsWarningEnabled(WarnPedantic) {
		t.Error("-pedantic did not enable the pedantic warning")
	}
}

func TestProcessFlagsOrdersBulkBeforeSpecific(t *testing.T) {
	cfg := NewConfig()
	// command line order is Wdiv-zero then Wno-all, but the bulk flag is
	// applied first so the specific flag survives
	flags := []string{"Wdiv-zero", "Wno-all"}
	cfg.ProcessFlags(func(fn func(string)) {
		for _, f := range flags {
			fn(f)
		}
	})
	if !cfg.IsWarningEnabled(WarnDivZero) {
		t.Error("specific warning flag lost to -Wno-all")
	}
	if cfg.IsWarningEnabled(WarnLargeFrame) {
		t.Error("-Wno-all not applied")
	}
}

func TestSetTarget(t *testing.T) {
	cfg := NewConfig()
	if err := cfg.SetTarget("neanderx"); err != nil {
		t.Fatal(err)
	}
	err := cfg.SetTarget("pdp11")
	if err == nil || !strings.Contains(err.Error(), "unsupported target") {
		t.Errorf("got %v", err)
	}
}
