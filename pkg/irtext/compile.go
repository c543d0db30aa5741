package irtext

import (
	"bytes"

	"github.com/neanderx/nxcc/pkg/config"
	"github.com/neanderx/nxcc/pkg/emit"
	"github.com/neanderx/nxcc/pkg/util"
)

// Compile replays a read program against the emitter in source order and
// returns the generated assembly.
func Compile(cfg *config.Config, e *emit.Emitter, p *Program) (*bytes.Buffer, error) {
	if p.Module != "" {
		cfg.ModuleName = p.Module
	}
	for _, sym := range p.Syms {
		e.DefSymbol(sym)
	}
	e.ProgBegin()
	for _, it := range p.Items {
		switch it := it.(type) {
		case *Extern:
			e.Import(it.Sym)
		case *Export:
			e.Export(it.Sym)
		case *Data:
			if it.Inits == nil {
				e.Segment(emit.SegBSS)
				e.Global(it.Sym)
				e.Space(it.Sym.Size)
				continue
			}
			e.Segment(emit.SegData)
			e.Global(it.Sym)
			for _, init := range it.Inits {
				switch init.Kind {
				case InitByte:
					for _, v := range init.Vals {
						e.DefConst(1, v)
					}
				case InitWord:
					for _, v := range init.Vals {
						e.DefConst(2, v)
					}
				case InitLong:
					for _, v := range init.Vals {
						e.DefConst(4, v)
					}
				case InitAddr:
					e.DefAddress(init.Sym)
				case InitString:
					e.DefString(init.Str)
				case InitSpace:
					e.Space(int(init.Vals[0]))
				}
			}
		case *FuncItem:
			if err := e.Function(it.Fn); err != nil {
				return nil, err
			}
			if e.FrameSize() > cfg.FrameWarnLimit {
				util.Warn(cfg, config.WarnLargeFrame, it.Pos,
					"%s reserves %d bytes of frame", it.Fn.Sym.Name, e.FrameSize())
			}
		}
	}
	e.ProgEnd()
	return e.Output(), nil
}
