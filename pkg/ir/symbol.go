package ir

// StorageClass says where a symbol lives and therefore how the backend
// addresses and declares it.
type StorageClass int

const (
	ClassGlobal StorageClass = iota
	ClassStatic
	ClassExtern
	ClassLocal
	ClassParam
	ClassLabel
	ClassTemp // front-end temporary, materialized as a frame spill slot
)

type Symbol struct {
	Name  string
	Class StorageClass
	Size  int
	Align int

	// Offset is FP-relative for params, locals and temporaries; it is
	// assigned by the frame layer, not the front end.
	Offset int

	// Name the assembler sees, once the backend has decided it.
	AsmName string
}

// Emitted returns the assembler spelling of the symbol: the FP-relative
// form for frame-resident symbols, the assembler name otherwise.
func (s *Symbol) Emitted() string {
	if s.AsmName != "" {
		return s.AsmName
	}
	return s.Name
}

// Func is one function delivered by the front end: its symbol, formals in
// declaration order, locals, and the statement forest in source order.
type Func struct {
	Sym    *Symbol
	Params []*Symbol
	Locals []*Symbol
	Body   []*Node
}
