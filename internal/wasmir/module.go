// Package wasmir models the WebAssembly 1.0 module structure at the
// definition level -- the shape the lower package's ModuleScanner walks.
// It intentionally stops at "document order list of definitions" rather
// than decoding an actual .wasm binary: binary decoding, validation, and
// tables/elements/memory/data sections are out of scope for the core, left
// as the parse-time concern of an external front end.
package wasmir

// Signature is a WASM function type: an ordered list of parameter types
// and at most one result type (multi-value returns are not modeled).
type Signature struct {
	Params []ValType
	Result []ValType
}

// ValType is one of WASM's four value types.
type ValType string

const (
	I32 ValType = "i32"
	I64 ValType = "i64"
	F32 ValType = "f32"
	F64 ValType = "f64"
)

// Definition is one top-level entry of a Module, in document order.
type Definition interface {
	definition()
}

// TypeDef declares a function signature, referenced by id from Func,
// Import, and call_indirect.
type TypeDef struct {
	ID  string
	Sig Signature
}

func (TypeDef) definition() {}

// Import declares a function imported from another module. Only func
// imports are modeled; an import of any other kind makes the scanner fail
// with an UnsupportedWasm error.
type Import struct {
	Modname string
	Name    string
	Kind    string // "func" is the only kind this core lowers
	TypeID  string // valid when Kind == "func"
}

func (Import) definition() {}

// Export re-exposes an already-defined function under a module-visible
// name.
type Export struct {
	Name string
	Kind string // "func" is the only kind this core lowers
	Ref  string // id of the referenced Func or Import
}

func (Export) definition() {}

// Local is one declared local variable of a Func: an optional symbolic id
// (empty when the local is referenced only by index) and its value type.
type Local struct {
	ID  string
	Typ ValType
}

// Instruction is one WASM bytecode instruction: an opcode naming its
// operation and type (e.g. "i32.add", "br_if", "get_local") plus whatever
// immediate operands it carries (branch depths, constant values, local
// indices, memory offset/align pairs).
type Instruction struct {
	Opcode string
	Args   []interface{}
}

// Func is a defined function body.
type Func struct {
	ID     string // symbolic id, or "" if referenced only by index
	TypeID string

	Locals       []Local
	Instructions []Instruction
}

func (Func) definition() {}

// Global declares a module-level mutable variable with a constant
// initializer -- assumed to be a single const instruction of matching
// type, per the core's scope.
type Global struct {
	ID   string
	Typ  ValType
	Init Instruction
}

func (Global) definition() {}

// Module is an ordered list of top-level definitions, mirroring the
// WebAssembly module structure at the definition level rather than the
// binary section level.
type Module struct {
	Definitions []Definition
}
