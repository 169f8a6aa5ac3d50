// Package ir defines a small SSA-style intermediate representation: typed
// values, basic blocks holding straight-line instruction sequences, and
// functions/procedures grouped into a module. It is the target the lower
// package lowers WASM bytecode into, modeled on the instruction shapes
// ppci's own ir module is used through in wasm2ppci.py (Const, Binop, Unop,
// Cast, Load, Store, Alloc, AddressOf, the four call variants, Jump, CJump,
// Return, Exit, Phi, Parameter).
package ir

import "fmt"

// Type is a primitive IR value type.
type Type int

const (
	I32 Type = iota
	I64
	F32
	F64
	Ptr
)

func (t Type) String() string {
	switch t {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case Ptr:
		return "ptr"
	default:
		return "?"
	}
}

// Size returns the type's size in bytes, used when lowering alloc/local
// slots and global variables.
func (t Type) Size() int {
	switch t {
	case I32, F32:
		return 4
	case I64, F64, Ptr:
		return 8
	default:
		return 0
	}
}

// Value is anything an instruction can reference as an operand: another
// instruction's result, a Parameter, or a Variable (alloc/global slot).
type Value interface {
	fmt.Stringer
	ValueType() Type
}

// Instruction is one IR operation. Instructions that produce a value
// implement Value as well via valueBase's String()+ValueType(); instructions with no
// result (Store, Jump, CJump, Return, Exit, ProcedureCall,
// ProcedurePointerCall) do not.
type Instruction interface {
	fmt.Stringer
	isInstruction()
}

type valueBase struct {
	Name string
	Typ  Type
}

func (v valueBase) ValueType() Type { return v.Typ }
func (v valueBase) String() string  { return v.Name }

// Const is a compile-time constant value of a given type.
type Const struct {
	valueBase
	Val interface{}
}

func (c *Const) isInstruction() {}
func (c *Const) String() string { return fmt.Sprintf("%s = const %v %s", c.Name, c.Val, c.Typ) }

// Binop is a binary arithmetic or bitwise operation, e.g. "+", "-", "*",
// "/", "&", "|", "^", "<<", ">>".
type Binop struct {
	valueBase
	A, B Value
	Op   string
}

func (b *Binop) isInstruction() {}
func (b *Binop) String() string {
	return fmt.Sprintf("%s = %s %s %s %s", b.Name, b.A, b.Op, b.B, b.Typ)
}

// Unop is a unary operation, e.g. negation.
type Unop struct {
	valueBase
	A  Value
	Op string
}

func (u *Unop) isInstruction() {}
func (u *Unop) String() string { return fmt.Sprintf("%s = %s %s %s", u.Name, u.Op, u.A, u.Typ) }

// Cast converts a Value from its current type to Typ.
type Cast struct {
	valueBase
	A Value
}

func (c *Cast) isInstruction() {}
func (c *Cast) String() string { return fmt.Sprintf("%s = cast %s %s", c.Name, c.A, c.Typ) }

// Load reads a value of type Typ from the address in Address.
type Load struct {
	valueBase
	Address Value
}

func (l *Load) isInstruction() {}
func (l *Load) String() string { return fmt.Sprintf("%s = load %s %s", l.Name, l.Address, l.Typ) }

// Store writes Val to the address in Address. Store has no result.
type Store struct {
	Val     Value
	Address Value
}

func (s *Store) isInstruction() {}
func (s *Store) String() string { return fmt.Sprintf("store %s, %s", s.Val, s.Address) }

// Alloc reserves Size bytes of stack storage, aligned to Alignment.
type Alloc struct {
	valueBase
	Size      int
	Alignment int
}

func (a *Alloc) isInstruction() {}
func (a *Alloc) String() string { return fmt.Sprintf("%s = alloc %d", a.Name, a.Size) }

// AddressOf yields the address of an Alloc (or other addressable value).
type AddressOf struct {
	valueBase
	Of Value
}

func (a *AddressOf) isInstruction() {}
func (a *AddressOf) String() string { return fmt.Sprintf("%s = &%s", a.Name, a.Of) }

// FunctionCall calls a named function that returns a value.
type FunctionCall struct {
	valueBase
	Callee string
	Args   []Value
}

func (c *FunctionCall) isInstruction() {}
func (c *FunctionCall) String() string {
	return fmt.Sprintf("%s = call %s(%v) %s", c.Name, c.Callee, c.Args, c.Typ)
}

// ProcedureCall calls a named function that returns nothing.
type ProcedureCall struct {
	Callee string
	Args   []Value
}

func (c *ProcedureCall) isInstruction() {}
func (c *ProcedureCall) String() string { return fmt.Sprintf("call %s(%v)", c.Callee, c.Args) }

// FunctionPointerCall calls through a function-pointer value and returns a
// value.
type FunctionPointerCall struct {
	valueBase
	Callee Value
	Args   []Value
}

func (c *FunctionPointerCall) isInstruction() {}
func (c *FunctionPointerCall) String() string {
	return fmt.Sprintf("%s = callptr %s(%v) %s", c.Name, c.Callee, c.Args, c.Typ)
}

// ProcedurePointerCall calls through a function-pointer value and returns
// nothing.
type ProcedurePointerCall struct {
	Callee Value
	Args   []Value
}

func (c *ProcedurePointerCall) isInstruction() {}
func (c *ProcedurePointerCall) String() string {
	return fmt.Sprintf("callptr %s(%v)", c.Callee, c.Args)
}

// Jump unconditionally transfers control to Target.
type Jump struct {
	Target *BasicBlock
}

func (j *Jump) isInstruction() {}
func (j *Jump) String() string { return fmt.Sprintf("jump %s", j.Target.Name) }

// CJump compares A Op B and transfers control to True or False accordingly.
// Op is one of "==", "!=", "<", "<=", ">", ">=". The IR types carry no
// signedness, so WASM's signed and unsigned compare opcodes (e.g. lt_s and
// lt_u) lower to the same Op and are not distinguished.
type CJump struct {
	A, B        Value
	Op          string
	True, False *BasicBlock
}

func (c *CJump) isInstruction() {}
func (c *CJump) String() string {
	return fmt.Sprintf("cjump %s %s %s ? %s : %s", c.A, c.Op, c.B, c.True.Name, c.False.Name)
}

// Return exits the enclosing Function with Val as its result.
type Return struct {
	Val Value
}

func (r *Return) isInstruction() {}
func (r *Return) String() string { return fmt.Sprintf("return %s", r.Val) }

// Exit exits the enclosing Procedure with no result.
type Exit struct{}

func (e *Exit) isInstruction() {}
func (e *Exit) String() string { return "exit" }

// Phi merges values flowing in from different predecessor blocks. Incoming
// must be filled in via SetIncoming for every predecessor before the block
// is finalized.
type Phi struct {
	valueBase
	Incoming map[*BasicBlock]Value
}

// SetIncoming records the value Phi should take when control arrives from
// block.
func (p *Phi) SetIncoming(block *BasicBlock, val Value) {
	if p.Incoming == nil {
		p.Incoming = make(map[*BasicBlock]Value)
	}
	p.Incoming[block] = val
}

func (p *Phi) isInstruction() {}
func (p *Phi) String() string { return fmt.Sprintf("%s = phi %s", p.Name, p.Typ) }

// Parameter is a function argument, addressable as a Value from the
// function's entry block onward.
type Parameter struct {
	valueBase
	Index int
}

func (pm *Parameter) isInstruction() {}
func (pm *Parameter) String() string { return fmt.Sprintf("%s = param[%d] %s", pm.Name, pm.Index, pm.Typ) }

// Variable is an addressable storage slot not introduced by Alloc in the
// current function body -- used for module-level globals.
type Variable struct {
	valueBase
	Size      int
	Alignment int
	Initial   interface{}
}

func (v *Variable) isInstruction() {}
func (v *Variable) String() string { return fmt.Sprintf("%s = var %s", v.Name, v.Typ) }
