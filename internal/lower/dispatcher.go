package lower

import (
	"fmt"
	"strings"

	"github.com/glubfish/ictiobus/internal/icterrors"
	"github.com/glubfish/ictiobus/internal/ir"
	"github.com/glubfish/ictiobus/internal/wasmir"
)

var binops = map[string]string{
	"add": "+", "sub": "-", "mul": "*",
	"div": "/", "div_s": "/", "div_u": "/",
	"and": "&", "or": "|", "xor": "^", "shl": "<<",
	"shr_s": ">>", "shr_u": ">>",
	"rotl": "rol", "rotr": "ror",
}

var relops = map[string]string{
	"eqz": "==", "eq": "==", "ne": "!=",
	"ge": ">=", "ge_u": ">=", "ge_s": ">=",
	"le": "<=", "le_u": "<=", "le_s": "<=",
	"gt": ">", "gt_u": ">", "gt_s": ">",
	"lt": "<", "lt_u": "<", "lt_s": "<",
}

var castOps = map[string]wasmir.ValType{
	"i32.wrap/i64":          wasmir.I32,
	"i64.extend_s/i32":      wasmir.I64,
	"i64.extend_u/i32":      wasmir.I64,
	"f64.convert_s/i32":     wasmir.F64,
	"f64.convert_u/i32":     wasmir.F64,
	"f64.reinterpret/i64":   wasmir.F64,
}

var storeOps = map[string]bool{
	"i32.store": true, "i64.store": true, "f32.store": true, "f64.store": true,
	"i32.store8": true, "i32.store16": true, "i64.store8": true, "i64.store16": true, "i64.store32": true,
}

var loadOps = map[string]bool{
	"i32.load": true, "i64.load": true, "f32.load": true, "f64.load": true,
	"i32.load8_s": true, "i32.load8_u": true, "i32.load16_s": true, "i32.load16_u": true,
	"i64.load8_s": true, "i64.load8_u": true, "i64.load16_s": true, "i64.load16_u": true,
	"i64.load32_s": true, "i64.load32_u": true,
}

// dispatch lowers one instruction, routing it by opcode family. This is the
// InstructionDispatcher: a single switch closed over the opcode families
// §4.7 names, ending in UnsupportedWasm for anything outside them.
func (fl *FunctionLowerer) dispatch(inst wasmir.Instruction) error {
	op := inst.Opcode

	if opname, ok := splitFamily(op, binops); ok {
		return fl.dispatchBinop(op, opname)
	}
	if opname, ok := splitFamily(op, relops); ok {
		return fl.dispatchCompare(op, opname)
	}
	if storeOps[op] {
		return fl.dispatchStore(op, inst)
	}
	if loadOps[op] {
		return fl.dispatchLoad(op, inst)
	}
	if dstTyp, ok := castOps[op]; ok {
		return fl.dispatchCast(dstTyp)
	}

	switch {
	case op == "f64.floor":
		return fl.dispatchFloor()
	case op == "f64.sqrt":
		return icterrors.UnsupportedWasmf("f64.sqrt is not implemented by the core lowerer")
	case op == "f64.neg":
		return fl.dispatchNeg(wasmir.F64)
	case isConstOp(op):
		return fl.dispatchConst(op, inst)
	case op == "set_local" || op == "tee_local":
		return fl.dispatchSetLocal(op, inst)
	case op == "get_local":
		return fl.dispatchGetLocal(inst)
	case op == "get_global":
		return fl.dispatchGetGlobal(inst)
	case op == "set_global":
		return fl.dispatchSetGlobal(inst)
	case op == "block":
		return fl.dispatchBlockOrLoop(inst, FrameBlock)
	case op == "loop":
		return fl.dispatchBlockOrLoop(inst, FrameLoop)
	case op == "if":
		return fl.dispatchIf(inst)
	case op == "else":
		return fl.dispatchElse()
	case op == "end":
		return fl.dispatchEnd()
	case op == "br":
		return fl.dispatchBr(inst)
	case op == "br_if":
		return fl.dispatchBrIf(inst)
	case op == "call":
		return fl.dispatchCall(inst)
	case op == "call_indirect":
		return fl.dispatchCallIndirect(inst)
	case op == "return":
		return fl.dispatchReturn()
	case op == "unreachable":
		return nil
	case op == "select":
		return fl.dispatchSelect()
	case op == "drop":
		_, err := fl.popValue()
		return err
	default:
		return icterrors.UnsupportedWasmf("opcode %q is not supported", op)
	}
}

// splitFamily checks whether op (e.g. "i32.add") has the shape "T.opname"
// with opname present in family, returning opname.
func splitFamily(op string, family map[string]string) (string, bool) {
	parts := strings.SplitN(op, ".", 2)
	if len(parts) != 2 {
		return "", false
	}
	_, ok := family[parts[1]]
	return parts[1], ok
}

func isConstOp(op string) bool {
	switch op {
	case "i32.const", "i64.const", "f32.const", "f64.const":
		return true
	default:
		return false
	}
}

func itypeOf(op string) wasmir.ValType {
	return wasmir.ValType(strings.SplitN(op, ".", 2)[0])
}

func (fl *FunctionLowerer) dispatchBinop(op, opname string) error {
	irTyp, err := valTypeToIR(itypeOf(op))
	if err != nil {
		return err
	}
	b, err := fl.popValue()
	if err != nil {
		return err
	}
	a, err := fl.popValue()
	if err != nil {
		return err
	}
	result := &ir.Binop{A: a, B: b, Op: binops[opname]}
	result.Name = fl.name("t")
	result.Typ = irTyp
	fl.emit(result)
	fl.operands.PushValue(result)
	return nil
}

func (fl *FunctionLowerer) dispatchCompare(op, opname string) error {
	irTyp, err := valTypeToIR(itypeOf(op))
	if err != nil {
		return err
	}
	relop := relops[opname]

	var a, b ir.Value
	if opname == "eqz" {
		zero, err := fl.constZero(irTyp)
		if err != nil {
			return err
		}
		a, err = fl.popValue()
		if err != nil {
			return err
		}
		b = zero
	} else {
		b, err = fl.popValue()
		if err != nil {
			return err
		}
		a, err = fl.popValue()
		if err != nil {
			return err
		}
	}
	fl.operands.PushCompare(relop, a, b)
	return nil
}

// address computes the ptr-typed address for a load/store: pop the base,
// cast to ptr if it is not already, then add the constant offset.
func (fl *FunctionLowerer) address(inst wasmir.Instruction) (ir.Value, error) {
	base, err := fl.popValue()
	if err != nil {
		return nil, err
	}
	if base.ValueType() != ir.Ptr {
		cast := &ir.Cast{A: base}
		cast.Name = fl.name("cast")
		cast.Typ = ir.Ptr
		fl.emit(cast)
		base = cast
	}
	offset := 0
	if len(inst.Args) > 0 {
		if n, ok := inst.Args[0].(int); ok {
			offset = n
		} else if n, ok := inst.Args[0].(int64); ok {
			offset = int(n)
		}
	}
	offsetConst := &ir.Const{Val: int64(offset)}
	offsetConst.Name = fl.name("offset")
	offsetConst.Typ = ir.Ptr
	fl.emit(offsetConst)

	address := &ir.Binop{A: base, B: offsetConst, Op: "+"}
	address.Name = fl.name("address")
	address.Typ = ir.Ptr
	fl.emit(address)
	return address, nil
}

func (fl *FunctionLowerer) dispatchStore(op string, inst wasmir.Instruction) error {
	value, err := fl.popValue()
	if err != nil {
		return err
	}
	addr, err := fl.address(inst)
	if err != nil {
		return err
	}
	fl.emit(&ir.Store{Val: value, Address: addr})
	return nil
}

func (fl *FunctionLowerer) dispatchLoad(op string, inst wasmir.Instruction) error {
	irTyp, err := valTypeToIR(itypeOf(op))
	if err != nil {
		return err
	}
	addr, err := fl.address(inst)
	if err != nil {
		return err
	}
	load := &ir.Load{Address: addr}
	load.Name = fl.name("load")
	load.Typ = irTyp
	fl.emit(load)
	fl.operands.PushValue(load)
	return nil
}

func (fl *FunctionLowerer) dispatchCast(dstTyp wasmir.ValType) error {
	irTyp, err := valTypeToIR(dstTyp)
	if err != nil {
		return err
	}
	value, err := fl.popValue()
	if err != nil {
		return err
	}
	cast := &ir.Cast{A: value}
	cast.Name = fl.name("cast")
	cast.Typ = irTyp
	fl.emit(cast)
	fl.operands.PushValue(cast)
	return nil
}

func (fl *FunctionLowerer) dispatchFloor() error {
	value, err := fl.popValue()
	if err != nil {
		return err
	}
	asInt := &ir.Cast{A: value}
	asInt.Name = fl.name("floor_cast_1")
	asInt.Typ = ir.I64
	fl.emit(asInt)

	asFloat := &ir.Cast{A: asInt}
	asFloat.Name = fl.name("floor_cast_2")
	asFloat.Typ = ir.F64
	fl.emit(asFloat)
	fl.operands.PushValue(asFloat)
	return nil
}

func (fl *FunctionLowerer) dispatchNeg(typ wasmir.ValType) error {
	irTyp, err := valTypeToIR(typ)
	if err != nil {
		return err
	}
	value, err := fl.popValue()
	if err != nil {
		return err
	}
	result := &ir.Unop{A: value, Op: "-"}
	result.Name = fl.name("neg")
	result.Typ = irTyp
	fl.emit(result)
	fl.operands.PushValue(result)
	return nil
}

func (fl *FunctionLowerer) dispatchConst(op string, inst wasmir.Instruction) error {
	irTyp, err := valTypeToIR(itypeOf(op))
	if err != nil {
		return err
	}
	if len(inst.Args) == 0 {
		return icterrors.UnsupportedWasmf("%s has no immediate argument", op)
	}
	c := &ir.Const{Val: inst.Args[0]}
	c.Name = fl.name("const")
	c.Typ = irTyp
	fl.emit(c)
	fl.operands.PushValue(c)
	return nil
}

func localIndex(inst wasmir.Instruction) (int, error) {
	if len(inst.Args) == 0 {
		return 0, icterrors.UnsupportedWasmf("local instruction has no index argument")
	}
	switch n := inst.Args[0].(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	default:
		return 0, icterrors.TypeMismatchf("expected integer local index, got %T", inst.Args[0])
	}
}

func (fl *FunctionLowerer) dispatchSetLocal(op string, inst wasmir.Instruction) error {
	idx, err := localIndex(inst)
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(fl.locals) {
		return icterrors.UnsupportedWasmf("local index %d out of range", idx)
	}
	slot := fl.locals[idx]

	value, err := fl.popValue()
	if err != nil {
		return err
	}
	if value.ValueType() != slot.Typ {
		return icterrors.TypeMismatchf("local %d has type %s, got %s", idx, slot.Typ, value.ValueType())
	}
	fl.emit(&ir.Store{Val: value, Address: slot.Addr})

	// tee_local pushes the pre-store value back; it must not be re-loaded
	// from the slot, since re-loading loses the distinction between the
	// value just stored and whatever the slot's Store semantics resolve to.
	if op == "tee_local" {
		fl.operands.PushValue(value)
	}
	return nil
}

func (fl *FunctionLowerer) dispatchGetLocal(inst wasmir.Instruction) error {
	idx, err := localIndex(inst)
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(fl.locals) {
		return icterrors.UnsupportedWasmf("local index %d out of range", idx)
	}
	slot := fl.locals[idx]

	load := &ir.Load{Address: slot.Addr}
	load.Name = fl.name("getlocal")
	load.Typ = slot.Typ
	fl.emit(load)
	fl.operands.PushValue(load)
	return nil
}

func globalID(inst wasmir.Instruction) (string, error) {
	if len(inst.Args) == 0 {
		return "", icterrors.UnsupportedWasmf("global instruction has no id argument")
	}
	return fmt.Sprintf("%v", inst.Args[0]), nil
}

func (fl *FunctionLowerer) dispatchGetGlobal(inst wasmir.Instruction) error {
	id, err := globalID(inst)
	if err != nil {
		return err
	}
	slot, ok := fl.scanner.globals[id]
	if !ok {
		return icterrors.UnsupportedWasmf("undeclared global %q", id)
	}
	load := &ir.Load{Address: slot.Var}
	load.Name = fl.name("get_global")
	load.Typ = slot.Typ
	fl.emit(load)
	fl.operands.PushValue(load)
	return nil
}

func (fl *FunctionLowerer) dispatchSetGlobal(inst wasmir.Instruction) error {
	id, err := globalID(inst)
	if err != nil {
		return err
	}
	slot, ok := fl.scanner.globals[id]
	if !ok {
		return icterrors.UnsupportedWasmf("undeclared global %q", id)
	}
	value, err := fl.popValue()
	if err != nil {
		return err
	}
	if value.ValueType() != slot.Typ {
		return icterrors.TypeMismatchf("global %q has type %s, got %s", id, slot.Typ, value.ValueType())
	}
	fl.emit(&ir.Store{Val: value, Address: slot.Var})
	return nil
}
