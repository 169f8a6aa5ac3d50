package lower

import (
	"fmt"

	"github.com/glubfish/ictiobus/internal/icterrors"
	"github.com/glubfish/ictiobus/internal/ir"
)

// localSlot is a LocalSlot: a local's IR type and the address of the Alloc
// backing it. Index 0..len(Params)-1 are parameters; the rest are declared
// locals, in the order FunctionLowerer allocates them.
type localSlot struct {
	Typ  ir.Type
	Addr ir.Value
}

// FunctionLowerer lowers one wasmir.Func body into an ir.Function or
// ir.Procedure, dispatching its instructions by opcode family through an
// OperandStack and BlockStack. One FunctionLowerer is used per function;
// its stacks are discarded once the function is lowered.
type FunctionLowerer struct {
	scanner *ModuleScanner
	builder *ir.Builder

	operands *OperandStack
	blocks   *BlockStack
	locals   []localSlot

	tmp int
}

// NewFunctionLowerer creates a lowerer that emits into builder using the
// symbol tables scanner already collected.
func NewFunctionLowerer(scanner *ModuleScanner, builder *ir.Builder) *FunctionLowerer {
	return &FunctionLowerer{scanner: scanner, builder: builder}
}

func (fl *FunctionLowerer) name(prefix string) string {
	fl.tmp++
	return fmt.Sprintf("%s%d", prefix, fl.tmp)
}

// Lower translates sf into a function or procedure appended to the
// builder's module, following the prologue/body/epilogue shape of
// WasmToIrCompiler.generate_function.
func (fl *FunctionLowerer) Lower(sf scannedFunc) error {
	fl.operands = NewOperandStack()
	fl.blocks = NewBlockStack()
	fl.locals = nil
	fl.tmp = 0

	var routine ir.Routine
	if len(sf.Sig.Result) == 1 {
		retTyp, err := valTypeToIR(sf.Sig.Result[0])
		if err != nil {
			return err
		}
		routine = fl.builder.NewFunction(sf.Name, retTyp)
	} else if len(sf.Sig.Result) > 1 {
		return icterrors.UnsupportedWasmf("function %q: multi-value returns are not supported", sf.Name)
	} else {
		routine = fl.builder.NewProcedure(sf.Name)
	}
	fl.builder.SetFunction(routine)

	entry := fl.builder.NewBlock("")
	fl.builder.SetBlock(entry)

	// Prologue: one Parameter+Alloc+AddressOf+Store per signature param.
	var params []*ir.Parameter
	for i, pt := range sf.Sig.Params {
		irTyp, err := valTypeToIR(pt)
		if err != nil {
			return err
		}
		param := &ir.Parameter{Index: i}
		param.Name = fmt.Sprintf("param%d", i)
		param.Typ = irTyp
		params = append(params, param)

		size := irTyp.Size()
		alloc := fl.emit(&ir.Alloc{Size: size, Alignment: size})
		alloc.(*ir.Alloc).Name = fmt.Sprintf("alloc%d", i)
		addr := fl.emit(&ir.AddressOf{Of: alloc.(ir.Value)})
		addr.(*ir.AddressOf).Name = fmt.Sprintf("local%d", i)
		addr.(*ir.AddressOf).Typ = ir.Ptr

		fl.locals = append(fl.locals, localSlot{Typ: irTyp, Addr: addr.(ir.Value)})
		fl.emit(&ir.Store{Val: param, Address: addr.(ir.Value)})
	}
	switch r := routine.(type) {
	case *ir.Function:
		r.Params = params
	case *ir.Procedure:
		r.Params = params
	}

	// Remaining declared locals, zero-initialized by Alloc's contract.
	for _, loc := range sf.Def.Locals {
		idx := len(fl.locals)
		irTyp, err := valTypeToIR(loc.Typ)
		if err != nil {
			return err
		}
		size := irTyp.Size()
		alloc := fl.emit(&ir.Alloc{Size: size, Alignment: size})
		alloc.(*ir.Alloc).Name = fmt.Sprintf("alloc%d", idx)
		addr := fl.emit(&ir.AddressOf{Of: alloc.(ir.Value)})
		addr.(*ir.AddressOf).Name = fmt.Sprintf("local%d", idx)
		addr.(*ir.AddressOf).Typ = ir.Ptr
		fl.locals = append(fl.locals, localSlot{Typ: irTyp, Addr: addr.(ir.Value)})
	}

	for _, inst := range sf.Def.Instructions {
		if err := fl.dispatch(inst); err != nil {
			return err
		}
	}

	block := fl.builder.Block()
	if !block.IsEmpty() && !block.IsClosed() {
		if _, isProc := routine.(*ir.Procedure); isProc {
			fl.emit(&ir.Exit{})
		} else {
			v, err := fl.popValue()
			if err != nil {
				return err
			}
			fl.emit(&ir.Return{Val: v})
		}
	}

	fl.builder.DeleteUnreachable()
	return nil
}

// emit is a thin wrapper so call sites read like the dispatcher's table in
// wasm2ppci.py (self.emit(...)).
func (fl *FunctionLowerer) emit(inst ir.Instruction) ir.Instruction {
	return fl.builder.Emit(inst)
}

func (fl *FunctionLowerer) newBlock() *ir.BasicBlock {
	return fl.builder.NewBlock("")
}

func (fl *FunctionLowerer) popValue() (ir.Value, error) {
	return fl.operands.PopValue(fl.materializeCompare)
}

func (fl *FunctionLowerer) popCondition() (string, ir.Value, ir.Value, error) {
	return fl.operands.PopCondition(fl.constZero)
}

func (fl *FunctionLowerer) constZero(typ ir.Type) (ir.Value, error) {
	c := &ir.Const{Val: zeroFor(typ)}
	c.Name = fl.name("zero")
	c.Typ = typ
	return fl.emit(c).(ir.Value), nil
}

func zeroFor(typ ir.Type) interface{} {
	switch typ {
	case ir.F32, ir.F64:
		return 0.0
	default:
		return int64(0)
	}
}

// materializeCompare lowers a deferred compare into an i32 0/1 value via a
// three-block ja/nein/immer diamond joined by a Phi, exactly the shape
// pop_value uses in wasm2ppci.py when the popped stack entry is a
// comparison tuple rather than an ir.Value.
func (fl *FunctionLowerer) materializeCompare(op string, a, b ir.Value) (ir.Value, error) {
	ja := fl.newBlock()
	nein := fl.newBlock()
	immer := fl.newBlock()

	fl.emit(&ir.CJump{A: a, Op: op, B: b, True: ja, False: nein})

	fl.builder.SetBlock(ja)
	one := &ir.Const{Val: int64(1)}
	one.Name = fl.name("one")
	one.Typ = ir.I32
	fl.emit(one)
	fl.emit(&ir.Jump{Target: immer})

	fl.builder.SetBlock(nein)
	zero := &ir.Const{Val: int64(0)}
	zero.Name = fl.name("zero")
	zero.Typ = ir.I32
	fl.emit(zero)
	fl.emit(&ir.Jump{Target: immer})

	fl.builder.SetBlock(immer)
	phi := &ir.Phi{}
	phi.Name = fl.name("ternary")
	phi.Typ = ir.I32
	phi.SetIncoming(ja, one)
	phi.SetIncoming(nein, zero)
	fl.emit(phi)
	return phi, nil
}
