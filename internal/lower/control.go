package lower

import (
	"strconv"

	"github.com/glubfish/ictiobus/internal/icterrors"
	"github.com/glubfish/ictiobus/internal/ir"
	"github.com/glubfish/ictiobus/internal/wasmir"
)

// resultPhi allocates the result Phi for a structured region's declared
// type, or nil if the region's result type is "emptyblock" (WASM's way of
// spelling "this region produces no value").
func (fl *FunctionLowerer) resultPhi(inst wasmir.Instruction) (*ir.Phi, error) {
	if len(inst.Args) == 0 {
		return nil, nil
	}
	resultType, ok := inst.Args[0].(string)
	if !ok || resultType == "emptyblock" {
		return nil, nil
	}
	irTyp, err := valTypeToIR(wasmir.ValType(resultType))
	if err != nil {
		return nil, err
	}
	phi := &ir.Phi{}
	phi.Name = fl.name("block_result")
	phi.Typ = irTyp
	return phi, nil
}

// fillPhi records the current top of the operand stack as the Phi's
// incoming value from the current block, if the frame declared one. The
// region is required to leave exactly one value on the stack at this exit
// path when it has a result type.
func (fl *FunctionLowerer) fillPhi(phi *ir.Phi) error {
	if phi == nil {
		return nil
	}
	if fl.operands.Len() != 1 {
		return icterrors.UnsupportedWasmf("structured region with a result must leave exactly one operand stack entry, found %d", fl.operands.Len())
	}
	top, err := fl.popValue()
	if err != nil {
		return err
	}
	phi.SetIncoming(fl.builder.Block(), top)
	fl.operands.PushValue(top)
	return nil
}

func (fl *FunctionLowerer) dispatchBlockOrLoop(inst wasmir.Instruction, kind FrameKind) error {
	phi, err := fl.resultPhi(inst)
	if err != nil {
		return err
	}
	inner := fl.newBlock()
	cont := fl.newBlock()
	fl.emit(&ir.Jump{Target: inner})
	fl.builder.SetBlock(inner)
	fl.blocks.Push(BlockFrame{Kind: kind, ContinueBlock: cont, InnerBlock: inner, Phi: phi})
	return nil
}

func (fl *FunctionLowerer) dispatchIf(inst wasmir.Instruction) error {
	op, a, b, err := fl.popCondition()
	if err != nil {
		return err
	}
	trueBlock := fl.newBlock()
	cont := fl.newBlock()
	fl.emit(&ir.CJump{A: a, Op: op, B: b, True: trueBlock, False: cont})
	fl.builder.SetBlock(trueBlock)

	phi, err := fl.resultPhi(inst)
	if err != nil {
		return err
	}
	fl.blocks.Push(BlockFrame{Kind: FrameIf, ContinueBlock: cont, Phi: phi})
	return nil
}

func (fl *FunctionLowerer) dispatchElse() error {
	frame := fl.blocks.Pop()
	if frame.Kind != FrameIf {
		return icterrors.UnsupportedWasmf("else without a matching if")
	}

	// The prior frame's continue_block becomes the else branch's entry
	// block: the CJump emitted by "if" already targets it as the false
	// path, so reusing it here (rather than allocating a fresh else-entry
	// block) is what keeps that CJump's targets correct. A fresh
	// continue_block is allocated for what follows the whole if/else.
	elseBlock := frame.ContinueBlock
	newContinue := fl.newBlock()

	if err := fl.fillPhi(frame.Phi); err != nil {
		return err
	}
	if frame.Phi != nil {
		if _, err := fl.popValue(); err != nil {
			return err
		}
	}
	fl.emit(&ir.Jump{Target: newContinue})
	fl.builder.SetBlock(elseBlock)
	fl.blocks.Push(BlockFrame{Kind: FrameElse, ContinueBlock: newContinue, Phi: frame.Phi})
	return nil
}

func (fl *FunctionLowerer) dispatchEnd() error {
	frame := fl.blocks.Pop()
	if err := fl.fillPhi(frame.Phi); err != nil {
		return err
	}
	fl.emit(&ir.Jump{Target: frame.ContinueBlock})
	fl.builder.SetBlock(frame.ContinueBlock)
	if frame.Phi != nil {
		fl.emit(frame.Phi)
		fl.operands.PushValue(frame.Phi)
	}
	return nil
}

func branchDepth(inst wasmir.Instruction) (int, error) {
	if len(inst.Args) == 0 {
		return 0, icterrors.UnsupportedWasmf("branch instruction has no depth argument")
	}
	switch n := inst.Args[0].(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	default:
		return 0, icterrors.TypeMismatchf("expected integer branch depth, got %T", inst.Args[0])
	}
}

func (fl *FunctionLowerer) dispatchBr(inst wasmir.Instruction) error {
	depth, err := branchDepth(inst)
	if err != nil {
		return err
	}
	frame := fl.blocks.At(depth)
	target := frame.BranchTarget()
	if frame.Kind != FrameLoop {
		if err := fl.fillPhi(frame.Phi); err != nil {
			return err
		}
	}
	fl.emit(&ir.Jump{Target: target})
	fl.builder.SetBlock(fl.newBlock())
	return nil
}

// dispatchBrIf lowers a conditional branch. Like dispatchBr, it fills the
// target region's result phi on the taken path when the target frame is not
// a loop: the WASM spec permits a br_if to carry a value to a non-loop
// target the same as a plain br, and leaving the phi unfilled here would
// silently drop that value on one incoming edge.
func (fl *FunctionLowerer) dispatchBrIf(inst wasmir.Instruction) error {
	depth, err := branchDepth(inst)
	if err != nil {
		return err
	}
	op, a, b, err := fl.popCondition()
	if err != nil {
		return err
	}
	frame := fl.blocks.At(depth)
	target := frame.BranchTarget()

	fallthroughBlock := fl.newBlock()
	if frame.Kind != FrameLoop && frame.Phi != nil {
		// Filling the phi pops and re-pushes the stack's top value, so the
		// fallthrough path still sees it on the operand stack afterward.
		if err := fl.fillPhi(frame.Phi); err != nil {
			return err
		}
	}
	fl.emit(&ir.CJump{A: a, Op: op, B: b, True: target, False: fallthroughBlock})
	fl.builder.SetBlock(fallthroughBlock)
	return nil
}

func (fl *FunctionLowerer) dispatchCall(inst wasmir.Instruction) error {
	if len(inst.Args) == 0 {
		return icterrors.UnsupportedWasmf("call has no function index argument")
	}
	idx := toKey(inst.Args[0])
	entry, ok := fl.scanner.funcNames[idx]
	if !ok {
		return icterrors.UnsupportedWasmf("call references undeclared function %q", idx)
	}

	args, err := fl.popArgs(len(entry.Sig.Params))
	if err != nil {
		return err
	}

	if len(entry.Sig.Result) == 1 {
		irTyp, err := valTypeToIR(entry.Sig.Result[0])
		if err != nil {
			return err
		}
		call := &ir.FunctionCall{Callee: entry.Name, Args: args}
		call.Name = fl.name("call")
		call.Typ = irTyp
		fl.emit(call)
		fl.operands.PushValue(call)
	} else {
		fl.emit(&ir.ProcedureCall{Callee: entry.Name, Args: args})
	}
	return nil
}

func (fl *FunctionLowerer) dispatchCallIndirect(inst wasmir.Instruction) error {
	if len(inst.Args) == 0 {
		return icterrors.UnsupportedWasmf("call_indirect has no type index argument")
	}
	typeID := toKey(inst.Args[0])
	sig, ok := fl.scanner.types[typeID]
	if !ok {
		return icterrors.UnsupportedWasmf("call_indirect references undeclared type %q", typeID)
	}

	funcPtr, err := fl.popValue()
	if err != nil {
		return err
	}
	if funcPtr.ValueType() != ir.Ptr {
		cast := &ir.Cast{A: funcPtr}
		cast.Name = fl.name("ptr")
		cast.Typ = ir.Ptr
		fl.emit(cast)
		funcPtr = cast
	}

	args, err := fl.popArgs(len(sig.Params))
	if err != nil {
		return err
	}

	if len(sig.Result) == 1 {
		irTyp, err := valTypeToIR(sig.Result[0])
		if err != nil {
			return err
		}
		call := &ir.FunctionPointerCall{Callee: funcPtr, Args: args}
		call.Name = fl.name("call")
		call.Typ = irTyp
		fl.emit(call)
		fl.operands.PushValue(call)
	} else {
		fl.emit(&ir.ProcedurePointerCall{Callee: funcPtr, Args: args})
	}
	return nil
}

// popArgs pops n argument values and reverses them back into declaration
// order. WASM pushes call arguments left to right, so the last-pushed
// (rightmost) argument is popped first; reversing here restores the order
// the callee's signature expects. The source this core is modeled on pops
// into a list without reversing -- a latent bug for any call with more
// than one argument, fixed here.
func (fl *FunctionLowerer) popArgs(n int) ([]ir.Value, error) {
	args := make([]ir.Value, n)
	for i := n - 1; i >= 0; i-- {
		v, err := fl.popValue()
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func toKey(v interface{}) string {
	switch n := v.(type) {
	case string:
		return n
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	default:
		return ""
	}
}

func (fl *FunctionLowerer) dispatchReturn() error {
	switch fl.builder.Function().(type) {
	case *ir.Procedure:
		fl.emit(&ir.Exit{})
	default:
		v, err := fl.popValue()
		if err != nil {
			return err
		}
		fl.emit(&ir.Return{Val: v})
	}
	fl.builder.SetBlock(fl.newBlock())
	return nil
}

// dispatchSelect lowers select, a ternary: pop the condition, then pop the
// operand that goes to the non-zero (ja) edge, then the one that goes to
// the zero (nein) edge -- the order pop_value/pop_value uses in
// wasm2ppci.py's gen_select. Note this is the *reverse* of the operand the
// WebAssembly spec says select should choose on a non-zero condition (the
// spec picks the first-pushed of the two values, i.e. the one popped
// second here); this core preserves the grounded source's order rather
// than the spec's, per the resolved Open Question in DESIGN.md.
func (fl *FunctionLowerer) dispatchSelect() error {
	op, a, b, err := fl.popCondition()
	if err != nil {
		return err
	}
	jaValue, err := fl.popValue()
	if err != nil {
		return err
	}
	neinValue, err := fl.popValue()
	if err != nil {
		return err
	}

	jaBlock := fl.newBlock()
	neinBlock := fl.newBlock()
	immer := fl.newBlock()
	fl.emit(&ir.CJump{A: a, Op: op, B: b, True: jaBlock, False: neinBlock})

	fl.builder.SetBlock(jaBlock)
	fl.emit(&ir.Jump{Target: immer})

	fl.builder.SetBlock(neinBlock)
	fl.emit(&ir.Jump{Target: immer})

	fl.builder.SetBlock(immer)
	phi := &ir.Phi{}
	phi.Name = fl.name("ternary")
	phi.Typ = jaValue.ValueType()
	phi.SetIncoming(jaBlock, jaValue)
	phi.SetIncoming(neinBlock, neinValue)
	fl.emit(phi)
	fl.operands.PushValue(phi)
	return nil
}
