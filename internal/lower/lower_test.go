package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glubfish/ictiobus/internal/iclog"
	"github.com/glubfish/ictiobus/internal/ir"
	"github.com/glubfish/ictiobus/internal/wasmir"
)

func addTypeDef() wasmir.TypeDef {
	return wasmir.TypeDef{ID: "t0", Sig: wasmir.Signature{
		Params: []wasmir.ValType{wasmir.I32, wasmir.I32},
		Result: []wasmir.ValType{wasmir.I32},
	}}
}

func TestLower_WasmAdd(t *testing.T) {
	mod := &wasmir.Module{Definitions: []wasmir.Definition{
		addTypeDef(),
		wasmir.Func{
			ID:     "add",
			TypeID: "t0",
			Instructions: []wasmir.Instruction{
				{Opcode: "get_local", Args: []interface{}{0}},
				{Opcode: "get_local", Args: []interface{}{1}},
				{Opcode: "i32.add"},
			},
		},
	}}

	mdl, err := Lower(mod, "m", iclog.Discard())
	require.NoError(t, err)
	require.Len(t, mdl.Functions, 1)

	fn := mdl.Functions[0]
	assert.Equal(t, "add", fn.Name)
	assert.NotNil(t, fn.EntryBlock)

	var sawBinop, sawReturn bool
	for _, blk := range fn.Blocks() {
		for _, inst := range blk.Instructions {
			switch v := inst.(type) {
			case *ir.Binop:
				assert.Equal(t, "+", v.Op)
				assert.Equal(t, ir.I32, v.Typ)
				sawBinop = true
			case *ir.Return:
				sawReturn = true
			}
		}
	}
	assert.True(t, sawBinop, "expected an i32 + Binop")
	assert.True(t, sawReturn, "expected a Return terminator")
}

func TestLower_IfElseWithResult(t *testing.T) {
	mod := &wasmir.Module{Definitions: []wasmir.Definition{
		wasmir.TypeDef{ID: "t0", Sig: wasmir.Signature{Result: []wasmir.ValType{wasmir.I32}}},
		wasmir.Func{
			ID:     "choose",
			TypeID: "t0",
			Instructions: []wasmir.Instruction{
				{Opcode: "i32.const", Args: []interface{}{int64(1)}},
				{Opcode: "if", Args: []interface{}{"i32"}},
				{Opcode: "i32.const", Args: []interface{}{int64(7)}},
				{Opcode: "else"},
				{Opcode: "i32.const", Args: []interface{}{int64(9)}},
				{Opcode: "end"},
			},
		},
	}}

	mdl, err := Lower(mod, "m", iclog.Discard())
	require.NoError(t, err)
	fn := mdl.Functions[0]

	var sawCJump bool
	var phi *ir.Phi
	for _, blk := range fn.Blocks() {
		for _, inst := range blk.Instructions {
			switch v := inst.(type) {
			case *ir.CJump:
				sawCJump = true
			case *ir.Phi:
				phi = v
			}
		}
	}
	assert.True(t, sawCJump)
	require.NotNil(t, phi)
	assert.Len(t, phi.Incoming, 2)
}

func TestLower_LoopWithBr(t *testing.T) {
	mod := &wasmir.Module{Definitions: []wasmir.Definition{
		wasmir.TypeDef{ID: "t0", Sig: wasmir.Signature{}},
		wasmir.Func{
			ID:     "spin",
			TypeID: "t0",
			Instructions: []wasmir.Instruction{
				{Opcode: "loop", Args: []interface{}{"emptyblock"}},
				{Opcode: "br", Args: []interface{}{0}},
				{Opcode: "end"},
			},
		},
	}}

	mdl, err := Lower(mod, "m", iclog.Discard())
	require.NoError(t, err)
	fn := mdl.Procedures[0]

	var sawSelfJump bool
	for _, blk := range fn.Blocks() {
		for _, inst := range blk.Instructions {
			if j, ok := inst.(*ir.Jump); ok && j.Target == blk {
				sawSelfJump = true
			}
		}
	}
	assert.True(t, sawSelfJump, "br 0 inside a loop should jump back to the loop's own inner block")
}

func TestLower_Select_MatchesGroundedSourceOrder(t *testing.T) {
	mod := &wasmir.Module{Definitions: []wasmir.Definition{
		wasmir.TypeDef{ID: "t0", Sig: wasmir.Signature{Result: []wasmir.ValType{wasmir.I32}}},
		wasmir.Func{
			ID:     "sel",
			TypeID: "t0",
			Instructions: []wasmir.Instruction{
				{Opcode: "i32.const", Args: []interface{}{int64(7)}},
				{Opcode: "i32.const", Args: []interface{}{int64(9)}},
				{Opcode: "i32.const", Args: []interface{}{int64(1)}},
				{Opcode: "select"},
			},
		},
	}}

	mdl, err := Lower(mod, "m", iclog.Discard())
	require.NoError(t, err)
	fn := mdl.Functions[0]

	var phi *ir.Phi
	var cjump *ir.CJump
	for _, blk := range fn.Blocks() {
		for _, inst := range blk.Instructions {
			switch v := inst.(type) {
			case *ir.Phi:
				phi = v
			case *ir.CJump:
				cjump = v
			}
		}
	}
	require.NotNil(t, phi)
	require.NotNil(t, cjump)

	// Stack after pushing 7, 9, 1 is [7, 9, cond=1]. select pops cond, then
	// pops the value routed to the non-zero (True/ja) edge, 9, then the
	// value routed to the zero (False/nein) edge, 7 -- the order
	// wasm2ppci.py's gen_select pops in, which this core preserves (see
	// DESIGN.md). This is the reverse of the real WebAssembly spec, which
	// chooses the first-pushed operand (7) on a non-zero condition; a
	// binning-by-value assertion can't catch that inversion, so this
	// checks the phi's incoming value by block identity instead.
	jaVal, jaOK := phi.Incoming[cjump.True].(*ir.Const)
	neinVal, neinOK := phi.Incoming[cjump.False].(*ir.Const)
	require.True(t, jaOK)
	require.True(t, neinOK)
	assert.Equal(t, int64(9), jaVal.Val)
	assert.Equal(t, int64(7), neinVal.Val)
}

func TestLower_CallPopsArgumentsInDeclarationOrder(t *testing.T) {
	mod := &wasmir.Module{Definitions: []wasmir.Definition{
		wasmir.TypeDef{ID: "sub_t", Sig: wasmir.Signature{
			Params: []wasmir.ValType{wasmir.I32, wasmir.I32},
			Result: []wasmir.ValType{wasmir.I32},
		}},
		wasmir.Func{ID: "sub", TypeID: "sub_t", Instructions: []wasmir.Instruction{
			{Opcode: "get_local", Args: []interface{}{0}},
		}},
		wasmir.Func{ID: "caller", TypeID: "sub_t", Instructions: []wasmir.Instruction{
			// push 10, then 3 -- a correct call to sub(a, b) must pass
			// (10, 3), not (3, 10).
			{Opcode: "i32.const", Args: []interface{}{int64(10)}},
			{Opcode: "i32.const", Args: []interface{}{int64(3)}},
			{Opcode: "call", Args: []interface{}{"sub"}},
		}},
	}}

	mdl, err := Lower(mod, "m", iclog.Discard())
	require.NoError(t, err)

	var call *ir.FunctionCall
	for _, fn := range mdl.Functions {
		if fn.Name != "caller" {
			continue
		}
		for _, blk := range fn.Blocks() {
			for _, inst := range blk.Instructions {
				if c, ok := inst.(*ir.FunctionCall); ok {
					call = c
				}
			}
		}
	}
	require.NotNil(t, call)
	require.Len(t, call.Args, 2)

	first := call.Args[0].(*ir.Const)
	second := call.Args[1].(*ir.Const)
	assert.Equal(t, int64(10), first.Val)
	assert.Equal(t, int64(3), second.Val)
}

func TestModuleScanner_NamesImports(t *testing.T) {
	mod := &wasmir.Module{Definitions: []wasmir.Definition{
		wasmir.TypeDef{ID: "t0", Sig: wasmir.Signature{}},
		wasmir.Import{Modname: "env", Name: "log", Kind: "func", TypeID: "t0"},
	}}

	scanner := NewModuleScanner(iclog.Discard())
	_, err := scanner.Scan(mod, "m")
	require.NoError(t, err)

	entry, ok := scanner.funcNames["t0"]
	require.True(t, ok)
	assert.Equal(t, "env_log", entry.Name)
}
