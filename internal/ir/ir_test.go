package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_EmitsFunctionWithAddAndReturn(t *testing.T) {
	b := NewBuilder("test")
	fn := b.NewFunction("add", I32)
	b.SetFunction(fn)

	entry := b.NewBlock("")
	b.SetBlock(entry)

	p0 := &Parameter{valueBase: valueBase{Name: "p0", Typ: I32}, Index: 0}
	p1 := &Parameter{valueBase: valueBase{Name: "p1", Typ: I32}, Index: 1}
	fn.Params = []*Parameter{p0, p1}

	sum := b.Emit(&Binop{valueBase: valueBase{Name: "t0", Typ: I32}, A: p0, B: p1, Op: "+"})
	b.Emit(&Return{Val: sum.(Value)})

	require.True(t, entry.IsClosed())
	assert.Len(t, fn.Blocks(), 1)
	assert.Equal(t, entry, fn.EntryBlock)
}

func TestBasicBlock_AppendAfterTerminatorPanics(t *testing.T) {
	b := &BasicBlock{Name: "blk"}
	b.Append(&Jump{Target: &BasicBlock{Name: "next"}})

	assert.Panics(t, func() {
		b.Append(&Exit{})
	})
}

func TestBuilder_DeleteUnreachable_DropsDeadBlock(t *testing.T) {
	b := NewBuilder("test")
	proc := b.NewProcedure("p")
	b.SetFunction(proc)

	entry := b.NewBlock("entry")
	dead := b.NewBlock("dead")
	live := b.NewBlock("live")

	b.SetBlock(entry)
	b.Emit(&Jump{Target: live})

	b.SetBlock(live)
	b.Emit(&Exit{})

	b.SetBlock(dead)
	b.Emit(&Exit{})

	assert.Len(t, proc.Blocks(), 3)
	b.DeleteUnreachable()
	assert.Len(t, proc.Blocks(), 2)
	assert.Contains(t, proc.Blocks(), entry)
	assert.Contains(t, proc.Blocks(), live)
}

func TestModule_FindFunction(t *testing.T) {
	m := NewModule("m")
	m.Functions = append(m.Functions, &Function{Name: "foo"})

	assert.NotNil(t, m.FindFunction("foo"))
	assert.Nil(t, m.FindFunction("bar"))
	assert.NotEqual(t, m.BuildID.String(), "")
}
