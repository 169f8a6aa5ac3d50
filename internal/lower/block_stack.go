package lower

import "github.com/glubfish/ictiobus/internal/ir"

// FrameKind distinguishes the four shapes of WASM structured control.
type FrameKind int

const (
	FrameBlock FrameKind = iota
	FrameLoop
	FrameIf
	FrameElse
)

// BlockFrame is one active structured-control region: its kind, the block
// branches not targeting the loop body land in (ContinueBlock), the region's
// first block (InnerBlock: set for block and loop frames, nil for if and
// else frames; only a FrameLoop's InnerBlock is a branch target), and the
// result Phi for the region's declared type (nil for an "emptyblock"
// result).
type BlockFrame struct {
	Kind          FrameKind
	ContinueBlock *ir.BasicBlock
	InnerBlock    *ir.BasicBlock
	Phi           *ir.Phi
}

// BranchTarget returns the block a `br`/`br_if` targeting this frame jumps
// to: the loop body for FrameLoop frames, the continue block otherwise.
func (f BlockFrame) BranchTarget() *ir.BasicBlock {
	if f.Kind == FrameLoop {
		return f.InnerBlock
	}
	return f.ContinueBlock
}

// BlockStack is the stack of active BlockFrames a function body lowers
// within; `br d` and `br_if d` index it by depth, 0 being the innermost
// frame.
type BlockStack struct {
	frames []BlockFrame
}

// NewBlockStack returns an empty BlockStack.
func NewBlockStack() *BlockStack { return &BlockStack{} }

// Push enters a new structured-control region.
func (s *BlockStack) Push(f BlockFrame) { s.frames = append(s.frames, f) }

// Pop exits the innermost region and returns it.
func (s *BlockStack) Pop() BlockFrame {
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f
}

// Len returns the current nesting depth.
func (s *BlockStack) Len() int { return len(s.frames) }

// At returns the frame at the given branch depth, 0 being the innermost.
func (s *BlockStack) At(depth int) BlockFrame {
	return s.frames[len(s.frames)-1-depth]
}
