// Package lower translates a wasmir.Module into an ir.Module: a
// ModuleScanner builds the symbol tables (types, function names, globals),
// then a FunctionLowerer runs per function, dispatching each instruction by
// opcode family through an OperandStack and BlockStack. This is a direct
// port of the shape of ppci's WasmToIrCompiler (wasm2ppci.py), generalized
// from its Python stack-of-tuples state into the typed OperandStack/
// BlockStack/InstructionDispatcher this core exposes as named components.
package lower

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/glubfish/ictiobus/internal/iclog"
	"github.com/glubfish/ictiobus/internal/icterrors"
	"github.com/glubfish/ictiobus/internal/ir"
	"github.com/glubfish/ictiobus/internal/wasmir"
)

// globalSlot is a GlobalSlot: a global's IR type and the module-level
// ir.Variable holding its initial byte image.
type globalSlot struct {
	Typ ir.Type
	Var *ir.Variable
}

// funcEntry names a function reachable by id, with its signature.
type funcEntry struct {
	Name string
	Sig  wasmir.Signature
}

// ModuleScanner walks a wasmir.Module's top-level definitions once,
// building the symbol tables FunctionLowerer needs: type signatures,
// resolved function names (by id), module globals, and the ordered list of
// function bodies left to lower.
type ModuleScanner struct {
	logger *iclog.Logger

	types     map[string]wasmir.Signature
	funcNames map[string]funcEntry
	globals   map[string]globalSlot

	funcs []scannedFunc
}

type scannedFunc struct {
	Name string
	Sig  wasmir.Signature
	Def  wasmir.Func
}

// NewModuleScanner creates a scanner that logs unsupported definitions
// through logger (which may be nil to discard them).
func NewModuleScanner(logger *iclog.Logger) *ModuleScanner {
	return &ModuleScanner{
		logger:    logger,
		types:     make(map[string]wasmir.Signature),
		funcNames: make(map[string]funcEntry),
		globals:   make(map[string]globalSlot),
	}
}

// Scan populates the scanner's tables from mod and returns the builder
// already carrying the module's global Variables, ready for
// FunctionLowerer to emit functions/procedures into.
func (s *ModuleScanner) Scan(mod *wasmir.Module, moduleName string) (*ir.Builder, error) {
	builder := ir.NewBuilder(moduleName)

	for _, def := range mod.Definitions {
		switch d := def.(type) {
		case wasmir.TypeDef:
			s.types[d.ID] = d.Sig

		case wasmir.Import:
			if d.Kind != "func" {
				return nil, icterrors.UnsupportedWasmf("import kind %q is not supported", d.Kind)
			}
			sig, ok := s.types[d.TypeID]
			if !ok {
				return nil, icterrors.UnsupportedWasmf("import %s.%s references undeclared type %q", d.Modname, d.Name, d.TypeID)
			}
			name := fmt.Sprintf("%s_%s", d.Modname, d.Name)
			s.funcNames[d.TypeID] = funcEntry{Name: name, Sig: sig}

		case wasmir.Export:
			if d.Kind == "func" {
				entry := s.funcNames[d.Ref]
				entry.Name = d.Name
				s.funcNames[d.Ref] = entry
			}

		case wasmir.Func:
			sig, ok := s.types[d.TypeID]
			if !ok {
				return nil, icterrors.UnsupportedWasmf("function %q references undeclared type %q", d.ID, d.TypeID)
			}
			name := s.nameFor(d, len(s.funcs))
			key := d.ID
			if key == "" {
				key = strconv.Itoa(len(s.funcs))
			}
			s.funcNames[key] = funcEntry{Name: name, Sig: sig}
			s.funcs = append(s.funcs, scannedFunc{Name: name, Sig: sig, Def: d})

		case wasmir.Global:
			irTyp, err := valTypeToIR(d.Typ)
			if err != nil {
				return nil, err
			}
			bytes, err := packInitializer(d.Init, d.Typ)
			if err != nil {
				return nil, err
			}
			size := irTyp.Size()
			v := &ir.Variable{Size: size, Alignment: size, Initial: bytes}
			v.Name = fmt.Sprintf("global%s", d.ID)
			v.Typ = irTyp
			builder.Module.Variables = append(builder.Module.Variables, v)
			s.globals[d.ID] = globalSlot{Typ: irTyp, Var: v}

		default:
			s.logger.Warnf("definition %T not implemented by the core lowerer", def)
		}
	}

	return builder, nil
}

// nameFor resolves the display name for a defined function: its own id
// (sigil stripped) if it has one, otherwise a name already recorded from an
// import/export, otherwise a synthesized "unnamed<index>".
func (s *ModuleScanner) nameFor(def wasmir.Func, index int) string {
	if def.ID != "" {
		return strings.TrimPrefix(def.ID, "$")
	}
	if entry, ok := s.funcNames[strconv.Itoa(index)]; ok && entry.Name != "" {
		return entry.Name
	}
	return fmt.Sprintf("unnamed%d", index)
}

// Functions returns the function bodies discovered by Scan, in document
// order, ready for FunctionLowerer.
func (s *ModuleScanner) Functions() []scannedFunc { return s.funcs }

func valTypeToIR(v wasmir.ValType) (ir.Type, error) {
	switch v {
	case wasmir.I32:
		return ir.I32, nil
	case wasmir.I64:
		return ir.I64, nil
	case wasmir.F32:
		return ir.F32, nil
	case wasmir.F64:
		return ir.F64, nil
	default:
		return 0, icterrors.UnsupportedWasmf("unknown value type %q", v)
	}
}

// packInitializer packs a Global's constant initializer into its
// platform-width little-endian (IEEE754 for floats) byte image.
func packInitializer(init wasmir.Instruction, typ wasmir.ValType) ([]byte, error) {
	if len(init.Args) == 0 {
		return nil, icterrors.UnsupportedWasmf("global initializer %q has no constant argument", init.Opcode)
	}

	switch typ {
	case wasmir.I32:
		n, err := toInt64(init.Args[0])
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(n))
		return buf, nil
	case wasmir.I64:
		n, err := toInt64(init.Args[0])
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, uint64(n))
		return buf, nil
	case wasmir.F32:
		f, err := toFloat64(init.Args[0])
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(f)))
		return buf, nil
	case wasmir.F64:
		f, err := toFloat64(init.Args[0])
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, math.Float64bits(f))
		return buf, nil
	default:
		return nil, icterrors.UnsupportedWasmf("unknown value type %q", typ)
	}
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, icterrors.TypeMismatchf("expected integer constant, got %T", v)
	}
}

func toFloat64(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	default:
		return 0, icterrors.TypeMismatchf("expected numeric constant, got %T", v)
	}
}
