package lower

import (
	"github.com/glubfish/ictiobus/internal/iclog"
	"github.com/glubfish/ictiobus/internal/ir"
	"github.com/glubfish/ictiobus/internal/wasmir"
)

// Lower is the WASM lowerer's top-level entry point: scan mod's
// definitions, then lower every discovered function body in document
// order, returning the resulting ir.Module. Any error aborts immediately
// with no partial module returned, per the core's all-errors-abort
// propagation rule.
func Lower(mod *wasmir.Module, moduleName string, logger *iclog.Logger) (*ir.Module, error) {
	scanner := NewModuleScanner(logger)
	builder, err := scanner.Scan(mod, moduleName)
	if err != nil {
		return nil, err
	}

	for _, sf := range scanner.Functions() {
		fl := NewFunctionLowerer(scanner, builder)
		if err := fl.Lower(sf); err != nil {
			return nil, err
		}
	}

	return builder.Module, nil
}
