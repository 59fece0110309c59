package sim

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/Solero93/OperatingSystems1/hal/sim/asm"
	"github.com/viant/afs"
	"github.com/viant/afs/storage"
)

// ProgramExt is the extension of program sources.
const ProgramExt = ".asm"

// Load assembles every program source under URL and registers it under its
// base name. It returns the number of programs registered.
func (m *Machine) Load(ctx context.Context, fs afs.Service, URL string, options ...storage.Option) (int, error) {
	objects, err := fs.List(ctx, URL, options...)
	if err != nil {
		return 0, fmt.Errorf("failed to list programs %v: %w", URL, err)
	}
	count := 0
	for _, object := range objects {
		if object.IsDir() || path.Ext(object.Name()) != ProgramExt {
			continue
		}
		data, err := fs.Download(ctx, object, options...)
		if err != nil {
			return count, fmt.Errorf("failed to read program %v: %w", object.URL(), err)
		}
		program, err := asm.Assemble(strings.TrimSuffix(object.Name(), ProgramExt), data)
		if err != nil {
			return count, err
		}
		m.Register(program)
		m.logger.Debug("program loaded", "name", program.Name, "instructions", len(program.Code))
		count++
	}
	return count, nil
}
