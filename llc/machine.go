package llc

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/llir/llvm/ir"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

// FileType is the kind of native output produced by the backend.
type FileType int

// Enumeration of native output kinds.
const (
	FileTypeObj FileType = iota
	FileTypeAsm
)

func (ft FileType) String() string {
	if ft == FileTypeAsm {
		return "asm"
	}

	return "obj"
}

// Ext returns the conventional file extension of the output kind.
func (ft FileType) Ext() string {
	switch {
	case ft == FileTypeAsm:
		return ".s"
	case runtime.GOOS == "windows":
		return ".obj"
	default:
		return ".o"
	}
}

// Machine is a target machine: it compiles whole modules using the LLVM
// optimiser and static compiler.
type Machine struct {
	// Triple is the target triple.  If empty, the host is targeted.
	Triple string

	// Passes is the function pass pipeline run before code generation.
	Passes *PassManager

	// OptPath and LLCPath are the paths to the `opt` and `llc` executables.
	OptPath string
	LLCPath string
}

// NewMachine creates a machine for the given target triple and locates the
// LLVM tools it needs.  The tools are looked up in $LLVM_BIN if it is set and
// on the PATH otherwise.
func NewMachine(triple string, passes *PassManager) (*Machine, error) {
	m := &Machine{
		Triple: triple,
		Passes: passes,
	}

	var err error

	if m.LLCPath, err = FindTool("llc"); err != nil {
		return nil, err
	}

	if passes != nil && len(passes.passes) != 0 {
		if m.OptPath, err = FindTool("opt"); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// FindTool locates an LLVM executable.
func FindTool(name string) (string, error) {
	if runtime.GOOS == "windows" {
		name += ".exe"
	}

	if dir, ok := os.LookupEnv("LLVM_BIN"); ok {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			return "", errors.Wrap(err, "find %v in LLVM_BIN", name)
		}

		return path, nil
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return "", errors.Wrap(err, "find %v", name)
	}

	return path, nil
}

// -----------------------------------------------------------------------------

// WriteIR writes the textual IR of mod to path.
func WriteIR(mod *ir.Module, path string) error {
	err := os.WriteFile(path, []byte(mod.String()), 0o644)
	if err != nil {
		return errors.Wrap(err, "write module")
	}

	return nil
}

// Compile compiles mod into an object or assembly file at outPath.  The module
// is first written as textual IR next to the output and optimised in place
// if the machine has passes to run.
func (m *Machine) Compile(ctx context.Context, mod *ir.Module, outPath string, ft FileType) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile module", "out", outPath, "filetype", ft, "triple", m.Triple)
	defer tr.Finish("err", &err)

	if m.Triple != "" {
		mod.TargetTriple = m.Triple
	}

	irPath := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + ".ll"
	if err = WriteIR(mod, irPath); err != nil {
		return err
	}

	defer func() {
		if e := os.Remove(irPath); err == nil && e != nil {
			err = errors.Wrap(e, "remove intermediate module")
		}
	}()

	if m.Passes != nil && len(m.Passes.passes) != 0 {
		err = runTool(ctx, m.OptPath, "-S", "-passes="+m.Passes.pipeline(), "-o", irPath, irPath)
		if err != nil {
			return errors.Wrap(err, "optimise")
		}
	}

	args := []string{"-filetype", ft.String(), "-o", outPath}
	if m.Triple != "" {
		args = append(args, "-mtriple", m.Triple)
	}

	args = append(args, irPath)

	if err = runTool(ctx, m.LLCPath, args...); err != nil {
		return errors.Wrap(err, "llc")
	}

	return nil
}

// runTool runs an external tool and reports its standard error on failure.
func runTool(ctx context.Context, path string, args ...string) error {
	tlog.SpanFromContext(ctx).Printw("run tool", "path", path, "args", args)

	cmd := exec.CommandContext(ctx, path, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return errors.New("%v", msg)
		}

		return err
	}

	return nil
}
