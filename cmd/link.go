package cmd

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"acc/depm"
	"acc/wintool"
)

// buildOverrides are the build settings given on the command-line which take
// precedence over those of the project file.
type buildOverrides struct {
	outMode    depm.OutMode
	hasOutMode bool
	outPath    string
}

func (bo buildOverrides) apply(cfg *depm.BuildConfig) {
	if bo.hasOutMode {
		cfg.OutMode = bo.outMode
		cfg.OutPath = depm.DefaultOutPath(bo.outMode)
	}

	if bo.outPath != "" {
		cfg.OutPath = bo.outPath
	}
}

// addStartShim makes the program's entry function callable as the C `main`.
// If the entry function is already called `main`, nothing is added.
func addStartShim(mod *ir.Module, entry string) error {
	if entry == "main" {
		return nil
	}

	var entryFn *ir.Func
	for _, f := range mod.Funcs {
		switch f.Name() {
		case "main":
			return errors.New("entry function is `%s` but the program also defines `main`", entry)
		case entry:
			entryFn = f
		}
	}

	if entryFn == nil {
		return errors.New("missing entry function `%s`", entry)
	}

	if len(entryFn.Params) != 0 {
		return errors.New("entry function `%s` must take no parameters", entry)
	}

	shim := mod.NewFunc("main", types.I32)
	block := shim.NewBlock("entry")
	result := block.NewCall(entryFn)
	block.NewRet(block.NewTrunc(result, types.I32))

	return nil
}

// linkExecutable links the object file at objPath into the project's output
// executable.  The object file is removed once linking succeeds.
func linkExecutable(ctx context.Context, proj *depm.Project, objPath string) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "link", "obj", objPath)
	defer tr.Finish("err", &err)

	outPath := proj.OutputPath()

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" && strings.EqualFold(proj.Build.Linker, "link") {
		linker, err := wintool.FindLink(proj.Build.Target)
		if err != nil {
			return errors.Wrap(err, "locate linker")
		}

		cmd = linker.Command(
			"/out:"+outPath,
			"/nologo",
			"/subsystem:console",
			"/defaultlib:libcmt",
			objPath,
		)
	} else {
		linkerPath, err := exec.LookPath(proj.Build.Linker)
		if err != nil {
			return errors.Wrap(err, "locate linker `%s`", proj.Build.Linker)
		}

		cmd = exec.CommandContext(ctx, linkerPath, "-o", outPath, objPath)
	}

	tr.Printw("run linker", "path", cmd.Path, "args", cmd.Args)

	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.New("linking failed: %v\n%s", err, out)
	}

	return os.Remove(objPath)
}
