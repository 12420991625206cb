// Package cmd is the top-level "driver" package for the acc compiler: it
// contains all the functionality for parsing command-line arguments, managing
// compiler state, and running all the various stages of the compiler.
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"acc/ast"
	"acc/common"
	"acc/depm"
	"acc/generate"
	"acc/llc"
	"acc/report"
	"acc/syntax"
)

// Compiler represents the overall state of a compilation.
type Compiler struct {
	ctx context.Context

	// rootPath is the path to the project directory or source file.
	rootPath string

	// proj is the loaded project.
	proj *depm.Project

	// stages tracks the stage compilation is in.
	stages stageMachine

	// prog is the program assembled from every source file of the project.
	prog *ast.Program

	// passes is the function pass pipeline shared by the generator and the
	// backend.
	passes *llc.PassManager

	// gen is the IR generator which owns the output module.
	gen *generate.Generator
}

// NewCompiler creates a new compiler for the project at rootPath.
func NewCompiler(ctx context.Context, rootPath string) *Compiler {
	return &Compiler{
		ctx:      ctx,
		rootPath: rootPath,
	}
}

// enter moves the compiler to the next stage and displays it.
func (c *Compiler) enter(next Stage) {
	if err := c.stages.advance(next); err != nil {
		report.ReportICE("%v", err)
	}

	tlog.SpanFromContext(c.ctx).Printw("stage", "stage", next)

	if next != StageDone {
		report.ReportBeginPhase(next.String())
	}
}

// finish ends compilation after the last stage that ran, successful or not.
func (c *Compiler) finish() {
	if c.stages.current() != StageDone {
		c.enter(StageDone)
	}

	report.ReportEndPhase()
}

// -----------------------------------------------------------------------------

// Load loads the project and applies the command-line overrides in cfg.
func (c *Compiler) Load(cfg buildOverrides) bool {
	if err := c.stages.advance(StageLoadFiles); err != nil {
		report.ReportICE("%v", err)
	}

	proj, err := depm.LoadProject(c.rootPath)
	if err != nil {
		report.ReportStdError(c.rootPath, err)
		return false
	}

	c.proj = proj
	cfg.apply(&proj.Build)

	for _, w := range proj.Warnings {
		report.ReportCompileWarning("", proj.ModFile, nil, "%s", w)
	}

	target := proj.Build.Target
	if target == "" {
		target = fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
	}

	report.ReportCompileHeader(common.AccVersion, proj.Name, target)

	return true
}

// Parse parses every source file of the project into a single program.  All
// files are parsed even if some fail.
func (c *Compiler) Parse() bool {
	c.enter(StageParse)

	c.prog = &ast.Program{}
	for _, file := range c.proj.Files {
		prog, err := syntax.ParseFile(file.AbsPath, file.ReprPath)
		if err != nil {
			var lce *report.LocalCompileError
			if errors.As(err, &lce) {
				report.ReportCompileError(file.AbsPath, file.ReprPath, lce.Span, "%s", lce.Message)
			} else {
				report.ReportStdError(file.ReprPath, err)
			}

			continue
		}

		c.prog.Functions = append(c.prog.Functions, prog.Functions...)
	}

	return !report.AnyErrors()
}

// Generate lowers the program into an LLVM module.
func (c *Compiler) Generate() bool {
	c.enter(StageGenerate)

	passes := c.proj.Build.Passes
	if passes == nil {
		passes = llc.DefaultPasses
	}

	pm, err := llc.NewPassManager(passes)
	if err != nil {
		report.ReportStdError(c.proj.ModFile, err)
		return false
	}

	c.passes = pm
	c.gen = generate.NewGenerator(pm)

	for _, ext := range c.proj.Externs {
		if _, err := c.gen.DeclareExtern(ast.Name(ext.Name), ext.Arity, ext.Returns); err != nil {
			report.ReportStdError(c.proj.ModFile, err)
			return false
		}
	}

	if err := c.gen.LowerProgram(c.ctx, c.prog, ast.Name(c.proj.Entry)); err != nil {
		c.reportLowerError(err)
		return false
	}

	return true
}

// reportLowerError reports a lowering failure against the file defining the
// failing function.
func (c *Compiler) reportLowerError(err error) {
	var le *generate.LowerError
	if !errors.As(err, &le) {
		report.ReportStdError(c.proj.Name, err)
		return
	}

	fn, ok := c.prog.Lookup(le.Func)
	if !ok {
		report.ReportCompileError("", c.proj.Name, le.Span, "%s", le.Error())
		return
	}

	span := le.Span
	if span == nil {
		span = fn.Span()
	}

	report.ReportCompileError(fn.AbsPath, fn.ReprPath, span, "%s", le.Error())
}

// Emit writes the output of the compilation.  For executables, this is an
// object file in the build directory which is then linked.
func (c *Compiler) Emit() bool {
	c.enter(StageEmit)

	outPath := c.proj.OutputPath()
	mod := c.gen.Module()

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		report.ReportFatal("failed to create output directory: %s", err)
	}

	if c.proj.Build.OutMode == depm.OutModeLLVM {
		if err := llc.WriteIR(mod, outPath); err != nil {
			report.ReportFatal("failed to write output file `%s`: %s", outPath, err)
		}

		return true
	}

	machine, err := llc.NewMachine(c.proj.Build.Target, c.passes)
	if err != nil {
		report.ReportFatal("failed to locate LLVM tools: %s", err)
	}

	ft := llc.FileTypeObj
	if c.proj.Build.OutMode == depm.OutModeASM {
		ft = llc.FileTypeAsm
	}

	if c.proj.Build.OutMode == depm.OutModeExecutable {
		if err := addStartShim(mod, c.proj.Entry); err != nil {
			report.ReportStdError(c.proj.Name, err)
			return false
		}

		buildDir := filepath.Join(c.proj.Root, common.AccBuildDir)
		if err := os.MkdirAll(buildDir, 0o755); err != nil {
			report.ReportFatal("failed to create build directory: %s", err)
		}

		outPath = filepath.Join(buildDir, c.proj.Name+ft.Ext())
	}

	if err := machine.Compile(c.ctx, mod, outPath, ft); err != nil {
		report.ReportStdError(c.proj.Name, err)
		return false
	}

	if c.proj.Build.OutMode == depm.OutModeExecutable {
		return c.Link(outPath)
	}

	return true
}

// Link links the emitted object file into an executable.
func (c *Compiler) Link(objPath string) bool {
	c.enter(StageLink)

	if err := linkExecutable(c.ctx, c.proj, objPath); err != nil {
		report.ReportStdError(c.proj.Name, err)
		return false
	}

	return true
}

// Build runs every stage of compilation and returns whether it succeeded.
func (c *Compiler) Build(cfg buildOverrides) bool {
	defer c.finish()

	return c.Load(cfg) && c.Parse() && c.Generate() && c.Emit()
}

// Analyze runs compilation up to and including IR generation.
func (c *Compiler) Analyze(cfg buildOverrides) bool {
	defer c.finish()

	return c.Load(cfg) && c.Parse() && c.Generate()
}
