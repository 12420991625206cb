package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/ComedicChimera/olive"
	"github.com/kr/pretty"
	"tlog.app/go/tlog"

	"acc/ast"
	"acc/common"
	"acc/depm"
	"acc/report"
)

// Execute is the main entry point for the `acc` CLI utility.  It returns the
// process exit code.
func Execute(args []string) int {
	// set up the argument parser and all its extended commands and arguments
	cli := olive.NewCLI("acc", "acc is a compiler for acc projects", true)
	logLvlArg := cli.AddSelectorArg("loglevel", "ll", "the compiler log level", false, report.LogLevelNames())
	logLvlArg.SetDefaultValue("verbose")

	buildCmd := cli.AddSubcommand("build", "compile a project or source file", true)
	buildCmd.AddPrimaryArg("path", "the path to the project directory or source file", true)
	buildCmd.AddSelectorArg("outmode", "m", "the kind of output to produce", false, depm.OutModeNames())
	buildCmd.AddStringArg("outpath", "o", "the path to write output to", false)

	runCmd := cli.AddSubcommand("run", "compile and interpret a project or source file", true)
	runCmd.AddPrimaryArg("path", "the path to the project directory or source file", true)
	runCmd.AddStringArg("steps", "s", "the maximum number of instructions to execute", false)

	irCmd := cli.AddSubcommand("ir", "print the LLVM IR of a project or source file", true)
	irCmd.AddPrimaryArg("path", "the path to the project directory or source file", true)

	parseCmd := cli.AddSubcommand("parse", "print the syntax tree of a project or source file", true)
	parseCmd.AddPrimaryArg("path", "the path to the project directory or source file", true)
	parseCmd.AddFlag("dump", "d", "dump the full syntax tree including source positions")

	cli.AddSubcommand("version", "print the acc version", false)

	// run the argument parser
	result, err := olive.ParseArgs(cli, args)
	if err != nil {
		report.ReportFatal("%s", err)
	}

	logLevel, _ := report.ParseLogLevel(result.Arguments["loglevel"].(string))

	ctx := context.Background()
	if _, ok := os.LookupEnv("ACC_TRACE"); ok {
		ctx = tlog.ContextWithSpan(ctx, tlog.Root())
	}

	// process the inputed command line
	subcmdName, subResult, _ := result.Subcommand()
	switch subcmdName {
	case "build":
		return execBuildCommand(ctx, subResult, logLevel)
	case "run":
		return execRunCommand(ctx, subResult, quiet(logLevel))
	case "ir":
		return execIRCommand(ctx, subResult, quiet(logLevel))
	case "parse":
		return execParseCommand(ctx, subResult, quiet(logLevel))
	case "version":
		report.DisplayInfoMessage("acc version", common.AccVersion)
	}

	return 0
}

// quiet lowers the log level of commands whose own output goes to stdout so
// that it is not interleaved with phase information.
func quiet(logLevel int) int {
	if logLevel > report.LogLevelWarn {
		return report.LogLevelWarn
	}

	return logLevel
}

// execBuildCommand executes the build subcommand.
func execBuildCommand(ctx context.Context, result *olive.ArgParseResult, logLevel int) int {
	report.InitReporter(logLevel)

	rootPath, _ := result.PrimaryArg()

	var overrides buildOverrides
	if modeName, ok := result.Arguments["outmode"]; ok {
		overrides.outMode, overrides.hasOutMode = depm.ParseOutMode(modeName.(string))
	}

	if outPath, ok := result.Arguments["outpath"]; ok {
		overrides.outPath = outPath.(string)
	}

	c := NewCompiler(ctx, rootPath)
	ok := c.Build(overrides)

	outPath := ""
	if c.proj != nil {
		outPath = c.proj.OutputPath()
	}

	report.ReportCompilationFinished(outPath)

	if !ok {
		return 1
	}

	return 0
}

// execRunCommand executes the run subcommand.  The exit code is the result of
// the program's entry function.
func execRunCommand(ctx context.Context, result *olive.ArgParseResult, logLevel int) int {
	report.InitReporter(logLevel)

	rootPath, _ := result.PrimaryArg()

	var maxSteps int64
	if steps, ok := result.Arguments["steps"]; ok && steps.(string) != "" {
		n, err := strconv.ParseInt(steps.(string), 10, 64)
		if err != nil || n <= 0 {
			report.ReportFatal("invalid step limit `%s`", steps)
		}

		maxSteps = n
	}

	c := NewCompiler(ctx, rootPath)
	if !c.Analyze(buildOverrides{}) {
		return 1
	}

	code, err := runProgram(c, os.Stdin, os.Stdout, maxSteps)
	if err != nil {
		report.ReportStdError(c.proj.Name, err)
		return 1
	}

	return int(code)
}

// execIRCommand executes the ir subcommand.
func execIRCommand(ctx context.Context, result *olive.ArgParseResult, logLevel int) int {
	report.InitReporter(logLevel)

	rootPath, _ := result.PrimaryArg()

	c := NewCompiler(ctx, rootPath)
	if !c.Analyze(buildOverrides{}) {
		return 1
	}

	fmt.Print(c.gen.Module().String())
	return 0
}

// execParseCommand executes the parse subcommand.
func execParseCommand(ctx context.Context, result *olive.ArgParseResult, logLevel int) int {
	report.InitReporter(logLevel)

	rootPath, _ := result.PrimaryArg()

	c := NewCompiler(ctx, rootPath)
	ok := c.Load(buildOverrides{}) && c.Parse()
	c.finish()

	if !ok {
		return 1
	}

	if result.HasFlag("dump") {
		pretty.Println(c.prog)
		return 0
	}

	for _, fn := range c.prog.Functions {
		printFunc(fn)
	}

	return 0
}

// printFunc prints an outline of a function: its signature and statements.
func printFunc(fn *ast.Function) {
	fmt.Printf("func %s(", fn.Name)
	for i, param := range fn.Params {
		if i > 0 {
			fmt.Print(", ")
		}

		fmt.Print(param)
	}
	fmt.Println(")")

	printStmts(fn.Body, 1)
}

func printStmts(stmts []ast.Stmt, depth int) {
	indent := fmt.Sprintf("%*s", depth*2, "")

	for _, stmt := range stmts {
		switch v := stmt.(type) {
		case *ast.ExprStmt:
			fmt.Printf("%seval %s\n", indent, ast.Repr(v.Expr))
		case *ast.LetStmt:
			fmt.Printf("%slet %s = %s\n", indent, v.Name, ast.Repr(v.Initializer))
		case *ast.AssignStmt:
			fmt.Printf("%s%s = %s\n", indent, v.Name, ast.Repr(v.Value))
		case *ast.ReturnStmt:
			fmt.Printf("%sreturn %s\n", indent, ast.Repr(v.Value))
		case *ast.IfStmt:
			fmt.Printf("%sif %s\n", indent, ast.Repr(v.Cond))
			printStmts(v.Then, depth+1)
			if len(v.Else) > 0 {
				fmt.Printf("%selse\n", indent)
				printStmts(v.Else, depth+1)
			}
		case *ast.ForStmt:
			fmt.Printf("%sfor %s\n", indent, ast.Repr(v.Cond))
			fmt.Printf("%s  init\n", indent)
			printStmts([]ast.Stmt{v.Init}, depth+2)
			fmt.Printf("%s  step\n", indent)
			printStmts([]ast.Stmt{v.Step}, depth+2)
			fmt.Printf("%s  do\n", indent)
			printStmts(v.Body, depth+2)
		}
	}
}
