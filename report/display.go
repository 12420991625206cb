package report

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
)

var (
	SuccessColorFG = pterm.FgLightGreen
	SuccessStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	WarnColorFG    = pterm.FgYellow
	WarnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	ErrorColorFG   = pterm.FgRed
	ErrorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	InfoColorFG    = pterm.FgLightCyan
	InfoStyleBG    = pterm.NewStyle(pterm.BgLightCyan, pterm.FgBlack)
)

// displayICE displays an internal compiler error message.
func displayICE(message, where string) {
	fmt.Print("\n")
	ErrorStyleBG.Print("internal compiler error")
	ErrorColorFG.Printf(" %s (at %s)\n", message, where)
	fmt.Print("This error was not supposed to happen: please open an issue.\n\n")
}

// displayFatal displays a fatal error message.
func displayFatal(message string) {
	ErrorStyleBG.Print("fatal error")
	ErrorColorFG.Printf(" %s\n\n", message)
}

// displayCompileMessage displays a compilation error or warning.  The label is
// the string to prefix the message with: eg. if we want to display an error,
// the label is "error".
func displayCompileMessage(label, absPath, reprPath string, span *TextSpan, message string) {
	labelStyle := ErrorColorFG
	if label == "warning" {
		labelStyle = WarnColorFG
	}

	if span == nil {
		fmt.Printf("%s: ", reprPath)
	} else {
		fmt.Printf("%s:%d:%d: ", reprPath, span.StartLine+1, span.StartCol+1)
	}

	labelStyle.Print(label)
	fmt.Printf(": %s\n\n", message)

	if span != nil && absPath != "" {
		displaySourceText(absPath, span)
	}
}

// displayStdError displays a standard Go error.
func displayStdError(reprPath string, err error) {
	fmt.Printf("%s: ", reprPath)
	ErrorColorFG.Print("error")
	fmt.Printf(": %s\n\n", err)
}

// DisplayInfoMessage prints an informational message to the user.
func DisplayInfoMessage(tag, msg string) {
	InfoStyleBG.Print(tag)
	InfoColorFG.Println(" " + msg)
}

// -----------------------------------------------------------------------------

// displaySourceText displays a segment of source text defined by a text span.
// Source files that can no longer be read are silently skipped: the message
// itself has already been displayed.
func displaySourceText(absPath string, span *TextSpan) {
	file, err := os.Open(absPath)
	if err != nil {
		return
	}
	defer file.Close()

	// Collect all the source lines containing the given source text.
	var lines []string
	sc := bufio.NewScanner(file)
	for ln := 0; sc.Scan(); ln++ {
		if span.StartLine <= ln && ln <= span.EndLine {
			lines = append(lines, strings.ReplaceAll(sc.Text(), "\t", "    "))
		}
	}

	if sc.Err() != nil || len(lines) == 0 {
		return
	}

	// Calculate the minimum line indentation.
	minIndent := math.MaxInt
	for _, line := range lines {
		lineIndent := len(line) - len(strings.TrimLeft(line, " "))
		if lineIndent < minIndent {
			minIndent = lineIndent
		}
	}

	maxLineNumLen := len(strconv.Itoa(span.EndLine + 1))
	lineNumFmtStr := "%-" + strconv.Itoa(maxLineNumLen) + "v | "

	for i, line := range lines {
		InfoColorFG.Printf(lineNumFmtStr, i+span.StartLine+1)
		fmt.Println(line[minIndent:])

		fmt.Print(strings.Repeat(" ", maxLineNumLen), " | ")

		// The carets start at the starting column on the first line and run
		// to the end column on the last line; every line between is
		// underlined completely.
		carretStart := 0
		if i == 0 {
			carretStart = span.StartCol - minIndent
		}

		carretEnd := len(line) - minIndent
		if i == len(lines)-1 && span.EndCol-minIndent < carretEnd {
			carretEnd = span.EndCol - minIndent
		}

		if carretStart < 0 {
			carretStart = 0
		}

		if carretEnd < carretStart+1 {
			carretEnd = carretStart + 1
		}

		fmt.Print(strings.Repeat(" ", carretStart))
		ErrorColorFG.Println(strings.Repeat("^", carretEnd-carretStart))
	}

	fmt.Println()
}

// -----------------------------------------------------------------------------

// phasePrinters display the outcome of a compilation phase.
var (
	phaseSuccessPrinter = &pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgDefault),
		Prefix: pterm.Prefix{
			Style: SuccessStyleBG,
			Text:  "Done",
		},
	}

	phaseFailPrinter = &pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgDefault),
		Prefix: pterm.Prefix{
			Style: ErrorStyleBG,
			Text:  "Fail",
		},
	}
)

// currentPhase is the name of the phase in progress or empty if there is none.
var currentPhase string
var phaseStartTime time.Time

const maxPhaseLength = len("Generating")

// displayBeginPhase records the beginning of a compilation phase.
func displayBeginPhase(phase string) {
	currentPhase = phase
	phaseStartTime = time.Now()
}

// displayEndPhase displays the end of a compilation phase.
func displayEndPhase(success bool) {
	if currentPhase == "" {
		return
	}

	padding := ""
	if len(currentPhase) < maxPhaseLength {
		padding = strings.Repeat(" ", maxPhaseLength-len(currentPhase))
	}

	if success {
		phaseSuccessPrinter.Println(
			currentPhase+padding,
			fmt.Sprintf("(%.3fs)", time.Since(phaseStartTime).Seconds()),
		)
	} else {
		phaseFailPrinter.Println(currentPhase + padding)
	}

	currentPhase = ""
}

// displayCompileHeader displays the compiler information before starting
// compilation.
func displayCompileHeader(version, project, target string) {
	fmt.Print("acc ")
	InfoColorFG.Print("v" + version)
	fmt.Print(" -- project: ")
	InfoColorFG.Print(project)
	fmt.Print(" -- target: ")
	InfoColorFG.Println(target)
}

// displayCompilationFinished displays a compilation finished message.
func displayCompilationFinished(success bool, errorCount, warningCount int, outputPath string) {
	fmt.Print("\n")

	if success {
		SuccessColorFG.Print("All done! ")
	} else {
		ErrorColorFG.Print("Oh no! ")
	}

	fmt.Print("(")

	switch errorCount {
	case 0:
		SuccessColorFG.Print(0)
		fmt.Print(" errors, ")
	case 1:
		ErrorColorFG.Print(1)
		fmt.Print(" error, ")
	default:
		ErrorColorFG.Print(errorCount)
		fmt.Print(" errors, ")
	}

	switch warningCount {
	case 0:
		SuccessColorFG.Print(0)
		fmt.Println(" warnings)")
	case 1:
		WarnColorFG.Print(1)
		fmt.Println(" warning)")
	default:
		WarnColorFG.Print(warningCount)
		fmt.Println(" warnings)")
	}

	if success && outputPath != "" {
		fmt.Print("output written to ")
		InfoColorFG.Println(outputPath)
	}
}
