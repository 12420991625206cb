package depm

import "runtime"

// OutMode is the kind of output a build produces.
type OutMode int

// Enumeration of output modes.
const (
	OutModeExecutable OutMode = iota // Output an executable (default).
	OutModeObj                       // Output an object file.
	OutModeASM                       // Output an assembly file.
	OutModeLLVM                      // Output an LLVM IR text file.
)

var outModeNames = map[string]OutMode{
	"exe":  OutModeExecutable,
	"obj":  OutModeObj,
	"asm":  OutModeASM,
	"llvm": OutModeLLVM,
}

// OutModeNames lists the names of the output modes as they are written in
// project files and on the command line.
func OutModeNames() []string {
	return []string{"exe", "obj", "asm", "llvm"}
}

// ParseOutMode converts the name of an output mode to its value.
func ParseOutMode(name string) (OutMode, bool) {
	mode, ok := outModeNames[name]
	return mode, ok
}

func (m OutMode) String() string {
	for name, mode := range outModeNames {
		if mode == m {
			return name
		}
	}

	return "unknown"
}

// DefaultOutPath is the output path used when a project does not set one.
func DefaultOutPath(mode OutMode) string {
	switch mode {
	case OutModeObj:
		if runtime.GOOS == "windows" {
			return "out.obj"
		}

		return "out.o"
	case OutModeASM:
		return "out.s"
	case OutModeLLVM:
		return "out.ll"
	}

	if runtime.GOOS == "windows" {
		return "out.exe"
	}

	return "out"
}

// DefaultLinker is the linker used when a project does not set one.
func DefaultLinker() string {
	if runtime.GOOS == "windows" {
		return "link"
	}

	return "cc"
}

func defaultBuildConfig() BuildConfig {
	return BuildConfig{
		OutMode: OutModeExecutable,
		OutPath: DefaultOutPath(OutModeExecutable),
		Linker:  DefaultLinker(),
	}
}
