// Package wintool locates the MSVC linker and the Windows SDK libraries needed
// to link executables on Windows.
package wintool

import (
	"runtime"
	"strings"
)

// llvmArchToVSArch maps LLVM architecture names to the VS component suffix
// used to search for instances with `vswhere.exe`.
var llvmArchToVSArch = map[string]string{
	"i386":    "x86.x64",
	"i686":    "x86.x64",
	"x86_64":  "x86.x64",
	"arm":     "ARM",
	"aarch64": "ARM64",
}

// hostArchToVCHostSuffix maps GOARCH values to VC host directory suffixes.
var hostArchToVCHostSuffix = map[string]string{
	"386":   "X86",
	"amd64": "X64",
	"arm":   "X86",
	"arm64": "X64",
}

// llvmArchToVCSubDir maps LLVM architecture names to VC 15+ target
// subdirectories, which are also the SDK library subdirectories.
var llvmArchToVCSubDir = map[string]string{
	"i386":    "x86",
	"i686":    "x86",
	"x86_64":  "x64",
	"arm":     "arm",
	"aarch64": "arm64",
}

// goArchToLLVMArch maps GOARCH values to LLVM architecture names.
var goArchToLLVMArch = map[string]string{
	"386":   "i386",
	"amd64": "x86_64",
	"arm":   "arm",
	"arm64": "aarch64",
}

// TargetArch returns the LLVM architecture of a target triple.  The empty
// triple denotes the host.
func TargetArch(triple string) string {
	if triple == "" {
		return goArchToLLVMArch[runtime.GOARCH]
	}

	arch, _, _ := strings.Cut(triple, "-")
	return arch
}
