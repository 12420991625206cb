// Package depm loads acc projects: the project file, its build configuration
// and the source files that make up the program.
package depm

import (
	"os"
	"path/filepath"
	"strings"

	"tlog.app/go/errors"

	"acc/common"
)

// Project is a loaded acc project.
type Project struct {
	// Name is the name of the project.  It is used to name the output.
	Name string

	// Root is the absolute path to the project directory.
	Root string

	// ModFile is the absolute path to the project file.  It is empty for
	// projects consisting of a single source file.
	ModFile string

	// AccVersion is the compiler version the project was written for.
	AccVersion string

	// Entry is the name of the function the program starts in.
	Entry string

	// Build is the build configuration.
	Build BuildConfig

	// Externs lists the functions the program may call which are defined
	// outside of it.
	Externs []Extern

	// Files lists the source files of the program in a deterministic order.
	Files []*SourceFile

	// Warnings holds problems with the project file which do not prevent
	// compilation.
	Warnings []string
}

// BuildConfig is the configuration of a project's build.
type BuildConfig struct {
	// OutMode is one of the enumerated output modes.
	OutMode OutMode

	// OutPath is the path to write output to.  It is relative to the project
	// root unless absolute.
	OutPath string

	// Target is the target triple.  If empty, the host is targeted.
	Target string

	// Passes is the function pass pipeline.  A nil pipeline means the default
	// one; an empty pipeline disables optimisation.
	Passes []string

	// Linker is the program used to link executables.
	Linker string
}

// Extern is an externally defined function.
type Extern struct {
	Name    string
	Arity   int
	Returns bool
}

// SourceFile is a source file of the project.
type SourceFile struct {
	// AbsPath is the absolute path to the file.
	AbsPath string

	// ReprPath is the path displayed to the user: the path relative to the
	// project root.
	ReprPath string
}

// -----------------------------------------------------------------------------

// LoadProject loads the project at path.  The path is either a directory
// containing a project file or a single source file which is compiled with
// the default configuration.
func LoadProject(path string) (*Project, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, "calculate absolute path")
	}

	finfo, err := os.Stat(absPath)
	if err != nil {
		return nil, errors.Wrap(err, "load project")
	}

	if !finfo.IsDir() {
		return loadSingleFile(absPath)
	}

	proj, err := loadModFile(absPath)
	if err != nil {
		return nil, err
	}

	proj.Files, err = findSourceFiles(absPath)
	if err != nil {
		return nil, err
	}

	if len(proj.Files) == 0 {
		return nil, errors.New("project `%s` contains no source files in `%s`", proj.Name, common.AccSourceDir)
	}

	return proj, nil
}

// loadSingleFile creates a project from a lone source file.
func loadSingleFile(absPath string) (*Project, error) {
	if filepath.Ext(absPath) != common.AccFileExt {
		return nil, errors.New("`%s` is not an %s source file", absPath, common.AccFileExt)
	}

	root, base := filepath.Split(absPath)

	proj := &Project{
		Name:       strings.TrimSuffix(base, common.AccFileExt),
		Root:       filepath.Clean(root),
		AccVersion: common.AccVersion,
		Entry:      common.DefaultEntry,
		Build:      defaultBuildConfig(),
		Files: []*SourceFile{{
			AbsPath:  absPath,
			ReprPath: base,
		}},
	}

	return proj, nil
}

// OutputPath returns the absolute path output is written to.
func (p *Project) OutputPath() string {
	if filepath.IsAbs(p.Build.OutPath) {
		return p.Build.OutPath
	}

	return filepath.Join(p.Root, p.Build.OutPath)
}
