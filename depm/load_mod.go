package depm

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"
	"golang.org/x/mod/semver"
	"tlog.app/go/errors"

	"acc/common"
)

// tomlProject represents a project file as it is encoded in TOML.
type tomlProject struct {
	Name       string       `toml:"name"`
	AccVersion string       `toml:"acc-version"`
	Entry      string       `toml:"entry"`
	Build      tomlBuild    `toml:"build"`
	Externs    []tomlExtern `toml:"extern"`
}

type tomlBuild struct {
	OutMode string   `toml:"out-mode"`
	OutPath string   `toml:"out-path"`
	Target  string   `toml:"target"`
	Passes  []string `toml:"passes"`
	Linker  string   `toml:"linker"`
}

type tomlExtern struct {
	Name    string `toml:"name"`
	Arity   int    `toml:"arity"`
	Returns *bool  `toml:"returns"`
}

// loadModFile loads and validates the project file in the directory root.
func loadModFile(root string) (*Project, error) {
	modPath := filepath.Join(root, common.AccModuleFileName)

	buff, err := os.ReadFile(modPath)
	if err != nil {
		return nil, errors.Wrap(err, "read project file")
	}

	tree, err := toml.LoadBytes(buff)
	if err != nil {
		return nil, errors.Wrap(err, "parse project file `%s`", modPath)
	}

	tp := &tomlProject{}
	if err := tree.Unmarshal(tp); err != nil {
		return nil, errors.Wrap(err, "decode project file `%s`", modPath)
	}

	proj := &Project{
		Root:    root,
		ModFile: modPath,
	}

	// an empty pass list is distinct from a missing one
	if !tree.Has("build.passes") {
		tp.Build.Passes = nil
	} else if tp.Build.Passes == nil {
		tp.Build.Passes = []string{}
	}

	if err := validateProject(proj, tp); err != nil {
		return nil, errors.Wrap(err, "project file `%s`", modPath)
	}

	return proj, nil
}

// validateProject checks the contents of a project file and moves them into
// the project.
func validateProject(proj *Project, tp *tomlProject) error {
	if tp.Name == "" {
		return errors.New("missing project name")
	}

	if !IsValidIdentifier(tp.Name) {
		return errors.New("project name must be a valid identifier")
	}

	proj.Name = tp.Name

	if err := checkVersion(proj, tp.AccVersion); err != nil {
		return err
	}

	proj.Entry = common.DefaultEntry
	if tp.Entry != "" {
		if !IsValidIdentifier(tp.Entry) {
			return errors.New("entry `%s` must be a valid identifier", tp.Entry)
		}

		proj.Entry = tp.Entry
	}

	build, err := validateBuild(&tp.Build)
	if err != nil {
		return err
	}

	proj.Build = build

	seen := make(map[string]struct{}, len(tp.Externs))
	for i, te := range tp.Externs {
		if !IsValidIdentifier(te.Name) {
			return errors.New("extern %d: name must be a valid identifier", i)
		}

		if _, ok := seen[te.Name]; ok {
			return errors.New("extern `%s` declared multiple times", te.Name)
		}

		seen[te.Name] = struct{}{}

		if te.Arity < 0 {
			return errors.New("extern `%s`: arity cannot be negative", te.Name)
		}

		returns := true
		if te.Returns != nil {
			returns = *te.Returns
		}

		proj.Externs = append(proj.Externs, Extern{Name: te.Name, Arity: te.Arity, Returns: returns})
	}

	return nil
}

// checkVersion compares the version a project was written for with the
// compiler's.  A differing major or minor version only produces a warning.
func checkVersion(proj *Project, version string) error {
	if version == "" {
		proj.AccVersion = common.AccVersion
		proj.Warnings = append(proj.Warnings, "missing acc-version: assuming the current compiler version")
		return nil
	}

	if !semver.IsValid("v" + version) {
		return errors.New("acc-version `%s` is not a valid semantic version", version)
	}

	proj.AccVersion = version

	if semver.MajorMinor("v"+version) != semver.MajorMinor("v"+common.AccVersion) {
		proj.Warnings = append(proj.Warnings, fmt.Sprintf(
			"version of project `%s` (v%s) does not match current acc version (v%s)",
			proj.Name,
			version,
			common.AccVersion,
		))
	}

	return nil
}

func validateBuild(tb *tomlBuild) (BuildConfig, error) {
	bc := defaultBuildConfig()

	if tb.OutMode != "" {
		mode, ok := ParseOutMode(tb.OutMode)
		if !ok {
			return bc, errors.New("unknown output mode `%s`", tb.OutMode)
		}

		bc.OutMode = mode
	}

	bc.OutPath = DefaultOutPath(bc.OutMode)
	if tb.OutPath != "" {
		bc.OutPath = tb.OutPath
	}

	bc.Target = tb.Target

	if tb.Passes != nil {
		bc.Passes = append([]string{}, tb.Passes...)
	}

	if tb.Linker != "" {
		bc.Linker = tb.Linker
	}

	return bc, nil
}
