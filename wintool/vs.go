package wintool

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"tlog.app/go/errors"
)

// vsInstance is an installed Visual Studio instance.
type vsInstance struct {
	InstallPath string
	Version     string
}

// findVSInstance finds the latest VS 15+ instance with the C++ build tools for
// arch using `vswhere.exe`.
func findVSInstance(arch string) (vsInstance, error) {
	vswherePath := filepath.Join(
		os.Getenv("ProgramFiles(x86)"),
		"Microsoft Visual Studio/Installer/vswhere.exe",
	)

	if _, err := os.Stat(vswherePath); err != nil {
		return vsInstance{}, errors.Wrap(err, "find vswhere")
	}

	output, err := exec.Command(
		vswherePath,
		"-latest",
		"-products", "*",
		"-requires", "Microsoft.VisualStudio.Component.VC.Tools."+llvmArchToVSArch[arch],
		"-format", "text",
		"-nologo",
	).Output()
	if err != nil {
		return vsInstance{}, errors.Wrap(err, "run vswhere")
	}

	inst, ok := parseVSWhere(string(output))
	if !ok {
		return vsInstance{}, errors.New("missing MSVC build tools")
	}

	return inst, nil
}

// parseVSWhere extracts the first instance from the text output of vswhere.
func parseVSWhere(output string) (inst vsInstance, ok bool) {
	for _, line := range strings.Split(output, "\n") {
		key, value, found := strings.Cut(strings.TrimSpace(line), ": ")
		if !found {
			continue
		}

		switch key {
		case "installationPath":
			inst.InstallPath = value
		case "installationVersion":
			inst.Version = value
		}

		if inst.InstallPath != "" && inst.Version != "" {
			return inst, true
		}
	}

	return inst, false
}

// findLinkInInstance locates `link.exe` inside a VS 15+ instance.
func findLinkInInstance(inst vsInstance, arch string) (*Linker, error) {
	versionFilePath := filepath.Join(inst.InstallPath, "VC/Auxiliary/Build/Microsoft.VCToolsVersion.default.txt")

	versionB, err := os.ReadFile(versionFilePath)
	if err != nil {
		return nil, errors.Wrap(err, "read MSVC version")
	}

	basePath := filepath.Join(inst.InstallPath, "VC/Tools/MSVC", strings.TrimSpace(string(versionB)))

	hostSuffix := hostArchToVCHostSuffix[runtime.GOARCH]
	subDir := llvmArchToVCSubDir[arch]

	binPath := filepath.Join(basePath, "bin", "Host"+hostSuffix, subDir)
	l := &Linker{
		ToolPath:     filepath.Join(binPath, "link.exe"),
		BinPaths:     []string{binPath},
		LibPaths:     []string{filepath.Join(basePath, "lib", subDir)},
		IncludePaths: []string{filepath.Join(basePath, "include")},
	}

	if _, err := os.Stat(l.ToolPath); err != nil {
		return nil, errors.Wrap(err, "find link.exe")
	}

	return l, nil
}

// versionKey encodes a dotted version so that later versions compare greater.
// Each of the up to four components gets its own bit field.
func versionKey(version string) (uint64, error) {
	var comps [4]uint64

	parts := strings.Split(version, ".")
	if len(parts) > len(comps) {
		return 0, errors.New("version %q has too many components", version)
	}

	for i, part := range parts {
		v, err := strconv.ParseUint(part, 10, 16)
		if err != nil {
			return 0, errors.Wrap(err, "version %q", version)
		}

		comps[i] = v
	}

	return comps[0]<<48 | comps[1]<<32 | comps[2]<<16 | comps[3], nil
}

// latestVersionDir returns the name of the subdirectory of dir with the
// greatest version which satisfies ok.
func latestVersionDir(dir string, ok func(name string) bool) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.Wrap(err, "read %v", dir)
	}

	var latest string
	var latestKey uint64

	for _, entry := range entries {
		if !entry.IsDir() || !ok(entry.Name()) {
			continue
		}

		key, err := versionKey(entry.Name())
		if err != nil {
			continue
		}

		if latest == "" || key > latestKey {
			latest, latestKey = entry.Name(), key
		}
	}

	if latest == "" {
		return "", errors.New("no installation found in %v", dir)
	}

	return latest, nil
}
