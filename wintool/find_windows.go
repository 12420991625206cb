//go:build windows

package wintool

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/windows/registry"
	"tlog.app/go/errors"
)

// FindLink locates the MSVC linker for the target triple along with the UCRT
// and Windows 10 SDK libraries it links against.
func FindLink(triple string) (*Linker, error) {
	arch := TargetArch(triple)
	if _, ok := llvmArchToVCSubDir[arch]; !ok {
		return nil, errors.New("unsupported target architecture: %v", arch)
	}

	inst, err := findVSInstance(arch)
	if err != nil {
		return nil, err
	}

	l, err := findLinkInInstance(inst, arch)
	if err != nil {
		return nil, errors.Wrap(err, "VS %v", inst.Version)
	}

	if err := addSDKs(l, arch); err != nil {
		return nil, err
	}

	return l, nil
}

// addSDKs adds the UCRT and Windows 10 SDK paths to a linker.
func addSDKs(l *Linker, arch string) error {
	subDir := llvmArchToVCSubDir[arch]

	kitsRoot, err := registryString(`SOFTWARE\Microsoft\Windows Kits\Installed Roots`, "KitsRoot10")
	if err != nil {
		return errors.Wrap(err, "find UCRT")
	}

	kitsLib := filepath.Join(kitsRoot, "lib")

	ucrtVersion, err := latestVersionDir(kitsLib, func(name string) bool {
		return strings.HasPrefix(name, "10.") && exists(filepath.Join(kitsLib, name, "ucrt"))
	})
	if err != nil {
		return errors.Wrap(err, "find UCRT")
	}

	l.BinPaths = append(l.BinPaths, filepath.Join(kitsRoot, "bin", ucrtVersion, subDir))
	l.IncludePaths = append(l.IncludePaths, filepath.Join(kitsRoot, "include", ucrtVersion, "ucrt"))
	l.LibPaths = append(l.LibPaths, filepath.Join(kitsLib, ucrtVersion, "ucrt", subDir))

	sdkRoot, err := registryString(`SOFTWARE\Microsoft\Microsoft SDKs\Windows\v10.0`, "InstallationFolder")
	if err != nil {
		return errors.Wrap(err, "find Windows 10 SDK")
	}

	sdkLib := filepath.Join(sdkRoot, "lib")

	sdkVersion, err := latestVersionDir(sdkLib, func(name string) bool {
		return exists(filepath.Join(sdkLib, name, "um", subDir, "kernel32.lib"))
	})
	if err != nil {
		return errors.Wrap(err, "find Windows 10 SDK")
	}

	l.LibPaths = append(l.LibPaths, filepath.Join(sdkLib, sdkVersion, "um", subDir))

	sdkInclude := filepath.Join(sdkRoot, "include", sdkVersion)
	for _, sub := range []string{"um", "shared"} {
		l.IncludePaths = append(l.IncludePaths, filepath.Join(sdkInclude, sub))
	}

	return nil
}

// registryString reads a string value from under HKEY_LOCAL_MACHINE.
func registryString(path, name string) (string, error) {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, path, registry.QUERY_VALUE)
	if err != nil {
		return "", errors.Wrap(err, "open registry key %v", path)
	}
	defer k.Close()

	val, _, err := k.GetStringValue(name)
	if err != nil {
		return "", errors.Wrap(err, "read registry value %v", name)
	}

	return val, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
