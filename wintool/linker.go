package wintool

import (
	"os"
	"os/exec"
	"strings"
)

// Linker is a located `link.exe` together with the search paths it must be
// run with.
type Linker struct {
	ToolPath     string
	BinPaths     []string
	LibPaths     []string
	IncludePaths []string
}

// Command creates the command running the linker with args.
func (l *Linker) Command(args ...string) *exec.Cmd {
	cmd := exec.Command(l.ToolPath, args...)
	cmd.Env = mergeEnv(os.Environ(), map[string][]string{
		"PATH":    l.BinPaths,
		"LIB":     l.LibPaths,
		"INCLUDE": l.IncludePaths,
	})

	return cmd
}

// mergeEnv prepends the given search paths to the matching variables of env.
// Variable names are compared case-insensitively as on Windows.
func mergeEnv(env []string, paths map[string][]string) []string {
	merged := make([]string, 0, len(env)+len(paths))
	done := make(map[string]bool, len(paths))

	for _, kv := range env {
		k, v, _ := strings.Cut(kv, "=")

		for pk, pv := range paths {
			if len(pv) != 0 && strings.EqualFold(k, pk) {
				kv = k + "=" + strings.Join(append(pv[:len(pv):len(pv)], v), ";")
				done[pk] = true
				break
			}
		}

		merged = append(merged, kv)
	}

	for _, pk := range []string{"PATH", "LIB", "INCLUDE"} {
		if pv := paths[pk]; len(pv) != 0 && !done[pk] {
			merged = append(merged, pk+"="+strings.Join(pv, ";"))
		}
	}

	return merged
}
