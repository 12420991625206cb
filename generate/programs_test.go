package generate

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"acc/irexec"
	"acc/syntax"
)

func TestPrograms(t *testing.T) {
	ar, err := txtar.ParseFile("testdata/programs.txtar")
	require.NoError(t, err)

	files := make(map[string]string, len(ar.Files))
	for _, f := range ar.Files {
		files[f.Name] = strings.TrimSpace(string(f.Data))
	}

	for _, f := range ar.Files {
		name := strings.TrimSuffix(f.Name, ".ac")
		if name == f.Name {
			continue
		}

		t.Run(name, func(t *testing.T) {
			prog, err := syntax.ParseString(string(f.Data))
			require.NoError(t, err)

			g := NewGenerator(nil)
			err = g.LowerProgram(context.Background(), prog, "main")

			var res int64
			if err == nil {
				res, err = irexec.NewMachine(g.Module()).WithMaxSteps(10_000_000).Call("main")
			}

			if want, ok := files[name+".err"]; ok {
				require.Error(t, err)
				assert.Contains(t, err.Error(), want)
				return
			}

			require.NoError(t, err)

			want, err := strconv.ParseInt(files[name+".want"], 10, 64)
			require.NoError(t, err, "missing or malformed %s.want", name)
			assert.Equal(t, want, res)
		})
	}
}
