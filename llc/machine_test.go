package llc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func answerModule() (*ir.Module, *ir.Func) {
	m := ir.NewModule()
	f := m.NewFunc("main", types.I64)
	f.NewBlock("entry").NewRet(constant.NewInt(types.I64, 42))

	return m, f
}

func TestPassManager(t *testing.T) {
	pm, err := NewPassManager(DefaultPasses)
	require.NoError(t, err)

	_, f := answerModule()
	require.NoError(t, pm.RunOnFunc(f))

	assert.Equal(t, []*ir.Func{f}, pm.Funcs())
	assert.Equal(t, "mem2reg,instcombine,reassociate,gvn,simplifycfg", pm.pipeline())

	decl := ir.NewModule().NewFunc("ext", types.I64)
	assert.Error(t, pm.RunOnFunc(decl))

	_, err = NewPassManager([]string{"gvn,dce"})
	assert.Error(t, err)
}

func TestWriteIR(t *testing.T) {
	m, _ := answerModule()

	path := filepath.Join(t.TempDir(), "main.ll")
	require.NoError(t, WriteIR(m, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "define i64 @main()")
	assert.Contains(t, string(data), "ret i64 42")
}

func TestFindToolFromEnv(t *testing.T) {
	t.Setenv("LLVM_BIN", t.TempDir())

	_, err := FindTool("llc")
	assert.Error(t, err)
}

func TestCompile(t *testing.T) {
	if _, err := FindTool("llc"); err != nil {
		t.Skip("llc is not installed")
	}

	mach, err := NewMachine("", nil)
	require.NoError(t, err)

	m, _ := answerModule()
	out := filepath.Join(t.TempDir(), "main.s")

	require.NoError(t, mach.Compile(context.Background(), m, out, FileTypeAsm))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "main")

	_, err = os.Stat(filepath.Join(filepath.Dir(out), "main.ll"))
	assert.True(t, os.IsNotExist(err), "intermediate module is removed")
}
