package cmd

import (
	"bufio"
	"io"

	"tlog.app/go/errors"

	"acc/depm"
	"acc/irexec"
)

// hostExit is returned by the `exit` host function to stop the program.
type hostExit struct {
	code int64
}

func (he *hostExit) Error() string {
	return "program exited"
}

// hostFuncs are the external functions the interpreter provides.  Each is
// keyed by name and the arity it must be declared with.
var hostFuncs = map[string]struct {
	arity int
	make  func(in *bufio.Reader, out *bufio.Writer) irexec.HostFunc
}{
	"putchar": {1, func(_ *bufio.Reader, out *bufio.Writer) irexec.HostFunc {
		return func(args ...int64) (int64, error) {
			if err := out.WriteByte(byte(args[0])); err != nil {
				return -1, err
			}

			return args[0] & 0xff, nil
		}
	}},
	"getchar": {0, func(in *bufio.Reader, _ *bufio.Writer) irexec.HostFunc {
		return func(args ...int64) (int64, error) {
			b, err := in.ReadByte()
			if err == io.EOF {
				return -1, nil
			} else if err != nil {
				return -1, err
			}

			return int64(b), nil
		}
	}},
	"exit": {1, func(_ *bufio.Reader, _ *bufio.Writer) irexec.HostFunc {
		return func(args ...int64) (int64, error) {
			return 0, &hostExit{code: args[0]}
		}
	}},
}

// bindHostFuncs binds the host implementation of each of the project's
// external functions.
func bindHostFuncs(m *irexec.Machine, externs []depm.Extern, in *bufio.Reader, out *bufio.Writer) error {
	for _, ext := range externs {
		hf, ok := hostFuncs[ext.Name]
		if !ok {
			return errors.New("no host implementation of external function `%s`", ext.Name)
		}

		if hf.arity != ext.Arity {
			return errors.New("external function `%s` takes %d arguments, declared with %d", ext.Name, hf.arity, ext.Arity)
		}

		m.Bind(ext.Name, hf.make(in, out))
	}

	return nil
}

// runProgram interprets the program's entry function and returns its result
// as the exit code.
func runProgram(c *Compiler, stdin io.Reader, stdout io.Writer, maxSteps int64) (code int64, err error) {
	in := bufio.NewReader(stdin)
	out := bufio.NewWriter(stdout)
	defer func() {
		if ferr := out.Flush(); err == nil {
			err = ferr
		}
	}()

	m := irexec.NewMachine(c.gen.Module())
	if maxSteps > 0 {
		m.WithMaxSteps(maxSteps)
	}

	if err := bindHostFuncs(m, c.proj.Externs, in, out); err != nil {
		return 0, err
	}

	code, err = m.Call(c.proj.Entry)

	var he *hostExit
	if errors.As(err, &he) {
		return he.code, nil
	}

	return code, err
}
