package syntax

import (
	"io"
	"os"
	"strings"

	"tlog.app/go/errors"

	"acc/ast"
)

// stringReader wraps source text held in memory.
func stringReader(src string) io.Reader {
	return strings.NewReader(src)
}

// ParseFile opens and parses the source file at absPath.
func ParseFile(absPath, reprPath string) (*ast.Program, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return nil, errors.Wrap(err, "open source file")
	}
	defer f.Close()

	return NewParser(f, absPath, reprPath).Parse()
}
