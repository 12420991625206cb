package depm

import (
	"io/fs"
	"path/filepath"

	"tlog.app/go/errors"

	"acc/common"
)

// findSourceFiles returns every source file under the source directory of the
// project in lexical order.
func findSourceFiles(root string) ([]*SourceFile, error) {
	srcDir := filepath.Join(root, common.AccSourceDir)

	var files []*SourceFile
	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || filepath.Ext(path) != common.AccFileExt {
			return nil
		}

		reprPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		files = append(files, &SourceFile{AbsPath: path, ReprPath: filepath.ToSlash(reprPath)})
		return nil
	})

	if err != nil {
		return nil, errors.Wrap(err, "find source files")
	}

	return files, nil
}

// IsValidIdentifier returns whether or not a given string would be a valid
// identifier (project name, function name, etc.).
func IsValidIdentifier(idstr string) bool {
	if idstr == "" {
		return false
	}

	for i, c := range idstr {
		switch {
		case c == '_', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case i > 0 && '0' <= c && c <= '9':
		default:
			return false
		}
	}

	return true
}
